package infodata

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrInvalidItemKind is returned for item kinds other than server, channel or client.
	ErrInvalidItemKind = errors.New("invalid item kind")

	// ErrVariableUnavailable is returned by hosts that have no value for a variable.
	ErrVariableUnavailable = errors.New("variable unavailable")

	// ErrInvalidItemID is returned for item IDs that do not fit the item kind.
	ErrInvalidItemID = errors.New("invalid item id")
)

// Host is the query interface the TeamSpeak client exposes to plugins.
// Every query either returns a value or an error, never both.
type Host interface {
	ServerVariable(ctx context.Context, conn ConnectionID, v Variable) (Value, error)
	ChannelVariable(ctx context.Context, conn ConnectionID, channelID uint64, v Variable) (Value, error)
	ClientVariable(ctx context.Context, conn ConnectionID, clientID ClientID, v Variable) (Value, error)

	// ConnectionVariable reads from connection info previously requested
	// with RequestConnectionInfo.
	ConnectionVariable(ctx context.Context, conn ConnectionID, clientID ClientID, v Variable) (Value, error)

	OwnClientID(ctx context.Context, conn ConnectionID) (ClientID, error)
	RequestConnectionInfo(ctx context.Context, conn ConnectionID, clientID ClientID) error
	CleanUpConnectionInfo(ctx context.Context, conn ConnectionID, clientID ClientID) error
}

// CallCache is scratch space shared by all host queries of one Format call.
// Hosts may use it to answer several fields from a single reply.
type CallCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

type callCacheKey struct{}

func withCallCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, callCacheKey{}, &CallCache{entries: make(map[string]interface{})})
}

// CallCacheFrom returns the cache of the Format call ctx belongs to, or nil
// outside of one.
func CallCacheFrom(ctx context.Context) *CallCache {
	c, _ := ctx.Value(callCacheKey{}).(*CallCache)
	return c
}

// Load returns the entry stored under key.
func (c *CallCache) Load(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]

	return v, ok
}

// Store sets the entry for key.
func (c *CallCache) Store(key string, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = v
}
