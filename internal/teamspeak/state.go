package teamspeak

import (
	"context"
	"fmt"
	"strings"

	ts3 "github.com/multiplay/go-ts3"

	"github.com/samcm/ts3-infodata/internal/infodata"
)

// attributes is one ServerQuery reply record (serverinfo, channelinfo,
// clientinfo, whoami) keyed by property name. Values stay as the server sent
// them; infodata.ParseValue types them per field.
type attributes map[string]string

// parseReply reads the first record of a ServerQuery reply. Properties are
// space separated key=value pairs, records are separated by '|'.
func parseReply(lines []string) (attributes, error) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("empty reply")
	}

	record, _, _ := strings.Cut(lines[0], "|")

	attrs := make(attributes)
	for _, pair := range strings.Fields(record) {
		key, val, _ := strings.Cut(pair, "=")
		attrs[ts3.Decode(key)] = ts3.Decode(val)
	}

	return attrs, nil
}

func (a attributes) value(v infodata.Variable) (infodata.Value, error) {
	raw, ok := a[v.Name]
	if !ok {
		return infodata.Value{}, fmt.Errorf("%w: %s", infodata.ErrVariableUnavailable, v.Name)
	}

	val, err := infodata.ParseValue(v.Kind, raw)
	if err != nil {
		return infodata.Value{}, fmt.Errorf("%s: %w", v.Name, err)
	}

	return val, nil
}

func (a attributes) clone() attributes {
	c := make(attributes, len(a))
	for k, v := range a {
		c[k] = v
	}

	return c
}

// cached answers key from the Format call's cache when there is one, so each
// command is sent once per rendered item.
func cached(ctx context.Context, key string, fetch func() (attributes, error)) (attributes, error) {
	cache := infodata.CallCacheFrom(ctx)
	if cache != nil {
		if v, ok := cache.Load(key); ok {
			return v.(attributes), nil
		}
	}

	attrs, err := fetch()
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache.Store(key, attrs)
	}

	return attrs, nil
}

// connKey identifies cached connection info.
type connKey struct {
	conn   infodata.ConnectionID
	client infodata.ClientID
}
