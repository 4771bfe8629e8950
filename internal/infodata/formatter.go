package infodata

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// DefaultPingSettleDelay is how long the formatter waits after requesting
// connection info before it samples the ping.
const DefaultPingSettleDelay = time.Second

// Option configures a Formatter.
type Option func(*Formatter)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Formatter) {
		f.log = log.WithField("component", "infodata")
	}
}

// WithPingSettleDelay overrides DefaultPingSettleDelay. Zero disables the wait.
func WithPingSettleDelay(d time.Duration) Option {
	return func(f *Formatter) {
		f.settleDelay = d
	}
}

// Formatter renders the info text for an item by walking its field table.
type Formatter struct {
	host        Host
	log         logrus.FieldLogger
	settleDelay time.Duration
}

// NewFormatter creates a Formatter that queries host.
func NewFormatter(host Host, opts ...Option) *Formatter {
	f := &Formatter{
		host:        host,
		log:         logrus.StandardLogger().WithField("component", "infodata"),
		settleDelay: DefaultPingSettleDelay,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Format returns the info text for the item. A failed query drops its line
// and never aborts the rest. Only an unknown kind, a client ID outside the
// 16-bit range or a cancelled context makes Format fail.
func (f *Formatter) Format(ctx context.Context, conn ConnectionID, id uint64, kind ItemKind) (string, error) {
	fields, err := Fields(kind)
	if err != nil {
		f.log.WithField("type", int(kind)).Warn("Invalid item type")
		return "", err
	}

	if kind == ItemClient && id > math.MaxUint16 {
		f.log.WithField("id", id).Warn("Client ID out of range")
		return "", fmt.Errorf("%w: client id %d exceeds %d", ErrInvalidItemID, id, math.MaxUint16)
	}

	ctx = withCallCache(ctx)

	q := &query{
		f:         f,
		conn:      conn,
		id:        id,
		requested: make(map[ClientID]struct{}),
	}
	defer q.cleanUp(ctx)

	if kind == ItemClient {
		q.requestConnectionInfo(ctx, ClientID(id))
	}

	lines := make([]string, 0, len(fields))

	for _, field := range fields {
		val, err := q.lookup(ctx, field)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}

			f.log.WithFields(logrus.Fields{
				"label":    field.Label,
				"variable": field.Variable.Name,
				"conn":     conn,
				"id":       id,
			}).WithError(err).Debug("Skipping field")

			continue
		}

		lines = append(lines, field.Label+" = "+truncate(val, field.MaxLen))
	}

	return strings.Join(lines, "\n"), nil
}

// query holds the per-call state of one Format invocation.
type query struct {
	f         *Formatter
	conn      ConnectionID
	id        uint64
	requested map[ClientID]struct{}
	settled   bool
	own       *ClientID
}

func (q *query) lookup(ctx context.Context, field Field) (string, error) {
	host := q.f.host

	if field.Settle && !q.settled {
		if err := q.f.sleep(ctx); err != nil {
			return "", err
		}

		q.settled = true
	}

	var (
		val Value
		err error
	)

	switch field.Scope {
	case ScopeItem:
		return strconv.FormatUint(q.id, 10), nil
	case ScopeServer:
		val, err = host.ServerVariable(ctx, q.conn, field.Variable)
	case ScopeChannel:
		val, err = host.ChannelVariable(ctx, q.conn, q.id, field.Variable)
	case ScopeClient:
		val, err = host.ClientVariable(ctx, q.conn, ClientID(q.id), field.Variable)
	case ScopeConnection:
		clientID := ClientID(q.id)
		q.requestConnectionInfo(ctx, clientID)
		val, err = host.ConnectionVariable(ctx, q.conn, clientID, field.Variable)
	case ScopeOwnConnection:
		clientID, ownErr := q.ownClientID(ctx)
		if ownErr != nil {
			return "", ownErr
		}

		q.requestConnectionInfo(ctx, clientID)
		val, err = host.ConnectionVariable(ctx, q.conn, clientID, field.Variable)
	default:
		return "", fmt.Errorf("unknown scope %d", int(field.Scope))
	}

	if err != nil {
		return "", err
	}

	return val.String(), nil
}

func (q *query) ownClientID(ctx context.Context) (ClientID, error) {
	if q.own != nil {
		return *q.own, nil
	}

	id, err := q.f.host.OwnClientID(ctx, q.conn)
	if err != nil {
		return 0, fmt.Errorf("failed to get own client id: %w", err)
	}

	q.own = &id

	return id, nil
}

// requestConnectionInfo asks the host once per client. A failed request is
// only logged; the following reads report their own errors.
func (q *query) requestConnectionInfo(ctx context.Context, clientID ClientID) {
	if _, ok := q.requested[clientID]; ok {
		return
	}

	q.requested[clientID] = struct{}{}

	if err := q.f.host.RequestConnectionInfo(ctx, q.conn, clientID); err != nil {
		q.f.log.WithField("client_id", clientID).WithError(err).Debug("Failed to request connection info")
	}
}

func (q *query) cleanUp(ctx context.Context) {
	for clientID := range q.requested {
		if err := q.f.host.CleanUpConnectionInfo(context.WithoutCancel(ctx), q.conn, clientID); err != nil {
			q.f.log.WithField("client_id", clientID).WithError(err).Debug("Failed to clean up connection info")
		}
	}
}

func (f *Formatter) sleep(ctx context.Context) error {
	if f.settleDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(f.settleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}

	return s[:max]
}
