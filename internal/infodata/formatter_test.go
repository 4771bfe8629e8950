package infodata

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var errStub = errors.New("stub failure")

type stubHost struct {
	values    map[string]Value
	fail      map[string]bool
	ownID     ClientID
	ownErr    error
	reqErr    error
	requests  []ClientID
	cleanups  []ClientID
	lookups   []string
	channelID uint64
	caches    map[*CallCache]int
}

func newStubHost() *stubHost {
	return &stubHost{
		values: make(map[string]Value),
		fail:   make(map[string]bool),
		caches: make(map[*CallCache]int),
		ownID:  7,
	}
}

func (h *stubHost) get(v Variable) (Value, error) {
	h.lookups = append(h.lookups, v.Name)

	if h.fail[v.Name] {
		return Value{}, errStub
	}

	if val, ok := h.values[v.Name]; ok {
		return val, nil
	}

	switch v.Kind {
	case KindInt:
		return IntValue(1), nil
	case KindUint64:
		return Uint64Value(2), nil
	case KindDouble:
		return DoubleValue(3.9), nil
	default:
		return StringValue("v-" + v.Name), nil
	}
}

func (h *stubHost) ServerVariable(ctx context.Context, _ ConnectionID, v Variable) (Value, error) {
	h.caches[CallCacheFrom(ctx)]++
	return h.get(v)
}

func (h *stubHost) ChannelVariable(_ context.Context, _ ConnectionID, channelID uint64, v Variable) (Value, error) {
	h.channelID = channelID
	return h.get(v)
}

func (h *stubHost) ClientVariable(ctx context.Context, _ ConnectionID, _ ClientID, v Variable) (Value, error) {
	h.caches[CallCacheFrom(ctx)]++
	return h.get(v)
}

func (h *stubHost) ConnectionVariable(_ context.Context, _ ConnectionID, _ ClientID, v Variable) (Value, error) {
	return h.get(v)
}

func (h *stubHost) OwnClientID(context.Context, ConnectionID) (ClientID, error) {
	return h.ownID, h.ownErr
}

func (h *stubHost) RequestConnectionInfo(_ context.Context, _ ConnectionID, clientID ClientID) error {
	h.requests = append(h.requests, clientID)
	return h.reqErr
}

func (h *stubHost) CleanUpConnectionInfo(_ context.Context, _ ConnectionID, clientID ClientID) error {
	h.cleanups = append(h.cleanups, clientID)
	return nil
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func newTestFormatter(host Host) *Formatter {
	return NewFormatter(host, WithLogger(quietLogger()), WithPingSettleDelay(0))
}

func labelsOf(text string) []string {
	var labels []string

	for _, line := range strings.Split(text, "\n") {
		label, _, ok := strings.Cut(line, " = ")
		if ok {
			labels = append(labels, label)
		}
	}

	return labels
}

func allLabels(t *testing.T, kind ItemKind) []string {
	t.Helper()

	fields, err := Fields(kind)
	require.NoError(t, err)

	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, f.Label)
	}

	return labels
}

func TestFormatAllFieldsInOrder(t *testing.T) {
	for _, kind := range []ItemKind{ItemServer, ItemChannel, ItemClient} {
		t.Run(kind.String(), func(t *testing.T) {
			text, err := newTestFormatter(newStubHost()).Format(context.Background(), 1, 5, kind)
			require.NoError(t, err)
			require.Equal(t, allLabels(t, kind), labelsOf(text))
			require.False(t, strings.HasSuffix(text, "\n"))
		})
	}
}

func TestFormatSingleFailureOmitsOnlyThatField(t *testing.T) {
	for _, kind := range []ItemKind{ItemServer, ItemChannel, ItemClient} {
		fields, err := Fields(kind)
		require.NoError(t, err)

		for i, field := range fields {
			if field.Scope == ScopeItem {
				continue
			}

			t.Run(kind.String()+"/"+field.Label, func(t *testing.T) {
				host := newStubHost()
				host.fail[field.Variable.Name] = true

				text, err := newTestFormatter(host).Format(context.Background(), 1, 5, kind)
				require.NoError(t, err)

				want := allLabels(t, kind)
				want = append(want[:i:i], want[i+1:]...)
				require.Equal(t, want, labelsOf(text))
			})
		}
	}
}

func TestFormatInvalidKind(t *testing.T) {
	host := newStubHost()

	text, err := newTestFormatter(host).Format(context.Background(), 1, 5, ItemKind(42))
	require.ErrorIs(t, err, ErrInvalidItemKind)
	require.Empty(t, text)
	require.Empty(t, host.lookups)
	require.Empty(t, host.requests)
}

func TestFormatClientScenario(t *testing.T) {
	host := newStubHost()
	host.values["client_unique_identifier"] = StringValue("abc123")
	host.values["client_database_id"] = IntValue(42)
	host.values["connection_ping"] = DoubleValue(57.4)

	text, err := newTestFormatter(host).Format(context.Background(), 1, 12, ItemClient)
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	require.Contains(t, lines, "Client ID = 12")
	require.Contains(t, lines, "UID = abc123")
	require.Contains(t, lines, "DBID = 42")
	require.Contains(t, lines, "Ping = 57")
	require.NotContains(t, text, "57.4")

	require.Equal(t, []ClientID{12}, host.requests)
	require.Equal(t, []ClientID{12}, host.cleanups)
}

func TestFormatChannelScenario(t *testing.T) {
	host := newStubHost()
	host.fail["channel_order"] = true
	host.values["channel_name_phonetic"] = StringValue("Lobby")

	text, err := newTestFormatter(host).Format(context.Background(), 1, 3, ItemChannel)
	require.NoError(t, err)
	require.NotContains(t, text, "Order ID")
	require.Contains(t, strings.Split(text, "\n"), "Phoetic Channelname = Lobby")
	require.Equal(t, "Channel ID = 3", strings.Split(text, "\n")[0])
	require.Equal(t, uint64(3), host.channelID)
	require.Empty(t, host.requests)
}

func TestFormatClientLateFailureDoesNotAbort(t *testing.T) {
	host := newStubHost()
	host.fail["client_nickname_phonetic"] = true
	host.fail["client_version_sign"] = true

	text, err := newTestFormatter(host).Format(context.Background(), 1, 4, ItemClient)
	require.NoError(t, err)
	require.NotContains(t, text, "Phonetic Nickname")
	require.Contains(t, text, "Client metadata = v-client_meta_data")
}

func TestFormatClientRequestFailureStillReads(t *testing.T) {
	host := newStubHost()
	host.reqErr = errStub

	text, err := newTestFormatter(host).Format(context.Background(), 1, 4, ItemClient)
	require.NoError(t, err)
	require.Contains(t, text, "Ping = 3")
	require.Equal(t, []ClientID{4}, host.cleanups)
}

func TestFormatServerUsesOwnConnection(t *testing.T) {
	host := newStubHost()
	host.values["connection_server_ip"] = StringValue("10.0.0.1")

	text, err := newTestFormatter(host).Format(context.Background(), 1, 0, ItemServer)
	require.NoError(t, err)
	require.Contains(t, text, "Serverip = 10.0.0.1")
	require.Equal(t, []ClientID{7}, host.requests)
	require.Equal(t, []ClientID{7}, host.cleanups)
}

func TestFormatServerOwnIDFailure(t *testing.T) {
	host := newStubHost()
	host.ownErr = errStub

	text, err := newTestFormatter(host).Format(context.Background(), 1, 0, ItemServer)
	require.NoError(t, err)
	require.Equal(t, []string{"ServerUID", "Virtualserver ID", "Virtualserver Port"}, labelsOf(text))
	require.Empty(t, host.requests)
}

func TestFormatServerGroupsTruncated(t *testing.T) {
	host := newStubHost()
	host.values["client_servergroups"] = StringValue(strings.Repeat("12,", 30))

	text, err := newTestFormatter(host).Format(context.Background(), 1, 4, ItemClient)
	require.NoError(t, err)
	require.Contains(t, strings.Split(text, "\n"), "ServGroups = "+strings.Repeat("12,", 30)[:40])
}

func TestFormatCancelledDuringSettle(t *testing.T) {
	host := newStubHost()
	f := NewFormatter(host, WithLogger(quietLogger()), WithPingSettleDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text, err := f.Format(ctx, 1, 4, ItemClient)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, text)
	require.Equal(t, []ClientID{4}, host.cleanups)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		expected string
	}{
		{"No limit", "abcdef", 0, "abcdef"},
		{"Shorter than limit", "abc", 5, "abc"},
		{"Cut ASCII", "abcdef", 4, "abcd"},
		{"Does not split rune", "aé", 2, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, truncate(tt.in, tt.max))
		})
	}
}

func TestFormatClientIDOutOfRange(t *testing.T) {
	host := newStubHost()

	text, err := newTestFormatter(host).Format(context.Background(), 1, 70000, ItemClient)
	require.ErrorIs(t, err, ErrInvalidItemID)
	require.Empty(t, text)
	require.Empty(t, host.lookups)
	require.Empty(t, host.requests)
	require.Empty(t, host.cleanups)

	text, err = newTestFormatter(host).Format(context.Background(), 1, 65535, ItemClient)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "Client ID = 65535\n"))
	require.Equal(t, []ClientID{65535}, host.requests)
}

func TestFormatChannelIDNotLimited(t *testing.T) {
	text, err := newTestFormatter(newStubHost()).Format(context.Background(), 1, 70000, ItemChannel)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "Channel ID = 70000\n"))
}

func TestFormatSharesOneCallCachePerCall(t *testing.T) {
	host := newStubHost()
	f := newTestFormatter(host)

	_, err := f.Format(context.Background(), 1, 4, ItemClient)
	require.NoError(t, err)
	_, err = f.Format(context.Background(), 1, 0, ItemServer)
	require.NoError(t, err)

	require.Len(t, host.caches, 2)

	for cache, n := range host.caches {
		require.NotNil(t, cache)
		require.Greater(t, n, 1)
	}

	require.Nil(t, CallCacheFrom(context.Background()))
}

func TestCallCache(t *testing.T) {
	cache := CallCacheFrom(withCallCache(context.Background()))
	require.NotNil(t, cache)

	_, ok := cache.Load("serverinfo")
	require.False(t, ok)

	cache.Store("serverinfo", 1)

	v, ok := cache.Load("serverinfo")
	require.True(t, ok)
	require.Equal(t, 1, v)
}
