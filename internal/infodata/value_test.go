package infodata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		kind     ValueKind
		raw      string
		expected string
		wantErr  bool
	}{
		{"String", KindString, "Lobby", "Lobby", false},
		{"Empty string", KindString, "", "", false},
		{"Int", KindInt, "-12", "-12", false},
		{"Int garbage", KindInt, "twelve", "", true},
		{"Uint64 max", KindUint64, "18446744073709551615", "18446744073709551615", false},
		{"Uint64 negative", KindUint64, "-1", "", true},
		{"Double truncated", KindDouble, "57.4", "57", false},
		{"Double negative truncates toward zero", KindDouble, "-2.9", "-2", false},
		{"Double garbage", KindDouble, "fast", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue(tt.kind, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.kind, v.Kind())
			require.Equal(t, tt.expected, v.String())
		})
	}
}

func TestParseItemKind(t *testing.T) {
	for name, want := range map[string]ItemKind{"server": ItemServer, "Channel": ItemChannel, "CLIENT": ItemClient} {
		got, err := ParseItemKind(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseItemKind("group")
	require.ErrorIs(t, err, ErrInvalidItemKind)
}

func TestFieldsReturnsCopy(t *testing.T) {
	fields, err := Fields(ItemServer)
	require.NoError(t, err)

	fields[0].Label = "changed"

	again, err := Fields(ItemServer)
	require.NoError(t, err)
	require.Equal(t, "ServerUID", again[0].Label)
}

func TestFieldLabelsUniquePerKind(t *testing.T) {
	for _, kind := range []ItemKind{ItemServer, ItemChannel, ItemClient} {
		fields, err := Fields(kind)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for _, f := range fields {
			require.False(t, seen[f.Label], "duplicate label %q in %s", f.Label, kind)
			seen[f.Label] = true
		}
	}
}
