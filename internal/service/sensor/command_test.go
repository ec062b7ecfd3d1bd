package sensor

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

// TestDialAddress fills in a loopback host for wildcard listen addresses.
func TestDialAddress(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                  "",
		":9090":             "127.0.0.1:9090",
		"0.0.0.0:9090":      "127.0.0.1:9090",
		"[::]:9090":         "127.0.0.1:9090",
		"10.0.0.5:9090":     "10.0.0.5:9090",
		"alarms.local:9090": "alarms.local:9090",
		"not-an-address":    "not-an-address",
	}

	for listen, want := range cases {
		require.Equal(t, want, DialAddress(listen), listen)
	}
}

// TestRender writes one JSON document per state.
func TestRender(t *testing.T) {
	t.Parallel()

	state, err := structpb.NewStruct(map[string]any{
		"next_alarm":      "2025-01-06T09:00:00Z",
		"next_alarm_name": "Work",
		"total_alarms":    1,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, render(&out, state))
	require.True(t, json.Valid(out.Bytes()))
	require.Contains(t, out.String(), `"Work"`)
	require.Equal(t, byte('\n'), out.Bytes()[out.Len()-1])
}
