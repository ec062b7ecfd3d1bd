package push

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectSource ensures user and host are detected and non-empty.
func TestDetectSource(t *testing.T) {
	t.Parallel()

	source, err := DetectSource()
	require.NoError(t, err)

	username, hostname, ok := strings.Cut(source, "@")
	require.True(t, ok)
	require.NotEmpty(t, username)
	require.NotEmpty(t, hostname)
}
