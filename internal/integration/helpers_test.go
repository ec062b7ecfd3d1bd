package integration

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeAlarms writes an alarm file for the push client.
func writeAlarms(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}
