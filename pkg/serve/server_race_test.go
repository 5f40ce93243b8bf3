package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServer_Explode_DrainsPendingOnEOF tests that explode responses are sent
// even when EOF arrives before the main loop processes the pending request.
// This test fails without the drain step in the EOF path.
func TestServer_Explode_DrainsPendingOnEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text\n"), 0o644))

	// Run the test multiple times to trigger the race condition
	for i := range 10 {
		request := fmt.Sprintf(`{"type":"explode","payload":{"path":%q}}`, path) + "\n"
		in := strings.NewReader(request)
		out := &bytes.Buffer{}

		srv := newTestServer(t, in, out)
		err := srv.Run(context.Background())
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2, "iteration %d: expected 2 lines (ready + explode response), got %d", i, len(lines))

		var resp Response
		err = json.Unmarshal([]byte(lines[1]), &resp)
		require.NoError(t, err, "iteration %d: failed to unmarshal response", i)

		assert.True(t, resp.Success, "iteration %d: expected success", i)
		assert.Equal(t, "explode", resp.Type, "iteration %d: expected explode type", i)
	}
}
