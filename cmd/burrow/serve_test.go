package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/burrow/pkg/serve"
)

func TestRunServe_ReadyThenEOF(t *testing.T) {
	resetExplodeState(t, "unused")
	serveWorkspace = filepath.Join(t.TempDir(), "ws")

	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := runServe(cmd, []string{})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"type":"ready"`)
	assert.Contains(t, out.String(), serve.Version)
}

func TestRunServe_CloseRequest(t *testing.T) {
	resetExplodeState(t, "unused")
	serveWorkspace = filepath.Join(t.TempDir(), "ws")

	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(`{"type":"close"}` + "\n"))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := runServe(cmd, []string{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"type":"ready"`)
}

func TestRunServe_StatusRequest(t *testing.T) {
	resetExplodeState(t, "unused")
	serveWorkspace = filepath.Join(t.TempDir(), "ws")

	input := `{"type":"status"}` + "\n" + `{"type":"close"}` + "\n"

	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := runServe(cmd, []string{})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"type":"status"`)
	assert.Contains(t, out.String(), "native")
}
