package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/burrow/pkg/store"
)

func TestRunExplore_FailsOnEmptyStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "burrow.db")
	s, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	exploreWorkspace = "unused.ws"
	exploreStoreDSN = dbPath
	exploreRun = ""

	cmd := &cobra.Command{}
	err = runExploreCmd(cmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading run")
}
