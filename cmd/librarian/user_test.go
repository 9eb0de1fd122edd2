package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadPassword_FromPipe(t *testing.T) {
	var prompt bytes.Buffer
	pw, err := readPassword(strings.NewReader("s3cret\r\nignored\n"), &prompt)
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)
	require.Empty(t, prompt.String())
}

func TestReadPassword_NoTrailingNewline(t *testing.T) {
	pw, err := readPassword(strings.NewReader("s3cret"), &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "create-user"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())
	}
}

func TestCreateUser_RequiresUsername(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"create-user"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	require.ErrorContains(t, root.Execute(), "username")
}

func TestBootstrap_InvalidConfigOpensNothing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dbPath)
	t.Setenv("JWT_SECRET", "")

	_, _, store, err := bootstrap(context.Background())
	require.ErrorContains(t, err, "JWT_SECRET is required")
	require.Nil(t, store)

	_, statErr := os.Stat(dbPath)
	require.True(t, os.IsNotExist(statErr), "store must not be created before config is valid")
}

func TestMigrate_RejectsInvalidConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dbPath)
	t.Setenv("JWT_SECRET", "")

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	require.ErrorContains(t, root.Execute(), "invalid configuration")

	_, statErr := os.Stat(dbPath)
	require.True(t, os.IsNotExist(statErr))
}
