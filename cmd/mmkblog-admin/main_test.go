package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-blog/config"
	"github.com/target/mmk-blog/internal/testutil"
)

type fakeCLI struct {
	ctx       *commandContext
	out       bytes.Buffer
	errOut    bytes.Buffer
	connected int
}

func newFakeCLI(t *testing.T, host, stdin string) *fakeCLI {
	t.Helper()
	db, _ := testutil.NewCountingDB(t)
	f := &fakeCLI{}
	f.ctx = &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.DiscardHandler),
		Config: config.AppConfig{Postgres: config.DBConfig{Host: host, Port: 5432, Name: "mmkblog", User: "mmkblog"}},
		Stdin:  strings.NewReader(stdin),
		Stdout: &f.out,
		Stderr: &f.errOut,
		connect: func(*commandContext) (*sql.DB, error) {
			f.connected++
			return db, nil
		},
	}
	return f
}

func TestParseInitDBFlags(t *testing.T) {
	opts, err := parseInitDBFlags([]string{"--yes", "--allow-remote", "--timeout", "30s"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, initDBOptions{Timeout: 30 * time.Second, Yes: true, AllowRemote: true}, opts)

	opts, err = parseInitDBFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)
	assert.False(t, opts.Yes)

	_, err = parseInitDBFlags([]string{"--timeout", "0s"}, io.Discard)
	require.Error(t, err)
}

func TestParseMigrateFlags(t *testing.T) {
	_, err := parseMigrateFlags([]string{"--bogus"}, io.Discard)
	require.Error(t, err)

	opts, err := parseMigrateFlags([]string{"--timeout", "1m"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, opts.Timeout)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":               false,
		"localhost":      false,
		"LOCALHOST":      false,
		"127.0.0.1":      false,
		"127.0.0.2":      false,
		"::1":            false,
		"db.local":       false,
		"10.1.2.3":       true,
		"db.example.com": true,
		"postgres":       true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestResetStatements(t *testing.T) {
	stmts := resetStatements(config.DBConfig{User: `we"ird`})
	assert.Equal(t, []string{
		"DROP SCHEMA IF EXISTS public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO public",
		`GRANT ALL ON SCHEMA public TO "we""ird"`,
	}, stmts)

	assert.Len(t, resetStatements(config.DBConfig{User: "public"}), 3)
}

func TestRunInitDB_DeclinedPromptTouchesNothing(t *testing.T) {
	f := newFakeCLI(t, "localhost", "n\n")

	err := runInitDB(f.ctx, nil)

	require.EqualError(t, err, "aborted by user")
	assert.Zero(t, f.connected)
	assert.Contains(t, f.out.String(), `About to drop all users and posts in database "mmkblog" on localhost:5432.`)
}

func TestRunInitDB_ConfirmedRunsReset(t *testing.T) {
	f := newFakeCLI(t, "localhost", "yes\n")

	err := runInitDB(f.ctx, nil)

	// The counting driver rejects statements, so the first DROP fails after connecting.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DROP SCHEMA IF EXISTS public CASCADE")
	assert.Equal(t, 1, f.connected)
}

func TestRunInitDB_YesSkipsPrompt(t *testing.T) {
	f := newFakeCLI(t, "localhost", "")

	err := runInitDB(f.ctx, []string{"--yes"})

	require.Error(t, err)
	assert.Equal(t, 1, f.connected)
	assert.Empty(t, f.out.String())
}

func TestRunInitDB_RemoteHost(t *testing.T) {
	t.Run("refused without allow-remote", func(t *testing.T) {
		f := newFakeCLI(t, "db.example.com", "")
		err := runInitDB(f.ctx, []string{"--yes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--allow-remote")
		assert.Zero(t, f.connected)
	})

	t.Run("wrong host typed", func(t *testing.T) {
		f := newFakeCLI(t, "db.example.com", "other\n")
		err := runInitDB(f.ctx, []string{"--yes", "--allow-remote"})
		require.EqualError(t, err, "aborted by user")
		assert.Zero(t, f.connected)
	})

	t.Run("yes does not skip the prompt for remote hosts", func(t *testing.T) {
		f := newFakeCLI(t, "db.example.com", "db.example.com\nn\n")
		err := runInitDB(f.ctx, []string{"--yes", "--allow-remote"})
		require.EqualError(t, err, "aborted by user")
		assert.Contains(t, f.out.String(), "Continue? [y/N]")
		assert.Zero(t, f.connected)
	})

	t.Run("both prompts answered", func(t *testing.T) {
		f := newFakeCLI(t, "db.example.com", "db.example.com\ny\n")
		err := runInitDB(f.ctx, []string{"--allow-remote"})
		require.Error(t, err, "fails at the first statement")
		assert.Equal(t, 1, f.connected)
	})
}

func TestRunMigrations_ConnectFailure(t *testing.T) {
	f := newFakeCLI(t, "localhost", "")
	f.ctx.connect = func(*commandContext) (*sql.DB, error) { return nil, errors.New("refused") }

	err := runMigrations(f.ctx, nil)

	require.EqualError(t, err, "connect db: refused")
}

func TestPrintUsage_ListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: mmkblog-admin <command> [flags]")
	initIdx := strings.Index(out, "init-db")
	migrateIdx := strings.Index(out, "migrate")
	assert.True(t, initIdx > 0 && migrateIdx > initIdx)
}
