package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/pkg/auth"
)

func passwords(pw ...string) func(int) ([]byte, error) {
	i := 0
	return func(int) ([]byte, error) {
		p := pw[i]
		i++
		return []byte(p), nil
	}
}

func TestCommandLine_Usage(t *testing.T) {
	var out bytes.Buffer
	cli := newCommandLine(&out)

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin"}), errHelp)
	assert.Contains(t, out.String(), "hash-password")

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "unknown"}), errHelp)
}

func TestCommandLine_HashPassword(t *testing.T) {
	var out bytes.Buffer
	cli := newCommandLine(&out)
	cli.readPassword = passwords("correct horse", "correct horse")
	cli.hash = func(p string) (string, error) { return "hashed:" + p, nil }

	require.NoError(t, cli.run(context.Background(), []string{"admin", "hash-password"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "hashed:correct horse", lines[len(lines)-1])
}

func TestCommandLine_HashPasswordProducesBcrypt(t *testing.T) {
	var out bytes.Buffer
	cli := newCommandLine(&out)
	cli.readPassword = passwords("pw", "pw")

	require.NoError(t, cli.run(context.Background(), []string{"admin", "hash-password"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, auth.CheckPassword(lines[len(lines)-1], "pw"))
}

func TestCommandLine_HashPasswordMismatch(t *testing.T) {
	cli := newCommandLine(&bytes.Buffer{})
	cli.readPassword = passwords("one", "two")
	assert.EqualError(t, cli.run(context.Background(), []string{"admin", "hash-password"}), "passwords do not match")

	cli.readPassword = passwords("")
	assert.Error(t, cli.run(context.Background(), []string{"admin", "hash-password"}))
}

func TestCommandLine_Migrate(t *testing.T) {
	var out bytes.Buffer
	cli := newCommandLine(&out)
	var got string
	cli.migrate = func(_ context.Context, direction string) (int64, error) {
		got = direction
		return 2, nil
	}

	require.NoError(t, cli.run(context.Background(), []string{"admin", "migrate"}))
	assert.Equal(t, "up", got)
	assert.Contains(t, out.String(), "schema version: 2")

	require.NoError(t, cli.run(context.Background(), []string{"admin", "migrate", "-direction", "down"}))
	assert.Equal(t, "down", got)

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "migrate", "-direction", "sideways"}), errHelp)
}

func TestCommandLine_SyncCustomers(t *testing.T) {
	var out bytes.Buffer
	cli := newCommandLine(&out)
	cli.sync = func(context.Context) (*dto.SyncResult, error) {
		return &dto.SyncResult{Fetched: 5, Created: 3, Skipped: 2}, nil
	}

	require.NoError(t, cli.run(context.Background(), []string{"admin", "sync-customers"}))
	assert.Contains(t, out.String(), "fetched: 5, created: 3, skipped: 2")

	cli.sync = func(context.Context) (*dto.SyncResult, error) { return nil, errors.New("boom") }
	assert.EqualError(t, cli.run(context.Background(), []string{"admin", "sync-customers"}), "boom")
}
