package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-peopleflow/internal/config"
)

// Tests here set process environment, so they do not run in parallel.

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestRun_MissingConfig(t *testing.T) {
	t.Setenv(config.PathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	err := run(context.Background())
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestRun_StopsWithContext(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "config.yaml")
	body := fmt.Sprintf("server:\n  host: 127.0.0.1\n  port: %d\ndatabase:\n  path: %s\nexport:\n  output_dir: %s\ndata:\n  base_dir: %s\n",
		freePort(t), filepath.Join(root, "api.db"), filepath.Join(root, "out"), root)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv(config.PathEnvVar, path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, run(ctx))
}
