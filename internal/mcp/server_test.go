package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/subslayer/adapter/cli"
	"github.com/felixgeelhaar/subslayer/pkg/config"
)

func TestNewServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewServer(nil, logger)
	require.Error(t, err)

	app := &cli.App{CurrentUserID: uuid.New()}
	srv, err := NewServer(app, logger)
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.NotEmpty(t, tools)
}

func TestServe_RequiresTokenInProduction(t *testing.T) {
	cfg := &config.Config{AppEnv: "production", MCPAddr: "127.0.0.1:0"}
	err := Serve(context.Background(), cfg, &cli.App{}, nil)
	assert.ErrorContains(t, err, "MCP_AUTH_TOKEN")

	assert.Error(t, Serve(context.Background(), nil, &cli.App{}, nil))
}
