//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aqasim81/graph-migration-engine/internal/sparql"
)

const (
	virtuosoImage = "tenforce/virtuoso:1.3.2-virtuoso7.2.2"
	sparqlPort    = "8890/tcp"
	appGraph      = "http://mu.semte.ch/application"
)

// SetupVirtuoso starts a Virtuoso container with SPARQL update enabled and
// returns a client for its endpoint. The container is terminated when the
// test completes.
func SetupVirtuoso(t *testing.T) *sparql.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        virtuosoImage,
		ExposedPorts: []string{sparqlPort},
		Env: map[string]string{
			"SPARQL_UPDATE": "true",
			"DEFAULT_GRAPH": appGraph,
		},
		WaitingFor: wait.ForHTTP("/sparql?query=ASK%7B%7D").
			WithPort(sparqlPort).
			WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, sparqlPort)
	require.NoError(t, err)

	client, err := sparql.NewClient("http://"+host+":"+port.Port()+"/sparql", sparql.WithTimeout(time.Minute))
	require.NoError(t, err)

	require.NoError(t, client.Ping(ctx))

	return client
}

// WriteMigrations creates the given files under a fresh directory.
func WriteMigrations(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return dir
}
