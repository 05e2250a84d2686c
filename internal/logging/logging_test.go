package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/graph-migration-engine/internal/logging"
)

func TestNew_defaultLevelIsInfo(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	logger, closer, err := logging.New(logging.Config{Console: buf, NoColor: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	logger.Debug().Msg("hidden")
	logger.Info().Msg("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_debugLevel_logsDebug(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	logger, closer, err := logging.New(logging.Config{Level: "DEBUG", Console: buf, NoColor: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	logger.Debug().Msg("details")

	assert.Contains(t, buf.String(), "details")
}

func TestNew_invalidLevel_returnsError(t *testing.T) {
	t.Parallel()

	_, closer, err := logging.New(logging.Config{Level: "chatty"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing log level")
	require.NotNil(t, closer)
	assert.NoError(t, closer.Close())
}

func TestNew_withFile_writesJSONLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "migrate.log")
	logger, closer, err := logging.New(logging.Config{File: path, Console: new(bytes.Buffer)})
	require.NoError(t, err)

	logger.Info().Str("filename", "001-init.sparql").Msg("applied")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"filename":"001-init.sparql"`)
	assert.Contains(t, string(data), `"message":"applied"`)
}

func TestComponent_addsField(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	logger, closer, err := logging.New(logging.Config{Console: buf, NoColor: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	l := logging.Component(logger, "bulkload")
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), "component=bulkload")
}
