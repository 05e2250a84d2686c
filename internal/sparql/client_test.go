package sparql_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/graph-migration-engine/internal/sparql"
)

// recordedRequest captures what a fake endpoint received.
type recordedRequest struct {
	query  string
	update string
	header http.Header
}

// fakeEndpoint serves a canned body and records every request.
type fakeEndpoint struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []recordedRequest
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		query:  r.PostForm.Get("query"),
		update: r.PostForm.Get("update"),
		header: r.Header.Clone(),
	})
	f.mu.Unlock()

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/sparql-results+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(f.body))
}

func (f *fakeEndpoint) last(t *testing.T) recordedRequest {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.requests)

	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, fe *fakeEndpoint, opts ...sparql.Option) *sparql.Client {
	t.Helper()

	srv := httptest.NewServer(fe)
	t.Cleanup(srv.Close)

	c, err := sparql.NewClient(srv.URL+"/sparql", opts...)
	require.NoError(t, err)

	return c
}

func TestNewClient_invalidEndpoint_returnsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "empty", endpoint: ""},
		{name: "relative path", endpoint: "/sparql"},
		{name: "unsupported scheme", endpoint: "ftp://host/sparql"},
		{name: "unparseable", endpoint: "http://[::1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := sparql.NewClient(tt.endpoint)
			require.ErrorIs(t, err, sparql.ErrInvalidEndpoint)
		})
	}
}

func TestNewClient_validEndpoint_keepsURL(t *testing.T) {
	t.Parallel()

	c, err := sparql.NewClient("http://database:8890/sparql")

	require.NoError(t, err)
	assert.Equal(t, "http://database:8890/sparql", c.Endpoint())
}

func TestAsk_returnsBoolean(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{body: `{"head":{},"boolean":true}`}
	c := newTestClient(t, fe)

	ok, err := c.Ask(context.Background(), "ASK { ?s ?p ?o }")

	require.NoError(t, err)
	assert.True(t, ok)

	req := fe.last(t)
	assert.Equal(t, "ASK { ?s ?p ?o }", req.query)
	assert.Equal(t, "application/sparql-results+json", req.header.Get("Accept"))
}

func TestAsk_missingBoolean_returnsMalformed(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{body: `{"head":{}}`}
	c := newTestClient(t, fe)

	_, err := c.Ask(context.Background(), "ASK {}")

	require.ErrorIs(t, err, sparql.ErrMalformedResponse)
}

func TestSelect_parsesBindings(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{body: `{
		"head": {"vars": ["filename", "count"]},
		"results": {"bindings": [
			{"filename": {"type": "literal", "value": "001-init.sparql"}},
			{"filename": {"type": "literal", "value": "002-seed.ttl"}, "count": {"type": "typed-literal", "value": "3"}}
		]}
	}`}
	c := newTestClient(t, fe)

	rows, err := c.Select(context.Background(), "SELECT ?filename WHERE { ?s ?p ?filename }")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "001-init.sparql", rows[0]["filename"])
	assert.Equal(t, "002-seed.ttl", rows[1]["filename"])
	assert.Equal(t, "3", rows[1]["count"])
}

func TestSelect_emptyBindings_returnsEmptySlice(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{body: `{"head":{"vars":[]},"results":{"bindings":[]}}`}
	c := newTestClient(t, fe)

	rows, err := c.Select(context.Background(), "SELECT * WHERE { ?s ?p ?o }")

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSelect_notJSON_returnsMalformed(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{body: "<html>oops</html>"}
	c := newTestClient(t, fe)

	_, err := c.Select(context.Background(), "SELECT * WHERE { ?s ?p ?o }")

	require.ErrorIs(t, err, sparql.ErrMalformedResponse)
}

func TestUpdate_sendsUpdateParameter(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{}
	c := newTestClient(t, fe)

	err := c.Update(context.Background(), "CLEAR ALL")

	require.NoError(t, err)
	req := fe.last(t)
	assert.Equal(t, "CLEAR ALL", req.update)
	assert.Empty(t, req.query)
}

func TestUpdate_serverError_returnsRequestFailed(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{status: http.StatusInternalServerError, body: "SR133: transaction too large"}
	c := newTestClient(t, fe)

	err := c.Update(context.Background(), "INSERT DATA {}")

	require.ErrorIs(t, err, sparql.ErrRequestFailed)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "transaction too large")
}

func TestUpdate_longErrorBody_isTruncated(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{status: http.StatusBadRequest, body: strings.Repeat("x", 4096)}
	c := newTestClient(t, fe)

	err := c.Update(context.Background(), "INSERT DATA {}")

	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1024)
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
}

func TestUpdate_unreachable_returnsRequestFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/sparql"
	srv.Close()

	c, err := sparql.NewClient(endpoint, sparql.WithTimeout(time.Second))
	require.NoError(t, err)

	err = c.Update(context.Background(), "CLEAR ALL")

	require.ErrorIs(t, err, sparql.ErrRequestFailed)
}

func TestWithHeaders_sentOnEveryRequest(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{body: `{"boolean":false}`}
	c := newTestClient(t, fe, sparql.WithHeaders(map[string]string{"mu-auth-sudo": "true"}))

	_, err := c.Ask(context.Background(), "ASK {}")

	require.NoError(t, err)
	assert.Equal(t, "true", fe.last(t).header.Get("mu-auth-sudo"))
}

func TestInsertData_wrapsStatementsInGraph(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{}
	c := newTestClient(t, fe)

	err := c.InsertData(context.Background(), "http://example.org/g", []string{
		`<http://example.org/a> <http://example.org/p> "1" .`,
		`<http://example.org/b> <http://example.org/p> "2" .`,
	})

	require.NoError(t, err)

	update := fe.last(t).update
	assert.True(t, strings.HasPrefix(update, "INSERT DATA {"))
	assert.Contains(t, update, "GRAPH <http://example.org/g> {")
	assert.Contains(t, update, `<http://example.org/a> <http://example.org/p> "1" .`)
	assert.Contains(t, update, `<http://example.org/b> <http://example.org/p> "2" .`)
}

func TestInsertData_failure_mentionsGraph(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{status: http.StatusRequestEntityTooLarge}
	c := newTestClient(t, fe)

	err := c.InsertData(context.Background(), "http://example.org/g", []string{"<a> <b> <c> ."})

	require.ErrorIs(t, err, sparql.ErrRequestFailed)
	assert.Contains(t, err.Error(), "inserting 1 statements into http://example.org/g")
}

func TestAddGraph_issuesAdd(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{}
	c := newTestClient(t, fe)

	require.NoError(t, c.AddGraph(context.Background(), "http://tmp/1", "http://target"))
	assert.Equal(t, "ADD <http://tmp/1> TO <http://target>", fe.last(t).update)
}

func TestDropGraph_issuesSilentDrop(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{}
	c := newTestClient(t, fe)

	require.NoError(t, c.DropGraph(context.Background(), "http://tmp/1"))
	assert.Equal(t, "DROP SILENT GRAPH <http://tmp/1>", fe.last(t).update)
}

func TestPing_usesAsk(t *testing.T) {
	t.Parallel()

	fe := &fakeEndpoint{body: `{"boolean":false}`}
	c := newTestClient(t, fe)

	require.NoError(t, c.Ping(context.Background()))
	assert.Contains(t, fe.last(t).query, "ASK")
}
