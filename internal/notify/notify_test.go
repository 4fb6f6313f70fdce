package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/toolchain"
)

// fakeAPI records release creation calls.
type fakeAPI struct {
	mu     sync.Mutex
	calls  atomic.Int32
	status int
	owner  string
	name   string
	auth   string
	ctype  string
	body   map[string]any
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/repos/{owner}/{name}/releases", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls.Add(1)
		f.owner = chi.URLParam(r, "owner")
		f.name = chi.URLParam(r, "name")
		f.auth = r.Header.Get("Authorization")
		f.ctype = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &f.body)
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"message":"from fake"}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestNotify_PostsDescriptor(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated}
	srv := api.server(t)

	p := params.New(map[string]string{
		"version":     "1.2.0",
		"token":       "s3cr3t",
		"repository":  "jdidion/atropos",
		"api_url":     srv.URL + "/",
		"description": "Bug fixes",
	})

	err := New(0).Notify(context.Background(), p, toolchain.NewReleaseDescriptor(p))
	require.NoError(t, err)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.EqualValues(t, 1, api.calls.Load())
	assert.Equal(t, "jdidion", api.owner)
	assert.Equal(t, "atropos", api.name)
	assert.Equal(t, "token s3cr3t", api.auth)
	assert.Equal(t, "application/json", api.ctype)
	assert.Equal(t, map[string]any{
		"tag_name":         "1.2.0",
		"target_commitish": "master",
		"name":             "1.2.0",
		"body":             "Bug fixes",
		"draft":            false,
		"prerelease":       false,
	}, api.body)
}

func TestNotify_MissingTokenMakesNoRequest(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated}
	srv := api.server(t)

	p := params.New(map[string]string{"version": "1.2.0", "repository": "jdidion/atropos", "api_url": srv.URL})
	err := New(0).Notify(context.Background(), p, toolchain.NewReleaseDescriptor(p))

	var missing *params.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"token"}, missing.Names)
	assert.EqualValues(t, 0, api.calls.Load())
}

func TestNotify_RejectionSurfacesRawResponse(t *testing.T) {
	api := &fakeAPI{status: http.StatusUnprocessableEntity}
	srv := api.server(t)

	p := params.New(map[string]string{"version": "1.2.0", "token": "t", "repository": "jdidion/atropos", "api_url": srv.URL})
	err := New(0).Notify(context.Background(), p, toolchain.NewReleaseDescriptor(p))

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusUnprocessableEntity, respErr.StatusCode)
	assert.Equal(t, `{"message":"from fake"}`, respErr.Body)
	assert.EqualValues(t, 1, api.calls.Load(), "no retries")
}

func TestReleasesURL(t *testing.T) {
	assert.Equal(t, "https://api.github.com/repos/jdidion/atropos/releases", ReleasesURL("", "jdidion/atropos"))
	assert.Equal(t, "http://x/repos/a/b/releases", ReleasesURL("http://x/", "/a/b/"))
}
