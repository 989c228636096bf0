package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropkit/cropper"
	"cropkit/geometry"
)

type testServer struct {
	app      *fiber.App
	web      *WebApp
	exported []JobResult
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	writeTestImage(t, dir, "a.png")

	executor := newTestExecutor(dir, false)
	ts := &testServer{}
	ts.web = NewWebApp(Config{
		RootDir:  dir,
		Sessions: NewSessionStore(executor.NewInstance),
		Executor: &executor,
		OnExport: func(result JobResult) { ts.exported = append(ts.exported, result) },
	})
	ts.app = ts.web.App()
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

type sessionResponse struct {
	ID       string                `json:"id"`
	Filename string                `json:"filename"`
	State    cropper.State         `json:"state"`
	Render   *cropper.RenderParams `json:"render"`
}

func (ts *testServer) createSession(t *testing.T) sessionResponse {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/sessions", `{"filename":"a.png","boundary":{"width":200,"height":100}}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	var got sessionResponse
	require.NoError(t, json.Unmarshal(body, &got))
	return got
}

func TestListImages(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodGet, "/api/ls", "")
	require.Equal(t, http.StatusOK, status)

	var dir Directory
	require.NoError(t, json.Unmarshal(body, &dir))
	require.Len(t, dir.Files, 1)
	assert.Equal(t, "a.png", dir.Files[0].Name)
	assert.Equal(t, "/api/view?file=a.png", dir.Files[0].URL)
	assert.Equal(t, ImageInfo{Width: 200, Height: 100, Format: "png"}, dir.Files[0].Image)

	status, body = ts.do(t, http.MethodGet, dir.Files[0].URL, "")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createSession(t)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "a.png", created.Filename)
	require.NotNil(t, created.State.Coordinates)
	assert.InDelta(t, 20, created.State.Coordinates.Left, 1e-9)
	assert.InDelta(t, 160, created.State.Coordinates.Width, 1e-9)
	require.NotNil(t, created.Render)
	assert.Equal(t, geometry.Size{Width: 200, Height: 100}, created.Render.Boundary)

	status, body := ts.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/actions", `{"type":"move_coordinates","left":10}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var moved sessionResponse
	require.NoError(t, json.Unmarshal(body, &moved))
	assert.InDelta(t, 30, moved.State.Coordinates.Left, 1e-9)

	status, body = ts.do(t, http.MethodGet, "/api/sessions/"+created.ID, "")
	require.Equal(t, http.StatusOK, status)
	var fetched sessionResponse
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, moved.State, fetched.State)

	status, body = ts.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/export", `{"width":80}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var exported struct {
		Output string       `json:"output"`
		Crop   cropper.Crop `json:"crop"`
	}
	require.NoError(t, json.Unmarshal(body, &exported))
	assert.FileExists(t, exported.Output)
	assert.InDelta(t, 30, exported.Crop.Coordinates.Left, 1e-9)
	require.Len(t, ts.exported, 1)
	assert.Equal(t, exported.Output, ts.exported[0].Output)

	status, _ = ts.do(t, http.MethodDelete, "/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = ts.do(t, http.MethodGet, "/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSessionErrors(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createSession(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope", "", http.StatusNotFound},
		{"unknown session action", http.MethodPost, "/api/sessions/nope/actions", `{"type":"reconcile"}`, http.StatusNotFound},
		{"delete unknown session", http.MethodDelete, "/api/sessions/nope", "", http.StatusNotFound},
		{"unknown action", http.MethodPost, "/api/sessions/" + created.ID + "/actions", `{"type":"pick"}`, http.StatusBadRequest},
		{"malformed action", http.MethodPost, "/api/sessions/" + created.ID + "/actions", `{"type":`, http.StatusBadRequest},
		{"bad resize option", http.MethodPost, "/api/sessions/" + created.ID + "/actions", `{"type":"resize_coordinates","edges":["middle"]}`, http.StatusBadRequest},
		{"missing filename", http.MethodPost, "/api/sessions", `{"boundary":{"width":200,"height":100}}`, http.StatusBadRequest},
		{"outside root", http.MethodPost, "/api/sessions", `{"filename":"../a.png","boundary":{"width":200,"height":100}}`, http.StatusBadRequest},
		{"missing file", http.MethodPost, "/api/sessions", `{"filename":"b.png","boundary":{"width":200,"height":100}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, status, string(body))
			var payload map[string]any
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.Contains(t, payload, "error")
		})
	}
	assert.Equal(t, 1, ts.web.config.Sessions.Len())
}

func TestExportUninitializedSession(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodPost, "/api/sessions", `{"filename":"a.png","boundary":{"width":0,"height":0}}`)
	require.Equal(t, http.StatusCreated, status)
	var created sessionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.False(t, created.State.Initialized())
	assert.Nil(t, created.Render)

	status, _ = ts.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/export", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Empty(t, ts.exported)
}

func TestShutdown(t *testing.T) {
	ts := newTestServer(t)
	status, _ := ts.do(t, http.MethodPost, "/api/shutdown", "")
	assert.Equal(t, http.StatusOK, status)

	select {
	case <-ts.web.shutdownCh:
	default:
		t.Fatal("shutdown channel is still open")
	}
	// A second request must not panic on the closed channel.
	status, _ = ts.do(t, http.MethodPost, "/api/shutdown", "")
	assert.Equal(t, http.StatusOK, status)
}
