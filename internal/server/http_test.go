package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/pkg/api"
)

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	cfg := viper.New()
	cfg.Set("auth.token", token)
	cfg.Set("base_url", "https://forum.test")
	ts := httptest.NewServer(New(cfg, attach.DefaultPolicy(), nil).Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, token string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, "secret")
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(b))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, "")
	resp := post(t, ts, "/v1/render", "", map[string]any{"markdown": "# Hi\n\n<script>x</script>"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out renderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.HTML, ">Hi</h1>")
	assert.NotContains(t, out.HTML, "<script")

	resp = post(t, ts, "/v1/render", "", map[string]any{"markdown": "**a**", "legacy": true})
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.HTML, ">a</strong>")
}

func TestRenderRejectsBadJSON(t *testing.T) {
	ts := newTestServer(t, "")
	resp, err := ts.Client().Post(ts.URL+"/v1/render", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequiredWhenTokenSet(t *testing.T) {
	ts := newTestServer(t, "secret")
	resp := post(t, ts, "/v1/render", "", map[string]any{"markdown": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	for _, bad := range []string{"wrong", "secre", "secret2", "SECRET"} {
		resp = post(t, ts, "/v1/render", bad, map[string]any{"markdown": "x"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, bad)
	}
	resp = post(t, ts, "/v1/render", "secret", map[string]any{"markdown": "x"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidate(t *testing.T) {
	ts := newTestServer(t, "")
	resp := post(t, ts, "/v1/attachments/validate", "", map[string]any{
		"files": []api.CandidateFile{
			{Name: "a.png", MIMEType: "image/png", SizeBytes: 10},
			{Name: "big.pdf", MIMEType: "application/pdf", SizeBytes: 6 * 1024 * 1024},
		},
		"already_accepted": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out validateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Accepted, 1)
	require.Len(t, out.Rejected, 1)
	assert.Equal(t, "exceeds max size of 5 MB", out.Rejected[0].Reason)
	assert.Equal(t, attach.DefaultMaxFileCount, out.Policy.MaxFileCount)
}

func TestValidateWithRequestPolicy(t *testing.T) {
	ts := newTestServer(t, "")
	resp := post(t, ts, "/v1/attachments/validate", "", map[string]any{
		"files":            []api.CandidateFile{{Name: "a.png", MIMEType: "image/png", SizeBytes: 1}, {Name: "b.png", MIMEType: "image/png", SizeBytes: 1}},
		"already_accepted": 1,
		"policy":           api.UploadPolicy{MaxFileCount: 2},
	})
	var out validateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Accepted)
	require.Len(t, out.Rejected, 2)
	assert.Equal(t, "exceeds max file count", out.Rejected[0].Reason)
}

func TestURLs(t *testing.T) {
	ts := newTestServer(t, "")
	resp := post(t, ts, "/v1/attachments/urls", "", map[string]any{
		"attachment": api.Attachment{ID: 4, FilePath: "/attachments/x.png", FileName: "x.png"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out attach.Locations
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "https://forum.test/storage/attachments/x.png", out.Download)
	assert.Equal(t, []string{
		"https://forum.test/storage/attachments/x.png",
		"https://forum.test/attachments/x.png",
		"https://forum.test/api/files/x.png",
		"https://forum.test/uploads/x.png",
	}, out.Display)

	resp = post(t, ts, "/v1/attachments/urls", "", map[string]any{"attachment": map[string]any{"id": 1}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := viper.New()
	s := New(cfg, api.UploadPolicy{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, "127.0.0.1:0", ready) }()

	addr := <-ready
	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
