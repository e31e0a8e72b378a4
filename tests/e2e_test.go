package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/mithrel/agora/internal/cli"
	"github.com/mithrel/agora/internal/config"
	"github.com/mithrel/agora/internal/server"
	"github.com/mithrel/agora/internal/wire"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

// runCLI executes the CLI with the given args and returns stdout, stderr, and error.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestE2E_PreviewAndPost(t *testing.T) {
	// 1. Fake forum
	var (
		mu     sync.Mutex
		posted map[string][]string
		files  []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/attachments/info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"allowed_types":["text/plain"],"max_file_size":64,"max_files":1}`))
	})
	mux.HandleFunc("GET /api/public/categories", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":5,"nombre":"Databases"}]}`))
	})
	mux.HandleFunc("POST /api/questions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		posted = r.MultipartForm.Value
		for _, fh := range r.MultipartForm.File["attachments[]"] {
			files = append(files, fh.Filename)
		}
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"77"}`))
	})
	forum := httptest.NewServer(mux)
	defer forum.Close()

	// 2. Isolated environment and config
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(tmpDir, "run"))

	cfgPath := filepath.Join(tmpDir, "config.toml")
	cfgContent := "base_url = \"" + forum.URL + "\"\n"
	cfgContent += "data_dir = \"" + filepath.ToSlash(dataDir) + "\"\n"
	cfgContent += "http_addr = \"127.0.0.1:0\"\n"
	cfgContent += "[log]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0o600))

	// 3. Start the preview service
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := viper.New()
	v.SetConfigFile(cfgPath)
	require.NoError(t, config.Load(ctx, v))
	app, err := wire.BuildApp(ctx, v)
	require.NoError(t, err)
	defer app.Close()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	srv := server.New(app.Cfg, app.UploadPolicy(ctx, false), app.Log)
	go func() { done <- srv.Serve(ctx, app.Cfg.GetString("http_addr"), ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview service did not start")
	}
	base := "http://" + addr

	const doc = "# Slow query\n\nThe `JOIN` takes **minutes**.\n\n<script>alert(1)</script>"

	// 4. CLI and service render identically
	t.Run("Render Matches Service", func(t *testing.T) {
		cliHTML, _, err := runCLI(t, doc, "--config", cfgPath, "render")
		require.NoError(t, err)

		var resp struct {
			HTML string `json:"html"`
		}
		require.Equal(t, http.StatusOK, postJSON(t, base+"/v1/render", map[string]any{"markdown": doc}, &resp))
		assert.Equal(t, cliHTML, resp.HTML)
		assert.NotContains(t, resp.HTML, "<script>")
	})

	// 5. Service validates against the forum's policy
	t.Run("Validate With Forum Policy", func(t *testing.T) {
		var resp struct {
			Accepted []json.RawMessage `json:"accepted"`
			Rejected []struct {
				Name   string `json:"name"`
				Reason string `json:"reason"`
			} `json:"rejected"`
		}
		body := map[string]any{"files": []map[string]any{
			{"name": "plan.txt", "mime_type": "text/plain", "size": 10},
			{"name": "dump.txt", "mime_type": "text/plain", "size": 1000},
		}}
		require.Equal(t, http.StatusOK, postJSON(t, base+"/v1/attachments/validate", body, &resp))
		assert.Len(t, resp.Accepted, 1)
		require.Len(t, resp.Rejected, 1)
		assert.Equal(t, "dump.txt", resp.Rejected[0].Name)
	})

	// 6. Posting needs the token
	planPath := filepath.Join(tmpDir, "plan.txt")
	require.NoError(t, os.WriteFile(planPath, []byte("EXPLAIN ..."), 0o600))

	t.Run("Ask Without Token", func(t *testing.T) {
		_, _, err := runCLI(t, doc, "--config", cfgPath, "ask", "-t", "Slow query", "-c", "databases", "-b", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("Ask", func(t *testing.T) {
		out, _, err := runCLI(t, doc, "--config", cfgPath, "--token", "s3cret",
			"ask", "-t", "Slow query", "-c", "databases", "-b", "-", "--attach", planPath)
		require.NoError(t, err)
		assert.Contains(t, out, forum.URL+"/questions/77")

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"5"}, posted["category_id"])
		assert.Equal(t, []string{doc}, posted["contenido_markdown"])
		assert.Equal(t, []string{"plan.txt"}, files)
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview service did not stop")
	}
}
