package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/agora/pkg/api"
)

type fakeCatalog struct {
	calls int
	err   error
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]api.Category, error) {
	f.calls++
	return []api.Category{{ID: 1, Name: "Programming"}, {ID: 2, Name: "Networking"}}, f.err
}

func (f *fakeCatalog) Tags(ctx context.Context) ([]api.Tag, error) {
	f.calls++
	return []api.Tag{{ID: 1, Name: "golang"}, {ID: 2, Name: "sqlite"}, {ID: 3, Name: "grpc"}}, f.err
}

func TestFieldAt(t *testing.T) {
	cases := []struct {
		line   string
		char   int
		field  field
		prefix string
	}{
		{"Category: Prog", 14, fieldCategory, "Prog"},
		{"Category: ", 10, fieldCategory, ""},
		{"Tags: golang, sq", 16, fieldTags, "sq"},
		{"Tags: go", 8, fieldTags, "go"},
		{"Tags: golang, sqlite", 9, fieldTags, "gol"},
		{"Title: x", 8, fieldNone, ""},
		{"Tags: x", 2, fieldNone, ""},
		{"Category: a", 99, fieldCategory, "a"},
	}
	for _, c := range cases {
		f, p := fieldAt(c.line, c.char)
		assert.Equal(t, c.field, f, c.line)
		assert.Equal(t, c.prefix, p, c.line)
	}
}

func writeScratch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := strings.Join([]string{
		"Title: Why",
		"Category: Net",
		"Tags: golang, g",
		"---",
		"body",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return "file://" + path
}

func newTestServer(src catalog) (*server, *bytes.Buffer) {
	var out bytes.Buffer
	return &server{out: &out, log: log.New(io.Discard, "", 0), source: src}, &out
}

func completionRequest(t *testing.T, uri string, line, char int) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "textDocument/completion",
		"params": completionParams{
			TextDocument: textDocumentIdentifier{URI: uri},
			Position:     position{Line: line, Character: char},
		},
	})
	require.NoError(t, err)
	return b
}

func readItems(t *testing.T, out *bytes.Buffer) []completionItem {
	t.Helper()
	msg, err := readMessage(bufio.NewReader(out))
	require.NoError(t, err)
	var resp struct {
		Result completionList `json:"result"`
	}
	require.NoError(t, json.Unmarshal(msg, &resp))
	return resp.Result.Items
}

func labels(items []completionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestCompletionOnHeaderLines(t *testing.T) {
	src := &fakeCatalog{}
	s, out := newTestServer(src)
	uri := writeScratch(t, "abc.agora.md")

	require.True(t, s.handleMessage(context.Background(), completionRequest(t, uri, 1, 13)))
	items := readItems(t, out)
	assert.Equal(t, []string{"Networking"}, labels(items))

	require.True(t, s.handleMessage(context.Background(), completionRequest(t, uri, 2, 15)))
	items = readItems(t, out)
	assert.Contains(t, labels(items), "golang")
	assert.Contains(t, labels(items), "grpc")
	assert.NotContains(t, labels(items), "sqlite")

	require.True(t, s.handleMessage(context.Background(), completionRequest(t, uri, 2, 15)))
	_ = readItems(t, out)
	assert.Equal(t, 2, src.calls, "lists are fetched once")
}

func TestCompletionIgnoresOtherFiles(t *testing.T) {
	s, out := newTestServer(&fakeCatalog{})
	uri := writeScratch(t, "notes.md")

	s.handleMessage(context.Background(), completionRequest(t, uri, 1, 13))
	assert.Empty(t, readItems(t, out))
}

func TestCompletionSourceError(t *testing.T) {
	s, out := newTestServer(&fakeCatalog{err: errors.New("offline")})
	uri := writeScratch(t, "abc.agora.md")

	s.handleMessage(context.Background(), completionRequest(t, uri, 1, 13))
	assert.Empty(t, readItems(t, out))
}

func TestExitStopsLoop(t *testing.T) {
	s, _ := newTestServer(&fakeCatalog{})
	assert.False(t, s.handleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"exit"}`)))
	assert.True(t, s.handleMessage(context.Background(), []byte(`not json`)))
}

func TestReadMessage(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"shutdown"}`
	r := bufio.NewReader(strings.NewReader("Content-Length: 37\r\n\r\n" + body))
	msg, err := readMessage(r)
	require.NoError(t, err)
	assert.Equal(t, body, string(msg))

	_, err = readMessage(bufio.NewReader(strings.NewReader("X: 1\r\n\r\n")))
	assert.Error(t, err)

	_, err = readMessage(bufio.NewReader(strings.NewReader("Content-Length: 1073741824\r\n\r\n{}")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}
