package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/mithrel/agora/internal/config"
	"github.com/mithrel/agora/internal/editor"
	"github.com/mithrel/agora/internal/util"
	"github.com/mithrel/agora/internal/wire"
	"github.com/mithrel/agora/pkg/api"
)

type request struct {
	RPC    string           `json:"jsonrpc"`
	ID     *json.RawMessage `json:"id,omitempty"`
	Method string           `json:"method"`
	Params json.RawMessage  `json:"params,omitempty"`
}

type response struct {
	RPC    string           `json:"jsonrpc"`
	ID     *json.RawMessage `json:"id,omitempty"`
	Result interface{}      `json:"result,omitempty"`
	Error  interface{}      `json:"error,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
}

type serverCapabilities struct {
	CompletionProvider completionProvider `json:"completionProvider"`
}

type completionProvider struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

type completionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type completionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     position               `json:"position"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type completionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []completionItem `json:"items"`
}

const (
	scratchSuffix = ".agora.md"
	maxMessageLen = 1 << 20
)

// catalog is where category and tag names come from.
type catalog interface {
	Categories(ctx context.Context) ([]api.Category, error)
	Tags(ctx context.Context) ([]api.Tag, error)
}

type field int

const (
	fieldNone field = iota
	fieldCategory
	fieldTags
)

type server struct {
	out    io.Writer
	log    *log.Logger
	source catalog

	mu         sync.Mutex
	categories []api.Category
	tags       []api.Tag
}

// main serves completions for the Category and Tags header lines of
// question files opened by `agora-cli draft edit`.
func main() {
	logFile, err := os.Create(filepath.Join(os.TempDir(), "agora-lsp.log"))
	if err != nil {
		panic(err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "[LSP] ", log.LstdFlags)

	v := viper.New()
	if err := config.Load(context.Background(), v); err != nil {
		logger.Fatalf("config: %v", err)
	}
	app, err := wire.BuildApp(context.Background(), v)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	defer app.Close()

	s := &server{out: os.Stdout, log: logger, source: app.API}
	logger.Println("Server started")

	reader := bufio.NewReader(os.Stdin)
	for {
		msg, err := readMessage(reader)
		if err != nil {
			if err != io.EOF {
				logger.Printf("Error reading message: %v", err)
			}
			return
		}
		if !s.handleMessage(context.Background(), msg) {
			return
		}
	}
}

// readMessage reads one Content-Length framed JSON-RPC message.
func readMessage(reader *bufio.Reader) ([]byte, error) {
	contentLength := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length: ") {
			length, err := strconv.Atoi(strings.TrimPrefix(line, "Content-Length: "))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = length
		}
	}

	if contentLength <= 0 {
		return nil, fmt.Errorf("missing Content-Length")
	}
	if contentLength > maxMessageLen {
		return nil, fmt.Errorf("message length %d exceeds %d", contentLength, maxMessageLen)
	}

	msg := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// handleMessage answers one request. It returns false on exit.
func (s *server) handleMessage(ctx context.Context, msg []byte) bool {
	s.log.Printf("Received: %s", string(msg))

	var req request
	if err := json.Unmarshal(msg, &req); err != nil {
		s.log.Printf("Error unmarshaling: %v", err)
		return true
	}

	switch req.Method {
	case "initialize":
		s.send(response{RPC: "2.0", ID: req.ID, Result: initializeResult{
			Capabilities: serverCapabilities{
				CompletionProvider: completionProvider{TriggerCharacters: []string{" ", ","}},
			},
		}})
	case "textDocument/completion":
		s.send(response{RPC: "2.0", ID: req.ID, Result: completionList{Items: s.complete(ctx, req.Params)}})
	case "shutdown":
		s.send(response{RPC: "2.0", ID: req.ID, Result: nil})
	case "exit":
		return false
	}
	return true
}

func (s *server) send(resp response) {
	b, err := json.Marshal(resp)
	if err != nil {
		s.log.Printf("Error marshaling response: %v", err)
		return
	}
	_, _ = fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(b), b)
	s.log.Printf("Sent: %s", string(b))
}

// complete offers category names on the Category line and tag names on the
// Tags line, ranked against the word under the cursor.
func (s *server) complete(ctx context.Context, raw json.RawMessage) []completionItem {
	var params completionParams
	if err := json.Unmarshal(raw, &params); err != nil {
		s.log.Printf("Error parsing completion params: %v", err)
		return nil
	}
	if !strings.HasSuffix(params.TextDocument.URI, scratchSuffix) {
		return nil
	}
	line := currentLine(params.TextDocument.URI, params.Position.Line)
	f, prefix := fieldAt(line, params.Position.Character)

	var names []string
	var detail string
	switch f {
	case fieldCategory:
		cats, err := s.loadCategories(ctx)
		if err != nil {
			s.log.Printf("Error fetching categories: %v", err)
			return nil
		}
		for _, c := range cats {
			names = append(names, c.Name)
		}
		detail = "category"
	case fieldTags:
		tags, err := s.loadTags(ctx)
		if err != nil {
			s.log.Printf("Error fetching tags: %v", err)
			return nil
		}
		for _, t := range tags {
			names = append(names, t.Name)
		}
		detail = "tag"
	default:
		return nil
	}

	ranked := util.ScoreCompletions(prefix, names, 50)
	items := make([]completionItem, 0, len(ranked))
	for _, n := range ranked {
		items = append(items, completionItem{Label: n, Kind: 1, Detail: detail})
	}
	return items
}

func (s *server) loadCategories(ctx context.Context) ([]api.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categories == nil {
		cats, err := s.source.Categories(ctx)
		if err != nil {
			return nil, err
		}
		s.categories = cats
	}
	return s.categories, nil
}

func (s *server) loadTags(ctx context.Context) ([]api.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags == nil {
		tags, err := s.source.Tags(ctx)
		if err != nil {
			return nil, err
		}
		s.tags = tags
	}
	return s.tags, nil
}

// fieldAt reports which header line this is and the partial word before
// character. On the Tags line only the text after the last comma counts.
func fieldAt(line string, character int) (field, string) {
	if character < 0 || character > len(line) {
		character = len(line)
	}
	before := line[:character]
	switch {
	case strings.HasPrefix(line, editor.CategoryPrefix):
		if character < len(editor.CategoryPrefix) {
			return fieldNone, ""
		}
		return fieldCategory, strings.TrimSpace(strings.TrimPrefix(before, editor.CategoryPrefix))
	case strings.HasPrefix(line, editor.TagsPrefix):
		if character < len(editor.TagsPrefix) {
			return fieldNone, ""
		}
		rest := strings.TrimPrefix(before, editor.TagsPrefix)
		if i := strings.LastIndex(rest, ","); i >= 0 {
			rest = rest[i+1:]
		}
		return fieldTags, strings.TrimSpace(rest)
	}
	return fieldNone, ""
}

// currentLine returns the zero-based line of the file behind a file:// uri,
// or "" when it cannot be read.
func currentLine(uri string, line int) string {
	data, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}
