// Package editor round-trips a question draft through $VISUAL/$EDITOR.
package editor

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	TitlePrefix    = "Title:"
	CategoryPrefix = "Category:"
	TagsPrefix     = "Tags:"
	bodySeparator  = "---"
)

// Fields are the editable parts of a question. Category and Tags hold
// either numeric ids or names; the caller resolves them.
type Fields struct {
	Title    string
	Category string
	Tags     []string
	Body     string
}

// Compose creates the text presented to the editor.
func Compose(f Fields) string {
	var b bytes.Buffer
	b.WriteString("# Agora question\n")
	b.WriteString("# Lines starting with '#' above the separator are ignored.\n")
	b.WriteString("# Category and Tags take ids or names (tags comma-separated). Markdown body goes after '---'.\n")
	b.WriteString(TitlePrefix + " " + f.Title + "\n")
	b.WriteString(CategoryPrefix + " " + f.Category + "\n")
	b.WriteString(TagsPrefix + " " + strings.Join(f.Tags, ", ") + "\n")
	b.WriteString(bodySeparator + "\n")
	if f.Body != "" {
		b.WriteString(f.Body)
		if !strings.HasSuffix(f.Body, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Parse extracts the fields from editor output. Everything after the first
// separator line is body, including lines that start with '#'.
func Parse(s string) Fields {
	var f Fields
	inBody := false
	var body []string
	for _, line := range strings.Split(s, "\n") {
		if inBody {
			body = append(body, line)
			continue
		}
		trim := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trim, "#"):
		case trim == bodySeparator:
			inBody = true
		case strings.HasPrefix(trim, TitlePrefix):
			f.Title = strings.TrimSpace(strings.TrimPrefix(trim, TitlePrefix))
		case strings.HasPrefix(trim, CategoryPrefix):
			f.Category = strings.TrimSpace(strings.TrimPrefix(trim, CategoryPrefix))
		case strings.HasPrefix(trim, TagsPrefix):
			f.Tags = splitTags(strings.TrimPrefix(trim, TagsPrefix))
		}
	}
	f.Body = strings.TrimSpace(strings.Join(body, "\n"))
	return f
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if tt := strings.TrimSpace(t); tt != "" {
			out = append(out, tt)
		}
	}
	return out
}

// PreferredEditor finds a suitable editor from env or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi", "nano"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// PathForDraft returns the scratch file used while editing draft id.
func PathForDraft(id string) (string, error) {
	name := id + ".agora.md"
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "agora", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "agora", "edit", name), nil
}

func writeFile0600(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, fs.FileMode(0o600))
}

// OpenAt opens the editor at path with initial content and returns final bytes and whether it changed.
func OpenAt(path string, initial []byte) (final []byte, changed bool, err error) {
	if err := writeFile0600(path, initial); err != nil {
		return nil, false, err
	}
	defer os.Remove(path)

	// Run through sh so VISUAL/EDITOR may carry flags.
	ed := os.Getenv("VISUAL")
	if ed == "" {
		ed = os.Getenv("EDITOR")
	}
	var cmd *exec.Cmd
	if strings.TrimSpace(ed) != "" {
		cmd = exec.Command("sh", "-c", "$EDITORCMD \"$FILEPATH\"")
		cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
	} else {
		prog, err := PreferredEditor()
		if err != nil {
			return nil, false, err
		}
		cmd = exec.Command(prog, path)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, false, err
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return out, !bytes.Equal(out, initial), nil
}

// FirstLine returns the first trimmed line, squashed and truncated.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	return s
}
