package attach

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mithrel/agora/pkg/api"
)

// FromPath describes a local file as a candidate. The MIME type comes from
// the extension and falls back to content sniffing.
func FromPath(path string) (api.CandidateFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.CandidateFile{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return api.CandidateFile{}, err
	}
	if st.IsDir() {
		return api.CandidateFile{}, fmt.Errorf("%s is a directory", path)
	}

	ct := typeByExtension(path)
	if ct == "" {
		head := make([]byte, 512)
		n, err := io.ReadFull(f, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return api.CandidateFile{}, fmt.Errorf("sniff %s: %w", path, err)
		}
		ct = stripParams(http.DetectContentType(head[:n]))
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return api.CandidateFile{}, err
		}
	}

	digest, _, err := api.DigestReader(f)
	if err != nil {
		return api.CandidateFile{}, fmt.Errorf("digest %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return api.CandidateFile{
		Name:      filepath.Base(path),
		MIMEType:  ct,
		SizeBytes: st.Size(),
		Path:      abs,
		Digest:    digest,
	}, nil
}

func typeByExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	return stripParams(mime.TypeByExtension(ext))
}

func stripParams(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}
