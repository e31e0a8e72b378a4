package api

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

// DigestReader returns the hex BLAKE3 digest of everything read from r
// along with the number of bytes consumed.
func DigestReader(r io.Reader) (string, int64, error) {
	h := blake3.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// ShortDigest trims a digest for display.
func ShortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
