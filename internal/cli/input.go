package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/agora/pkg/api"
)

// readInput reads path, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// readAttachment decodes an attachment record as returned by the forum.
func readAttachment(cmd *cobra.Command, path string) (api.Attachment, error) {
	b, err := readInput(cmd, path)
	if err != nil {
		return api.Attachment{}, err
	}
	var a api.Attachment
	if err := json.Unmarshal(b, &a); err != nil {
		return api.Attachment{}, fmt.Errorf("decode attachment: %w", err)
	}
	if a.FilePath == "" && a.URL == "" {
		return api.Attachment{}, fmt.Errorf("attachment has neither file_path nor url")
	}
	return a, nil
}

func parseID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}
