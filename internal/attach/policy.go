// Package attach decides which files may be attached to a question and
// where server-confirmed attachments can be retrieved from.
package attach

import "github.com/mithrel/agora/pkg/api"

const (
	DefaultMaxFileSize  int64 = 5 * 1024 * 1024
	DefaultMaxFileCount       = 5
)

// DefaultAllowedTypes is used whenever the server does not provide a policy.
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"text/plain",
}

// DefaultPolicy returns a fresh copy of the built-in upload policy.
func DefaultPolicy() api.UploadPolicy {
	return api.UploadPolicy{
		AllowedMIMETypes: append([]string(nil), DefaultAllowedTypes...),
		MaxFileSize:      DefaultMaxFileSize,
		MaxFileCount:     DefaultMaxFileCount,
	}
}

// Normalize fills unset limits with the defaults. An empty allow list is
// kept as is: image types remain accepted regardless.
func Normalize(p api.UploadPolicy) api.UploadPolicy {
	if p.MaxFileSize <= 0 {
		p.MaxFileSize = DefaultMaxFileSize
	}
	if p.MaxFileCount <= 0 {
		p.MaxFileCount = DefaultMaxFileCount
	}
	return p
}
