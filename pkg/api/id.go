package api

import "github.com/google/uuid"

// NewID returns a random identifier used for drafts and request correlation.
func NewID() string {
	return uuid.NewString()
}
