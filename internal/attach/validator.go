package attach

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mithrel/agora/pkg/api"
)

var (
	ErrTypeNotAllowed = errors.New("type not allowed")
	ErrTooLarge       = errors.New("exceeds max size")
	ErrTooMany        = errors.New("exceeds max file count")
)

// Rejection pairs a refused file with the reason it was refused.
type Rejection struct {
	File   api.CandidateFile
	Err    error
	Reason string
}

// Result is the outcome of one validation pass.
type Result struct {
	Accepted   []api.CandidateFile
	Rejections []Rejection
}

// Validate filters a batch of candidates against policy. alreadyAccepted
// is the number of files pending on the same submission.
//
// A batch that would push the pending count past MaxFileCount is refused as
// a whole; nothing from it is accepted.
func Validate(candidates []api.CandidateFile, alreadyAccepted int, policy api.UploadPolicy) Result {
	var res Result
	for _, f := range candidates {
		if err := check(f, policy); err != nil {
			res.Rejections = append(res.Rejections, Rejection{File: f, Err: err, Reason: reasonFor(err, policy)})
			continue
		}
		res.Accepted = append(res.Accepted, f)
	}
	if alreadyAccepted+len(res.Accepted) > policy.MaxFileCount {
		for _, f := range res.Accepted {
			res.Rejections = append(res.Rejections, Rejection{File: f, Err: ErrTooMany, Reason: ErrTooMany.Error()})
		}
		res.Accepted = nil
	}
	return res
}

func check(f api.CandidateFile, policy api.UploadPolicy) error {
	if !policy.Allows(f.MIMEType) && !IsImage(f.MIMEType) {
		return ErrTypeNotAllowed
	}
	if f.SizeBytes > policy.MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

func reasonFor(err error, policy api.UploadPolicy) string {
	if errors.Is(err, ErrTooLarge) {
		return fmt.Sprintf("%s of %d MB", ErrTooLarge, MaxSizeMB(policy))
	}
	return err.Error()
}

// MaxSizeMB is the policy size limit rounded to whole megabytes.
func MaxSizeMB(policy api.UploadPolicy) int64 {
	return int64(math.Round(float64(policy.MaxFileSize) / (1024 * 1024)))
}

// IsImage reports whether mime names an image type.
func IsImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
