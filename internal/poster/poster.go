// Package poster wraps the external posting API used to publish contest
// threads.
package poster

import (
	"context"
	"fmt"

	"github.com/uplink-dao/uplink-tweet/internal/models"
)

// Poster publishes a thread on behalf of one user's credentials.
type Poster interface {
	// ValidateSession verifies the credentials before any posting work.
	ValidateSession(ctx context.Context) error

	// UploadMedia uploads the fragment's media and returns its media id.
	UploadMedia(ctx context.Context, item models.ThreadItem) (string, error)

	// PostThread publishes the fragments as a thread, quoting
	// quoteTweetID when it is non-empty, and returns the id of the
	// thread's first tweet.
	PostThread(ctx context.Context, items []models.ThreadItem, quoteTweetID string) (string, error)
}

// Factory builds a Poster for one job's decrypted credentials.
type Factory interface {
	New(accessToken, accessSecret string) Poster
}

// PostingError is any upstream rejection: expired auth, rate limits,
// malformed payloads. The dispatcher does not distinguish sub-kinds; the
// message is kept verbatim for operator diagnosis.
type PostingError struct {
	Op      string
	Message string
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("posting failed (%s): %s", e.Op, e.Message)
}
