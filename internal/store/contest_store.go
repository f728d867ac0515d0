package store

import "context"

// ContestStore is the dispatcher's narrow view of the contests table. The
// table itself is owned by the platform; the dispatcher only reads and
// writes the announcement tweet id.
type ContestStore interface {
	// TweetID returns the contest's announcement tweet id, or the empty
	// string when the contest has not been announced yet.
	TweetID(ctx context.Context, contestID int64) (string, error)

	// SetTweetID records the announcement tweet id on the contest.
	SetTweetID(ctx context.Context, contestID int64, tweetID string) error
}
