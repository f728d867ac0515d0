package models

import (
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/state"
)

// JobResult records the outcome of a single dispatch attempt.
type JobResult struct {
	JobID   int64
	Err     error
	Status  state.JobStatus
	TweetID string
	RanAt   time.Time
}
