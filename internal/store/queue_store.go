package store

import (
	"context"
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/models"
	"github.com/uplink-dao/uplink-tweet/internal/state"
)

// QueueStore is the persistence contract for the tweet queue.
type QueueStore interface {
	// Insert creates a new ready job and returns its id. Called by the
	// upstream contest and submission creation flows.
	Insert(ctx context.Context, job models.NewQueueJob) (int64, error)

	// FindByID returns a single job row.
	FindByID(ctx context.Context, id int64) (*models.QueueJob, error)

	// FetchEligible returns at most limit jobs that are due for dispatch:
	// status below pending, retries below the cap, and for announcement
	// jobs a created time at or before now. Announcements sort before
	// dependents, oldest first within each context.
	FetchEligible(ctx context.Context, now time.Time, limit int) ([]models.QueueJob, error)

	// Claim atomically moves an eligible job to pending on behalf of
	// instance. It reports false when another cycle got there first.
	Claim(ctx context.Context, jobID int64, instance string) (bool, error)

	// MarkSuccess records a terminal success and clears the claim.
	MarkSuccess(ctx context.Context, jobID int64) error

	// MarkFailure records the error, increments the retry count, and
	// dead-letters the job once the incremented count reaches maxRetries.
	MarkFailure(ctx context.Context, jobID int64, errMsg string, retries, maxRetries int) error

	// ReleaseStale reverts pending jobs whose claim is older than ttl back
	// to ready, recovering work lost to a crashed instance.
	ReleaseStale(ctx context.Context, ttl time.Duration) error

	// CountByStatus reports row counts per status, including zero counts.
	CountByStatus(ctx context.Context) (map[state.JobStatus]int, error)

	Close() error
}
