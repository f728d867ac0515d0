package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/constants"
	"github.com/uplink-dao/uplink-tweet/internal/models"
	"github.com/uplink-dao/uplink-tweet/internal/state"
)

const defaultMaxRetries = constants.MaxRetryAttempt

const jobColumns = `id, contest_id, job_context, payload, access_token, access_secret,
		       status, retries, max_retries, last_error, locked_by, locked_at, created`

type PostgresQueueStore struct {
	db *sql.DB
}

func NewPostgresQueueStore(db *sql.DB) *PostgresQueueStore {
	return &PostgresQueueStore{
		db: db,
	}
}

func (r *PostgresQueueStore) Insert(ctx context.Context, job models.NewQueueJob) (int64, error) {
	payloadJSON, err := json.Marshal(job.Thread)
	if err != nil {
		return -1, err
	}

	created := job.Created
	if created.IsZero() {
		created = time.Now()
	}

	query := `
		INSERT INTO uplink_tweet.tweet_queue (
			contest_id,
			job_context,
			payload,
			access_token,
			access_secret,
			status,
			retries,
			max_retries,
			created
		)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
		returning id
	`

	var jobID int64
	err = r.db.QueryRowContext(ctx, query,
		job.ContestID,
		job.JobContext.String(),
		payloadJSON,
		job.AccessToken,
		job.AccessSecret,
		int(state.StatusReady),
		defaultMaxRetries,
		created,
	).Scan(&jobID)

	return jobID, err
}

func (r *PostgresQueueStore) FindByID(ctx context.Context, id int64) (*models.QueueJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM uplink_tweet.tweet_queue
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)
	job, err := r.scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("job with ID %d not found: %w", id, err)
	}
	return job, nil
}

// FetchEligible selects the batch for one dispatch cycle. Dependent jobs
// are always due; announcement jobs only once their created time has
// passed, so announcements scheduled far in the future stay untouched.
func (r *PostgresQueueStore) FetchEligible(ctx context.Context, now time.Time, limit int) ([]models.QueueJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM uplink_tweet.tweet_queue
		WHERE status < $1
		  AND retries < max_retries
		  AND (job_context = $2 OR created <= $3)
		ORDER BY job_context ASC, created ASC
		LIMIT $4
	`

	rows, err := r.db.QueryContext(ctx, query,
		int(state.StatusPending),
		state.ContextDependent.String(),
		now,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.QueueJob
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	return jobs, rows.Err()
}

// Claim is the conditional status flip that prevents two overlapping
// cycles from dispatching the same row. The WHERE clause repeats the
// eligibility predicate so a row that turned pending, succeeded, or
// dead-lettered since the fetch is left alone.
func (r *PostgresQueueStore) Claim(ctx context.Context, jobID int64, instance string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE uplink_tweet.tweet_queue
		SET status = $1,
		    locked_by = $2,
		    locked_at = NOW()
		WHERE id = $3 AND status < $1 AND retries < max_retries
	`, int(state.StatusPending), instance, jobID)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *PostgresQueueStore) MarkSuccess(ctx context.Context, jobID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE uplink_tweet.tweet_queue
		SET status = $1,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE id = $2
	`, int(state.StatusSuccess), jobID)

	return err
}

func (r *PostgresQueueStore) MarkFailure(ctx context.Context, jobID int64, errMsg string, retries, maxRetries int) error {
	status := state.StatusFailed
	if retries+1 >= maxRetries {
		status = state.StatusDeadLettered
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE uplink_tweet.tweet_queue
		SET retries = retries + 1,
		    last_error = $2,
		    status = $3,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE id = $1
	`, jobID, errMsg, int(status))

	return err
}

func (r *PostgresQueueStore) ReleaseStale(ctx context.Context, ttl time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE uplink_tweet.tweet_queue
		SET status = $1,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE status = $2 AND locked_at <= NOW() - ($3 * INTERVAL '1 second')
	`,
		int(state.StatusReady),
		int(state.StatusPending),
		int(ttl.Seconds()),
	)
	return err
}

func (r *PostgresQueueStore) CountByStatus(ctx context.Context) (map[state.JobStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) AS count
		FROM uplink_tweet.tweet_queue
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[state.JobStatus]int)
	for rows.Next() {
		var status int
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[state.JobStatus(status)] = count
	}

	for _, status := range state.AllStatuses {
		if _, ok := result[status]; !ok {
			result[status] = 0
		}
	}

	return result, rows.Err()
}

func (r *PostgresQueueStore) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresQueueStore) scanJob(row rowScanner) (*models.QueueJob, error) {
	var job models.QueueJob
	var jobContext string
	var status int
	if err := row.Scan(
		&job.ID,
		&job.ContestID,
		&jobContext,
		&job.Payload,
		&job.AccessToken,
		&job.AccessSecret,
		&status,
		&job.Retries,
		&job.MaxRetries,
		&job.LastError,
		&job.LockedBy,
		&job.LockedAt,
		&job.Created,
	); err != nil {
		return nil, err
	}

	job.JobContext = state.JobContext(jobContext)
	job.Status = state.JobStatus(status)
	return &job, nil
}
