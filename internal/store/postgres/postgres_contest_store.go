package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresContestStore touches the platform-owned contests table, but only
// the tweet_id column.
type PostgresContestStore struct {
	db *sql.DB
}

func NewPostgresContestStore(db *sql.DB) *PostgresContestStore {
	return &PostgresContestStore{
		db: db,
	}
}

func (r *PostgresContestStore) TweetID(ctx context.Context, contestID int64) (string, error) {
	query := `
		SELECT tweet_id
		FROM uplink_tweet.contests
		WHERE id = $1
	`

	var tweetID sql.NullString
	err := r.db.QueryRowContext(ctx, query, contestID).Scan(&tweetID)
	if err != nil {
		return "", fmt.Errorf("contest %d lookup failed: %w", contestID, err)
	}
	if !tweetID.Valid {
		return "", nil
	}
	return tweetID.String, nil
}

func (r *PostgresContestStore) SetTweetID(ctx context.Context, contestID int64, tweetID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE uplink_tweet.contests
		SET tweet_id = $1
		WHERE id = $2
	`, tweetID, contestID)
	if err != nil {
		return fmt.Errorf("failed to set tweet id on contest %d: %w", contestID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no contest found with id %d", contestID)
	}

	return nil
}
