package config

import (
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/constants"
)

const (
	// DefaultSchedule runs a dispatch cycle every minute, matching how
	// the queue was polled historically.
	DefaultSchedule = "* * * * *"

	DefaultBatchSize   = constants.DispatchBatchSize
	DefaultMaxRetries  = constants.MaxRetryAttempt
	DefaultWorkerCount = 5

	DefaultStaleClaimTTL = 10 * time.Minute
	DefaultPosterTimeout = 30 * time.Second

	DefaultAnnouncementQueue = "contest_announcements"
	DefaultExchange          = "uplink_tweet"
)
