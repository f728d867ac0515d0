package constants

// Advisory lock identifiers shared by all dispatcher instances.
const (
	MigrationLock = iota
	DispatchLock
)

var Locks = []int{
	MigrationLock,
	DispatchLock,
}

const (
	// MaxRetryAttempt is the retry cap; a job that fails this many times is
	// dead-lettered and never selected again.
	MaxRetryAttempt = 3

	// DispatchBatchSize bounds how many jobs a single cycle may pick up.
	DispatchBatchSize = 15
)
