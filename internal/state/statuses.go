package state

// JobStatus is the persisted status of a queued tweet job. The numeric
// values matter: eligibility checks rely on status < StatusPending to
// cover both ready and failed rows with a single comparison.
type JobStatus int

const (
	StatusReady        JobStatus = 0
	StatusFailed       JobStatus = 1
	StatusPending      JobStatus = 2
	StatusSuccess      JobStatus = 3
	StatusDeadLettered JobStatus = 4
)

func (s JobStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusDeadLettered:
		return "dead_lettered"
	}
	return "unknown"
}

var AllStatuses = []JobStatus{
	StatusReady,
	StatusFailed,
	StatusPending,
	StatusSuccess,
	StatusDeadLettered,
}

// JobContext distinguishes a contest's top-level announcement tweet from a
// follow-on tweet that must quote it. The string values sort announcement
// before dependent, which is what gives announcements dispatch priority.
type JobContext string

const (
	ContextAnnouncement JobContext = "announcement"
	ContextDependent    JobContext = "dependent"
)

func (c JobContext) String() string {
	return string(c)
}

type Transition struct {
	From JobStatus
	To   JobStatus
}

var ValidTransitions = []Transition{
	{From: StatusReady, To: StatusPending},
	{From: StatusFailed, To: StatusPending},
	{From: StatusPending, To: StatusSuccess},
	{From: StatusPending, To: StatusFailed},
	{From: StatusFailed, To: StatusDeadLettered},
}

func IsValidTransition(from, to JobStatus) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
