package state

import (
	"testing"
)

func TestJobStatus_String(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{
			name:     "Ready status",
			status:   StatusReady,
			expected: "ready",
		},
		{
			name:     "Failed status",
			status:   StatusFailed,
			expected: "failed",
		},
		{
			name:     "Pending status",
			status:   StatusPending,
			expected: "pending",
		},
		{
			name:     "Success status",
			status:   StatusSuccess,
			expected: "success",
		},
		{
			name:     "DeadLettered status",
			status:   StatusDeadLettered,
			expected: "dead_lettered",
		},
		{
			name:     "Unknown status",
			status:   JobStatus(42),
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.status.String()
			if result != tt.expected {
				t.Errorf("String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestStatusOrdering(t *testing.T) {
	// Eligibility selection depends on ready and failed being the only
	// statuses below pending.
	for _, s := range AllStatuses {
		eligible := s < StatusPending
		want := s == StatusReady || s == StatusFailed
		if eligible != want {
			t.Errorf("status %s: eligible = %v, want %v", s, eligible, want)
		}
	}
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     JobStatus
		to       JobStatus
		expected bool
	}{
		{
			name:     "Valid: Ready to Pending",
			from:     StatusReady,
			to:       StatusPending,
			expected: true,
		},
		{
			name:     "Valid: Failed to Pending",
			from:     StatusFailed,
			to:       StatusPending,
			expected: true,
		},
		{
			name:     "Valid: Pending to Success",
			from:     StatusPending,
			to:       StatusSuccess,
			expected: true,
		},
		{
			name:     "Valid: Pending to Failed",
			from:     StatusPending,
			to:       StatusFailed,
			expected: true,
		},
		{
			name:     "Valid: Failed to DeadLettered",
			from:     StatusFailed,
			to:       StatusDeadLettered,
			expected: true,
		},
		{
			name:     "Invalid: Ready to Success",
			from:     StatusReady,
			to:       StatusSuccess,
			expected: false,
		},
		{
			name:     "Invalid: Success to Failed",
			from:     StatusSuccess,
			to:       StatusFailed,
			expected: false,
		},
		{
			name:     "Invalid: Success to Pending",
			from:     StatusSuccess,
			to:       StatusPending,
			expected: false,
		},
		{
			name:     "Invalid: DeadLettered to Pending",
			from:     StatusDeadLettered,
			to:       StatusPending,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition() = %v, want %v", result, tt.expected)
			}
		})
	}
}
