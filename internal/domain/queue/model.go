package queue

import "time"

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus reports the Status for s, or false when s is not a known state.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusWaiting, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from may move to to. Re-asserting the current
// status is always allowed; terminal states accept nothing else.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusWaiting:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

// Priority levels. Higher values are served first.
const (
	PriorityNormal    = 0
	PriorityUrgent    = 1
	PriorityEmergency = 2
)

// ValidPriority reports whether p is a defined priority level.
func ValidPriority(p int) bool {
	return p >= PriorityNormal && p <= PriorityEmergency
}

// CodeLength is the length of the display code assigned to every entry.
const CodeLength = 4

// Entry maps to the queue_entries table. The code is exposed as queue_number
// for display boards.
type Entry struct {
	ID            int64      `db:"id" json:"id"`
	Code          string     `db:"code" json:"queue_number"`
	PatientID     int64      `db:"patient_id" json:"patient_id"`
	CheckupType   string     `db:"checkup_type" json:"checkup_type"`
	Priority      int        `db:"priority" json:"priority"`
	Status        Status     `db:"status" json:"status"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	EstimatedWait *int       `db:"estimated_wait_time" json:"estimated_wait_time,omitempty"`
	CheckInTime   time.Time  `db:"check_in_time" json:"check_in_time"`
	StartTime     *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime       *time.Time `db:"end_time" json:"end_time,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Stats is the queue summary returned by GET /queue/stats/summary.
type Stats struct {
	TotalWaiting            int        `json:"total_waiting"`
	TotalInProgress         int        `json:"total_in_progress"`
	TotalCompleted          int        `json:"total_completed"`
	TotalCancelled          int        `json:"total_cancelled"`
	AverageWaitTime         int        `json:"average_wait_time"`
	EstimatedCompletionTime *time.Time `json:"estimated_completion_time,omitempty"`
}
