package queue

import "context"

// ListFilter narrows List results. Nil fields match everything.
type ListFilter struct {
	Status   *Status
	Priority *int
}

// StatsRow is the raw aggregate the repository computes in one pass.
// AvgWaitMinutes covers completed entries with a recorded start time.
type StatsRow struct {
	Waiting        int
	InProgress     int
	Completed      int
	Cancelled      int
	AvgWaitMinutes float64
}

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Entry, int, error)
	NextWaiting(ctx context.Context) (*Entry, error)
	ActiveByPatient(ctx context.Context, patientID int64) (*Entry, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Stats(ctx context.Context) (*StatsRow, error)
}
