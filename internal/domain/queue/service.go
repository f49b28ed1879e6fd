package queue

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/clinicq/clinicq/internal/platform/apperr"
	"github.com/clinicq/clinicq/pkg/refcode"
)

type Service struct {
	entries EntryRepository
	codes   *refcode.Generator
	now     func() time.Time
}

func NewService(entries EntryRepository, codes *refcode.Generator) *Service {
	return &Service{entries: entries, codes: codes, now: time.Now}
}

// AddInput is the payload for checking a patient in.
type AddInput struct {
	PatientID     int64   `json:"patient_id"`
	CheckupType   string  `json:"checkup_type"`
	Priority      int     `json:"priority"`
	Notes         *string `json:"notes"`
	EstimatedWait *int    `json:"estimated_wait_time"`
}

// UpdateInput is a partial update. Nil fields are left untouched.
type UpdateInput struct {
	CheckupType   *string `json:"checkup_type"`
	Priority      *int    `json:"priority"`
	Status        *string `json:"status"`
	Notes         *string `json:"notes"`
	EstimatedWait *int    `json:"estimated_wait_time"`
}

func validateCheckupType(t string) error {
	if len(t) < 2 || len(t) > 100 {
		return apperr.New(apperr.Invalid, "checkup_type must be between 2 and 100 characters")
	}
	return nil
}

// Add checks a patient into the queue. A patient with a waiting or
// in-progress entry cannot be added again.
func (s *Service) Add(ctx context.Context, in AddInput) (*Entry, error) {
	if in.PatientID <= 0 {
		return nil, apperr.New(apperr.Invalid, "patient_id is required")
	}
	if err := validateCheckupType(in.CheckupType); err != nil {
		return nil, err
	}
	if !ValidPriority(in.Priority) {
		return nil, apperr.New(apperr.Invalid, fmt.Sprintf("invalid priority: %d", in.Priority))
	}
	if in.EstimatedWait != nil && *in.EstimatedWait < 0 {
		return nil, apperr.New(apperr.Invalid, "estimated_wait_time must not be negative")
	}

	active, err := s.entries.ActiveByPatient(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.New(apperr.Conflict, "patient is already in queue")
	}

	code, err := s.codes.Next(ctx, s.entries.CodeExists)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Code:          code,
		PatientID:     in.PatientID,
		CheckupType:   in.CheckupType,
		Priority:      in.Priority,
		Status:        StatusWaiting,
		Notes:         in.Notes,
		EstimatedWait: in.EstimatedWait,
		CheckInTime:   s.now(),
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.entries.GetByID(ctx, id)
}

// UpdateStatus moves an entry to the given status. Entering in_progress
// stamps the start time once; entering completed stamps the end time once.
// Notes are replaced only when a non-empty value is supplied.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, notes *string) (*Entry, error) {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(e.Status, status) {
		return nil, apperr.New(apperr.Conflict,
			fmt.Sprintf("cannot move entry from %s to %s", e.Status, status))
	}

	e.Status = status
	if notes != nil && *notes != "" {
		e.Notes = notes
	}
	s.applyStatusTimestamps(e)

	if err := s.entries.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update applies a partial update. A status change goes through the same
// transition policy and timestamp side effects as UpdateStatus.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Entry, error) {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.CheckupType != nil {
		if err := validateCheckupType(*in.CheckupType); err != nil {
			return nil, err
		}
		e.CheckupType = *in.CheckupType
	}
	if in.Priority != nil {
		if !ValidPriority(*in.Priority) {
			return nil, apperr.New(apperr.Invalid, fmt.Sprintf("invalid priority: %d", *in.Priority))
		}
		e.Priority = *in.Priority
	}
	if in.Notes != nil {
		e.Notes = in.Notes
	}
	if in.EstimatedWait != nil {
		if *in.EstimatedWait < 0 {
			return nil, apperr.New(apperr.Invalid, "estimated_wait_time must not be negative")
		}
		e.EstimatedWait = in.EstimatedWait
	}
	if in.Status != nil {
		status, ok := ParseStatus(*in.Status)
		if !ok {
			return nil, apperr.New(apperr.Invalid, fmt.Sprintf("invalid status: %s", *in.Status))
		}
		if !CanTransition(e.Status, status) {
			return nil, apperr.New(apperr.Conflict,
				fmt.Sprintf("cannot move entry from %s to %s", e.Status, status))
		}
		e.Status = status
		s.applyStatusTimestamps(e)
	}

	if err := s.entries.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) applyStatusTimestamps(e *Entry) {
	switch e.Status {
	case StatusInProgress:
		if e.StartTime == nil {
			t := s.now()
			e.StartTime = &t
		}
	case StatusCompleted:
		if e.EndTime == nil {
			t := s.now()
			e.EndTime = &t
		}
	}
}

// List returns entries ordered by priority (highest first) and check-in time.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Entry, int, error) {
	return s.entries.List(ctx, f, limit, offset)
}

// Next returns the waiting entry that would be served first.
func (s *Service) Next(ctx context.Context) (*Entry, error) {
	e, err := s.entries.NextWaiting(ctx)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.New(apperr.NotFound, "no patients waiting in queue")
	}
	return e, nil
}

// Advance moves an entry one step along the happy path: waiting to
// in_progress, in_progress to completed. Other statuses are returned as-is.
func (s *Service) Advance(ctx context.Context, id int64) (*Entry, error) {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch e.Status {
	case StatusWaiting:
		e.Status = StatusInProgress
	case StatusInProgress:
		e.Status = StatusCompleted
	default:
		return e, nil
	}
	s.applyStatusTimestamps(e)

	if err := s.entries.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.entries.Delete(ctx, id)
}

// Statistics summarizes the queue. The average wait is the rounded mean of
// (start time minus check-in time) over completed entries with a start time.
// The completion estimate is present only when someone is waiting and a
// positive average exists.
func (s *Service) Statistics(ctx context.Context) (*Stats, error) {
	row, err := s.entries.Stats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalWaiting:    row.Waiting,
		TotalInProgress: row.InProgress,
		TotalCompleted:  row.Completed,
		TotalCancelled:  row.Cancelled,
		AverageWaitTime: int(math.Round(row.AvgWaitMinutes)),
	}
	if stats.TotalWaiting > 0 && stats.AverageWaitTime > 0 {
		t := s.now().Add(time.Duration(stats.TotalWaiting*stats.AverageWaitTime) * time.Minute)
		stats.EstimatedCompletionTime = &t
	}
	return stats, nil
}
