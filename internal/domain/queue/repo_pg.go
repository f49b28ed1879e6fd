package queue

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicq/clinicq/internal/platform/apperr"
	"github.com/clinicq/clinicq/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository {
	return &entryRepoPG{pool: pool}
}

func (r *entryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, code, patient_id, checkup_type, priority, status, notes,
	estimated_wait_time, check_in_time, start_time, end_time, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Code, &e.PatientID, &e.CheckupType, &e.Priority, &e.Status,
		&e.Notes, &e.EstimatedWait, &e.CheckInTime, &e.StartTime, &e.EndTime,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO queue_entries (code, patient_id, checkup_type, priority, status,
			notes, estimated_wait_time, check_in_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		e.Code, e.PatientID, e.CheckupType, e.Priority, e.Status,
		e.Notes, e.EstimatedWait, e.CheckInTime).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return translateEntryErr(err)
}

func (r *entryRepoPG) GetByID(ctx context.Context, id int64) (*Entry, error) {
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM queue_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "queue entry not found")
	}
	return e, err
}

func (r *entryRepoPG) Update(ctx context.Context, e *Entry) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE queue_entries SET checkup_type=$2, priority=$3, status=$4, notes=$5,
			estimated_wait_time=$6, start_time=$7, end_time=$8, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.CheckupType, e.Priority, e.Status, e.Notes,
		e.EstimatedWait, e.StartTime, e.EndTime)
	if err != nil {
		return translateEntryErr(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "queue entry not found")
	}
	return nil
}

func (r *entryRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "queue entry not found")
	}
	return nil
}

func (r *entryRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Entry, int, error) {
	where := ""
	args := []interface{}{}
	idx := 1
	if f.Status != nil {
		where += ` WHERE status = $1`
		args = append(args, *f.Status)
		idx++
	}
	if f.Priority != nil {
		if where == "" {
			where = ` WHERE`
		} else {
			where += ` AND`
		}
		where += ` priority = $` + strconv.Itoa(idx)
		args = append(args, *f.Priority)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM queue_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + entryCols + ` FROM queue_entries` + where +
		` ORDER BY priority DESC, check_in_time ASC LIMIT $` + strconv.Itoa(idx) + ` OFFSET $` + strconv.Itoa(idx+1)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *entryRepoPG) NextWaiting(ctx context.Context) (*Entry, error) {
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+entryCols+` FROM queue_entries WHERE status = $1
		ORDER BY priority DESC, check_in_time ASC LIMIT 1`, StatusWaiting))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *entryRepoPG) ActiveByPatient(ctx context.Context, patientID int64) (*Entry, error) {
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+entryCols+` FROM queue_entries
		WHERE patient_id = $1 AND status IN ($2, $3) LIMIT 1`,
		patientID, StatusWaiting, StatusInProgress))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *entryRepoPG) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM queue_entries WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *entryRepoPG) Stats(ctx context.Context) (*StatsRow, error) {
	var s StatsRow
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'waiting'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (start_time - check_in_time)) / 60)
				FILTER (WHERE status = 'completed' AND start_time IS NOT NULL), 0)
		FROM queue_entries`).
		Scan(&s.Waiting, &s.InProgress, &s.Completed, &s.Cancelled, &s.AvgWaitMinutes)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// translateEntryErr maps constraint violations raised by the engine-level
// guards to domain errors.
func translateEntryErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23503": // foreign key: patient_id
		return apperr.New(apperr.NotFound, "patient not found")
	case "23505":
		if pgErr.ConstraintName == "queue_entries_active_patient_idx" {
			return apperr.New(apperr.Conflict, "patient is already in queue")
		}
		return apperr.New(apperr.Conflict, "queue number already taken")
	}
	return err
}
