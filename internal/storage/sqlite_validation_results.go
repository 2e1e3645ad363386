package storage

import (
	"context"
	"database/sql"
	"math"
	"time"
)

const validationColumns = `id, remote_id, success, result, meta, exception_info, expectation_config,
	observed_value, expectation_id, validation_report_id, source, created_at`

func (s *SQLiteStore) InsertValidationResult(ctx context.Context, r *ValidationRecord) error {
	now := formatTime(time.Now())
	res, err := s.writeDB.ExecContext(ctx,
		`INSERT INTO validation_results (remote_id, success, result, meta, exception_info, expectation_config,
		 observed_value, expectation_id, validation_report_id, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64PtrArg(r.RemoteID), boolToInt(r.Success), r.Result, r.Meta, r.ExceptionInfo, r.ExpectationConfig,
		r.ObservedValue, int64PtrArg(r.ExpectationID), int64PtrArg(r.ValidationReportID), r.Source, now)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ID = id
	r.CreatedAt = parseTime(now)
	return nil
}

func (s *SQLiteStore) GetValidationResult(ctx context.Context, id int64) (*ValidationRecord, error) {
	row := s.readDB.QueryRowContext(ctx,
		`SELECT `+validationColumns+` FROM validation_results WHERE id=?`, id)
	return scanValidationRecord(row)
}

func (s *SQLiteStore) ListValidationResults(ctx context.Context, f ValidationFilter, p Pagination) (*PaginatedResult, error) {
	p = p.Normalize()
	where := "1=1"
	args := []any{}
	if f.ExpectationID > 0 {
		where += " AND expectation_id=?"
		args = append(args, f.ExpectationID)
	}
	if f.FailedOnly {
		where += " AND success=0"
	}
	if f.Source != "" {
		where += " AND source=?"
		args = append(args, f.Source)
	}

	var total int64
	countArgs := make([]any, len(args))
	copy(countArgs, args)
	err := s.readDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM validation_results WHERE "+where, countArgs...).Scan(&total)
	if err != nil {
		return nil, err
	}

	offset := (p.Page - 1) * p.PerPage
	args = append(args, p.PerPage, offset)
	rows, err := s.readDB.QueryContext(ctx,
		`SELECT `+validationColumns+` FROM validation_results
		 WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ValidationRecord
	for rows.Next() {
		r, err := scanValidationRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*ValidationRecord{}
	}

	return &PaginatedResult{
		Data:       records,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: int(math.Ceil(float64(total) / float64(p.PerPage))),
	}, nil
}

// DeleteValidationResult returns sql.ErrNoRows when nothing matched.
func (s *SQLiteStore) DeleteValidationResult(ctx context.Context, id int64) error {
	res, err := s.writeDB.ExecContext(ctx, "DELETE FROM validation_results WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) PurgeOldData(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.writeDB.ExecContext(ctx,
		"DELETE FROM validation_results WHERE created_at < ?", formatTime(before))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanValidationRecord(sc scanner) (*ValidationRecord, error) {
	var r ValidationRecord
	var success int
	var createdAt string
	var remoteID, expectationID, reportID sql.NullInt64
	err := sc.Scan(&r.ID, &remoteID, &success, &r.Result, &r.Meta, &r.ExceptionInfo, &r.ExpectationConfig,
		&r.ObservedValue, &expectationID, &reportID, &r.Source, &createdAt)
	if err != nil {
		return nil, err
	}
	r.Success = success != 0
	r.RemoteID = nullInt64Ptr(remoteID)
	r.ExpectationID = nullInt64Ptr(expectationID)
	r.ValidationReportID = nullInt64Ptr(reportID)
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}
