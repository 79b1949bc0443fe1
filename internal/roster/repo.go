// Package roster reads enrollment and schedule data from Postgres and
// records the attendance decisions the reconciliation engine produces.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"attendance/internal/reconcile"
)

// SectionScheduleRow is one scheduled section of a logical class. Several
// rows may share a shortname (cross-listed sections); each is processed
// independently.
type SectionScheduleRow struct {
	Period     int
	Shortname  string
	Faculty    string
	Specialty  string
	Campus     string
	Course     string
	Group      string
	Modality   string
	Plan       string
	Weekday    *string
	Instructor *string
}

// AttendanceEntry is one recorded decision, as read back for reporting.
type AttendanceEntry struct {
	HeaderID    string    `json:"header_id"`
	Shortname   string    `json:"shortname"`
	ClassDate   time.Time `json:"class_date"`
	StudentCode string    `json:"student_code"`
	Status      string    `json:"status"`
	StaySeconds int64     `json:"stay_seconds"`
	JoinOffset  int64     `json:"first_join_offset_seconds"`
}

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnrollmentRoster returns every enrollment record for the academic period.
func (r *Repository) EnrollmentRoster(ctx context.Context, period int) ([]reconcile.EnrollmentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_code, full_name, faculty, specialty
		FROM enrollment
		WHERE period = $1
	`, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reconcile.EnrollmentRecord
	for rows.Next() {
		var rec reconcile.EnrollmentRecord
		if err := rows.Scan(&rec.StudentCode, &rec.FullName, &rec.Faculty, &rec.Specialty); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ScheduleRows returns the section schedule rows tagged with the shortname
// for the period. Cross-listed classes yield multiple rows.
func (r *Repository) ScheduleRows(ctx context.Context, shortname string, period int) ([]SectionScheduleRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT period, shortname, faculty, specialty, campus, course, grp, modality, plan, weekday, instructor
		FROM section_schedule
		WHERE shortname = $1 AND period = $2
	`, shortname, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SectionScheduleRow
	for rows.Next() {
		var row SectionScheduleRow
		if err := rows.Scan(&row.Period, &row.Shortname, &row.Faculty, &row.Specialty, &row.Campus,
			&row.Course, &row.Group, &row.Modality, &row.Plan, &row.Weekday, &row.Instructor); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// EnrolledStudents returns the set of student codes formally registered to
// one section row. May legitimately be empty.
func (r *Repository) EnrolledStudents(ctx context.Context, row SectionScheduleRow) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_code
		FROM section_students
		WHERE period = $1 AND faculty = $2 AND specialty = $3 AND campus = $4
		  AND course = $5 AND grp = $6 AND modality = $7 AND plan = $8
	`, row.Period, row.Faculty, row.Specialty, row.Campus, row.Course, row.Group, row.Modality, row.Plan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		set[code] = struct{}{}
	}
	return set, rows.Err()
}

// RecordAttendance writes the decisions for one section and class date.
// The header is found or created (idempotent, keyed on section and date) and
// is created even when the decision list is empty; details upsert per
// student, so re-running a date overwrites rather than duplicates. There is
// no cross-section transaction: each section's write stands alone.
func (r *Repository) RecordAttendance(ctx context.Context, row SectionScheduleRow, classDate time.Time, window reconcile.ClassWindow, decisions []reconcile.AttendanceDecision) error {
	headerID, err := r.findOrCreateHeader(ctx, row, classDate, window)
	if err != nil {
		return err
	}

	for _, d := range decisions {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO attendance_details (header_id, student_code, status, stay_seconds, first_join_offset_seconds)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (header_id, student_code) DO UPDATE SET
				status = EXCLUDED.status,
				stay_seconds = EXCLUDED.stay_seconds,
				first_join_offset_seconds = EXCLUDED.first_join_offset_seconds,
				updated_at = NOW()
		`, headerID, d.StudentCode, string(d.Status), d.StaySeconds, d.FirstJoinOffsetSeconds)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) findOrCreateHeader(ctx context.Context, row SectionScheduleRow, classDate time.Time, window reconcile.ClassWindow) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM attendance_headers
		WHERE period = $1 AND faculty = $2 AND specialty = $3 AND campus = $4
		  AND course = $5 AND grp = $6 AND modality = $7 AND plan = $8 AND class_date = $9
	`, row.Period, row.Faculty, row.Specialty, row.Campus, row.Course, row.Group, row.Modality, row.Plan, classDate).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	var start, end *time.Time
	if !window.Start.IsZero() {
		start = &window.Start
	}
	if !window.End.IsZero() {
		end = &window.End
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO attendance_headers
			(id, period, shortname, faculty, specialty, campus, course, grp, modality, plan,
			 class_date, class_start, class_end, class_duration_seconds)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT DO NOTHING
	`, id, row.Period, row.Shortname, row.Faculty, row.Specialty, row.Campus, row.Course, row.Group,
		row.Modality, row.Plan, classDate, start, end, window.DurationSeconds)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListAttendance returns recorded decisions for a shortname and class date.
func (r *Repository) ListAttendance(ctx context.Context, shortname string, classDate time.Time) ([]AttendanceEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT h.id, h.shortname, h.class_date, d.student_code, d.status, d.stay_seconds, d.first_join_offset_seconds
		FROM attendance_headers h
		JOIN attendance_details d ON d.header_id = h.id
		WHERE h.shortname = $1 AND h.class_date = $2
		ORDER BY d.student_code
	`, shortname, classDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceEntry
	for rows.Next() {
		var e AttendanceEntry
		if err := rows.Scan(&e.HeaderID, &e.Shortname, &e.ClassDate, &e.StudentCode, &e.Status, &e.StaySeconds, &e.JoinOffset); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
