package db

import (
	"context"
	"time"
)

type ParaVisitRow struct {
	StudentID int64
	FirstName string
	LastName  string
	UserGroup string
	IsVisited bool
}

type ListVisitsForParaParams struct {
	ParaID    int64
	VisitDate time.Time
}

// ListVisitsForPara returns one row per Visit on the roll for a single
// para and date. Row order is the query's natural group/name order; the
// caller partitions by UserGroup in first-seen order.
func (q *Queries) ListVisitsForPara(ctx context.Context, arg ListVisitsForParaParams) ([]ParaVisitRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT s.id, s.first_name, s.last_name, s.user_group, v.is_visited
		FROM visits v
		JOIN students s ON s.id = v.student_id
		WHERE v.para_id = $1 AND v.visit_date = $2
		ORDER BY s.user_group, s.last_name, s.first_name
	`, arg.ParaID, arg.VisitDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []ParaVisitRow
	for rows.Next() {
		var visit ParaVisitRow
		if err := rows.Scan(&visit.StudentID, &visit.FirstName, &visit.LastName, &visit.UserGroup, &visit.IsVisited); err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}

type SubjectVisitRow struct {
	StudentID int64
	FirstName string
	LastName  string
	VisitDate time.Time
	IsVisited bool
}

type ListVisitsForSubjectParams struct {
	TeacherID int64
	LessonID  int64
	GroupID   string
	StartDate time.Time
	EndDate   time.Time
}

// ListVisitsForSubject returns the visit history for one teacher,
// lesson and group over an inclusive date range.
func (q *Queries) ListVisitsForSubject(ctx context.Context, arg ListVisitsForSubjectParams) ([]SubjectVisitRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT s.id, s.first_name, s.last_name, v.visit_date, v.is_visited
		FROM visits v
		JOIN students s ON s.id = v.student_id
		JOIN paras p ON p.id = v.para_id
		WHERE p.teacher_id = $1
		  AND p.lesson_id = $2
		  AND $3 = ANY(p.group_ids)
		  AND v.visit_date BETWEEN $4 AND $5
		ORDER BY s.last_name, s.first_name, s.id, v.visit_date
	`, arg.TeacherID, arg.LessonID, arg.GroupID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []SubjectVisitRow
	for rows.Next() {
		var visit SubjectVisitRow
		if err := rows.Scan(&visit.StudentID, &visit.FirstName, &visit.LastName, &visit.VisitDate, &visit.IsVisited); err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}

type UpdateVisitParams struct {
	StudentID int64
	ParaID    int64
	VisitDate time.Time
	IsVisited bool
}

// UpdateVisit flips one Visit keyed by its composite key. It never
// creates missing rows; the caller decides whether zero matches is an
// error.
func (q *Queries) UpdateVisit(ctx context.Context, arg UpdateVisitParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE visits
		SET is_visited = $4
		WHERE student_id = $1 AND para_id = $2 AND visit_date = $3
	`, arg.StudentID, arg.ParaID, arg.VisitDate, arg.IsVisited)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type MarkVisitedParams struct {
	StudentID int64
	ParaID    int64
}

// MarkVisited is the self check-in write: it targets the student's
// Visit rows for the para without a date filter, matching the roll as
// the schedule generator seeded it.
func (q *Queries) MarkVisited(ctx context.Context, arg MarkVisitedParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE visits
		SET is_visited = TRUE
		WHERE student_id = $1 AND para_id = $2
	`, arg.StudentID, arg.ParaID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
