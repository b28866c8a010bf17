package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ParaWithLesson struct {
	ID          int64
	TeacherID   int64
	LessonID    int64
	LessonTitle string
	GroupIDs    []string
	StartsAt    string
	Weekdays    []int32
	AccessCode  pgtype.Text
}

const paraWithLessonColumns = `
	p.id, p.teacher_id, p.lesson_id, l.title, p.group_ids, p.starts_at, p.weekdays, p.access_code
`

func scanParaWithLesson(row pgx.Row, para *ParaWithLesson) error {
	return row.Scan(
		&para.ID,
		&para.TeacherID,
		&para.LessonID,
		&para.LessonTitle,
		&para.GroupIDs,
		&para.StartsAt,
		&para.Weekdays,
		&para.AccessCode,
	)
}

func (q *Queries) ListParasByTeacher(ctx context.Context, teacherID int64) ([]ParaWithLesson, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+paraWithLessonColumns+`
		FROM paras p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.teacher_id = $1
		ORDER BY p.id
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paras []ParaWithLesson
	for rows.Next() {
		var para ParaWithLesson
		if err := scanParaWithLesson(rows, &para); err != nil {
			return nil, err
		}
		paras = append(paras, para)
	}
	return paras, rows.Err()
}

type ListParasByTeacherAndWeekdayParams struct {
	TeacherID int64
	Weekday   int32
}

func (q *Queries) ListParasByTeacherAndWeekday(ctx context.Context, arg ListParasByTeacherAndWeekdayParams) ([]ParaWithLesson, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+paraWithLessonColumns+`
		FROM paras p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.teacher_id = $1 AND $2 = ANY(p.weekdays)
		ORDER BY p.starts_at, p.id
	`, arg.TeacherID, arg.Weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paras []ParaWithLesson
	for rows.Next() {
		var para ParaWithLesson
		if err := scanParaWithLesson(rows, &para); err != nil {
			return nil, err
		}
		paras = append(paras, para)
	}
	return paras, rows.Err()
}

func (q *Queries) ListLessonsByTeacher(ctx context.Context, teacherID int64) ([]Lesson, error) {
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT l.id, l.title
		FROM lessons l
		JOIN paras p ON p.lesson_id = l.id
		WHERE p.teacher_id = $1
		ORDER BY l.id
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		var lesson Lesson
		if err := rows.Scan(&lesson.ID, &lesson.Title); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}
