package db

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type UserRole string

const (
	UserRoleTeacher UserRole = "teacher"
	UserRoleStudent UserRole = "student"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}

type Teacher struct {
	ID     int64
	UserID int64
}

type Student struct {
	ID        int64
	FirstName string
	LastName  string
	UserGroup string
}

type Lesson struct {
	ID    int64
	Title string
}

// Para is one recurring occurrence of a lesson for a teacher. PairCode
// and AccessCode are NULL when no self check-in or gate is active.
type Para struct {
	ID         int64
	TeacherID  int64
	LessonID   int64
	GroupIDs   []string
	StartsAt   string
	Weekdays   []int32
	PairCode   pgtype.Text
	AccessCode pgtype.Text
}

type Visit struct {
	StudentID int64
	ParaID    int64
	VisitDate time.Time
	IsVisited bool
}
