package db

import (
	"context"
)

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	row := q.db.QueryRow(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	return user, err
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         UserRole
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	user := User{Email: arg.Email, PasswordHash: arg.PasswordHash, Role: arg.Role}
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, arg.Email, arg.PasswordHash, arg.Role)
	err := row.Scan(&user.ID, &user.CreatedAt)
	return user, err
}

func (q *Queries) GetTeacherByUserID(ctx context.Context, userID int64) (Teacher, error) {
	var teacher Teacher
	row := q.db.QueryRow(ctx, `
		SELECT id, user_id
		FROM teachers
		WHERE user_id = $1
	`, userID)
	err := row.Scan(&teacher.ID, &teacher.UserID)
	return teacher, err
}

func (q *Queries) CreateTeacher(ctx context.Context, userID int64) (Teacher, error) {
	teacher := Teacher{UserID: userID}
	row := q.db.QueryRow(ctx, `
		INSERT INTO teachers (user_id)
		VALUES ($1)
		RETURNING id
	`, userID)
	err := row.Scan(&teacher.ID)
	return teacher, err
}
