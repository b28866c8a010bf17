package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"rollcall/internal/auth"
	"rollcall/internal/crypto"
	"rollcall/internal/db"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userSummary struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TeacherID *int64 `json:"teacherId,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}
	role := db.UserRole(req.Role)
	if role == "" {
		role = db.UserRoleTeacher
	}
	if role != db.UserRoleTeacher && role != db.UserRoleStudent {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		log.Printf("password hash failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Both inserts commit together: a failed teacher row must not leave
	// an email behind that answers 409 on retry.
	var summary userSummary
	err = s.store.WithTx(r.Context(), func(q *db.Queries) error {
		user, err := q.CreateUser(r.Context(), db.CreateUserParams{
			Email:        req.Email,
			PasswordHash: hash,
			Role:         role,
		})
		if err != nil {
			return err
		}
		summary = userSummary{ID: user.ID, Email: user.Email, Role: string(user.Role)}
		if role == db.UserRoleTeacher {
			teacher, err := q.CreateTeacher(r.Context(), user.ID)
			if err != nil {
				return err
			}
			summary.TeacherID = &teacher.ID
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "email_exists")
			return
		}
		log.Printf("registration failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.store.Queries.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	if err != nil {
		log.Printf("user lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	summary := userSummary{ID: user.ID, Email: user.Email, Role: string(user.Role)}
	if user.Role == db.UserRoleTeacher {
		teacher, err := s.store.Queries.GetTeacherByUserID(r.Context(), user.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("teacher lookup failed: user=%d: %v", user.ID, err)
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if err == nil {
			summary.TeacherID = &teacher.ID
		}
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		log.Printf("token issue failed: user=%d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: summary})
}
