package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"rollcall/internal/crypto"
	"rollcall/internal/db"
)

// errVisitMissing aborts the batch transaction when an update targets a
// composite key with no Visit row behind it.
var errVisitMissing = errors.New("visit row missing")

func (s *Server) handleGetAttendance(w http.ResponseWriter, r *http.Request) {
	paraIDRaw := r.URL.Query().Get("paraId")
	dateRaw := r.URL.Query().Get("date")
	if paraIDRaw == "" || dateRaw == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	paraID, err := parseID(paraIDRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_para_id")
		return
	}
	date, err := parseDate(dateRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	rows, err := s.store.Queries.ListVisitsForPara(r.Context(), db.ListVisitsForParaParams{
		ParaID:    paraID,
		VisitDate: date,
	})
	if err != nil {
		log.Printf("attendance lookup failed: para=%d date=%s: %v", paraID, dateRaw, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	// A roll with every is_visited=false is still a roll; only a para/date
	// with no rows at all is a 404.
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "attendance_not_found")
		return
	}

	writeJSON(w, http.StatusOK, groupRoster(rows))
}

type studentsListResponse struct {
	StudentsList []studentHistory `json:"studentsList"`
}

func (s *Server) handleGetAttendanceBySubject(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	teacherIDRaw := query.Get("teacherId")
	subjectIDRaw := query.Get("subjectId")
	groupID := query.Get("groupId")
	startRaw := query.Get("startDate")
	endRaw := query.Get("endDate")
	if teacherIDRaw == "" || subjectIDRaw == "" || groupID == "" || startRaw == "" || endRaw == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	teacherID, err := parseID(teacherIDRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_teacher_id")
		return
	}
	subjectID, err := parseID(subjectIDRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_subject_id")
		return
	}
	startDate, err := parseDate(startRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	endDate, err := parseDate(endRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	rows, err := s.store.Queries.ListVisitsForSubject(r.Context(), db.ListVisitsForSubjectParams{
		TeacherID: teacherID,
		LessonID:  subjectID,
		GroupID:   groupID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("attendance range lookup failed: teacher=%d subject=%d group=%s: %v", teacherID, subjectID, groupID, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Unlike the single-lesson view, an empty range is a valid outcome
	// and answers 200 with an empty list.
	writeJSON(w, http.StatusOK, studentsListResponse{StudentsList: aggregateHistory(rows)})
}

type visitUpdate struct {
	StudentID int64  `json:"studentId"`
	ParaID    int64  `json:"paraId"`
	Date      string `json:"date"`
	IsVisited bool   `json:"isVisited"`
}

type updateAttendanceRequest struct {
	Visits []visitUpdate `json:"visits"`
}

func (s *Server) handleUpdateAttendance(w http.ResponseWriter, r *http.Request) {
	var req updateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.Visits) == 0 {
		writeError(w, http.StatusBadRequest, "missing_visits")
		return
	}

	updates := make([]db.UpdateVisitParams, 0, len(req.Visits))
	for _, visit := range req.Visits {
		if visit.StudentID == 0 || visit.ParaID == 0 || visit.Date == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		date, err := parseDate(visit.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
		updates = append(updates, db.UpdateVisitParams{
			StudentID: visit.StudentID,
			ParaID:    visit.ParaID,
			VisitDate: date,
			IsVisited: visit.IsVisited,
		})
	}

	// All-or-nothing: a failure on any record rolls back every record.
	err := s.store.WithTx(r.Context(), func(q *db.Queries) error {
		for _, update := range updates {
			affected, err := q.UpdateVisit(r.Context(), update)
			if err != nil {
				return err
			}
			if affected == 0 {
				return errVisitMissing
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("attendance batch update rolled back: %d records: %v", len(updates), err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type markAttendanceRequest struct {
	StudentID int64  `json:"studentId"`
	PairCode  string `json:"pairCode"`
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.StudentID == 0 || req.PairCode == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	alive, err := s.codes.Alive(r.Context(), req.PairCode)
	if err != nil {
		log.Printf("pair code check failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !alive {
		writeError(w, http.StatusNotFound, "invalid_pair_code")
		return
	}

	para, err := s.store.Queries.GetParaByPairCode(r.Context(), req.PairCode)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "invalid_pair_code")
		return
	}
	if err != nil {
		log.Printf("pair code lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	affected, err := s.store.Queries.MarkVisited(r.Context(), db.MarkVisitedParams{
		StudentID: req.StudentID,
		ParaID:    para.ID,
	})
	if err != nil {
		log.Printf("check-in update failed: student=%d para=%d: %v", req.StudentID, para.ID, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	// ok stays true even when nothing matched; the roll may simply not
	// list this student. Logged so the silent case is visible.
	if affected == 0 {
		log.Printf("check-in matched no visit rows: student=%d para=%d", req.StudentID, para.ID)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type issuePairCodeRequest struct {
	TeacherID  int64 `json:"teacherId"`
	ParaID     int64 `json:"paraId"`
	TTLSeconds int64 `json:"ttlSeconds"`
}

func (s *Server) handleIssuePairCode(w http.ResponseWriter, r *http.Request) {
	var req issuePairCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TeacherID == 0 || req.ParaID == 0 {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	code, err := crypto.NewPairCode()
	if err != nil {
		log.Printf("pair code generation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	affected, err := s.store.Queries.SetPairCode(r.Context(), db.SetPairCodeParams{
		ParaID:    req.ParaID,
		TeacherID: req.TeacherID,
		PairCode:  code,
	})
	if err != nil {
		log.Printf("pair code store failed: para=%d: %v", req.ParaID, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if affected == 0 {
		writeError(w, http.StatusNotFound, "para_not_found")
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = s.cfg.PairCodeTTL
	}
	if err := s.codes.Issue(r.Context(), code, req.ParaID, ttl); err != nil {
		log.Printf("pair code ttl store failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pairCode": code,
		"validity": int64(ttl.Seconds()),
	})
}

type accessRequest struct {
	TeacherID  int64  `json:"teacherId"`
	PairID     int64  `json:"pairId"`
	AccessCode string `json:"accessCode"`
}

func (s *Server) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TeacherID == 0 || req.PairID == 0 || req.AccessCode == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	ok, err := s.store.Queries.CheckAccessCode(r.Context(), db.AccessCodeParams{
		TeacherID:  req.TeacherID,
		ParaID:     req.PairID,
		AccessCode: req.AccessCode,
	})
	if err != nil {
		log.Printf("access check failed: para=%d: %v", req.PairID, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// No match is an authorization answer, not a lookup failure.
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (s *Server) handleRemoveAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TeacherID == 0 || req.PairID == 0 || req.AccessCode == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	ok, err := s.store.Queries.RevokeAccessCode(r.Context(), db.AccessCodeParams{
		TeacherID:  req.TeacherID,
		ParaID:     req.PairID,
		AccessCode: req.AccessCode,
	})
	if err != nil {
		log.Printf("access revoke failed: para=%d: %v", req.PairID, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
