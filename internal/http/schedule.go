package http

import (
	"log"
	"net/http"

	"rollcall/internal/db"
)

type paraResponse struct {
	ID       int64    `json:"id"`
	LessonID int64    `json:"lessonId"`
	Title    string   `json:"title"`
	Groups   []string `json:"groups"`
	StartsAt string   `json:"startsAt"`
	Weekdays []int32  `json:"weekdays"`
}

func mapPara(para db.ParaWithLesson) paraResponse {
	return paraResponse{
		ID:       para.ID,
		LessonID: para.LessonID,
		Title:    para.LessonTitle,
		Groups:   para.GroupIDs,
		StartsAt: para.StartsAt,
		Weekdays: para.Weekdays,
	}
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	teacherIDRaw := r.URL.Query().Get("teacherId")
	if teacherIDRaw == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	teacherID, err := parseID(teacherIDRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_teacher_id")
		return
	}

	var paras []db.ParaWithLesson
	if weekdayRaw := r.URL.Query().Get("weekday"); weekdayRaw != "" {
		weekday, err := parseID(weekdayRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_weekday")
			return
		}
		paras, err = s.store.Queries.ListParasByTeacherAndWeekday(r.Context(), db.ListParasByTeacherAndWeekdayParams{
			TeacherID: teacherID,
			Weekday:   int32(weekday),
		})
		if err != nil {
			log.Printf("schedule lookup failed: teacher=%d weekday=%s: %v", teacherID, weekdayRaw, err)
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	} else {
		paras, err = s.store.Queries.ListParasByTeacher(r.Context(), teacherID)
		if err != nil {
			log.Printf("schedule lookup failed: teacher=%d: %v", teacherID, err)
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}

	if len(paras) == 0 {
		writeError(w, http.StatusNotFound, "schedule_not_found")
		return
	}

	resp := make([]paraResponse, 0, len(paras))
	for _, para := range paras {
		resp = append(resp, mapPara(para))
	}
	writeJSON(w, http.StatusOK, resp)
}

type subjectResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func (s *Server) handleGetSubjects(w http.ResponseWriter, r *http.Request) {
	teacherIDRaw := r.URL.Query().Get("teacherId")
	if teacherIDRaw == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	teacherID, err := parseID(teacherIDRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_teacher_id")
		return
	}

	lessons, err := s.store.Queries.ListLessonsByTeacher(r.Context(), teacherID)
	if err != nil {
		log.Printf("subjects lookup failed: teacher=%d: %v", teacherID, err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if len(lessons) == 0 {
		writeError(w, http.StatusNotFound, "subjects_not_found")
		return
	}

	resp := make([]subjectResponse, 0, len(lessons))
	for _, lesson := range lessons {
		resp = append(resp, subjectResponse{ID: lesson.ID, Title: lesson.Title})
	}
	writeJSON(w, http.StatusOK, resp)
}
