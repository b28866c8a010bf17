package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"rollcall/internal/db"
)

const dateLayout = "2006-01-02"

func decodeJSON(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

// Roster reshaping

type rosterVisit struct {
	StudentID       int64  `json:"studentId"`
	StudentName     string `json:"studentName"`
	StudentLastname string `json:"studentLastname"`
	IsVisited       bool   `json:"isVisited"`
}

type rosterGroup struct {
	Group  string        `json:"group"`
	Visits []rosterVisit `json:"visits"`
}

// groupRoster partitions a lesson roll into per-group buckets. Bucket
// order is first-seen order in the row set; every student lands in
// exactly one bucket, keyed by its own group value.
func groupRoster(rows []db.ParaVisitRow) []rosterGroup {
	groups := make([]rosterGroup, 0, len(rows))
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.UserGroup]
		if !ok {
			i = len(groups)
			index[row.UserGroup] = i
			groups = append(groups, rosterGroup{Group: row.UserGroup})
		}
		groups[i].Visits = append(groups[i].Visits, rosterVisit{
			StudentID:       row.StudentID,
			StudentName:     row.FirstName,
			StudentLastname: row.LastName,
			IsVisited:       row.IsVisited,
		})
	}
	return groups
}

type historyVisit struct {
	Date      string `json:"date"`
	IsVisited bool   `json:"isVisited"`
}

type studentHistory struct {
	StudentID       int64          `json:"studentId"`
	StudentName     string         `json:"studentName"`
	StudentLastname string         `json:"studentLastname"`
	Visits          []historyVisit `json:"visits"`
}

// aggregateHistory folds range rows into one entry per student, in
// first-appearance order, with that student's visits in arrival order.
// The result is never nil so an empty range marshals as [].
func aggregateHistory(rows []db.SubjectVisitRow) []studentHistory {
	students := make([]studentHistory, 0, len(rows))
	index := make(map[int64]int)
	for _, row := range rows {
		i, ok := index[row.StudentID]
		if !ok {
			i = len(students)
			index[row.StudentID] = i
			students = append(students, studentHistory{
				StudentID:       row.StudentID,
				StudentName:     row.FirstName,
				StudentLastname: row.LastName,
			})
		}
		students[i].Visits = append(students[i].Visits, historyVisit{
			Date:      row.VisitDate.Format(dateLayout),
			IsVisited: row.IsVisited,
		})
	}
	return students
}
