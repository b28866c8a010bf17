package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"rollcall/internal/auth"
)

// These tests run against a live server with the demo seed applied:
//
//	migrate up
//	INTEGRATION_TESTS=1 go test ./internal/http/
//
// Seed fixtures: teacher 1, lessons 1-2, paras 1-3 (para 2 gated by
// GATE-271, para 1 by GATE-314), students 1-2 in group 101 and 3 in
// 102, visits for para 1 on the seed day.

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type rosterGroup struct {
	Group  string `json:"group"`
	Visits []struct {
		StudentID       int64  `json:"studentId"`
		StudentName     string `json:"studentName"`
		StudentLastname string `json:"studentLastname"`
		IsVisited       bool   `json:"isVisited"`
	} `json:"visits"`
}

func baseURL() string {
	if addr := os.Getenv("ROLLCALL_HTTP_ADDR"); addr != "" {
		return addr
	}
	return "http://127.0.0.1:8080"
}

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
}

func doJSON(t *testing.T, method, url string, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func decodeInto(t *testing.T, raw []byte, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode response %s: %v", raw, err)
	}
}

func fetchRoster(t *testing.T, paraID int64, date string) []rosterGroup {
	t.Helper()
	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/attendance?paraId=%d&date=%s", baseURL(), paraID, date), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attendance status %d: %s", resp.StatusCode, body)
	}
	var groups []rosterGroup
	decodeInto(t, body, &groups)
	return groups
}

func rosterVisited(t *testing.T, groups []rosterGroup, studentID int64) bool {
	t.Helper()
	for _, group := range groups {
		for _, visit := range group.Visits {
			if visit.StudentID == studentID {
				return visit.IsVisited
			}
		}
	}
	t.Fatalf("student %d not on roster", studentID)
	return false
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func TestRegisterAndLogin(t *testing.T) {
	skipUnlessIntegration(t)

	email := fmt.Sprintf("teacher-%d@demo.local", time.Now().UnixNano())
	password := "dev-password"

	resp, body := doJSON(t, http.MethodPost, baseURL()+"/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"role":     "teacher",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status %d: %s", resp.StatusCode, body)
	}
	var registered struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		TeacherID *int64 `json:"teacherId"`
	}
	decodeInto(t, body, &registered)
	if registered.ID == 0 || registered.TeacherID == nil {
		t.Fatalf("expected user and teacher ids, got %s", body)
	}

	// Duplicate registration conflicts.
	resp, body = doJSON(t, http.MethodPost, baseURL()+"/auth/register", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d: %s", resp.StatusCode, body)
	}
	var errResp errorResponse
	decodeInto(t, body, &errResp)
	if errResp.Error != "email_exists" {
		t.Fatalf("expected email_exists, got %s", errResp.Error)
	}

	resp, _ = doJSON(t, http.MethodPost, baseURL()+"/auth/login", map[string]string{
		"email":    email,
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on wrong password, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, baseURL()+"/auth/login", map[string]string{
		"email":    "nobody@demo.local",
		"password": password,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on unknown email, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, baseURL()+"/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", resp.StatusCode, body)
	}
	var logged struct {
		Token string `json:"token"`
		User  struct {
			ID        int64  `json:"id"`
			TeacherID *int64 `json:"teacherId"`
		} `json:"user"`
	}
	decodeInto(t, body, &logged)

	// Registration writes the user and teacher rows in one transaction;
	// login must see both or neither.
	if logged.User.TeacherID == nil || *logged.User.TeacherID != *registered.TeacherID {
		t.Fatalf("login teacher id %v, registered %v", logged.User.TeacherID, registered.TeacherID)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}
	claims, err := auth.ParseToken(secret, logged.Token)
	if err != nil {
		t.Fatalf("token parse: %v", err)
	}
	if claims.UserID != registered.ID {
		t.Fatalf("token user %d, registered %d", claims.UserID, registered.ID)
	}
	if remaining := time.Until(claims.ExpiresAt.Time); remaining <= 0 || remaining > time.Hour {
		t.Fatalf("unexpected token lifetime: %s", remaining)
	}
}

func TestScheduleAndSubjects(t *testing.T) {
	skipUnlessIntegration(t)

	resp, body := doJSON(t, http.MethodGet, baseURL()+"/schedule?teacherId=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("schedule status %d: %s", resp.StatusCode, body)
	}
	var paras []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	decodeInto(t, body, &paras)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paras, got %d", len(paras))
	}

	resp, body = doJSON(t, http.MethodGet, baseURL()+"/schedule?teacherId=1&weekday=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("weekday schedule status %d: %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &paras)
	if len(paras) != 1 || paras[0].ID != 1 {
		t.Fatalf("expected only para 1 on weekday 1, got %s", body)
	}

	resp, _ = doJSON(t, http.MethodGet, baseURL()+"/schedule?teacherId=999999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown teacher, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, baseURL()+"/subjects?teacherId=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("subjects status %d: %s", resp.StatusCode, body)
	}
	var subjects []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	decodeInto(t, body, &subjects)
	if len(subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(subjects))
	}

	resp, _ = doJSON(t, http.MethodGet, baseURL()+"/subjects?teacherId=999999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for teacher without subjects, got %d", resp.StatusCode)
	}
}

func TestRosterGrouping(t *testing.T) {
	skipUnlessIntegration(t)

	groups := fetchRoster(t, 1, today())
	if len(groups) != 2 {
		t.Fatalf("expected 2 group buckets, got %d", len(groups))
	}
	byGroup := make(map[string]int)
	total := 0
	for _, group := range groups {
		byGroup[group.Group] = len(group.Visits)
		total += len(group.Visits)
	}
	if byGroup["101"] != 2 || byGroup["102"] != 1 {
		t.Fatalf("unexpected bucket sizes: %v", byGroup)
	}
	if total != 3 {
		t.Fatalf("expected each student in exactly one bucket, got %d entries", total)
	}
	if !rosterVisited(t, groups, 3) {
		t.Fatalf("expected seeded student 3 to be visited")
	}

	// Para 3 has no visit rows at all: that's a 404, not an empty roll.
	resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/attendance?paraId=3&date=%s", baseURL(), today()), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for empty roll, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, baseURL()+"/attendance?paraId=1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing date, got %d", resp.StatusCode)
	}
}

func TestRangeAggregation(t *testing.T) {
	skipUnlessIntegration(t)

	start := time.Now().AddDate(0, 0, -10).Format("2006-01-02")
	url := fmt.Sprintf("%s/attendance/subject?teacherId=1&subjectId=1&groupId=101&startDate=%s&endDate=%s",
		baseURL(), start, today())
	resp, body := doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("range status %d: %s", resp.StatusCode, body)
	}
	var ranged struct {
		StudentsList []struct {
			StudentID int64 `json:"studentId"`
			Visits    []struct {
				Date      string `json:"date"`
				IsVisited bool   `json:"isVisited"`
			} `json:"visits"`
		} `json:"studentsList"`
	}
	decodeInto(t, body, &ranged)
	if len(ranged.StudentsList) == 0 {
		t.Fatalf("expected students in range, got %s", body)
	}
	for _, student := range ranged.StudentsList {
		if len(student.Visits) == 0 {
			t.Fatalf("student %d has no visits", student.StudentID)
		}
	}

	// An empty range answers 200 with an empty list, never 404.
	url = baseURL() + "/attendance/subject?teacherId=1&subjectId=1&groupId=101&startDate=2000-01-01&endDate=2000-01-02"
	resp, body = doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty range status %d: %s", resp.StatusCode, body)
	}
	ranged.StudentsList = nil
	decodeInto(t, body, &ranged)
	if ranged.StudentsList == nil || len(ranged.StudentsList) != 0 {
		t.Fatalf("expected empty studentsList, got %s", body)
	}

	resp, _ = doJSON(t, http.MethodGet, baseURL()+"/attendance/subject?teacherId=1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing params, got %d", resp.StatusCode)
	}
}

func TestBatchUpdateIsAtomic(t *testing.T) {
	skipUnlessIntegration(t)

	resp, body := doJSON(t, http.MethodPost, baseURL()+"/attendance", map[string]interface{}{
		"visits": []map[string]interface{}{
			{"studentId": 1, "paraId": 1, "date": today(), "isVisited": true},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("batch update status %d: %s", resp.StatusCode, body)
	}
	if !rosterVisited(t, fetchRoster(t, 1, today()), 1) {
		t.Fatalf("expected student 1 marked visited")
	}

	// A failing record anywhere in the batch rolls back the whole batch.
	resp, body = doJSON(t, http.MethodPost, baseURL()+"/attendance", map[string]interface{}{
		"visits": []map[string]interface{}{
			{"studentId": 1, "paraId": 1, "date": today(), "isVisited": false},
			{"studentId": 999999, "paraId": 1, "date": today(), "isVisited": true},
		},
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 on failing batch, got %d: %s", resp.StatusCode, body)
	}
	if !rosterVisited(t, fetchRoster(t, 1, today()), 1) {
		t.Fatalf("batch was partially applied: student 1 lost its mark")
	}

	resp, _ = doJSON(t, http.MethodPost, baseURL()+"/attendance", map[string]interface{}{
		"visits": []map[string]interface{}{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", resp.StatusCode)
	}
}

func TestPairCodeCheckIn(t *testing.T) {
	skipUnlessIntegration(t)

	resp, body := doJSON(t, http.MethodPost, baseURL()+"/attendance/paircode", map[string]interface{}{
		"teacherId":  1,
		"paraId":     1,
		"ttlSeconds": 120,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pair code issue status %d: %s", resp.StatusCode, body)
	}
	var issued struct {
		PairCode string `json:"pairCode"`
		Validity int64  `json:"validity"`
	}
	decodeInto(t, body, &issued)
	if issued.PairCode == "" || issued.Validity <= 0 {
		t.Fatalf("unexpected issue response: %s", body)
	}

	resp, body = doJSON(t, http.MethodPost, baseURL()+"/attendance/mark", map[string]interface{}{
		"studentId": 2,
		"pairCode":  issued.PairCode,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark status %d: %s", resp.StatusCode, body)
	}
	var marked okResponse
	decodeInto(t, body, &marked)
	if !marked.OK {
		t.Fatalf("expected ok, got %s", body)
	}
	if !rosterVisited(t, fetchRoster(t, 1, today()), 2) {
		t.Fatalf("expected student 2 visited after check-in")
	}

	// An unknown code never creates rows; it is rejected outright.
	resp, body = doJSON(t, http.MethodPost, baseURL()+"/attendance/mark", map[string]interface{}{
		"studentId": 2,
		"pairCode":  "not-a-code",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown pair code, got %d: %s", resp.StatusCode, body)
	}
	var errResp errorResponse
	decodeInto(t, body, &errResp)
	if errResp.Error != "invalid_pair_code" {
		t.Fatalf("expected invalid_pair_code, got %s", errResp.Error)
	}
}

func TestPairCodeExpiry(t *testing.T) {
	skipUnlessIntegration(t)
	if os.Getenv("REDIS_ADDR") == "" {
		t.Skip("set REDIS_ADDR to run expiry checks")
	}

	resp, body := doJSON(t, http.MethodPost, baseURL()+"/attendance/paircode", map[string]interface{}{
		"teacherId":  1,
		"paraId":     1,
		"ttlSeconds": 1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pair code issue status %d: %s", resp.StatusCode, body)
	}
	var issued struct {
		PairCode string `json:"pairCode"`
	}
	decodeInto(t, body, &issued)

	time.Sleep(2 * time.Second)

	// The code still sits on the para row until the sweep clears it, but
	// check-in must refuse it the moment the TTL lapses.
	resp, body = doJSON(t, http.MethodPost, baseURL()+"/attendance/mark", map[string]interface{}{
		"studentId": 1,
		"pairCode":  issued.PairCode,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for expired pair code, got %d: %s", resp.StatusCode, body)
	}
	var errResp errorResponse
	decodeInto(t, body, &errResp)
	if errResp.Error != "invalid_pair_code" {
		t.Fatalf("expected invalid_pair_code, got %s", errResp.Error)
	}
}

func TestAccessGate(t *testing.T) {
	skipUnlessIntegration(t)

	check := func(paraID int64, code string) bool {
		resp, body := doJSON(t, http.MethodPost, baseURL()+"/attendance/access", map[string]interface{}{
			"teacherId":  1,
			"pairId":     paraID,
			"accessCode": code,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("access status %d: %s", resp.StatusCode, body)
		}
		var ok okResponse
		decodeInto(t, body, &ok)
		return ok.OK
	}

	// Verification is repeatable.
	if !check(2, "GATE-271") || !check(2, "GATE-271") {
		t.Fatalf("expected seeded access code to verify")
	}
	if check(2, "WRONG") {
		t.Fatalf("expected mismatched code to answer ok=false")
	}

	resp, body := doJSON(t, http.MethodPost, baseURL()+"/attendance/access/remove", map[string]interface{}{
		"teacherId":  1,
		"pairId":     1,
		"accessCode": "GATE-314",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove status %d: %s", resp.StatusCode, body)
	}
	var removed okResponse
	decodeInto(t, body, &removed)
	if !removed.OK {
		t.Fatalf("expected removal of seeded code to succeed")
	}

	// Revocation is visible to the immediately following check.
	if check(1, "GATE-314") {
		t.Fatalf("expected revoked code to answer ok=false")
	}
	resp, body = doJSON(t, http.MethodPost, baseURL()+"/attendance/access/remove", map[string]interface{}{
		"teacherId":  1,
		"pairId":     1,
		"accessCode": "GATE-314",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second remove status %d: %s", resp.StatusCode, body)
	}
	removed = okResponse{}
	decodeInto(t, body, &removed)
	if removed.OK {
		t.Fatalf("expected second removal to answer ok=false")
	}
}
