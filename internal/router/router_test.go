package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campus-report/internal/config"
	"campus-report/internal/database/dbtest"
	"campus-report/internal/upload"
	"campus-report/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 128)...)

type envelope struct {
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Pagination *utils.Pagination `json:"pagination"`
	Error      string            `json:"error"`
}

type testServer struct {
	engine    *gin.Engine
	uploadDir string
}

type filePart struct {
	name        string
	contentType string
	content     []byte
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, _ := test.NewNullLogger()
	uploadDir := filepath.Join(t.TempDir(), "uploads")
	cfg := &config.Config{
		Server:   config.ServerConfig{RequestTimeoutSeconds: 30},
		Database: config.DatabaseConfig{Driver: "sqlite"},
		Upload: config.UploadConfig{
			Dir:          uploadDir,
			URLPrefix:    "/uploads",
			FieldName:    "photo",
			MaxSize:      5 << 20,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg"},
		},
		Security: config.SecurityConfig{BcryptCost: 10},
		CORS:     config.CORSConfig{Origins: []string{"*"}},
	}

	photos, err := upload.NewPhotoStore(upload.Options{
		Dir:          cfg.Upload.Dir,
		MaxSize:      cfg.Upload.MaxSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
	}, logger)
	if err != nil {
		t.Fatalf("photo store: %v", err)
	}

	return &testServer{
		engine:    SetupRouter(cfg, logger, dbtest.Open(t), photos),
		uploadDir: uploadDir,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", req.Method, req.URL, err, w.Body.String())
		}
	}
	return w, env
}

func (s *testServer) json(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func (s *testServer) multipart(t *testing.T, method, path string, fields map[string]string, files ...filePart) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename="%s"`, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req)
}

func (s *testServer) form(t *testing.T, method, path string, fields map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func (s *testServer) register(t *testing.T, email, studentID string) uint {
	t.Helper()
	w, env := s.json(t, http.MethodPost, "/api/users/register", map[string]string{
		"email": email, "password": "secret123", "name": "Student " + studentID, "student_id": studentID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}
	var user struct {
		ID uint `json:"id"`
	}
	decode(t, env.Data, &user)
	return user.ID
}

func (s *testServer) createReport(t *testing.T, userID uint, title, location string) uint {
	t.Helper()
	w, env := s.form(t, http.MethodPost, "/api/reports", map[string]string{
		"description":  "details for " + title,
		"report_title": title,
		"location":     location,
		"user_id":      fmt.Sprint(userID),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create report %s: %d %s", title, w.Code, w.Body.String())
	}
	var report struct {
		ID uint `json:"id"`
	}
	decode(t, env.Data, &report)
	return report.ID
}

func (s *testServer) uploadCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	return len(entries)
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, raw)
	}
}

func expect(t *testing.T, w *httptest.ResponseRecorder, env envelope, code int, message string) {
	t.Helper()
	if w.Code != code || env.Message != message {
		t.Fatalf("expected %d %q got %d %s", code, message, w.Code, w.Body.String())
	}
}

func TestRootBanner(t *testing.T) {
	s := newTestServer(t)
	w, env := s.json(t, http.MethodGet, "/", nil)
	expect(t, w, env, http.StatusOK, "Simple Damage Reporting API is running!")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"email": "dup@campus.edu", "password": "pw", "name": "A", "student_id": "S1"}

	w, env := s.json(t, http.MethodPost, "/api/users/register", body)
	expect(t, w, env, http.StatusCreated, "User created successfully")

	body["student_id"] = "S2"
	w, env = s.json(t, http.MethodPost, "/api/users/register", body)
	expect(t, w, env, http.StatusBadRequest, "Email already exists")

	w, env = s.json(t, http.MethodPost, "/api/users/register", map[string]string{"email": "x@campus.edu"})
	expect(t, w, env, http.StatusBadRequest, "All fields are required: email, password, name, student_id")
}

func TestPasswordOverBcryptLimit(t *testing.T) {
	s := newTestServer(t)
	long := strings.Repeat("p", 73)

	w, env := s.json(t, http.MethodPost, "/api/users/register", map[string]string{
		"email": "long@campus.edu", "password": long, "name": "L", "student_id": "S1",
	})
	expect(t, w, env, http.StatusBadRequest, "Password must be at most 72 bytes")

	id := s.register(t, "long@campus.edu", "S1")
	w, env = s.json(t, http.MethodPut, fmt.Sprintf("/api/users/%d", id), map[string]string{"password": long})
	expect(t, w, env, http.StatusBadRequest, "Password must be at most 72 bytes")
}

func TestLoginFailuresShareBody(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "login@campus.edu", "S1")

	w, env := s.json(t, http.MethodPost, "/api/users/login", map[string]string{"email": "login@campus.edu", "password": "secret123"})
	expect(t, w, env, http.StatusOK, "Login successful")
	if strings.Contains(w.Body.String(), "password") || strings.Contains(w.Body.String(), "token") {
		t.Fatalf("login response leaks data: %s", w.Body.String())
	}

	wrong, _ := s.json(t, http.MethodPost, "/api/users/login", map[string]string{"email": "login@campus.edu", "password": "bad"})
	unknown, _ := s.json(t, http.MethodPost, "/api/users/login", map[string]string{"email": "ghost@campus.edu", "password": "bad"})
	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s got %d and %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}
}

func TestUserNeverExposesPassword(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t, "safe@campus.edu", "S1")

	for _, path := range []string{"/api/users", fmt.Sprintf("/api/users/%d", id)} {
		w, _ := s.json(t, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, w.Code)
		}
		if strings.Contains(w.Body.String(), "password") {
			t.Fatalf("%s leaks password: %s", path, w.Body.String())
		}
	}

	w, env := s.json(t, http.MethodGet, "/api/users/abc", nil)
	expect(t, w, env, http.StatusNotFound, "User not found")
}

func TestCreateReportUnknownUserKeepsNothing(t *testing.T) {
	s := newTestServer(t)

	w, env := s.multipart(t, http.MethodPost, "/api/reports", map[string]string{
		"description": "cracked", "report_title": "Window", "location": "Hall", "user_id": "777",
	}, filePart{name: "w.png", contentType: "image/png", content: pngBytes})
	expect(t, w, env, http.StatusBadRequest, "User not found")

	if n := s.uploadCount(t); n != 0 {
		t.Fatalf("expected no stored photo got %d", n)
	}
	w, env = s.json(t, http.MethodGet, "/api/reports", nil)
	if env.Pagination == nil || env.Pagination.TotalItems != 0 {
		t.Fatalf("expected no reports got %s", w.Body.String())
	}
}

func TestCreateReportFromJSON(t *testing.T) {
	s := newTestServer(t)
	userID := s.register(t, "json@campus.edu", "S1")

	w, env := s.json(t, http.MethodPost, "/api/reports", map[string]interface{}{
		"description":  "water on the floor",
		"report_title": "Leak",
		"location":     "Gym",
		"user_id":      userID,
	})
	expect(t, w, env, http.StatusCreated, "Report created successfully")
	var report struct {
		UserID uint    `json:"user_id"`
		Photo  *string `json:"photo"`
	}
	decode(t, env.Data, &report)
	if report.UserID != userID || report.Photo != nil {
		t.Fatalf("unexpected report %s", env.Data)
	}

	w, env = s.json(t, http.MethodPost, "/api/reports", map[string]interface{}{
		"description": "d", "report_title": "t", "location": "l", "user_id": "abc",
	})
	expect(t, w, env, http.StatusBadRequest, "Invalid user_id")
}

func TestCreateReportRejectsPDF(t *testing.T) {
	s := newTestServer(t)
	userID := s.register(t, "pdf@campus.edu", "S1")

	w, env := s.multipart(t, http.MethodPost, "/api/reports", map[string]string{
		"description": "d", "report_title": "t", "location": "l", "user_id": fmt.Sprint(userID),
	}, filePart{name: "doc.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4")})
	expect(t, w, env, http.StatusBadRequest, "Only JPEG, PNG, and JPG images are allowed")

	w, env = s.multipart(t, http.MethodPost, "/api/reports", map[string]string{
		"description": "d", "report_title": "t", "location": "l", "user_id": fmt.Sprint(userID),
	},
		filePart{name: "a.png", contentType: "image/png", content: pngBytes},
		filePart{name: "b.png", contentType: "image/png", content: pngBytes},
	)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for two photos got %d %s", w.Code, env.Message)
	}

	_, env = s.json(t, http.MethodGet, "/api/reports", nil)
	if env.Pagination.TotalItems != 0 {
		t.Fatalf("expected no reports got %d", env.Pagination.TotalItems)
	}
	if n := s.uploadCount(t); n != 0 {
		t.Fatalf("expected no stored photo got %d", n)
	}
}

func TestListReportsPaginationAndSearch(t *testing.T) {
	s := newTestServer(t)
	userID := s.register(t, "many@campus.edu", "S1")

	ids := make([]uint, 0, 25)
	for i := 0; i < 25; i++ {
		location := "Building B"
		if i == 4 {
			location = "Lab 3"
		}
		ids = append(ids, s.createReport(t, userID, fmt.Sprintf("report %02d", i), location))
	}

	w, env := s.json(t, http.MethodGet, "/api/reports?page=2&limit=10", nil)
	expect(t, w, env, http.StatusOK, "Reports retrieved successfully")
	want := utils.Pagination{TotalItems: 25, TotalPages: 3, CurrentPage: 2, ItemsPerPage: 10}
	if env.Pagination == nil || *env.Pagination != want {
		t.Fatalf("unexpected pagination %+v", env.Pagination)
	}
	var page []struct {
		ID   uint `json:"id"`
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, env.Data, &page)
	if len(page) != 10 || page[0].ID != ids[14] || page[9].ID != ids[5] {
		t.Fatalf("unexpected page contents %+v", page)
	}
	if page[0].User.Email != "many@campus.edu" {
		t.Fatalf("expected owner summary with email")
	}

	_, env = s.json(t, http.MethodGet, "/api/reports?page=abc&limit=-1", nil)
	if env.Pagination.CurrentPage != 1 || env.Pagination.ItemsPerPage != 10 {
		t.Fatalf("expected defaults got %+v", env.Pagination)
	}

	_, env = s.json(t, http.MethodGet, "/api/reports?search=Lab", nil)
	var found []struct {
		Location string `json:"location"`
	}
	decode(t, env.Data, &found)
	if len(found) != 1 || found[0].Location != "Lab 3" {
		t.Fatalf("unexpected search result %+v", found)
	}

	w, env = s.json(t, http.MethodGet, "/api/reports/recent", nil)
	expect(t, w, env, http.StatusOK, "Recent reports retrieved successfully")
	var recent []struct {
		ID uint `json:"id"`
	}
	decode(t, env.Data, &recent)
	if len(recent) != 5 || recent[0].ID != ids[24] {
		t.Fatalf("unexpected recent list %+v", recent)
	}

	w, env = s.json(t, http.MethodGet, fmt.Sprintf("/api/users/%d/reports", userID), nil)
	expect(t, w, env, http.StatusOK, "User reports retrieved successfully")

	w, env = s.json(t, http.MethodGet, "/api/users/9999/reports", nil)
	expect(t, w, env, http.StatusOK, "User reports retrieved successfully")
	if string(env.Data) != "[]" {
		t.Fatalf("expected empty list got %s", env.Data)
	}
}

func TestDeleteUserWithReports(t *testing.T) {
	s := newTestServer(t)
	userID := s.register(t, "owner@campus.edu", "S1")
	s.createReport(t, userID, "one", "A")
	s.createReport(t, userID, "two", "B")
	s.createReport(t, userID, "three", "C")

	path := fmt.Sprintf("/api/users/%d", userID)
	w, env := s.json(t, http.MethodDelete, path, nil)
	expect(t, w, env, http.StatusBadRequest, "Cannot delete user. User has 3 reports. Delete reports first.")

	w, env = s.json(t, http.MethodGet, path, nil)
	expect(t, w, env, http.StatusOK, "User retrieved successfully")
	var detail struct {
		Reports []json.RawMessage `json:"reports"`
	}
	decode(t, env.Data, &detail)
	if len(detail.Reports) != 3 {
		t.Fatalf("expected reports untouched got %d", len(detail.Reports))
	}
}

func TestDeleteReportThenGet(t *testing.T) {
	s := newTestServer(t)
	userID := s.register(t, "gone@campus.edu", "S1")
	reportID := s.createReport(t, userID, "temp", "X")

	path := fmt.Sprintf("/api/reports/%d", reportID)
	w, env := s.json(t, http.MethodDelete, path, nil)
	expect(t, w, env, http.StatusOK, "Report deleted successfully")

	w, env = s.json(t, http.MethodGet, path, nil)
	expect(t, w, env, http.StatusNotFound, "Report not found")

	w, env = s.json(t, http.MethodDelete, path, nil)
	expect(t, w, env, http.StatusNotFound, "Report not found")

	userPath := fmt.Sprintf("/api/users/%d", userID)
	w, env = s.json(t, http.MethodDelete, userPath, nil)
	expect(t, w, env, http.StatusOK, "User deleted successfully")
}

func TestUpdateReportReplacesPhoto(t *testing.T) {
	s := newTestServer(t)
	userID := s.register(t, "photo@campus.edu", "S1")

	w, env := s.multipart(t, http.MethodPost, "/api/reports", map[string]string{
		"description": "broken lamp", "report_title": "Lamp", "location": "Library", "user_id": fmt.Sprint(userID),
	}, filePart{name: "first.PNG", contentType: "image/png", content: pngBytes})
	expect(t, w, env, http.StatusCreated, "Report created successfully")
	var created struct {
		ID       uint   `json:"id"`
		Photo    string `json:"photo"`
		PhotoURL string `json:"photo_url"`
	}
	decode(t, env.Data, &created)
	if !strings.HasSuffix(created.Photo, ".png") || created.PhotoURL != "/uploads/"+created.Photo {
		t.Fatalf("unexpected photo fields %+v", created)
	}

	served, _ := s.do(t, httptest.NewRequest(http.MethodGet, created.PhotoURL, nil))
	if served.Code != http.StatusOK || !bytes.Equal(served.Body.Bytes(), pngBytes) {
		t.Fatalf("stored photo not served: %d", served.Code)
	}

	jpeg := append([]byte("\xFF\xD8\xFF\xE0"), bytes.Repeat([]byte{2}, 64)...)
	w, env = s.multipart(t, http.MethodPut, fmt.Sprintf("/api/reports/%d", created.ID), map[string]string{
		"report_title": "Lamp (fixed?)", "location": "  ",
	}, filePart{name: "second.jpg", contentType: "image/jpeg", content: jpeg})
	expect(t, w, env, http.StatusOK, "Report updated successfully")
	var updated struct {
		Photo       string `json:"photo"`
		ReportTitle string `json:"report_title"`
		Location    string `json:"location"`
	}
	decode(t, env.Data, &updated)
	if updated.Photo == created.Photo || !strings.HasSuffix(updated.Photo, ".jpg") {
		t.Fatalf("expected a new photo got %q", updated.Photo)
	}
	if updated.ReportTitle != "Lamp (fixed?)" || updated.Location != "Library" {
		t.Fatalf("unexpected fields %+v", updated)
	}

	if _, err := os.Stat(filepath.Join(s.uploadDir, created.Photo)); !os.IsNotExist(err) {
		t.Fatalf("old photo should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(s.uploadDir, updated.Photo)); err != nil {
		t.Fatalf("new photo missing: %v", err)
	}

	w, env = s.json(t, http.MethodDelete, fmt.Sprintf("/api/reports/%d", created.ID), nil)
	expect(t, w, env, http.StatusOK, "Report deleted successfully")
	if n := s.uploadCount(t); n != 0 {
		t.Fatalf("expected photo removed with the report got %d files", n)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t, "before@campus.edu", "S1")
	s.register(t, "other@campus.edu", "S2")
	path := fmt.Sprintf("/api/users/%d", id)

	w, env := s.json(t, http.MethodPut, path, map[string]string{"name": "Renamed"})
	expect(t, w, env, http.StatusOK, "User updated successfully")

	w, env = s.json(t, http.MethodPut, path, map[string]string{"student_id": "S2"})
	expect(t, w, env, http.StatusBadRequest, "Student ID already exists")

	w, env = s.json(t, http.MethodPut, "/api/users/4242", map[string]string{"name": "Nobody"})
	expect(t, w, env, http.StatusNotFound, "User not found")
}
