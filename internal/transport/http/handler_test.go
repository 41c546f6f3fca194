package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"mini-lms/internal/app"
	"mini-lms/internal/domain"
	"mini-lms/internal/infra/memory"
)

const (
	teacherID  = 1
	studentID  = 2
	outsiderID = 3
	otherTchID = 4
)

const fourQuestionQuiz = `{
	"passing_score": 70,
	"questions": [
		{"question": "q1", "choices": ["a", "b"], "answer": 1},
		{"question": "q2", "choices": ["a", "b"], "answer": 0},
		{"question": "q3", "choices": ["a", "b", "c"], "answer": 2},
		{"question": "q4", "choices": ["a", "b", "c", "d"], "answer": 3}
	]
}`

type fixture struct {
	server     *httptest.Server
	attempts   *memory.AttemptStore
	authoring  *app.AuthoringService
	courseID   int64
	lessonID   int64
	resourceID int64
	quizID     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	users := memory.NewUserStore(
		domain.User{ID: teacherID, Email: "t@example.com", Role: domain.RoleTeacher},
		domain.User{ID: studentID, Email: "s@example.com", Role: domain.RoleStudent, Specialty: "Medicine", StudyYear: "3"},
		domain.User{ID: outsiderID, Email: "o@example.com", Role: domain.RoleStudent, Specialty: "Law", StudyYear: "3"},
		domain.User{ID: otherTchID, Email: "t2@example.com", Role: domain.RoleTeacher},
	)
	catalog := memory.NewCatalog()
	progressStore := memory.NewProgressStore()
	attempts := memory.NewAttemptStore()
	enrollments := memory.NewEnrollmentStore()
	definitions := memory.NewDefinitionCache(memory.NewDefinitionStore(nil), time.Minute)

	quizzes := app.NewQuizService(catalog, definitions, attempts, log)
	progress := app.NewProgressService(catalog, progressStore, attempts, enrollments)
	enrollment := app.NewEnrollmentService(users, catalog, enrollments)
	learner := app.NewLearnerService(enrollment, progress, quizzes, catalog)
	authoring := app.NewAuthoringService(users, catalog, quizzes, progress)

	ctx := context.Background()
	course, err := authoring.CreateCourse(ctx, teacherID, app.NewCourse{Title: "Cardiology", Specialty: "medicine", TargetYear: 3})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	lesson, err := authoring.CreateLesson(ctx, teacherID, course.ID, app.NewLesson{Title: "Heart"})
	if err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	resource, err := authoring.CreateResource(ctx, teacherID, lesson.ID, app.NewResource{Title: "Slides", FilePath: "resources/heart.pdf"})
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	quiz, err := authoring.CreateQuiz(ctx, teacherID, lesson.ID, app.NewQuiz{Title: "Heart quiz", Definition: []byte(fourQuestionQuiz)})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	server := httptest.NewServer(NewRouter(NewAPI(learner, authoring, log), NewActivityHandler(learner, log)))
	t.Cleanup(server.Close)
	return &fixture{
		server:     server,
		attempts:   attempts,
		authoring:  authoring,
		courseID:   course.ID,
		lessonID:   lesson.ID,
		resourceID: resource.ID,
		quizID:     quiz.ID,
	}
}

func (f *fixture) do(t *testing.T, method, path string, user int64, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if user != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(user, 10))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func path(format string, id int64) string {
	return format + "/" + strconv.FormatInt(id, 10)
}

func TestStudentLearningFlow(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, path("/courses", f.courseID)+"/enroll", studentID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enroll: status %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodGet, path("/quizzes", f.quizID), studentID, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("quiz before resources: expected 409, got %d", resp.StatusCode)
	}
	submission := `{"answers": [1, 0, 2, 1]}`
	resp, _ = f.do(t, http.MethodPost, path("/quizzes", f.quizID)+"/attempts", studentID, submission)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("attempt before resources: expected 409, got %d", resp.StatusCode)
	}

	resp, body := f.do(t, http.MethodPost, path("/resources", f.resourceID)+"/time", studentID, `{"time": 30}`)
	if resp.StatusCode != http.StatusOK || body["timeSpent"] != float64(30) {
		t.Fatalf("record time: status %d body %v", resp.StatusCode, body)
	}
	resp, body = f.do(t, http.MethodPost, path("/resources", f.resourceID)+"/complete", studentID, "")
	if resp.StatusCode != http.StatusOK || body["isCompleted"] != true {
		t.Fatalf("complete: status %d body %v", resp.StatusCode, body)
	}

	resp, body = f.do(t, http.MethodGet, path("/quizzes", f.quizID), studentID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get quiz: status %d", resp.StatusCode)
	}
	questions, _ := body["questions"].([]any)
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %v", body["questions"])
	}
	if _, leaked := questions[0].(map[string]any)["answer"]; leaked {
		t.Fatalf("quiz view must not expose the answer key")
	}

	resp, body = f.do(t, http.MethodPost, path("/quizzes", f.quizID)+"/attempts", studentID, submission)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("attempt: status %d body %v", resp.StatusCode, body)
	}
	if body["score"] != float64(75) || body["passed"] != true {
		t.Fatalf("expected 75 passed, got %v", body)
	}

	resp, body = f.do(t, http.MethodGet, path("/courses", f.courseID), studentID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("course view: status %d", resp.StatusCode)
	}
	progress := body["progress"].(map[string]any)
	if progress["percentage"] != float64(100) || progress["completed"] != true || progress["totalTimeSpent"] != float64(30) {
		t.Fatalf("unexpected progress %v", progress)
	}
}

func TestFailedAttemptDoesNotCompleteLesson(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, path("/courses", f.courseID)+"/enroll", studentID, "")
	f.do(t, http.MethodPost, path("/resources", f.resourceID)+"/complete", studentID, "")

	resp, body := f.do(t, http.MethodPost, path("/quizzes", f.quizID)+"/attempts", studentID, `{"answers": {"0": "1", "1": 1, "2": 1, "3": 1}}`)
	if resp.StatusCode != http.StatusCreated || body["score"] != float64(25) || body["passed"] != false {
		t.Fatalf("expected 25 failed, got %d %v", resp.StatusCode, body)
	}
	_, body = f.do(t, http.MethodGet, path("/courses", f.courseID), studentID, "")
	progress := body["progress"].(map[string]any)
	if progress["percentage"] != float64(50) || progress["completed"] != false {
		t.Fatalf("unexpected progress %v", progress)
	}
}

func TestEnrollmentGate(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, path("/courses", f.courseID)+"/enroll", outsiderID, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("ineligible enroll: expected 409, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, path("/resources", f.resourceID)+"/complete", outsiderID, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("not enrolled: expected 403, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, path("/resources", f.resourceID)+"/complete", 0, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no identity: expected 401, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, path("/resources", 9999)+"/complete", studentID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing resource: expected 404, got %d", resp.StatusCode)
	}
}

func TestCatalogFlagsEnrollment(t *testing.T) {
	f := newFixture(t)

	_, _ = f.do(t, http.MethodPost, path("/courses", f.courseID)+"/enroll", studentID, "")
	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/courses", nil)
	req.Header.Set("X-User-ID", strconv.Itoa(studentID))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	defer resp.Body.Close()
	var entries []domain.CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Course.ID != f.courseID || !entries[0].Enrolled {
		t.Fatalf("unexpected catalog %+v", entries)
	}
}

func TestTeacherEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, path("/courses", f.courseID)+"/lessons", otherTchID, `{"title": "Intruder"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign course: expected 403, got %d", resp.StatusCode)
	}

	resp, body := f.do(t, http.MethodPost, path("/quizzes", f.quizID)+"/evaluate", teacherID, `{"answers": [1, 0, 2, 3]}`)
	if resp.StatusCode != http.StatusOK || body["score"] != float64(100) || body["passed"] != true {
		t.Fatalf("evaluate: %d %v", resp.StatusCode, body)
	}
	list, _ := f.attempts.ListAttempts(context.Background(), teacherID, f.quizID)
	if len(list) != 0 {
		t.Fatalf("evaluate must not record attempts, got %d", len(list))
	}

	resp, body = f.do(t, http.MethodPost, path("/lessons", f.lessonID)+"/quizzes", teacherID, `{"title": "Bad", "definition": {"passing_score": 50, "questions": [{"question": "x", "choices": ["only"], "answer": 0}]}}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid definition: expected 422, got %d", resp.StatusCode)
	}
	if fields, _ := body["fields"].([]any); len(fields) == 0 {
		t.Fatalf("expected field errors, got %v", body)
	}

	f.do(t, http.MethodPost, path("/courses", f.courseID)+"/enroll", studentID, "")
	resp, body = f.do(t, http.MethodGet, path("/courses", f.courseID)+"/summary", teacherID, "")
	if resp.StatusCode != http.StatusOK || body["enrolledCount"] != float64(1) || body["averageProgress"] != float64(0) {
		t.Fatalf("summary: %d %v", resp.StatusCode, body)
	}
}

func TestAuthoringRequiresTeacher(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/courses", studentID, `{"title": "Mine", "specialty": "medicine", "targetYear": 3}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student creating a course: expected 403, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodGet, "/teacher/dashboard", studentID, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("teacher dashboard for a student: expected 403, got %d", resp.StatusCode)
	}
}

func TestDashboards(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, path("/courses", f.courseID)+"/enroll", studentID, "")
	f.do(t, http.MethodPost, path("/resources", f.resourceID)+"/complete", studentID, "")

	resp, body := f.do(t, http.MethodGet, "/dashboard", studentID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("student dashboard: status %d", resp.StatusCode)
	}
	enrolled, _ := body["enrolled"].([]any)
	available, _ := body["available"].([]any)
	if len(enrolled) != 1 || available == nil || len(available) != 0 {
		t.Fatalf("unexpected student dashboard %v", body)
	}
	if entry := enrolled[0].(map[string]any); entry["percentage"] != float64(50) || entry["completed"] != false {
		t.Fatalf("unexpected enrolled entry %v", entry)
	}

	resp, body = f.do(t, http.MethodGet, "/teacher/dashboard", teacherID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("teacher dashboard: status %d", resp.StatusCode)
	}
	courses, _ := body["courses"].([]any)
	if len(courses) != 1 {
		t.Fatalf("expected one course, got %v", body)
	}
	summary := courses[0].(map[string]any)
	if summary["title"] != "Cardiology" || summary["enrolledCount"] != float64(1) || summary["averageProgress"] != float64(50) {
		t.Fatalf("unexpected summary %v", summary)
	}
	stats := body["stats"].(map[string]any)
	if stats["courses"] != float64(1) || stats["quizzes"] != float64(1) || stats["coursesWithEnrollments"] != float64(1) {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestLessonAndQuizEditing(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPut, path("/lessons", f.lessonID), teacherID, `{"title": "Valves", "sortOrder": 2}`)
	if resp.StatusCode != http.StatusOK || body["title"] != "Valves" {
		t.Fatalf("update lesson: %d %v", resp.StatusCode, body)
	}
	resp, _ = f.do(t, http.MethodPut, path("/lessons", f.lessonID), otherTchID, `{"title": "Mine"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign lesson: expected 403, got %d", resp.StatusCode)
	}

	resp, body = f.do(t, http.MethodPut, path("/quizzes", f.quizID), teacherID, `{"title": "Easier", "definition": {"passing_score": 50, "questions": [{"question": "x", "choices": ["a", "b"], "answer": 0}]}}`)
	if resp.StatusCode != http.StatusOK || body["title"] != "Easier" {
		t.Fatalf("update quiz: %d %v", resp.StatusCode, body)
	}
	resp, body = f.do(t, http.MethodPost, path("/quizzes", f.quizID)+"/evaluate", teacherID, `{"answers": [0]}`)
	if resp.StatusCode != http.StatusOK || body["score"] != float64(100) {
		t.Fatalf("evaluate replaced quiz: %d %v", resp.StatusCode, body)
	}
	resp, _ = f.do(t, http.MethodPut, path("/quizzes", f.quizID), teacherID, `{"title": "Broken", "definition": {"questions": []}}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid definition: expected 422, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodDelete, path("/quizzes", f.quizID), teacherID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete quiz: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, path("/quizzes", f.quizID)+"/evaluate", teacherID, `{"answers": [0]}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted quiz: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodDelete, path("/lessons", f.lessonID), teacherID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete lesson: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, path("/lessons", f.lessonID)+"/resources", teacherID, `{"title": "x", "filePath": "y"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted lesson: expected 404, got %d", resp.StatusCode)
	}
}

func TestValidateDefinitionEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/definitions/validate", teacherID, fourQuestionQuiz)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid definition: expected 200, got %d", resp.StatusCode)
	}
	resp, body := f.do(t, http.MethodPost, "/definitions/validate", teacherID, `{"questions": []}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid definition: expected 422, got %d (%v)", resp.StatusCode, body)
	}
}
