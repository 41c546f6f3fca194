package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"mini-lms/internal/app"
)

// API serves the student and teacher REST endpoints.
type API struct {
	learner   *app.LearnerService
	authoring *app.AuthoringService
	log       logrus.FieldLogger
}

func NewAPI(learner *app.LearnerService, authoring *app.AuthoringService, log logrus.FieldLogger) *API {
	return &API{learner: learner, authoring: authoring, log: log}
}

// NewRouter mounts the REST API, the activity websocket and the health check.
func NewRouter(api *API, activity *ActivityHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// student
	mux.HandleFunc("GET /courses", api.catalog)
	mux.HandleFunc("GET /dashboard", api.studentDashboard)
	mux.HandleFunc("GET /courses/{id}", api.course)
	mux.HandleFunc("POST /courses/{id}/enroll", api.enroll)
	mux.HandleFunc("POST /resources/{id}/time", api.recordTime)
	mux.HandleFunc("POST /resources/{id}/complete", api.completeResource)
	mux.HandleFunc("GET /quizzes/{id}", api.quiz)
	mux.HandleFunc("POST /quizzes/{id}/attempts", api.submitQuiz)

	// teacher
	mux.HandleFunc("GET /teacher/dashboard", api.teacherDashboard)
	mux.HandleFunc("POST /courses", api.createCourse)
	mux.HandleFunc("POST /courses/{id}/lessons", api.createLesson)
	mux.HandleFunc("GET /courses/{id}/summary", api.courseSummary)
	mux.HandleFunc("PUT /lessons/{id}", api.updateLesson)
	mux.HandleFunc("DELETE /lessons/{id}", api.deleteLesson)
	mux.HandleFunc("POST /lessons/{id}/resources", api.createResource)
	mux.HandleFunc("POST /lessons/{id}/quizzes", api.createQuiz)
	mux.HandleFunc("PUT /quizzes/{id}", api.updateQuiz)
	mux.HandleFunc("DELETE /quizzes/{id}", api.deleteQuiz)
	mux.HandleFunc("POST /quizzes/{id}/evaluate", api.evaluateQuiz)
	mux.HandleFunc("POST /definitions/validate", api.validateDefinition)

	mux.HandleFunc("GET /ws/activity", activity.ServeWS)
	return mux
}

func (a *API) catalog(w http.ResponseWriter, r *http.Request) {
	student, err := userID(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	entries, err := a.learner.Catalog(r.Context(), student)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) studentDashboard(w http.ResponseWriter, r *http.Request) {
	student, err := userID(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	dash, err := a.learner.Dashboard(r.Context(), student)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (a *API) course(w http.ResponseWriter, r *http.Request) {
	student, courseID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	view, err := a.learner.Course(r.Context(), student, courseID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) enroll(w http.ResponseWriter, r *http.Request) {
	student, courseID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if err := a.learner.Enroll(r.Context(), student, courseID); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courseId": courseID, "enrolled": true})
}

type timeRequest struct {
	Seconds int `json:"time"`
}

func (a *API) recordTime(w http.ResponseWriter, r *http.Request) {
	student, resourceID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req timeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	progress, _, err := a.learner.RecordTime(r.Context(), student, resourceID, req.Seconds)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (a *API) completeResource(w http.ResponseWriter, r *http.Request) {
	student, resourceID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	progress, _, err := a.learner.CompleteResource(r.Context(), student, resourceID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (a *API) quiz(w http.ResponseWriter, r *http.Request) {
	student, quizID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	view, err := a.learner.Quiz(r.Context(), student, quizID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type answersRequest struct {
	Answers json.RawMessage `json:"answers"`
}

func (a *API) submitQuiz(w http.ResponseWriter, r *http.Request) {
	student, quizID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req answersRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	answers, err := parseAnswers(req.Answers)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	attempt, err := a.learner.SubmitQuiz(r.Context(), student, quizID, answers)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (a *API) teacherDashboard(w http.ResponseWriter, r *http.Request) {
	teacher, err := userID(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	dash, err := a.authoring.Dashboard(r.Context(), teacher)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (a *API) createCourse(w http.ResponseWriter, r *http.Request) {
	teacher, err := userID(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req app.NewCourse
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	course, err := a.authoring.CreateCourse(r.Context(), teacher, req)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (a *API) createLesson(w http.ResponseWriter, r *http.Request) {
	teacher, courseID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req app.NewLesson
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	lesson, err := a.authoring.CreateLesson(r.Context(), teacher, courseID, req)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (a *API) updateLesson(w http.ResponseWriter, r *http.Request) {
	teacher, lessonID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req app.NewLesson
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	lesson, err := a.authoring.UpdateLesson(r.Context(), teacher, lessonID, req)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (a *API) deleteLesson(w http.ResponseWriter, r *http.Request) {
	teacher, lessonID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if err := a.authoring.DeleteLesson(r.Context(), teacher, lessonID); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createResource(w http.ResponseWriter, r *http.Request) {
	teacher, lessonID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req app.NewResource
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	resource, err := a.authoring.CreateResource(r.Context(), teacher, lessonID, req)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

type quizRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Definition  json.RawMessage `json:"definition"`
}

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request) {
	teacher, lessonID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req quizRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	quiz, err := a.authoring.CreateQuiz(r.Context(), teacher, lessonID, app.NewQuiz{
		Title:       req.Title,
		Description: req.Description,
		Definition:  req.Definition,
	})
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

// updateQuiz keeps the stored definition when the body has none.
func (a *API) updateQuiz(w http.ResponseWriter, r *http.Request) {
	teacher, quizID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req quizRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	quiz, err := a.authoring.UpdateQuiz(r.Context(), teacher, quizID, app.NewQuiz{
		Title:       req.Title,
		Description: req.Description,
		Definition:  req.Definition,
	})
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	teacher, quizID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	if err := a.authoring.DeleteQuiz(r.Context(), teacher, quizID); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) evaluateQuiz(w http.ResponseWriter, r *http.Request) {
	teacher, quizID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	var req answersRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, a.log, err)
		return
	}
	answers, err := parseAnswers(req.Answers)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	result, err := a.authoring.EvaluateQuiz(r.Context(), teacher, quizID, answers)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// validateDefinition checks an upload without storing it.
func (a *API) validateDefinition(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, a.log, errBadBody)
		return
	}
	def, err := app.ValidateDefinition(raw)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (a *API) courseSummary(w http.ResponseWriter, r *http.Request) {
	teacher, courseID, err := callerAndPath(r)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	summary, err := a.authoring.CourseSummary(r.Context(), teacher, courseID)
	if err != nil {
		writeError(w, r, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func callerAndPath(r *http.Request) (int64, int64, error) {
	caller, err := userID(r)
	if err != nil {
		return 0, 0, err
	}
	id, err := pathID(r)
	if err != nil {
		return 0, 0, err
	}
	return caller, id, nil
}
