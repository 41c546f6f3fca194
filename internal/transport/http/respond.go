package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"mini-lms/internal/domain"
)

const maxBodyBytes = 1 << 20

var (
	errMissingIdentity = errors.New("missing or invalid X-User-ID header")
	errBadID           = errors.New("invalid id in path")
	errBadBody         = errors.New("request body is not valid JSON")
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusUnprocessableEntity
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errMissingIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotEnrolled), errors.Is(err, domain.ErrNotCourseOwner),
		errors.Is(err, domain.ErrNotTeacher):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrIneligibleEnrollment), errors.Is(err, domain.ErrLessonResourcesIncomplete):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTimeIncrement), errors.Is(err, errBadID),
		errors.Is(err, errBadBody), errors.Is(err, errBadAnswers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Error = verr.Err.Error()
		body.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

func userID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		raw = r.URL.Query().Get("userId")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errMissingIdentity
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}
