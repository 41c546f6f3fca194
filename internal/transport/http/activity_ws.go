package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mini-lms/internal/app"
	"mini-lms/internal/domain"
)

// ActivityHandler streams resource activity (time heartbeats, completions) from a course
// page and answers each accepted event with the student's updated course progress.
type ActivityHandler struct {
	learner  *app.LearnerService
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewActivityHandler(learner *app.LearnerService, log logrus.FieldLogger) *ActivityHandler {
	return &ActivityHandler{
		learner: learner,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

var errForeignResource = errors.New("resource belongs to another course")

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type activityPayload struct {
	ResourceID int64 `json:"resourceId"`
	Seconds    int   `json:"seconds"`
}

type progressPayload struct {
	CourseID       int64   `json:"courseId"`
	ResourceID     int64   `json:"resourceId,omitempty"`
	Percentage     float64 `json:"percentage"`
	TotalTimeSpent int     `json:"totalTimeSpent"`
	Completed      bool    `json:"completed"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS requires ?courseId= and the caller's identity; non-enrolled students are refused
// before the upgrade.
func (h *ActivityHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	student, err := userID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	courseID, err := strconv.ParseInt(r.URL.Query().Get("courseId"), 10, 64)
	if err != nil || courseID <= 0 {
		http.Error(w, "missing courseId", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	snapshot, err := h.learner.Progress(ctx, student, courseID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()
	entry := h.log.WithFields(logrus.Fields{"student_id": student, "course_id": courseID})

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				entry.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "progress", Payload: toProgressPayload(snapshot, 0)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg := h.handle(ctx, student, courseID, inbound)
		select {
		case send <- msg:
		case <-writerDone:
		}
		if isClosed(writerDone) {
			break
		}
	}

	close(send)
	<-writerDone
}

// handle applies one event. Events must target a resource of the socket's course.
func (h *ActivityHandler) handle(ctx context.Context, student, courseID int64, inbound inboundMessage) outboundMessage[any] {
	if inbound.Type != "time" && inbound.Type != "complete" {
		return errorMessage("unsupported message type")
	}
	var payload activityPayload
	if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ResourceID <= 0 {
		return errorMessage("invalid " + inbound.Type + " payload")
	}

	owner, err := h.learner.ResourceCourse(ctx, student, payload.ResourceID)
	if err != nil {
		return h.failure(err)
	}
	if owner != courseID {
		return errorMessage(errForeignResource.Error())
	}

	if inbound.Type == "time" {
		_, _, err = h.learner.RecordTime(ctx, student, payload.ResourceID, payload.Seconds)
	} else {
		_, _, err = h.learner.CompleteResource(ctx, student, payload.ResourceID)
	}
	if err != nil {
		return h.failure(err)
	}

	progress, err := h.learner.Progress(ctx, student, courseID)
	if err != nil {
		return h.failure(err)
	}
	return outboundMessage[any]{Type: "progress", Payload: toProgressPayload(progress, payload.ResourceID)}
}

func (h *ActivityHandler) failure(err error) outboundMessage[any] {
	if statusFor(err) == http.StatusInternalServerError {
		h.log.WithError(err).Error("activity event failed")
		return errorMessage(http.StatusText(http.StatusInternalServerError))
	}
	return errorMessage(err.Error())
}

func toProgressPayload(p domain.StudentCourseProgress, resourceID int64) progressPayload {
	return progressPayload{
		CourseID:       p.CourseID,
		ResourceID:     resourceID,
		Percentage:     p.Percentage,
		TotalTimeSpent: p.TotalTimeSpent,
		Completed:      p.Completed,
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
