package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "enrollment-service"
	EventVersion = "1.0"
)

// Event types emitted after successful user directory mutations
const (
	UserRegistered          = "user.registered"
	UserEnrolled            = "user.enrolled"
	EnrollmentRemoved       = "enrollment.removed"
	EnrollmentStatusUpdated = "enrollment.status_updated"
	TeacherApproved         = "teacher.approved"
)

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type UserRegisteredData struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsApproved bool   `json:"is_approved"`
}

type EnrollmentData struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Status   string `json:"status,omitempty"`
}

type TeacherApprovedData struct {
	UserID string `json:"user_id"`
}
