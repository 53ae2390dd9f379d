package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// StatusNotStarted is the completion status given to every new enrollment
const StatusNotStarted = "not started"

// InitialApproval maps a role to the isApproved value a new account starts with.
// Students are implicitly approved; teachers wait for an administrator.
var InitialApproval = map[UserRole]bool{
	RoleStudent: true,
	RoleTeacher: false,
}

// ParseRole normalizes a requested role, falling back to student for empty or unknown values
func ParseRole(raw string) UserRole {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := InitialApproval[role]; ok {
		return role
	}
	return RoleStudent
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Enrollment links a user to a course. Course is a weak reference to a course id.
type Enrollment struct {
	Course    string `json:"course"`
	Completed string `json:"completed"`
}

type User struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	IsApproved   bool     `json:"isApproved"`

	EnrolledCourses []Enrollment `json:"enrolledCourses"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser builds an unsaved user applying the role and approval defaults
func NewUser(name, email, passwordHash string, role UserRole) *User {
	if _, ok := InitialApproval[role]; !ok {
		role = RoleStudent
	}
	return &User{
		Name:            strings.TrimSpace(name),
		Email:           NormalizeEmail(email),
		PasswordHash:    passwordHash,
		Role:            role,
		IsApproved:      InitialApproval[role],
		EnrolledCourses: []Enrollment{},
	}
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// CanLogin reports whether the account is allowed to authenticate.
// Only unapproved teachers are blocked.
func (u *User) CanLogin() bool {
	return !u.IsTeacher() || u.IsApproved
}

// FindEnrollment returns the enrollment for courseID, or nil
func (u *User) FindEnrollment(courseID string) *Enrollment {
	for i := range u.EnrolledCourses {
		if u.EnrolledCourses[i].Course == courseID {
			return &u.EnrolledCourses[i]
		}
	}
	return nil
}

func (u *User) IsEnrolled(courseID string) bool {
	return u.FindEnrollment(courseID) != nil
}

// Enroll appends a not-started enrollment. Callers check IsEnrolled first.
func (u *User) Enroll(courseID string) {
	u.EnrolledCourses = append(u.EnrolledCourses, Enrollment{
		Course:    courseID,
		Completed: StatusNotStarted,
	})
}

// RemoveEnrollment drops every entry for courseID, keeping order, and returns how many were removed
func (u *User) RemoveEnrollment(courseID string) int {
	kept := make([]Enrollment, 0, len(u.EnrolledCourses))
	for _, e := range u.EnrolledCourses {
		if e.Course != courseID {
			kept = append(kept, e)
		}
	}
	removed := len(u.EnrolledCourses) - len(kept)
	u.EnrolledCourses = kept
	return removed
}

// Clone returns a deep copy so stores never share enrollment slices with callers
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.EnrolledCourses = make([]Enrollment, len(u.EnrolledCourses))
	copy(c.EnrolledCourses, u.EnrolledCourses)
	return &c
}
