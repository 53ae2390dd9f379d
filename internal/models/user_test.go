package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_AppliesApprovalPolicy(t *testing.T) {
	tests := []struct {
		name     string
		role     UserRole
		wantRole UserRole
		approved bool
	}{
		{"student", RoleStudent, RoleStudent, true},
		{"teacher", RoleTeacher, RoleTeacher, false},
		{"unknown role", UserRole("admin"), RoleStudent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := NewUser(" Ann ", " Ann@X.com", "hash", tt.role)
			assert.Equal(t, tt.wantRole, user.Role)
			assert.Equal(t, tt.approved, user.IsApproved)
			assert.Equal(t, "Ann", user.Name)
			assert.Equal(t, "ann@x.com", user.Email)
			assert.NotNil(t, user.EnrolledCourses)
		})
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleTeacher, ParseRole(" Teacher "))
	assert.Equal(t, RoleStudent, ParseRole("student"))
	assert.Equal(t, RoleStudent, ParseRole(""))
	assert.Equal(t, RoleStudent, ParseRole("superuser"))
}

func TestUser_CanLogin(t *testing.T) {
	assert.True(t, (&User{Role: RoleStudent, IsApproved: true}).CanLogin())
	assert.False(t, (&User{Role: RoleTeacher}).CanLogin())
	assert.True(t, (&User{Role: RoleTeacher, IsApproved: true}).CanLogin())
}

func TestUser_Enrollments(t *testing.T) {
	user := NewUser("Ann", "ann@x.com", "hash", RoleStudent)

	user.Enroll("c1")
	user.Enroll("c2")
	require.True(t, user.IsEnrolled("c1"))
	assert.Equal(t, StatusNotStarted, user.FindEnrollment("c2").Completed)
	assert.Nil(t, user.FindEnrollment("c3"))

	user.FindEnrollment("c1").Completed = "done"
	assert.Equal(t, "done", user.EnrolledCourses[0].Completed)

	// Entries written by older clients may repeat a course; removal drops all of them
	user.EnrolledCourses = append(user.EnrolledCourses, Enrollment{Course: "c1", Completed: "again"})
	assert.Equal(t, 2, user.RemoveEnrollment("c1"))
	assert.Equal(t, []Enrollment{{Course: "c2", Completed: StatusNotStarted}}, user.EnrolledCourses)
	assert.Equal(t, 0, user.RemoveEnrollment("c1"))
}

func TestUser_CloneIsDeep(t *testing.T) {
	user := NewUser("Ann", "ann@x.com", "hash", RoleStudent)
	user.Enroll("c1")

	clone := user.Clone()
	clone.EnrolledCourses[0].Completed = "changed"
	clone.Enroll("c2")

	assert.Equal(t, StatusNotStarted, user.EnrolledCourses[0].Completed)
	assert.Len(t, user.EnrolledCourses, 1)
	assert.Nil(t, (*User)(nil).Clone())
}
