package services

import (
	"context"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type GetUserRequest = validator.GetUserRequest
type EnrollRequest = validator.EnrollRequest
type RemoveEnrollmentRequest = validator.RemoveEnrollmentRequest
type UpdateStatusRequest = validator.UpdateStatusRequest
type ApproveTeacherRequest = validator.ApproveTeacherRequest

// EnrolledCourseResponse is an enrollment with its course expanded.
// Course is nil when the referenced course no longer exists.
type EnrolledCourseResponse struct {
	Course    *models.Course `json:"course"`
	Completed string         `json:"completed"`
}

// UserDetailResponse is a user whose enrollments carry full course documents
type UserDetailResponse struct {
	*models.User
	EnrolledCourses []EnrolledCourseResponse `json:"enrolledCourses"`
}

// ===== SERVICE INTERFACES =====

// UserService owns the lifecycle of user records: accounts, approval and enrollments
type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error)
	GetUser(ctx context.Context, req *GetUserRequest) (*UserDetailResponse, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	Enroll(ctx context.Context, req *EnrollRequest) error
	UpdateCompletionStatus(ctx context.Context, req *UpdateStatusRequest) (*models.User, error)
	RemoveEnrollment(ctx context.Context, req *RemoveEnrollmentRequest) error

	ApproveTeacher(ctx context.Context, req *ApproveTeacherRequest) error
	ListUnapprovedTeachers(ctx context.Context) ([]*models.User, error)
}

// ExportService renders the user roster as a spreadsheet
type ExportService interface {
	ExportUsers(ctx context.Context) ([]byte, error)
}

type ServiceManager interface {
	User() UserService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
