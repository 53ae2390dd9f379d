package validator

// RegisterRequest represents the request structure for creating an account
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,nonblank,max=100"`
	Email    string `json:"email" validate:"required,nonblank,max=255"`
	Password string `json:"password" validate:"required,max=72"` // bcrypt ignores bytes past 72
	Role     string `json:"role"`
}

// LoginRequest represents the credentials submitted to /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,nonblank"`
	Password string `json:"password" validate:"required"`
}

// GetUserRequest identifies a user by id
type GetUserRequest struct {
	ID string `json:"id" validate:"required,nonblank"`
}

// EnrollRequest links a user to a course
type EnrollRequest struct {
	UserID   string `json:"userId" validate:"required,nonblank"`
	CourseID string `json:"courseId" validate:"required,nonblank"`
}

// RemoveEnrollmentRequest unlinks a user from a course
type RemoveEnrollmentRequest struct {
	UserID   string `json:"userId" validate:"required,nonblank"`
	CourseID string `json:"courseId" validate:"required,nonblank"`
}

// UpdateStatusRequest overwrites an enrollment's completion status.
// Status is free-form; no set of allowed values is enforced.
type UpdateStatusRequest struct {
	UserID   string `json:"userId" validate:"required,nonblank"`
	CourseID string `json:"courseId" validate:"required,nonblank"`
	Status   string `json:"status" validate:"required,max=100"`
}

// ApproveTeacherRequest approves a pending teacher account
type ApproveTeacherRequest struct {
	UserID string `json:"userId" validate:"required,nonblank"`
}
