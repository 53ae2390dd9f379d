package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AuthResponse is returned by register and login.
// Success is only present on these two endpoints; existing clients read it.
type AuthResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
	Success bool         `json:"success"`
}

type UserDetailEnvelope struct {
	User *services.UserDetailResponse `json:"user"`
}

// UserListEnvelope keeps the singular "user" key the frontend expects for the full roster
type UserListEnvelope struct {
	User []*models.User `json:"user"`
}

type UpdateStatusResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type TeacherListResponse struct {
	Teachers []*models.User `json:"teachers"`
}

type UserHandler struct {
	BaseHandler
	service services.UserService
	export  services.ExportService
}

// NewUserHandler builds the user routes. export may be nil, which disables the roster download.
func NewUserHandler(service services.UserService, export services.ExportService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		export:      export,
	}
}

// ===== ACCOUNTS =====

// Register creates an account
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse "Missing fields or user already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Registering user", "role", req.Role)

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		User:    user,
		Success: true,
	})
}

// Login verifies credentials
// @Summary Log in
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse "Missing fields"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "Teacher not approved"
// @Router /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    user,
		Success: true,
	})
}

// GetUser returns a user with enrolled courses expanded
// @Summary Get a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.GetUserRequest true "User id"
// @Success 200 {object} UserDetailEnvelope
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /get-user [post]
func (h *UserHandler) GetUser(c *gin.Context) {
	var req services.GetUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserDetailEnvelope{User: user})
}

// ListUsers returns every user regardless of role
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {object} UserListEnvelope
// @Router /getAllstudents [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserListEnvelope{User: users})
}

// ExportUsers downloads the roster as an XLSX workbook
// @Summary Export users
// @Tags users
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /users/export [get]
func (h *UserHandler) ExportUsers(c *gin.Context) {
	if h.export == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Export is disabled"})
		return
	}

	h.LogRequest(c, "Exporting users")

	data, err := h.export.ExportUsers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := "users-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ===== ENROLLMENTS =====

// EnrollCourse enrolls a user in a course
// @Summary Enroll in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body services.EnrollRequest true "Enrollment"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Already enrolled"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /enrollCourse [post]
func (h *UserHandler) EnrollCourse(c *gin.Context) {
	var req services.EnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Enrolling user", "user_id", req.UserID, "course_id", req.CourseID)

	if err := h.service.Enroll(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User enrolled successfully"})
}

// UpdateStatus overwrites the completion status of an enrollment
// @Summary Update completion status
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body services.UpdateStatusRequest true "Status update"
// @Success 200 {object} UpdateStatusResponse
// @Failure 404 {object} ErrorResponse "User or enrollment not found"
// @Router /updateStatus [post]
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req services.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateCompletionStatus(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpdateStatusResponse{
		Message: "Completion status updated successfully",
		User:    user,
	})
}

// RemoveEnroll removes a user's enrollment
// @Summary Remove an enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body services.RemoveEnrollmentRequest true "Enrollment"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse "User or enrollment not found"
// @Router /removeEnroll [post]
func (h *UserHandler) RemoveEnroll(c *gin.Context) {
	var req services.RemoveEnrollmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.service.RemoveEnrollment(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Enrollment removed successfully"})
}

// ===== TEACHER APPROVAL =====

// ApproveTeacher approves a pending teacher
// @Summary Approve a teacher
// @Tags teachers
// @Accept json
// @Produce json
// @Param request body services.ApproveTeacherRequest true "Teacher id"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "User is not a teacher"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /approveTeacher [post]
func (h *UserHandler) ApproveTeacher(c *gin.Context) {
	var req services.ApproveTeacherRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Approving teacher", "user_id", req.UserID)

	if err := h.service.ApproveTeacher(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Teacher approved successfully"})
}

// UnapprovedTeachers lists teachers waiting for approval
// @Summary List unapproved teachers
// @Tags teachers
// @Produce json
// @Success 200 {object} TeacherListResponse
// @Router /unapprovedTeachers [get]
func (h *UserHandler) UnapprovedTeachers(c *gin.Context) {
	teachers, err := h.service.ListUnapprovedTeachers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, TeacherListResponse{Teachers: teachers})
}

// ===== HELPER METHODS =====

func (h *UserHandler) handleServiceError(c *gin.Context, err error) {
	var validationFailure *services.ValidationFailure
	if errors.As(err, &validationFailure) {
		resp := ErrorResponse{Message: validationFailure.Message}
		if len(validationFailure.Fields) > 0 {
			resp.Details = validationFailure.Fields
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	var directoryErr *services.DirectoryError
	if errors.As(err, &directoryErr) {
		c.JSON(statusForKind(directoryErr.Kind), ErrorResponse{Message: directoryErr.Message})
		return
	}

	h.LogError(c, err, "Unexpected service error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
	})
}

func statusForKind(kind error) int {
	switch {
	case errors.Is(kind, services.ErrValidationFailed), errors.Is(kind, services.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(kind, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
