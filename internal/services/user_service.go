package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/enrollment-service/internal/events"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	hasher    PasswordHasher
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

// NewUserService builds the user directory. publisher may be nil.
func NewUserService(repo repositories.Repository, hasher PasswordHasher, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== ACCOUNTS =====

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs != nil {
		if onlyMissingFields(errs) {
			return nil, NewValidationFailure("All fields are required", errs)
		}
		return nil, NewValidationFailure("Invalid registration data", errs)
	}

	email := models.NormalizeEmail(req.Email)
	s.logger.Info("Registering user", "email", email, "role", req.Role)

	_, err := s.repo.User().FindOne(ctx, repositories.ByEmail(email))
	switch {
	case err == nil:
		return nil, ErrUserAlreadyExists
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, storageError("check existing user", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, NewValidationFailure("Password is too long", nil)
		}
		return nil, err
	}

	user := models.NewUser(req.Name, email, hash, models.ParseRole(req.Role))
	if err := s.repo.User().Insert(ctx, user); err != nil {
		// A concurrent registration can slip past the lookup above; the unique index catches it
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, storageError("insert user", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role, "is_approved", user.IsApproved)

	s.publish(ctx, events.NewEvent(events.UserRegistered, events.UserRegisteredData{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		IsApproved: user.IsApproved,
	}))

	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs != nil {
		return nil, NewValidationFailure("Email and password are required", errs)
	}

	user, err := s.repo.User().FindOne(ctx, repositories.ByEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageError("find user by email", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			s.logger.Warn("Stored password hash is unusable", "user_id", user.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.CanLogin() {
		s.logger.Info("Login refused for unapproved teacher", "user_id", user.ID)
		return nil, ErrTeacherNotApproved
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, req *GetUserRequest) (*UserDetailResponse, error) {
	if errs := s.validator.Validate(req); errs != nil {
		return nil, NewValidationFailure("User id is required", errs)
	}

	user, err := s.findUser(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(user.EnrolledCourses))
	seen := make(map[string]struct{}, len(user.EnrolledCourses))
	for _, e := range user.EnrolledCourses {
		if _, ok := seen[e.Course]; ok {
			continue
		}
		seen[e.Course] = struct{}{}
		ids = append(ids, e.Course)
	}

	courses, err := s.repo.Course().GetByIDs(ctx, ids)
	if err != nil {
		return nil, storageError("resolve enrolled courses", err)
	}

	resp := &UserDetailResponse{
		User:            user,
		EnrolledCourses: make([]EnrolledCourseResponse, 0, len(user.EnrolledCourses)),
	}
	for _, e := range user.EnrolledCourses {
		resp.EnrolledCourses = append(resp.EnrolledCourses, EnrolledCourseResponse{
			Course:    courses[e.Course],
			Completed: e.Completed,
		})
	}

	return resp, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.User().FindAll(ctx, repositories.UserFilter{})
	if err != nil {
		return nil, storageError("list users", err)
	}
	return users, nil
}

// ===== ENROLLMENTS =====

func (s *userService) Enroll(ctx context.Context, req *EnrollRequest) error {
	if errs := s.validator.Validate(req); errs != nil {
		return NewValidationFailure("userId and courseId are required", errs)
	}

	user, err := s.findUser(ctx, req.UserID)
	if err != nil {
		return err
	}

	// Check-then-append is not atomic; two concurrent requests may both pass this check
	if user.IsEnrolled(req.CourseID) {
		return ErrAlreadyEnrolled
	}

	user.Enroll(req.CourseID)
	if err := s.saveUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("User enrolled", "user_id", user.ID, "course_id", req.CourseID)

	s.publish(ctx, events.NewEvent(events.UserEnrolled, events.EnrollmentData{
		UserID:   user.ID,
		CourseID: req.CourseID,
		Status:   models.StatusNotStarted,
	}))

	return nil
}

func (s *userService) UpdateCompletionStatus(ctx context.Context, req *UpdateStatusRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs != nil {
		if onlyMissingFields(errs) {
			return nil, NewValidationFailure("userId, courseId and status are required", errs)
		}
		return nil, NewValidationFailure("Invalid completion status", errs)
	}

	user, err := s.findUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	enrollment := user.FindEnrollment(req.CourseID)
	if enrollment == nil {
		return nil, ErrEnrollmentNotFound
	}
	enrollment.Completed = req.Status

	if err := s.saveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Completion status updated", "user_id", user.ID, "course_id", req.CourseID, "status", req.Status)

	s.publish(ctx, events.NewEvent(events.EnrollmentStatusUpdated, events.EnrollmentData{
		UserID:   user.ID,
		CourseID: req.CourseID,
		Status:   req.Status,
	}))

	return user, nil
}

func (s *userService) RemoveEnrollment(ctx context.Context, req *RemoveEnrollmentRequest) error {
	if errs := s.validator.Validate(req); errs != nil {
		return NewValidationFailure("userId and courseId are required", errs)
	}

	user, err := s.findUser(ctx, req.UserID)
	if err != nil {
		return err
	}

	if removed := user.RemoveEnrollment(req.CourseID); removed == 0 {
		return ErrEnrollmentNotFound
	}

	if err := s.saveUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("Enrollment removed", "user_id", user.ID, "course_id", req.CourseID)

	s.publish(ctx, events.NewEvent(events.EnrollmentRemoved, events.EnrollmentData{
		UserID:   user.ID,
		CourseID: req.CourseID,
	}))

	return nil
}

// ===== TEACHER APPROVAL =====

func (s *userService) ApproveTeacher(ctx context.Context, req *ApproveTeacherRequest) error {
	if errs := s.validator.Validate(req); errs != nil {
		return NewValidationFailure("userId is required", errs)
	}

	user, err := s.findUser(ctx, req.UserID)
	if err != nil {
		return err
	}

	if !user.IsTeacher() {
		return ErrNotATeacher
	}

	user.IsApproved = true
	if err := s.saveUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("Teacher approved", "user_id", user.ID)

	s.publish(ctx, events.NewEvent(events.TeacherApproved, events.TeacherApprovedData{
		UserID: user.ID,
	}))

	return nil
}

func (s *userService) ListUnapprovedTeachers(ctx context.Context) ([]*models.User, error) {
	teachers, err := s.repo.User().FindAll(ctx, repositories.UnapprovedTeachers())
	if err != nil {
		return nil, storageError("list unapproved teachers", err)
	}
	return teachers, nil
}

// ===== HELPERS =====

func (s *userService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("find user", err)
	}
	return user, nil
}

func (s *userService) saveUser(ctx context.Context, user *models.User) error {
	if err := s.repo.User().Save(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrInvalidID):
			return NewValidationFailure("Invalid course id", nil)
		case errors.Is(err, repositories.ErrDuplicateKey):
			return ErrUserAlreadyExists
		}
		return storageError("save user", err)
	}
	return nil
}

// publish is best-effort: the mutation has already been persisted
func (s *userService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}
