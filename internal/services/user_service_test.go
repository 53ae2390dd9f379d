package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/enrollment-service/internal/events"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories/memory"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type userServiceFixture struct {
	service   UserService
	store     *memory.MemoryRepository
	publisher *events.MockEventPublisher
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupUserService(t *testing.T) *userServiceFixture {
	t.Helper()

	store := memory.NewMemoryRepository()
	logger := newTestLogger()
	publisher := events.NewMockEventPublisher(logger)

	return &userServiceFixture{
		service:   NewUserService(store, NewBcryptHasher(bcrypt.MinCost), publisher, logger, validator.New()),
		store:     store,
		publisher: publisher,
	}
}

func (f *userServiceFixture) register(t *testing.T, name, email, password, role string) *models.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), &RegisterRequest{Name: name, Email: email, Password: password, Role: role})
	require.NoError(t, err)
	return user
}

func eventTypes(published []*events.Event) []string {
	types := make([]string, 0, len(published))
	for _, e := range published {
		types = append(types, e.Type)
	}
	return types
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("student is approved on creation", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, models.RoleStudent, user.Role)
		assert.True(t, user.IsApproved)
		assert.Empty(t, user.EnrolledCourses)
		assert.NotEqual(t, "pw", user.PasswordHash)
		assert.Equal(t, []string{events.UserRegistered}, eventTypes(f.publisher.GetPublishedEvents()))
	})

	t.Run("teacher starts unapproved", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Alice", "a@x.com", "pw", "teacher")

		assert.Equal(t, models.RoleTeacher, user.Role)
		assert.False(t, user.IsApproved)
	})

	t.Run("unknown role falls back to student", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Eve", "eve@x.com", "pw", "admin")

		assert.Equal(t, models.RoleStudent, user.Role)
		assert.True(t, user.IsApproved)
	})

	t.Run("email is normalized", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "  Bob@X.com ", "pw", "")
		assert.Equal(t, "bob@x.com", user.Email)
	})

	t.Run("duplicate email is rejected regardless of other fields", func(t *testing.T) {
		f := setupUserService(t)
		f.register(t, "Bob", "bob@x.com", "pw", "student")

		_, err := f.service.Register(ctx, &RegisterRequest{Name: "Other", Email: "BOB@x.com", Password: "different", Role: "teacher"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
		assert.ErrorIs(t, err, ErrConflict)

		users, err := f.service.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := setupUserService(t)
		cases := []RegisterRequest{
			{Email: "a@x.com", Password: "pw"},
			{Name: "A", Password: "pw"},
			{Name: "A", Email: "a@x.com"},
			{Name: "   ", Email: "a@x.com", Password: "pw"},
		}
		for i, req := range cases {
			req := req
			t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
				_, err := f.service.Register(ctx, &req)
				require.ErrorIs(t, err, ErrValidationFailed)

				var vf *ValidationFailure
				require.True(t, errors.As(err, &vf))
				assert.Equal(t, "All fields are required", vf.Message)
				assert.NotEmpty(t, vf.Fields)
			})
		}
		assert.Empty(t, f.publisher.GetPublishedEvents())
	})

	t.Run("event failure does not fail registration", func(t *testing.T) {
		f := setupUserService(t)
		f.publisher.FailWith(errors.New("broker down"))

		user := f.register(t, "Bob", "bob@x.com", "pw", "")
		assert.NotEmpty(t, user.ID)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	f := setupUserService(t)
	student := f.register(t, "Bob", "bob@x.com", "secret", "")
	teacher := f.register(t, "Alice", "a@x.com", "pw", "teacher")

	t.Run("valid student credentials", func(t *testing.T) {
		user, err := f.service.Authenticate(ctx, &LoginRequest{Email: "BOB@x.com", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, student.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.service.Authenticate(ctx, &LoginRequest{Email: "bob@x.com", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.service.Authenticate(ctx, &LoginRequest{Email: "ghost@x.com", Password: "secret"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.service.Authenticate(ctx, &LoginRequest{Email: "bob@x.com"})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("unapproved teacher is forbidden", func(t *testing.T) {
		_, err := f.service.Authenticate(ctx, &LoginRequest{Email: "a@x.com", Password: "pw"})
		assert.ErrorIs(t, err, ErrTeacherNotApproved)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unapproved teacher with wrong password is unauthorized", func(t *testing.T) {
		_, err := f.service.Authenticate(ctx, &LoginRequest{Email: "a@x.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("approved teacher can log in", func(t *testing.T) {
		require.NoError(t, f.service.ApproveTeacher(ctx, &ApproveTeacherRequest{UserID: teacher.ID}))

		user, err := f.service.Authenticate(ctx, &LoginRequest{Email: "a@x.com", Password: "pw"})
		require.NoError(t, err)
		assert.True(t, user.IsApproved)
	})
}

func TestUserService_Enrollments(t *testing.T) {
	ctx := context.Background()

	t.Run("enroll twice is a conflict and leaves the list unchanged", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")

		require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "c1"}))
		err := f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "c1"})
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
		assert.ErrorIs(t, err, ErrConflict)

		stored, err := f.store.User().FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored.EnrolledCourses, 1)
		assert.Equal(t, models.Enrollment{Course: "c1", Completed: models.StatusNotStarted}, stored.EnrolledCourses[0])
	})

	t.Run("enroll then remove restores the list", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")
		require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "c0"}))

		before, err := f.store.User().FindByID(ctx, user.ID)
		require.NoError(t, err)

		require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "c1"}))
		require.NoError(t, f.service.RemoveEnrollment(ctx, &RemoveEnrollmentRequest{UserID: user.ID, CourseID: "c1"}))

		after, err := f.store.User().FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, before.EnrolledCourses, after.EnrolledCourses)
	})

	t.Run("enroll keeps insertion order", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")
		for _, c := range []string{"c3", "c1", "c2"} {
			require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: c}))
		}

		stored, err := f.store.User().FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored.EnrolledCourses, 3)
		assert.Equal(t, "c3", stored.EnrolledCourses[0].Course)
		assert.Equal(t, "c1", stored.EnrolledCourses[1].Course)
		assert.Equal(t, "c2", stored.EnrolledCourses[2].Course)
	})

	t.Run("enroll unknown user", func(t *testing.T) {
		f := setupUserService(t)
		err := f.service.Enroll(ctx, &EnrollRequest{UserID: "u1", CourseID: "c1"})
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("enroll requires both ids", func(t *testing.T) {
		f := setupUserService(t)
		err := f.service.Enroll(ctx, &EnrollRequest{UserID: "u1"})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("remove when not enrolled", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")

		err := f.service.RemoveEnrollment(ctx, &RemoveEnrollmentRequest{UserID: user.ID, CourseID: "c1"})
		assert.ErrorIs(t, err, ErrEnrollmentNotFound)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("remove for unknown user", func(t *testing.T) {
		f := setupUserService(t)
		err := f.service.RemoveEnrollment(ctx, &RemoveEnrollmentRequest{UserID: "missing", CourseID: "c1"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("update status then get user shows it", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")
		require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "c1"}))

		updated, err := f.service.UpdateCompletionStatus(ctx, &UpdateStatusRequest{UserID: user.ID, CourseID: "c1", Status: "halfway there"})
		require.NoError(t, err)
		assert.Equal(t, "halfway there", updated.EnrolledCourses[0].Completed)

		detail, err := f.service.GetUser(ctx, &GetUserRequest{ID: user.ID})
		require.NoError(t, err)
		require.Len(t, detail.EnrolledCourses, 1)
		assert.Equal(t, "halfway there", detail.EnrolledCourses[0].Completed)
	})

	t.Run("update status when not enrolled", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")

		_, err := f.service.UpdateCompletionStatus(ctx, &UpdateStatusRequest{UserID: user.ID, CourseID: "c1", Status: "done"})
		assert.ErrorIs(t, err, ErrEnrollmentNotFound)
	})

	t.Run("update status requires a status", func(t *testing.T) {
		f := setupUserService(t)
		_, err := f.service.UpdateCompletionStatus(ctx, &UpdateStatusRequest{UserID: "u", CourseID: "c"})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("mutations publish events", func(t *testing.T) {
		f := setupUserService(t)
		user := f.register(t, "Bob", "bob@x.com", "pw", "")
		require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "c1"}))
		_, err := f.service.UpdateCompletionStatus(ctx, &UpdateStatusRequest{UserID: user.ID, CourseID: "c1", Status: "done"})
		require.NoError(t, err)
		require.NoError(t, f.service.RemoveEnrollment(ctx, &RemoveEnrollmentRequest{UserID: user.ID, CourseID: "c1"}))

		assert.Equal(t, []string{
			events.UserRegistered,
			events.UserEnrolled,
			events.EnrollmentStatusUpdated,
			events.EnrollmentRemoved,
		}, eventTypes(f.publisher.GetPublishedEvents()))
	})
}

func TestUserService_GetUser(t *testing.T) {
	ctx := context.Background()
	f := setupUserService(t)
	user := f.register(t, "Bob", "bob@x.com", "pw", "")

	f.store.Courses().Put(&models.Course{
		ID:    "c1",
		Title: "Go",
		Quizzes: []models.Quiz{
			{ID: "q1", Title: "Basics", Questions: []models.QuizQuestion{{Question: "2+2?", Options: []string{"3", "4"}, Answer: "4"}}},
		},
	})
	require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "c1"}))
	require.NoError(t, f.service.Enroll(ctx, &EnrollRequest{UserID: user.ID, CourseID: "gone"}))

	t.Run("resolves courses and keeps dangling refs as null", func(t *testing.T) {
		detail, err := f.service.GetUser(ctx, &GetUserRequest{ID: user.ID})
		require.NoError(t, err)
		require.Len(t, detail.EnrolledCourses, 2)

		require.NotNil(t, detail.EnrolledCourses[0].Course)
		assert.Equal(t, "Go", detail.EnrolledCourses[0].Course.Title)
		require.Len(t, detail.EnrolledCourses[0].Course.Quizzes, 1)
		assert.Equal(t, "Basics", detail.EnrolledCourses[0].Course.Quizzes[0].Title)

		assert.Nil(t, detail.EnrolledCourses[1].Course)
		assert.Equal(t, models.StatusNotStarted, detail.EnrolledCourses[1].Completed)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.service.GetUser(ctx, &GetUserRequest{ID: "missing"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := f.service.GetUser(ctx, &GetUserRequest{})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestUserService_TeacherApproval(t *testing.T) {
	ctx := context.Background()

	t.Run("approving a student fails and leaves it unchanged", func(t *testing.T) {
		f := setupUserService(t)
		student := f.register(t, "Bob", "bob@x.com", "pw", "")

		err := f.service.ApproveTeacher(ctx, &ApproveTeacherRequest{UserID: student.ID})
		assert.ErrorIs(t, err, ErrNotATeacher)
		assert.ErrorIs(t, err, ErrValidationFailed)

		stored, err := f.store.User().FindByID(ctx, student.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsApproved)
	})

	t.Run("approving twice is harmless", func(t *testing.T) {
		f := setupUserService(t)
		teacher := f.register(t, "Alice", "a@x.com", "pw", "teacher")

		require.NoError(t, f.service.ApproveTeacher(ctx, &ApproveTeacherRequest{UserID: teacher.ID}))
		require.NoError(t, f.service.ApproveTeacher(ctx, &ApproveTeacherRequest{UserID: teacher.ID}))
	})

	t.Run("approving unknown user", func(t *testing.T) {
		f := setupUserService(t)
		err := f.service.ApproveTeacher(ctx, &ApproveTeacherRequest{UserID: "missing"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unapproved teachers are exactly the pending ones", func(t *testing.T) {
		f := setupUserService(t)
		f.register(t, "S1", "s1@x.com", "pw", "student")
		t1 := f.register(t, "T1", "t1@x.com", "pw", "teacher")
		t2 := f.register(t, "T2", "t2@x.com", "pw", "teacher")
		t3 := f.register(t, "T3", "t3@x.com", "pw", "teacher")
		f.register(t, "S2", "s2@x.com", "pw", "")

		require.NoError(t, f.service.ApproveTeacher(ctx, &ApproveTeacherRequest{UserID: t2.ID}))

		pending, err := f.service.ListUnapprovedTeachers(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(pending))
		for _, u := range pending {
			assert.Equal(t, models.RoleTeacher, u.Role)
			assert.False(t, u.IsApproved)
			ids = append(ids, u.ID)
		}
		assert.ElementsMatch(t, []string{t1.ID, t3.ID}, ids)

		all, err := f.service.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("approval scenario", func(t *testing.T) {
		f := setupUserService(t)
		alice := f.register(t, "Alice", "a@x.com", "pw", "teacher")
		assert.False(t, alice.IsApproved)

		_, err := f.service.Authenticate(ctx, &LoginRequest{Email: "a@x.com", Password: "pw"})
		require.ErrorIs(t, err, ErrForbidden)

		require.NoError(t, f.service.ApproveTeacher(ctx, &ApproveTeacherRequest{UserID: alice.ID}))

		user, err := f.service.Authenticate(ctx, &LoginRequest{Email: "a@x.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)
		assert.Contains(t, eventTypes(f.publisher.GetPublishedEvents()), events.TeacherApproved)
	})
}

// mockUserRepository lets tests inject storage failures
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Insert(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) FindOne(ctx context.Context, filter repositories.UserFilter) (*models.User, error) {
	args := m.Called(ctx, filter)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) FindAll(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func (m *mockUserRepository) Save(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

type mockRepository struct {
	user *mockUserRepository
}

func (r *mockRepository) User() repositories.UserRepository     { return r.user }
func (r *mockRepository) Course() repositories.CourseRepository { return memory.NewCourseMemory() }
func (r *mockRepository) Ping(ctx context.Context) error        { return nil }
func (r *mockRepository) Close() error                          { return nil }

func TestUserService_StorageFailures(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	newService := func(users *mockUserRepository) UserService {
		return NewUserService(&mockRepository{user: users}, NewBcryptHasher(bcrypt.MinCost), nil, newTestLogger(), validator.New())
	}

	t.Run("lookup failure is a storage error", func(t *testing.T) {
		users := new(mockUserRepository)
		users.On("FindByID", mock.Anything, "u1").Return(nil, dbErr)

		err := newService(users).Enroll(ctx, &EnrollRequest{UserID: "u1", CourseID: "c1"})
		assert.ErrorIs(t, err, ErrStorage)
		assert.ErrorIs(t, err, dbErr)
		users.AssertExpectations(t)
	})

	t.Run("racing registration surfaces as conflict", func(t *testing.T) {
		users := new(mockUserRepository)
		users.On("FindOne", mock.Anything, mock.Anything).Return(nil, repositories.ErrNotFound)
		users.On("Insert", mock.Anything, mock.Anything).Return(repositories.ErrDuplicateKey)

		_, err := newService(users).Register(ctx, &RegisterRequest{Name: "Bob", Email: "bob@x.com", Password: "pw"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
		users.AssertExpectations(t)
	})

	t.Run("invalid course id on save is a validation failure", func(t *testing.T) {
		users := new(mockUserRepository)
		users.On("FindByID", mock.Anything, "u1").Return(&models.User{ID: "u1", Role: models.RoleStudent, IsApproved: true}, nil)
		users.On("Save", mock.Anything, mock.Anything).Return(fmt.Errorf("course id %q: %w", "bad", repositories.ErrInvalidID))

		err := newService(users).Enroll(ctx, &EnrollRequest{UserID: "u1", CourseID: "bad"})
		assert.ErrorIs(t, err, ErrValidationFailed)
		users.AssertExpectations(t)
	})

	t.Run("list failure", func(t *testing.T) {
		users := new(mockUserRepository)
		users.On("FindAll", mock.Anything, repositories.UserFilter{}).Return(nil, dbErr)

		_, err := newService(users).ListUsers(ctx)
		assert.ErrorIs(t, err, ErrStorage)
	})
}
