package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

func TestUserMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("insert assigns id and rejects duplicate email", func(t *testing.T) {
		store := NewUserMemory()
		user := models.NewUser("Alice", "a@x.com", "hash", models.RoleStudent)

		require.NoError(t, store.Insert(ctx, user))
		assert.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		dup := models.NewUser("Other", "a@x.com", "hash", models.RoleTeacher)
		assert.ErrorIs(t, store.Insert(ctx, dup), repositories.ErrDuplicateKey)
	})

	t.Run("stored records are isolated from callers", func(t *testing.T) {
		store := NewUserMemory()
		user := models.NewUser("Alice", "a@x.com", "hash", models.RoleStudent)
		require.NoError(t, store.Insert(ctx, user))

		user.Enroll("c1")
		loaded, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.EnrolledCourses)

		loaded.Enroll("c2")
		require.NoError(t, store.Save(ctx, loaded))
		again, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, again.EnrolledCourses, 1)
		assert.Equal(t, "c2", again.EnrolledCourses[0].Course)
	})

	t.Run("find by filter", func(t *testing.T) {
		store := NewUserMemory()
		student := models.NewUser("S", "s@x.com", "h", models.RoleStudent)
		teacher := models.NewUser("T", "t@x.com", "h", models.RoleTeacher)
		require.NoError(t, store.Insert(ctx, student))
		require.NoError(t, store.Insert(ctx, teacher))

		found, err := store.FindOne(ctx, repositories.ByEmail(" T@X.com "))
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, found.ID)

		_, err = store.FindOne(ctx, repositories.ByEmail("nobody@x.com"))
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		all, err := store.FindAll(ctx, repositories.UserFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, student.ID, all[0].ID, "insertion order is kept")

		pending, err := store.FindAll(ctx, repositories.UnapprovedTeachers())
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, teacher.ID, pending[0].ID)
	})

	t.Run("save requires id", func(t *testing.T) {
		store := NewUserMemory()
		assert.ErrorIs(t, store.Save(ctx, &models.User{}), repositories.ErrInvalidID)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := NewUserMemory()
		_, err := store.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := NewUserMemory()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.FindAll(cancelled, repositories.UserFilter{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCourseMemory(t *testing.T) {
	courses := NewCourseMemory()
	courses.Put(&models.Course{ID: "c1", Title: "Go", Quizzes: []models.Quiz{{ID: "q1"}}})

	got, err := courses.GetByIDs(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	require.Contains(t, got, "c1")
	assert.NotContains(t, got, "c2")
	assert.Len(t, got["c1"].Quizzes, 1)
}

func TestRepositoryManager(t *testing.T) {
	rm := NewRepositoryManager()
	assert.ErrorIs(t, rm.HealthCheck(context.Background()), repositories.ErrNotInitialized)

	require.NoError(t, rm.Initialize())
	require.NotNil(t, rm.GetRepository())
	assert.NoError(t, rm.HealthCheck(context.Background()))
	assert.NoError(t, rm.Shutdown(context.Background()))
}
