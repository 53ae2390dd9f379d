package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// MemoryRepository keeps users and courses in process memory.
// Records are cloned on the way in and out so callers never alias stored state.
type MemoryRepository struct {
	user   *UserMemory
	course *CourseMemory
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		user:   NewUserMemory(),
		course: NewCourseMemory(),
	}
}

func (r *MemoryRepository) User() repositories.UserRepository {
	return r.user
}

func (r *MemoryRepository) Course() repositories.CourseRepository {
	return r.course
}

// Courses exposes the course catalogue for seeding
func (r *MemoryRepository) Courses() *CourseMemory {
	return r.course
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) Close() error {
	return nil
}

// ===== USERS =====

type UserMemory struct {
	mu    sync.RWMutex
	users map[string]*models.User
	order []string
}

func NewUserMemory() *UserMemory {
	return &UserMemory{users: make(map[string]*models.User)}
}

func (m *UserMemory) Insert(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, "") {
		return repositories.ErrDuplicateKey
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = user.Clone()
	m.order = append(m.order, user.ID)
	return nil
}

func (m *UserMemory) FindOne(ctx context.Context, filter repositories.UserFilter) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if user := m.users[id]; filter.Matches(user) {
			return user.Clone(), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserMemory) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user.Clone(), nil
}

func (m *UserMemory) FindAll(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.User, 0, len(m.order))
	for _, id := range m.order {
		if user := m.users[id]; filter.Matches(user) {
			result = append(result, user.Clone())
		}
	}
	return result, nil
}

func (m *UserMemory) Save(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.ID == "" {
		return repositories.ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, user.ID) {
		return repositories.ErrDuplicateKey
	}

	if _, exists := m.users[user.ID]; !exists {
		m.order = append(m.order, user.ID)
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC()
		}
	}
	user.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = user.Clone()
	return nil
}

func (m *UserMemory) emailTaken(email, exceptID string) bool {
	for id, existing := range m.users {
		if id != exceptID && existing.Email == email {
			return true
		}
	}
	return false
}

// ===== COURSES =====

type CourseMemory struct {
	mu      sync.RWMutex
	courses map[string]*models.Course
}

func NewCourseMemory() *CourseMemory {
	return &CourseMemory{courses: make(map[string]*models.Course)}
}

// Put adds or replaces a course in the catalogue
func (m *CourseMemory) Put(course *models.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *course
	c.Quizzes = append([]models.Quiz(nil), course.Quizzes...)
	m.courses[course.ID] = &c
}

func (m *CourseMemory) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*models.Course, len(ids))
	for _, id := range ids {
		if course, ok := m.courses[id]; ok {
			c := *course
			c.Quizzes = append([]models.Quiz(nil), course.Quizzes...)
			result[id] = &c
		}
	}
	return result, nil
}

// ===== MANAGER =====

// RepositoryManager implements repositories.RepositoryManager for the memory driver
type RepositoryManager struct {
	repo *MemoryRepository
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{}
}

func (rm *RepositoryManager) Initialize() error {
	rm.repo = NewMemoryRepository()
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	if rm.repo == nil {
		return nil
	}
	return rm.repo
}

// Store exposes the concrete repository so callers can seed courses
func (rm *RepositoryManager) Store() *MemoryRepository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return repositories.ErrNotInitialized
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	return nil
}
