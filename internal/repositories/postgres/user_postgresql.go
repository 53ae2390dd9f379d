package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// UserRecord is the users table. Enrollments live in a jsonb column to keep their order.
type UserRecord struct {
	ID              string                                `gorm:"primaryKey;size:36"`
	Name            string                                `gorm:"not null;size:100"`
	Email           string                                `gorm:"not null;size:255;uniqueIndex"`
	Password        string                                `gorm:"not null"`
	Role            string                                `gorm:"not null;size:20;index"`
	IsApproved      bool                                  `gorm:"not null;default:false"`
	EnrolledCourses datatypes.JSONSlice[models.Enrollment] `gorm:"type:jsonb;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (UserRecord) TableName() string {
	return "users"
}

type userPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &userPostgreSQL{db: db}
}

func (r *userPostgreSQL) Insert(ctx context.Context, user *models.User) error {
	record := toUserRecord(user)
	record.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return handleDBError(err, "insert user")
	}

	user.ID = record.ID
	user.CreatedAt = record.CreatedAt
	user.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *userPostgreSQL) FindOne(ctx context.Context, filter repositories.UserFilter) (*models.User, error) {
	var record UserRecord
	query := applyUserFilters(r.db.WithContext(ctx).Model(&UserRecord{}), filter)
	if err := query.Order("created_at ASC").First(&record).Error; err != nil {
		return nil, handleDBError(err, "find user")
	}
	return record.toModel(), nil
}

func (r *userPostgreSQL) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repositories.ErrNotFound
	}

	var record UserRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, handleDBError(err, "find user by id")
	}
	return record.toModel(), nil
}

func (r *userPostgreSQL) FindAll(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	var records []UserRecord
	query := applyUserFilters(r.db.WithContext(ctx).Model(&UserRecord{}), filter)
	if err := query.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, handleDBError(err, "list users")
	}

	users := make([]*models.User, 0, len(records))
	for i := range records {
		users = append(users, records[i].toModel())
	}
	return users, nil
}

func (r *userPostgreSQL) Save(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return repositories.ErrInvalidID
	}

	record := toUserRecord(user)
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return handleDBError(err, "save user")
	}

	user.CreatedAt = record.CreatedAt
	user.UpdatedAt = record.UpdatedAt
	return nil
}

func toUserRecord(user *models.User) *UserRecord {
	enrollments := make([]models.Enrollment, len(user.EnrolledCourses))
	copy(enrollments, user.EnrolledCourses)

	return &UserRecord{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Password:        user.PasswordHash,
		Role:            string(user.Role),
		IsApproved:      user.IsApproved,
		EnrolledCourses: datatypes.NewJSONSlice(enrollments),
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

func (r *UserRecord) toModel() *models.User {
	enrollments := make([]models.Enrollment, len(r.EnrolledCourses))
	copy(enrollments, r.EnrolledCourses)

	return &models.User{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		PasswordHash:    r.Password,
		Role:            models.ParseRole(r.Role),
		IsApproved:      r.IsApproved,
		EnrolledCourses: enrollments,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
