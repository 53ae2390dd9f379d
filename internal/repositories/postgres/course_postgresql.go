package postgres

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/cache"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// CourseRecord mirrors the catalogue's courses table. This service only reads it.
type CourseRecord struct {
	ID          string       `gorm:"primaryKey;size:36"`
	Title       string       `gorm:"not null"`
	Description string       `gorm:"type:text"`
	Quizzes     []QuizRecord `gorm:"foreignKey:CourseID"`
}

func (CourseRecord) TableName() string {
	return "courses"
}

type QuizRecord struct {
	ID        string                                  `gorm:"primaryKey;size:36"`
	CourseID  string                                  `gorm:"not null;size:36;index"`
	Position  int                                     `gorm:"not null;default:0"`
	Title     string                                  `gorm:"not null"`
	Questions datatypes.JSONSlice[models.QuizQuestion] `gorm:"type:jsonb"`
}

func (QuizRecord) TableName() string {
	return "quizzes"
}

type coursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &coursePostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *coursePostgreSQL) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Course, error) {
	return r.cacheManager.ResolveCourses(ctx, ids, r.fetch)
}

func (r *coursePostgreSQL) fetch(ctx context.Context, ids []string) (map[string]*models.Course, error) {
	var records []CourseRecord
	err := r.db.WithContext(ctx).
		Preload("Quizzes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id IN ?", ids).
		Find(&records).Error
	if err != nil {
		return nil, handleDBError(err, "get courses by ids")
	}

	result := make(map[string]*models.Course, len(records))
	for _, record := range records {
		course := &models.Course{
			ID:          record.ID,
			Title:       record.Title,
			Description: record.Description,
			Quizzes:     make([]models.Quiz, 0, len(record.Quizzes)),
		}
		for _, q := range record.Quizzes {
			questions := make([]models.QuizQuestion, len(q.Questions))
			copy(questions, q.Questions)
			course.Quizzes = append(course.Quizzes, models.Quiz{
				ID:        q.ID,
				Title:     q.Title,
				Questions: questions,
			})
		}
		result[course.ID] = course
	}
	return result, nil
}
