package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SAP-F-2025/enrollment-service/internal/cache"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

const (
	coursesCollection = "courses"
	quizzesCollection = "quizzes"
)

type courseDocument struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Quizzes     []primitive.ObjectID `bson:"quizes"`
}

type quizDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Questions []struct {
		Question string   `bson:"question"`
		Options  []string `bson:"options"`
		Answer   string   `bson:"answer"`
	} `bson:"questions"`
}

type CourseMongo struct {
	courses      *mongo.Collection
	quizzes      *mongo.Collection
	cacheManager *cache.CacheManager
}

func NewCourseMongo(db *mongo.Database, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CourseMongo{
		courses:      db.Collection(coursesCollection),
		quizzes:      db.Collection(quizzesCollection),
		cacheManager: cacheManager,
	}
}

// GetByIDs resolves courses with their quizzes through the course cache
func (c *CourseMongo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Course, error) {
	return c.cacheManager.ResolveCourses(ctx, ids, c.fetch)
}

func (c *CourseMongo) fetch(ctx context.Context, ids []string) (map[string]*models.Course, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}

	result := make(map[string]*models.Course, len(objIDs))
	if len(objIDs) == 0 {
		return result, nil
	}

	var courseDocs []courseDocument
	if err := c.findAll(ctx, c.courses, bson.M{"_id": bson.M{"$in": objIDs}}, &courseDocs); err != nil {
		return nil, fmt.Errorf("failed to find courses: %w", err)
	}

	var quizIDs []primitive.ObjectID
	for _, doc := range courseDocs {
		quizIDs = append(quizIDs, doc.Quizzes...)
	}

	quizzes := make(map[primitive.ObjectID]models.Quiz, len(quizIDs))
	if len(quizIDs) > 0 {
		var quizDocs []quizDocument
		if err := c.findAll(ctx, c.quizzes, bson.M{"_id": bson.M{"$in": quizIDs}}, &quizDocs); err != nil {
			return nil, fmt.Errorf("failed to find quizzes: %w", err)
		}
		for _, q := range quizDocs {
			quiz := models.Quiz{ID: q.ID.Hex(), Title: q.Title, Questions: make([]models.QuizQuestion, 0, len(q.Questions))}
			for _, question := range q.Questions {
				quiz.Questions = append(quiz.Questions, models.QuizQuestion{
					Question: question.Question,
					Options:  question.Options,
					Answer:   question.Answer,
				})
			}
			quizzes[q.ID] = quiz
		}
	}

	for _, doc := range courseDocs {
		course := &models.Course{
			ID:          doc.ID.Hex(),
			Title:       doc.Title,
			Description: doc.Description,
			Quizzes:     make([]models.Quiz, 0, len(doc.Quizzes)),
		}
		// Keep the course's quiz order; dangling quiz refs are skipped
		for _, quizID := range doc.Quizzes {
			if quiz, ok := quizzes[quizID]; ok {
				course.Quizzes = append(course.Quizzes, quiz)
			}
		}
		result[course.ID] = course
	}

	return result, nil
}

func (c *CourseMongo) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, dest interface{}) error {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, dest)
}
