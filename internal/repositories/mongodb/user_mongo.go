package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

const usersCollection = "users"

type userDocument struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Name            string               `bson:"name"`
	Email           string               `bson:"email"`
	Password        string               `bson:"password"`
	Role            string               `bson:"role"`
	IsApproved      bool                 `bson:"isApproved"`
	EnrolledCourses []enrollmentDocument `bson:"enrolledCourses"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

type enrollmentDocument struct {
	Course    primitive.ObjectID `bson:"course"`
	Completed string             `bson:"completed"`
}

type UserMongo struct {
	collection *mongo.Collection
}

func NewUserMongo(db *mongo.Database) repositories.UserRepository {
	return &UserMongo{collection: db.Collection(usersCollection)}
}

// EnsureUserIndexes creates the unique email index
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	return nil
}

func (u *UserMongo) Insert(ctx context.Context, user *models.User) error {
	doc, err := toUserDocument(user)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := u.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (u *UserMongo) FindOne(ctx context.Context, filter repositories.UserFilter) (*models.User, error) {
	var doc userDocument
	err := u.collection.FindOne(ctx, toBSONFilter(filter)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toModel(), nil
}

func (u *UserMongo) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot match any document
		return nil, repositories.ErrNotFound
	}

	var doc userDocument
	err = u.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return doc.toModel(), nil
}

func (u *UserMongo) FindAll(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	cursor, err := u.collection.Find(ctx, toBSONFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

func (u *UserMongo) Save(ctx context.Context, user *models.User) error {
	doc, err := toUserDocument(user)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return repositories.ErrInvalidID
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = u.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicateKey
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	user.UpdatedAt = now
	user.CreatedAt = doc.CreatedAt
	return nil
}

// ===== CONVERSION =====

func toBSONFilter(filter repositories.UserFilter) bson.M {
	query := bson.M{}
	if filter.Email != nil {
		query["email"] = *filter.Email
	}
	if filter.Role != nil {
		query["role"] = string(*filter.Role)
	}
	if filter.IsApproved != nil {
		query["isApproved"] = *filter.IsApproved
	}
	return query
}

func toUserDocument(user *models.User) (*userDocument, error) {
	doc := &userDocument{
		Name:            user.Name,
		Email:           user.Email,
		Password:        user.PasswordHash,
		Role:            string(user.Role),
		IsApproved:      user.IsApproved,
		EnrolledCourses: make([]enrollmentDocument, 0, len(user.EnrolledCourses)),
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}

	if user.ID != "" {
		objID, err := primitive.ObjectIDFromHex(user.ID)
		if err != nil {
			return nil, fmt.Errorf("user id %q: %w", user.ID, repositories.ErrInvalidID)
		}
		doc.ID = objID
	}

	for _, e := range user.EnrolledCourses {
		courseID, err := primitive.ObjectIDFromHex(e.Course)
		if err != nil {
			return nil, fmt.Errorf("course id %q: %w", e.Course, repositories.ErrInvalidID)
		}
		doc.EnrolledCourses = append(doc.EnrolledCourses, enrollmentDocument{
			Course:    courseID,
			Completed: e.Completed,
		})
	}

	return doc, nil
}

func (d *userDocument) toModel() *models.User {
	user := &models.User{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Email:           d.Email,
		PasswordHash:    d.Password,
		Role:            models.ParseRole(d.Role),
		IsApproved:      d.IsApproved,
		EnrolledCourses: make([]models.Enrollment, 0, len(d.EnrolledCourses)),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, e := range d.EnrolledCourses {
		user.EnrolledCourses = append(user.EnrolledCourses, models.Enrollment{
			Course:    e.Course.Hex(),
			Completed: e.Completed,
		})
	}
	return user
}
