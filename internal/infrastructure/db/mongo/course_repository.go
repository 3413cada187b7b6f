package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

const collectionCourses = "courses"

// CourseRepository implements ports.CourseRepository using MongoDB. The
// instructor set is stored as an array maintained with $addToSet and $pull.
type CourseRepository struct {
	col *mongo.Collection
	ids counter
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{col: db.Collection(collectionCourses), ids: newCounter(db, collectionCourses)}
}

type mongoCourse struct {
	ID          int64     `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	StartDate   time.Time `bson:"start_date"`
	EndDate     time.Time `bson:"end_date"`
	CreatorID   int64     `bson:"creator_id"`
	Instructors []int64   `bson:"instructors"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toMongoCourse(c *domain.Course) mongoCourse {
	return mongoCourse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		CreatorID:   c.CreatorID,
		Instructors: c.Instructors.Slice(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m mongoCourse) toDomain() *domain.Course {
	return &domain.Course{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		StartDate:   m.StartDate.UTC(),
		EndDate:     m.EndDate.UTC(),
		CreatorID:   m.CreatorID,
		Instructors: domain.NewIDSet(m.Instructors...),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}
	doc := toMongoCourse(c)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCourse
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return doc.toDomain(), nil
}

// courseQuery translates a CourseFilter into a Mongo filter document.
func courseQuery(f ports.CourseFilter) bson.M {
	filter := bson.M{}
	if f.CreatorID != 0 {
		filter["creator_id"] = f.CreatorID
	}
	if f.MemberID != 0 {
		filter["instructors"] = f.MemberID
	}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}
	}
	return filter
}

func (r *CourseRepository) List(ctx context.Context, f ports.CourseFilter) ([]*domain.Course, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := courseQuery(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	opts := pageOptions(options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}), f.Page, f.Limit)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	var docs []mongoCourse
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode courses: %w", err)
	}

	out := make([]*domain.Course, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *CourseRepository) Update(ctx context.Context, c *domain.Course) (*domain.Course, error) {
	return r.findAndUpdate(ctx, c.ID, bson.M{"$set": bson.M{
		"name":        c.Name,
		"description": c.Description,
		"start_date":  c.StartDate,
		"end_date":    c.EndDate,
		"updated_at":  c.UpdatedAt,
	}})
}

func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) AddInstructor(ctx context.Context, courseID, userID int64) (*domain.Course, error) {
	return r.findAndUpdate(ctx, courseID, bson.M{
		"$addToSet": bson.M{"instructors": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *CourseRepository) RemoveInstructor(ctx context.Context, courseID, userID int64) (*domain.Course, error) {
	return r.findAndUpdate(ctx, courseID, bson.M{
		"$pull": bson.M{"instructors": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *CourseRepository) findAndUpdate(ctx context.Context, id int64, update bson.M) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCourse
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the membership and creator indexes and seeds the id counter.
func (r *CourseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "creator_id", Value: 1}}},
		{Keys: bson.D{{Key: "instructors", Value: 1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("courses indexes: %w", err)
	}
	return r.ids.seed(ctx, r.col)
}
