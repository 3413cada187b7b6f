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

const collectionLessons = "lessons"

// LessonRepository implements ports.LessonRepository using MongoDB.
type LessonRepository struct {
	col *mongo.Collection
	ids counter
}

func NewLessonRepository(db *mongo.Database) *LessonRepository {
	return &LessonRepository{col: db.Collection(collectionLessons), ids: newCounter(db, collectionLessons)}
}

type mongoLesson struct {
	ID          int64     `bson:"_id"`
	Title       string    `bson:"title"`
	Status      string    `bson:"status"`
	PublishDate time.Time `bson:"publish_date"`
	VideoURL    string    `bson:"video_url"`
	CourseID    int64     `bson:"course_id"`
	CreatorID   int64     `bson:"creator_id"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toMongoLesson(l *domain.Lesson) mongoLesson {
	return mongoLesson{
		ID:          l.ID,
		Title:       l.Title,
		Status:      string(l.Status),
		PublishDate: l.PublishDate,
		VideoURL:    l.VideoURL,
		CourseID:    l.CourseID,
		CreatorID:   l.CreatorID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (m mongoLesson) toDomain() *domain.Lesson {
	return &domain.Lesson{
		ID:          m.ID,
		Title:       m.Title,
		Status:      domain.LessonStatus(m.Status),
		PublishDate: m.PublishDate.UTC(),
		VideoURL:    m.VideoURL,
		CourseID:    m.CourseID,
		CreatorID:   m.CreatorID,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func (r *LessonRepository) Create(ctx context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}
	doc := toMongoLesson(l)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert lesson: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*domain.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoLesson
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return doc.toDomain(), nil
}

// lessonQuery translates a LessonFilter into a Mongo filter and sort.
func lessonQuery(f ports.LessonFilter) (bson.M, bson.D) {
	filter := bson.M{}
	if f.CourseID != 0 {
		filter["course_id"] = f.CourseID
	}
	if f.TitleLike != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.TitleLike), Options: "i"}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	field := "_id"
	switch f.Sort {
	case ports.LessonSortTitle, ports.LessonSortPublishDate, ports.LessonSortCreatedAt:
		field = f.Sort
	}
	dir := 1
	if f.Desc {
		dir = -1
	}
	sort := bson.D{{Key: field, Value: dir}}
	if field != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return filter, sort
}

func (r *LessonRepository) List(ctx context.Context, f ports.LessonFilter) ([]*domain.Lesson, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, sort := lessonQuery(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	cur, err := r.col.Find(ctx, filter, pageOptions(options.Find().SetSort(sort), f.Page, f.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}
	var docs []mongoLesson
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode lessons: %w", err)
	}

	out := make([]*domain.Lesson, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

func (r *LessonRepository) Update(ctx context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":        l.Title,
		"status":       string(l.Status),
		"publish_date": l.PublishDate,
		"video_url":    l.VideoURL,
		"updated_at":   l.UpdatedAt,
	}}
	var doc mongoLesson
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": l.ID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, fmt.Errorf("update lesson: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}

func (r *LessonRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID}); err != nil {
		return fmt.Errorf("delete course lessons: %w", err)
	}
	return nil
}

// EnsureIndexes creates the listing indexes and seeds the id counter.
func (r *LessonRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "publish_date", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("lessons indexes: %w", err)
	}
	return r.ids.seed(ctx, r.col)
}
