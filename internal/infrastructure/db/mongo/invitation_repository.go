package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

const collectionInvitations = "invitations"

// InvitationRepository implements ports.InvitationRepository using MongoDB.
// A partial unique index keeps at most one pending invitation per
// (course_id, email) even across API replicas.
type InvitationRepository struct {
	col *mongo.Collection
	ids counter
}

func NewInvitationRepository(db *mongo.Database) *InvitationRepository {
	return &InvitationRepository{col: db.Collection(collectionInvitations), ids: newCounter(db, collectionInvitations)}
}

type mongoInvitation struct {
	ID         int64      `bson:"_id"`
	CourseID   int64      `bson:"course_id"`
	Email      string     `bson:"email"`
	InviterID  int64      `bson:"inviter_id"`
	Status     string     `bson:"status"`
	TokenHash  string     `bson:"token_hash"`
	CreatedAt  time.Time  `bson:"created_at"`
	AcceptedAt *time.Time `bson:"accepted_at,omitempty"`
	DeclinedAt *time.Time `bson:"declined_at,omitempty"`
}

func (m mongoInvitation) toDomain() *domain.Invitation {
	inv := &domain.Invitation{
		ID:        m.ID,
		CourseID:  m.CourseID,
		Email:     m.Email,
		InviterID: m.InviterID,
		Status:    domain.InvitationStatus(m.Status),
		TokenHash: m.TokenHash,
		CreatedAt: m.CreatedAt.UTC(),
	}
	if m.AcceptedAt != nil {
		t := m.AcceptedAt.UTC()
		inv.AcceptedAt = &t
	}
	if m.DeclinedAt != nil {
		t := m.DeclinedAt.UTC()
		inv.DeclinedAt = &t
	}
	return inv
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}
	doc := mongoInvitation{
		ID:        id,
		CourseID:  inv.CourseID,
		Email:     inv.Email,
		InviterID: inv.InviterID,
		Status:    string(inv.Status),
		TokenHash: inv.TokenHash,
		CreatedAt: inv.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrPendingInvitation
		}
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *InvitationRepository) FindByID(ctx context.Context, id int64) (*domain.Invitation, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *InvitationRepository) FindPending(ctx context.Context, courseID int64, email string) (*domain.Invitation, error) {
	return r.findOne(ctx, bson.M{
		"course_id": courseID,
		"email":     email,
		"status":    string(domain.InvitationPending),
	})
}

func (r *InvitationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoInvitation
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return doc.toDomain(), nil
}

func invitationQuery(f ports.InvitationFilter) bson.M {
	filter := bson.M{}
	if f.CourseID != 0 {
		filter["course_id"] = f.CourseID
	}
	if f.Email != "" {
		filter["email"] = f.Email
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (r *InvitationRepository) List(ctx context.Context, f ports.InvitationFilter) ([]*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, invitationQuery(f), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	var docs []mongoInvitation
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode invitations: %w", err)
	}

	out := make([]*domain.Invitation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// transitionUpdate builds the $set for a status change stamped at at.
func transitionUpdate(to domain.InvitationStatus, at time.Time) bson.M {
	set := bson.M{"status": string(to)}
	switch to {
	case domain.InvitationAccepted:
		set["accepted_at"] = at
	case domain.InvitationDeclined:
		set["declined_at"] = at
	}
	return bson.M{"$set": set}
}

// Transition is a compare-and-set on status: the update only matches while the
// stored status is still from.
func (r *InvitationRepository) Transition(ctx context.Context, id int64, from, to domain.InvitationStatus, at time.Time) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoInvitation
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": string(from)}, transitionUpdate(to, at), opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition invitation: %w", err)
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrInvitationNotPending
}

func (r *InvitationRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID}); err != nil {
		return fmt.Errorf("delete course invitations: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes, the single-pending guard and
// seeds the id counter.
func (r *InvitationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.InvitationPending)}),
		},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("invitations indexes: %w", err)
	}
	return r.ids.seed(ctx, r.col)
}
