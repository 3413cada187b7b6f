package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second

	collectionCounters = "counters"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the indexes of every collection and aligns the id
// counters with data that may have been imported directly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	steps := []interface{ EnsureIndexes(context.Context) error }{
		NewUserRepository(db),
		NewCourseRepository(db),
		NewLessonRepository(db),
		NewInvitationRepository(db),
	}
	for _, s := range steps {
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// counter hands out monotonically increasing int64 ids per collection.
type counter struct {
	col  *mongo.Collection
	name string
}

func newCounter(db *mongo.Database, name string) counter {
	return counter{col: db.Collection(collectionCounters), name: name}
}

func (c counter) next(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := c.col.FindOneAndUpdate(ctx, bson.M{"_id": c.name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", c.name, err)
	}
	return doc.Seq, nil
}

// seed raises the counter to the highest _id already stored in col.
func (c counter) seed(ctx context.Context, col *mongo.Collection) error {
	var doc struct {
		ID int64 `bson:"_id"`
	}
	err := col.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed %s counter: %w", c.name, err)
	}
	_, err = c.col.UpdateOne(ctx, bson.M{"_id": c.name}, bson.M{"$max": bson.M{"seq": doc.ID}}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("seed %s counter: %w", c.name, err)
	}
	return nil
}

// pageOptions applies 1-based paging; limit 0 returns everything.
func pageOptions(opts *options.FindOptions, page, limit int) *options.FindOptions {
	if limit <= 0 {
		return opts
	}
	if page < 1 {
		page = 1
	}
	return opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
}

// Ping reports whether the database answers; used by the readiness probe.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, nil)
}
