// @title           CourseSphere API
// @version         1.0
// @description     Course management with lessons and co-instructor invitations.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/coursesphere/coursesphere-api/internal/api"
	"github.com/coursesphere/coursesphere-api/internal/api/metrics"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
	"github.com/coursesphere/coursesphere-api/internal/core/service"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/config"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/db/filestore"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/db/mongo"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/db/redis"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/http/handlers"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/queue"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/security"
	"github.com/coursesphere/coursesphere-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coursesphere-api: %v\n", err)
		os.Exit(1)
	}
}

// repositories groups the storage ports of the selected driver.
type repositories struct {
	users       ports.UserRepository
	courses     ports.CourseRepository
	lessons     ports.LessonRepository
	invitations ports.InvitationRepository
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "coursesphere-api",
	})

	checkers := map[string]handlers.Checker{}

	// --- Storage ---
	var repos repositories
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer disconnectMongo(client, log)

		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		repos = repositories{
			users:       mongo.NewUserRepository(db),
			courses:     mongo.NewCourseRepository(db),
			lessons:     mongo.NewLessonRepository(db),
			invitations: mongo.NewInvitationRepository(db),
		}
		checkers["mongodb"] = func(ctx context.Context) error { return mongo.Ping(ctx, client) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	default:
		store, err := filestore.Open(cfg.Store.File)
		if err != nil {
			return err
		}
		repos = repositories{
			users:       filestore.NewUserRepository(store),
			courses:     filestore.NewCourseRepository(store),
			lessons:     filestore.NewLessonRepository(store),
			invitations: filestore.NewInvitationRepository(store),
		}
		checkers["store"] = func(context.Context) error { return store.Ping() }
		log.Info().Str("file", cfg.Store.File).Msg("using file store")
	}

	// --- Redis (sessions, distributed lock) ---
	var (
		sessions ports.SessionStore
		rdb      *goredis.Client
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("closing redis client")
			}
		}()
		sessions = redis.NewSessionStore(rdb)
		checkers["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb) }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
	}

	// --- Course serialization ---
	var serializer ports.KeySerializer
	if cfg.Serializer.Backend == config.LockRedis {
		serializer = redis.NewKeyLock(rdb, 0, 0)
	} else {
		// Workers are not tied to the signal context: requests still draining
		// in e.Shutdown need them. The deferred stop runs after Shutdown returns.
		local := queue.NewSerializer(cfg.Serializer.Workers, logger.Component("serializer"))
		stopSerializer := local.Run()
		defer stopSerializer()
		serializer = local
	}
	log.Info().Str("backend", cfg.Serializer.Backend).Msg("course serializer ready")

	// --- Services ---
	tokens := security.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL, sessions)
	recorder := metrics.NewRecorder()

	e := api.NewRouter(api.Deps{
		Auth:  service.NewAuthService(repos.users, tokens, sessions, recorder, logger.Component("auth")),
		Users: service.NewUserService(repos.users, logger.Component("users")),
		Courses: service.NewCourseService(repos.courses, repos.lessons, repos.invitations, repos.users,
			serializer, recorder, logger.Component("courses")),
		Lessons: service.NewLessonService(repos.lessons, repos.courses, serializer, recorder, logger.Component("lessons")),
		Invitations: service.NewInvitationService(repos.invitations, repos.courses, repos.users, serializer,
			security.NewInvitationTokens(), recorder, logger.Component("invitations")),
		Verifier: tokens,
		Checkers: checkers,

		Log:            logger.Component("http"),
		RequestTimeout: cfg.RequestTimeout,
		LoginRate:      cfg.RateLimit.LoginRate,
		LoginBurst:     cfg.RateLimit.LoginBurst,
	})

	// --- Serve until signalled ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}

func disconnectMongo(client *mongodriver.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("disconnecting from MongoDB")
	}
}
