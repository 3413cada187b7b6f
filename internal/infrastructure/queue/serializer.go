package queue

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursesphere/coursesphere-api/internal/api/metrics"
	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrSerializerStopped is returned by Do once the workers have shut down.
var ErrSerializerStopped = fmt.Errorf("serializer stopped: %w", domain.ErrUnavailable)

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Serializer routes mutations to a fixed set of workers using consistent
// hashing on the key, so two mutations with the same key never overlap and
// run in submission order.
type Serializer struct {
	workers []chan job
	log     zerolog.Logger

	stopped   chan struct{}
	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewSerializer creates a Serializer with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewSerializer(numWorkers int, log zerolog.Logger) *Serializer {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	s := &Serializer{
		workers: make([]chan job, numWorkers),
		log:     log,
		stopped: make(chan struct{}),
	}
	for i := range s.workers {
		s.workers[i] = make(chan job, channelBuffer)
	}
	return s
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// Wait blocks until they have.
func (s *Serializer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		for i, ch := range s.workers {
			s.wg.Add(1)
			go s.runWorker(ctx, i, ch)
		}
		go func() {
			<-ctx.Done()
			s.wg.Wait()
			close(s.stopped)
		}()
	})
}

// Run starts the workers on a context of their own and returns a function
// that stops them and waits for them to exit. In-flight mutations finish
// before stop returns.
func (s *Serializer) Run() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	return func() {
		cancel()
		s.Wait()
	}
}

// Wait blocks until every worker has exited.
func (s *Serializer) Wait() {
	<-s.stopped
}

// Do runs fn on the worker that owns key and waits for its result.
func (s *Serializer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		metrics.SerializedDuration.WithLabelValues("local").Observe(time.Since(start).Seconds())
	}()

	shard := s.shardIndex(key)
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	select {
	case s.workers[shard] <- j:
		metrics.SerializerQueueDepth.WithLabelValues(strconv.Itoa(shard)).Inc()
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrSerializerStopped
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		// The job still runs, or is skipped, on the worker; its own ctx is
		// cancelled so repository calls abort early.
		return ctx.Err()
	case <-s.stopped:
		return ErrSerializerStopped
	}
}

// shardIndex maps a key deterministically to a worker index.
func (s *Serializer) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.workers)))
}

func (s *Serializer) runWorker(ctx context.Context, id int, ch <-chan job) {
	defer s.wg.Done()
	depth := metrics.SerializerQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ch:
			depth.Dec()
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			err := s.run(j)
			if err != nil {
				s.log.Debug().Err(err).Int("worker_id", id).Msg("serialized mutation failed")
			}
			j.done <- err
		}
	}
}

// run executes one job, turning a panic into an error so a bad mutation
// cannot take the shard down.
func (s *Serializer) run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("serialized mutation panicked")
			err = errors.New("serialized mutation panicked")
		}
	}()
	return j.fn(j.ctx)
}
