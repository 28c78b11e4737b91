package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aromabox/pintone/pkg/config"
	"github.com/aromabox/pintone/pkg/player"
	"github.com/aromabox/pintone/pkg/sequence"
)

var (
	// ErrQueueFull is returned when max_length jobs are already pending.
	ErrQueueFull = errors.New("transmission queue is full")
	// ErrStopped is returned for jobs added after Stop.
	ErrStopped = errors.New("transmission queue is stopped")
)

// Job is one PIN transmission.
type Job struct {
	// Ctx, if set, cancels this transmission only.
	Ctx      context.Context
	PIN      string
	OnSymbol sequence.SymbolFunc
	// Done receives the result of the transmission, if non-nil. It should be
	// buffered so the worker never blocks on it.
	Done chan<- error
}

// Queue runs PIN transmissions one at a time on a single worker goroutine.
type Queue struct {
	Config   config.Queue
	tone     config.Tone
	player   player.Player
	log      zerolog.Logger
	jobChan  chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex // Protects closed
	closed   bool
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewQueue creates a new queue and starts its worker.
func NewQueue(cfg config.Queue, tone config.Tone, p player.Player, log zerolog.Logger) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := tone.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		Config:  cfg,
		tone:    tone,
		player:  p,
		log:     log.With().Str("component", "queue").Logger(),
		jobChan: make(chan Job, cfg.MaxLength),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	go q.run()

	return q, nil
}

// Add attempts to queue a job for transmission without blocking.
func (q *Queue) Add(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrStopped
	}
	select {
	case q.jobChan <- job:
		q.log.Trace().Int("length", len(job.PIN)).Msg("Job added to queue")
		return nil
	default:
		q.log.Debug().Int("length", len(job.PIN)).Msg("Queue full, dropping job")
		return ErrQueueFull
	}
}

// Stop cancels the transmission in progress between tones and stops the
// worker. Pending jobs are completed with ErrStopped.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.log.Debug().Msg("Stopping queue")
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		q.cancel()
		<-q.stopped
	})
}

func (q *Queue) run() {
	q.log.Debug().Msg("Queue processor started")
	defer q.log.Debug().Msg("Queue processor stopped")
	defer close(q.stopped)

	opts := sequence.Options{
		ToneDuration: q.tone.Duration(),
		Gap:          q.tone.Gap(),
		SampleRate:   q.tone.SampleRate,
		Log:          q.log,
	}

	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case job := <-q.jobChan:
			q.log.Debug().
				Int("length", len(job.PIN)).
				Dur("tone", opts.ToneDuration).
				Dur("gap", opts.Gap).
				Msg("Transmitting PIN")

			err := q.transmit(job, opts)
			if err != nil {
				q.log.Error().Err(err).Msg("Failed to transmit PIN")
			}
			finish(job, err)
		}
	}
}

func (q *Queue) transmit(job Job, opts sequence.Options) error {
	ctx, cancel := context.WithCancel(q.ctx)
	defer cancel()
	if job.Ctx != nil {
		if err := job.Ctx.Err(); err != nil {
			return err
		}
		stop := context.AfterFunc(job.Ctx, cancel)
		defer stop()
	}
	return sequence.Play(ctx, q.player, job.PIN, opts, job.OnSymbol)
}

func (q *Queue) drain() {
	for {
		select {
		case job := <-q.jobChan:
			finish(job, ErrStopped)
		default:
			return
		}
	}
}

func finish(job Job, err error) {
	if job.Done != nil {
		job.Done <- err
	}
}
