package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64

	OpHash   = "hash"
	OpVerify = "verify"
)

// ErrPoolClosed is returned for work submitted after the pool stopped.
var ErrPoolClosed = errors.New("hash pool closed")

// Observer receives the duration of every completed hashing operation.
type Observer func(op string, d time.Duration)

type job struct {
	ctx       context.Context
	op        string
	plaintext string
	digest    string
	result    chan jobResult
}

type jobResult struct {
	digest string
	ok     bool
	err    error
}

// HashPool runs an underlying PasswordHasher on a fixed number of worker
// goroutines so that concurrent logins cannot burn more than that many cores
// on key derivation. It implements ports.PasswordHasher.
type HashPool struct {
	hasher  ports.PasswordHasher
	jobs    chan job
	workers int
	observe Observer
	log     zerolog.Logger

	// mu guards closed; submissions hold the read lock while enqueuing so
	// nothing lands in jobs after Stop begins draining.
	mu       sync.RWMutex
	closed   bool
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHashPool creates a pool of numWorkers workers. If numWorkers <= 0,
// defaultWorkers is used. observe may be nil.
func NewHashPool(numWorkers int, hasher ports.PasswordHasher, observe Observer, log zerolog.Logger) *HashPool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &HashPool{
		hasher:  hasher,
		jobs:    make(chan job, channelBuffer),
		workers: numWorkers,
		observe: observe,
		log:     log,
		quit:    make(chan struct{}),
	}
}

// Start launches the workers. Cancelling ctx has the same effect as Stop.
func (p *HashPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	go func() {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-p.quit:
		}
	}()
	p.log.Info().Int("workers", p.workers).Msg("hash pool started")
}

// Stop refuses new submissions with ErrPoolClosed, lets the workers finish
// every job already accepted and waits for them.
func (p *HashPool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *HashPool) Hash(ctx context.Context, plaintext string) (string, error) {
	res, err := p.submit(ctx, job{op: OpHash, plaintext: plaintext})
	if err != nil {
		return "", err
	}
	return res.digest, res.err
}

func (p *HashPool) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	res, err := p.submit(ctx, job{op: OpVerify, plaintext: plaintext, digest: digest})
	if err != nil {
		return false, err
	}
	return res.ok, res.err
}

func (p *HashPool) submit(ctx context.Context, j job) (jobResult, error) {
	j.ctx = ctx
	j.result = make(chan jobResult, 1)

	if err := p.enqueue(ctx, j); err != nil {
		return jobResult{}, err
	}

	// Accepted jobs always run, even if the pool is stopping meanwhile.
	select {
	case res := <-j.result:
		return res, nil
	case <-ctx.Done():
		return jobResult{}, ctx.Err()
	}
}

func (p *HashPool) enqueue(ctx context.Context, j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *HashPool) runWorker(id int) {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			p.run(id, j)
		case <-p.quit:
			for {
				select {
				case j := <-p.jobs:
					p.run(id, j)
				default:
					return
				}
			}
		}
	}
}

func (p *HashPool) run(id int, j job) {
	// The caller gave up while the job sat in the queue.
	if j.ctx.Err() != nil {
		return
	}
	start := time.Now()
	var res jobResult
	switch j.op {
	case OpHash:
		res.digest, res.err = p.hasher.Hash(j.ctx, j.plaintext)
	case OpVerify:
		res.ok, res.err = p.hasher.Verify(j.ctx, j.plaintext, j.digest)
	}
	if p.observe != nil {
		p.observe(j.op, time.Since(start))
	}
	if res.err != nil {
		p.log.Error().Err(res.err).Str("op", j.op).Int("worker_id", id).Msg("hashing failed")
	}
	j.result <- res
}
