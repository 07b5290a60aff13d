package stream

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/blockpress/internal/pool"
	"github.com/arloliu/blockpress/section"
)

// pipelineSlack is how many tasks beyond the worker count may be outstanding, so
// workers stay busy while the driver writes finished blocks.
const pipelineSlack = 2

// task is one block travelling through the pipeline. It is owned by exactly one
// goroutine at a time: the driver until submitted, a worker while processed, and
// the driver again once received from the results channel.
type task struct {
	input  *pool.ByteBuffer
	output *pool.ByteBuffer
	err    error
	desc   section.BlockDescriptor
	index  int
}

// scratch holds the per-worker transform buffers.
type scratch struct {
	a *pool.ByteBuffer
	b *pool.ByteBuffer
}

type (
	processFunc func(t *task, s *scratch) error
	emitFunc    func(t *task) error
	releaseFunc func(t *task)
)

// pipeline runs block tasks on a fixed set of workers and hands them back to the
// driver strictly in index order.
//
// Only the driver goroutine calls submit, collect, drain and stop. At most limit
// tasks are outstanding (submitted and not yet emitted), and both channels have
// that capacity, so neither the driver's sends nor the workers' sends can block.
type pipeline struct {
	ctx      context.Context
	cancel   context.CancelFunc
	group    *errgroup.Group
	tasks    chan *task
	results  chan *task
	pending  map[int]*task
	release  releaseFunc
	next     int
	inflight int
	limit    int
	stopped  bool
}

func newPipeline(ctx context.Context, jobs int, process processFunc, release releaseFunc) *pipeline {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	limit := jobs + pipelineSlack

	p := &pipeline{
		ctx:     ctx,
		cancel:  cancel,
		group:   group,
		tasks:   make(chan *task, limit),
		results: make(chan *task, limit),
		pending: make(map[int]*task, limit),
		release: release,
		limit:   limit,
	}

	for _i := 0; _i < jobs; _i++ {
		s := &scratch{a: pool.NewByteBuffer(0), b: pool.NewByteBuffer(0)}
		group.Go(func() error {
			return p.work(gctx, s, process)
		})
	}

	return p
}

func (p *pipeline) work(ctx context.Context, s *scratch, process processFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-p.tasks:
			if !ok {
				return nil
			}

			t.err = runTask(t, s, process)
			p.results <- t
		}
	}
}

func runTask(t *task, s *scratch, process processFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("block %d: panic: %v", t.index, r)
		}
	}()

	return process(t, s)
}

// full reports whether submit would have to wait for a result first.
func (p *pipeline) full() bool {
	return p.inflight >= p.limit
}

// submit hands t to the workers, emitting finished blocks while the window is full.
func (p *pipeline) submit(t *task, emit emitFunc) error {
	if err := p.ctx.Err(); err != nil {
		p.release(t)
		return err
	}

	for p.full() {
		if err := p.collect(emit, true); err != nil {
			p.release(t)
			return err
		}
	}

	select {
	case p.tasks <- t:
		p.inflight++
	case <-p.ctx.Done():
		p.release(t)
		return p.ctx.Err()
	}

	return p.collect(emit, false)
}

// collect moves finished tasks into the pending set and emits every task that is
// next in order. With wait set it blocks until at least one task has finished.
//
// A failed task is reported when its turn comes, so the error returned is always
// the one of the lowest failing block index.
func (p *pipeline) collect(emit emitFunc, wait bool) error {
	if wait {
		select {
		case t := <-p.results:
			p.pending[t.index] = t
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
	}

	for received := true; received; {
		select {
		case t := <-p.results:
			p.pending[t.index] = t
		default:
			received = false
		}
	}

	for {
		t, ok := p.pending[p.next]
		if !ok {
			return nil
		}

		delete(p.pending, p.next)
		p.next++
		p.inflight--

		if t.err != nil {
			p.release(t)
			return t.err
		}

		err := emit(t)
		p.release(t)
		if err != nil {
			return err
		}
	}
}

// drain emits every outstanding task.
func (p *pipeline) drain(emit emitFunc) error {
	for p.inflight > 0 {
		if err := p.collect(emit, true); err != nil {
			return err
		}
	}

	return nil
}

// stop shuts the workers down and releases every task still held. With abort set
// the workers are cancelled instead of finishing queued tasks. It is idempotent.
func (p *pipeline) stop(abort bool) error {
	if p.stopped {
		return nil
	}
	p.stopped = true

	if abort {
		p.cancel()
	}

	close(p.tasks)
	err := p.group.Wait()
	p.cancel()

	for t := range p.tasks {
		p.release(t)
	}

	for received := true; received; {
		select {
		case t := <-p.results:
			p.release(t)
		default:
			received = false
		}
	}

	for idx, t := range p.pending {
		p.release(t)
		delete(p.pending, idx)
	}
	p.inflight = 0

	if abort || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
