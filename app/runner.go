package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/event"
	"github.com/arloliu/blockpress/internal/options"
)

// runner holds what Compressor and Decompressor share: configuration, listeners,
// logging, owned I/O handles and the summary of the last run.
type runner struct {
	stdin    io.Reader
	stdout   io.Writer
	logger   *zap.Logger
	registry *event.Registry
	input    io.Closer
	output   io.Closer
	op       string
	warnings []string
	stats    RunStats
	cfg      Config
	mu       sync.Mutex
	dispose  sync.Once
	ran      bool
	disposed bool
}

func newRunner(op string, cfg Config, warnings []string, opts []Option) (*runner, error) {
	ro := defaultRunOptions()
	if err := options.Apply(ro, opts...); err != nil {
		return nil, err
	}

	runID := ksuid.New().String()
	r := &runner{
		op:       op,
		cfg:      cfg,
		warnings: warnings,
		stdin:    ro.stdin,
		stdout:   ro.stdout,
		logger:   ro.logger.With(zap.String("op", op), zap.String("run_id", runID)),
		registry: event.NewRegistry(),
		stats: RunStats{
			RunID:  runID,
			Input:  cfg.Input,
			Output: cfg.Output,
		},
	}

	r.registry.OnPanic = func(_ event.Listener, recovered any) {
		r.logger.Warn("listener panicked", zap.Any("recovered", recovered))
	}
	r.registry.Add(NewLogListener(r.logger, cfg.Verbosity))

	return r, nil
}

// Config returns the validated configuration.
func (r *runner) Config() Config {
	return r.cfg
}

// AddListener registers l for the events of the next run. It returns false for a
// nil or already registered listener. The listener is not owned by the runner.
func (r *runner) AddListener(l event.Listener) bool {
	return r.registry.Add(l)
}

// RemoveListener unregisters l. It returns false when l was not registered.
func (r *runner) RemoveListener(l event.Listener) bool {
	return r.registry.Remove(l)
}

// Stats returns the summary of the last run.
func (r *runner) Stats() RunStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stats
}

// Dispose closes every I/O handle the runner opened and prevents further runs. It is
// safe to call more than once and after a failed run; listeners are left untouched.
func (r *runner) Dispose() {
	r.dispose.Do(func() {
		r.mu.Lock()
		r.disposed = true
		r.mu.Unlock()

		r.release()
	})
}

// release closes the handles of the current run.
func (r *runner) release() {
	if err := r.closeOutput(); err != nil {
		r.logger.Warn("close output", zap.Error(err))
	}

	if r.input != nil {
		_ = r.input.Close()
		r.input = nil
	}
}

func (r *runner) closeOutput() error {
	if r.output == nil {
		return nil
	}

	err := r.output.Close()
	r.output = nil

	return err
}

// execute wraps the single run: it reports warnings, timing, the final event and
// the status, then closes the handles.
func (r *runner) execute(ctx context.Context, body func(ctx context.Context) error) int {
	r.mu.Lock()
	if r.ran || r.disposed {
		r.mu.Unlock()
		r.logger.Error("run after completion or dispose", zap.Error(errs.ErrStreamClosed))

		return StatusOf(errs.ErrStreamClosed)
	}
	r.ran = true
	r.mu.Unlock()

	defer r.release()

	for _, w := range r.warnings {
		r.registry.Notify(event.New(event.KindWarning, w))
	}

	if ce := r.logger.Check(zap.DebugLevel, "configuration"); ce != nil {
		pairs := r.cfg.Describe()
		fields := make([]zap.Field, len(pairs))
		for i, kv := range pairs {
			fields[i] = zap.String(kv[0], kv[1])
		}
		ce.Write(fields...)
	}

	start := time.Now()
	err := body(ctx)
	elapsed := time.Since(start)

	r.mu.Lock()
	r.stats.Elapsed = elapsed
	r.stats.Status = StatusOf(err)
	stats := r.stats
	r.mu.Unlock()

	if err != nil {
		r.logger.Debug("run failed", zap.Error(err), zap.Int("status", stats.Status))
		r.registry.Notify(event.New(event.KindError, r.op+" failed: "+err.Error()))

		return stats.Status
	}

	done := event.New(event.KindCompleted, r.op+" completed")
	done.RawBytes = stats.RawBytes
	done.EncodedBytes = stats.EncodedBytes
	done.Elapsed = elapsed
	r.registry.Notify(done)

	if stats.RawBytes == 0 && r.op == opCompress {
		r.registry.Notify(event.New(event.KindWarning, "input is empty"))
		r.setStatus(WarnEmptyInput)

		return WarnEmptyInput
	}

	return StatusOK
}

func (r *runner) setStatus(status int) {
	r.mu.Lock()
	r.stats.Status = status
	r.mu.Unlock()
}

func (r *runner) record(fn func(s *RunStats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

// finishOutput closes an owned output so that close failures surface as write
// errors of the run.
func (r *runner) finishOutput() error {
	if err := r.closeOutput(); err != nil {
		return ioError(StatusWriteFile, "close output", err)
	}

	return nil
}

// classify tags err with status when it does not already map to a known status.
func classify(err error, status int, op string) error {
	if err == nil || StatusOf(err) != StatusUnknown {
		return err
	}

	return ioError(status, op, err)
}
