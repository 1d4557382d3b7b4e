// Package progress reports incremental completion of long computations without tying the
// computation to any particular display.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/schollz/progressbar/v2"
)

// Sink receives the total number of work units once, then completed unit counts.
// Sinks are driven from a single goroutine and need not be safe for concurrent use.
type Sink interface {
	Start(total int)
	Add(n int)
	Finish()
}

// Noop discards all notifications.
type Noop struct{}

func (Noop) Start(int) {}
func (Noop) Add(int)   {}
func (Noop) Finish()   {}

// Bar renders a terminal progress bar.
type Bar struct {
	w    io.Writer
	desc string
	bar  *progressbar.ProgressBar
}

// NewBar returns a bar writing to w, typically os.Stderr.
func NewBar(w io.Writer, description string) *Bar {
	return &Bar{w: w, desc: description}
}

func (b *Bar) Start(total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(b.desc),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (b *Bar) Add(n int) {
	if b.bar != nil {
		_ = b.bar.Add(n)
	}
}

func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
		fmt.Fprintln(b.w)
	}
}

// Recorder keeps every notification, for tests and diagnostics.
type Recorder struct {
	mu       sync.Mutex
	total    int
	done     int
	calls    int
	started  int
	finished int
}

func (r *Recorder) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	r.started++
}

func (r *Recorder) Add(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done += n
	r.calls++
}

func (r *Recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

// Snapshot returns the recorded total, completed units and number of Add calls.
func (r *Recorder) Snapshot() (total, done, calls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.done, r.calls
}

// Check reports whether Start and Finish were each called once and all units completed.
func (r *Recorder) Check() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.started != 1:
		return fmt.Errorf("progress: Start called %d times", r.started)
	case r.finished != 1:
		return fmt.Errorf("progress: Finish called %d times", r.finished)
	case r.done != r.total:
		return fmt.Errorf("progress: completed %d of %d units", r.done, r.total)
	}
	return nil
}

// Reporter fans completions from concurrent workers into one Sink. Workers never block on
// the sink: counts accumulate atomically and a single goroutine forwards them.
type Reporter struct {
	sink    Sink
	pending atomic.Int64
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewReporter calls sink.Start(total) and begins forwarding. A nil sink is a Noop.
func NewReporter(sink Sink, total int) *Reporter {
	if sink == nil {
		sink = Noop{}
	}
	r := &Reporter{
		sink: sink,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	sink.Start(total)
	go r.forward()
	return r
}

func (r *Reporter) forward() {
	defer close(r.done)
	for range r.wake {
		r.flush()
	}
	r.flush()
}

func (r *Reporter) flush() {
	if n := r.pending.Swap(0); n > 0 {
		r.sink.Add(int(n))
	}
}

// Add records n completed units. Safe for concurrent use; must not be called after Close.
func (r *Reporter) Add(n int) {
	r.pending.Add(int64(n))
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Close forwards any remaining units and calls sink.Finish. It is idempotent.
func (r *Reporter) Close() {
	r.once.Do(func() {
		close(r.wake)
		<-r.done
		r.sink.Finish()
	})
}
