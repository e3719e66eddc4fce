package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"
)

// minBurst keeps small limits from degrading into one tiny read per tick
const minBurst = 64 * 1024

// Limiter is a token bucket shared by every reader that hashes files, so the
// limit applies to the run as a whole rather than per file
type Limiter struct {
	rate  int64 // bytes per second
	burst int64

	mu     sync.Mutex
	tokens int64
	last   time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter for bytesPerSecond. It returns nil when
// bytesPerSecond is not positive, which disables limiting.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}

	return &Limiter{
		rate:   bytesPerSecond,
		burst:  burst,
		tokens: burst,
		last:   time.Now(),
		now:    time.Now,
	}
}

// Rate returns the configured bytes per second
func (l *Limiter) Rate() int64 {
	return l.rate
}

// Burst returns the bucket size
func (l *Limiter) Burst() int64 {
	return l.burst
}

// WaitN blocks until n bytes may be read or ctx is done. n is capped at the burst size.
func (l *Limiter) WaitN(ctx context.Context, n int64) error {
	if n > l.burst {
		n = l.burst
	}

	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= n {
			l.tokens -= n
			l.mu.Unlock()
			return nil
		}
		wait := time.Duration(float64(n-l.tokens) / float64(l.rate) * float64(time.Second))
		l.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refund returns tokens reserved for bytes that were not actually read
func (l *Limiter) refund(n int64) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	l.tokens += n
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.mu.Unlock()
}

// refill adds tokens for the elapsed time (must be called with lock held)
func (l *Limiter) refill() {
	now := l.now()
	add := int64(now.Sub(l.last).Seconds() * float64(l.rate))
	if add > 0 {
		l.tokens += add
		if l.tokens > l.burst {
			l.tokens = l.burst
		}
		l.last = now
	}
}

type limitedReadCloser struct {
	ctx     context.Context
	rc      io.ReadCloser
	limiter *Limiter
}

// NewReadCloser wraps rc so every Read draws from the limiter. A nil limiter returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &limitedReadCloser{ctx: ctx, rc: rc, limiter: limiter}
}

func (r *limitedReadCloser) Read(p []byte) (int, error) {
	want := int64(len(p))
	if want > r.limiter.burst {
		want = r.limiter.burst
	}
	if err := r.limiter.WaitN(r.ctx, want); err != nil {
		return 0, err
	}

	n, err := r.rc.Read(p[:want])
	r.limiter.refund(want - int64(n))
	return n, err
}

func (r *limitedReadCloser) Close() error {
	return r.rc.Close()
}
