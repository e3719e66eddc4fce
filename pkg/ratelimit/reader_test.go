package ratelimit

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		assert.Nil(t, NewLimiter(0))
		assert.Nil(t, NewLimiter(-100))
	})

	t.Run("SmallRateUsesMinimumBurst", func(t *testing.T) {
		l := NewLimiter(1000)
		require.NotNil(t, l)
		assert.Equal(t, int64(1000), l.Rate())
		assert.Equal(t, int64(minBurst), l.Burst())
	})

	t.Run("LargeRateBurstsOneSecond", func(t *testing.T) {
		l := NewLimiter(100 * 1024 * 1024)
		require.NotNil(t, l)
		assert.Equal(t, int64(100*1024*1024), l.Burst())
	})
}

func TestLimiterWaitN(t *testing.T) {
	t.Run("FullBucketDoesNotBlock", func(t *testing.T) {
		l := NewLimiter(1024 * 1024)
		start := time.Now()
		require.NoError(t, l.WaitN(context.Background(), 1024))
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("EmptyBucketHonorsContext", func(t *testing.T) {
		l := NewLimiter(1000)
		frozen := time.Now()
		l.now = func() time.Time { return frozen }
		l.tokens = 0

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := l.WaitN(ctx, 1000)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("RefillAfterElapsedTime", func(t *testing.T) {
		l := NewLimiter(1000)
		base := time.Now()
		l.last = base
		l.tokens = 0
		l.now = func() time.Time { return base.Add(2 * time.Second) }

		require.NoError(t, l.WaitN(context.Background(), 1500))
		assert.Equal(t, int64(500), l.tokens)
	})
}

func TestNewReadCloser(t *testing.T) {
	t.Run("NilLimiterPassthrough", func(t *testing.T) {
		rc := io.NopCloser(bytes.NewReader([]byte("x")))
		assert.Equal(t, rc, NewReadCloser(context.Background(), rc, nil))
	})

	t.Run("ReadsAllData", func(t *testing.T) {
		data := bytes.Repeat([]byte("z"), 200*1024)
		l := NewLimiter(100 * 1024 * 1024)
		rc := NewReadCloser(context.Background(), io.NopCloser(bytes.NewReader(data)), l)
		defer rc.Close()

		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		l := NewLimiter(1000)
		l.tokens = 0
		frozen := time.Now()
		l.now = func() time.Time { return frozen }

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		rc := NewReadCloser(ctx, io.NopCloser(bytes.NewReader([]byte("abc"))), l)
		_, err := rc.Read(make([]byte, 3))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
