package compare

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/storage"
)

// TestHelper provides a temp directory backed by a Local backend
type TestHelper struct {
	t       *testing.T
	dir     string
	backend *storage.Local
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	dir := t.TempDir()
	backend, err := storage.NewLocal(dir)
	require.NoError(t, err)
	return &TestHelper{t: t, dir: dir, backend: backend}
}

// CreateFile creates a file relative to the helper root
func (h *TestHelper) CreateFile(name string, content []byte) {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(h.t, os.WriteFile(path, content, 0644))
}

func TestHashDigester(t *testing.T) {
	h := NewTestHelper(t)
	ctx := context.Background()
	h.CreateFile("dead.bin", []byte("DEAD"))
	h.CreateFile("empty.bin", nil)

	t.Run("KnownSHA256", func(t *testing.T) {
		d, err := NewHashDigester(models.HashSHA256, 4096)
		require.NoError(t, err)
		assert.Equal(t, "sha256", d.Name())

		sum, err := d.Digest(ctx, h.backend, "dead.bin")
		require.NoError(t, err)
		assert.Equal(t, "f5788b96310c9174411ea51777f675b8e0735fd51a4ae732c3d078987a953160", hex.EncodeToString(sum))
	})

	t.Run("EmptyFile", func(t *testing.T) {
		d, err := NewHashDigester(models.HashSHA256, 4096)
		require.NoError(t, err)

		sum, err := d.Digest(ctx, h.backend, "empty.bin")
		require.NoError(t, err)
		assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(sum))
	})

	t.Run("SHA512", func(t *testing.T) {
		d, err := NewHashDigester(models.HashSHA512, 4096)
		require.NoError(t, err)

		sum, err := d.Digest(ctx, h.backend, "dead.bin")
		require.NoError(t, err)
		assert.Len(t, sum, 64)
		assert.Equal(t, "21243a661cb5d602849e30fcdb207d9d", hex.EncodeToString(sum)[:32])
	})

	t.Run("DefaultsToSHA256", func(t *testing.T) {
		d, err := NewHashDigester("", 0)
		require.NoError(t, err)
		assert.Equal(t, "sha256", d.Name())
	})

	t.Run("UnsupportedAlgorithm", func(t *testing.T) {
		_, err := NewHashDigester("md5", 4096)
		assert.Error(t, err)
	})

	t.Run("Idempotent", func(t *testing.T) {
		content := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
		h.CreateFile("large.bin", content)

		d, err := NewHashDigester(models.HashSHA256, 4096)
		require.NoError(t, err)

		first, err := d.Digest(ctx, h.backend, "large.bin")
		require.NoError(t, err)
		second, err := d.Digest(ctx, h.backend, "large.bin")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("PathIndependent", func(t *testing.T) {
		h.CreateFile("a/copy.bin", []byte("DEAD"))

		d, err := NewHashDigester(models.HashSHA256, 4096)
		require.NoError(t, err)

		x, err := d.Digest(ctx, h.backend, "dead.bin")
		require.NoError(t, err)
		y, err := d.Digest(ctx, h.backend, "a/copy.bin")
		require.NoError(t, err)
		assert.Equal(t, x, y)
	})

	t.Run("MissingFile", func(t *testing.T) {
		d, err := NewHashDigester(models.HashSHA256, 4096)
		require.NoError(t, err)

		_, err = d.Digest(ctx, h.backend, "missing.bin")
		assert.Error(t, err)
	})

	t.Run("ProgressAndReaderWrapper", func(t *testing.T) {
		d, err := NewHashDigester(models.HashSHA256, 4096)
		require.NoError(t, err)

		var wrapped atomic.Int32
		d.SetReaderWrapper(func(rc io.ReadCloser) io.ReadCloser {
			wrapped.Add(1)
			return rc
		})
		var last int64
		d.SetProgressCallback(func(path string, current int64) {
			last = current
		})

		_, err = d.Digest(ctx, h.backend, "large.bin")
		require.NoError(t, err)
		assert.Equal(t, int32(1), wrapped.Load())
		assert.Equal(t, int64(16*64*1024), last)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		d, err := NewHashDigester(models.HashSHA256, 4096)
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = d.Digest(cctx, h.backend, "large.bin")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReadPrefix(t *testing.T) {
	h := NewTestHelper(t)
	ctx := context.Background()
	content := bytes.Repeat([]byte{0xAB}, DefaultPrefixSize*2)
	h.CreateFile("big.bin", content)
	h.CreateFile("small.bin", []byte("DEAD"))

	t.Run("LimitedToPrefixSize", func(t *testing.T) {
		p, err := ReadPrefix(ctx, h.backend, "big.bin", uint64(len(content)), DefaultPrefixSize)
		require.NoError(t, err)
		assert.Len(t, p, DefaultPrefixSize)
	})

	t.Run("SmallFile", func(t *testing.T) {
		p, err := ReadPrefix(ctx, h.backend, "small.bin", 4, DefaultPrefixSize)
		require.NoError(t, err)
		assert.Equal(t, []byte("DEAD"), p)
	})

	t.Run("FileShrank", func(t *testing.T) {
		_, err := ReadPrefix(ctx, h.backend, "small.bin", 100, DefaultPrefixSize)
		assert.Error(t, err)
	})

	t.Run("FileVanished", func(t *testing.T) {
		_, err := ReadPrefix(ctx, h.backend, "gone.bin", 4, DefaultPrefixSize)
		assert.Error(t, err)
	})
}

func TestHashCache(t *testing.T) {
	t.Run("ComputesOnce", func(t *testing.T) {
		cache := NewHashCache()
		var calls atomic.Int32
		compute := func() ([]byte, error) {
			calls.Add(1)
			return []byte{1, 2, 3}, nil
		}

		d1, computed1, err := cache.GetOrCompute("/a", compute)
		require.NoError(t, err)
		d2, computed2, err := cache.GetOrCompute("/a", compute)
		require.NoError(t, err)

		assert.True(t, computed1)
		assert.False(t, computed2)
		assert.Equal(t, d1, d2)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("ConcurrentLookups", func(t *testing.T) {
		cache := NewHashCache()
		var calls atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, _, err := cache.GetOrCompute("/shared", func() ([]byte, error) {
					calls.Add(1)
					return []byte("digest"), nil
				})
				assert.NoError(t, err)
				assert.Equal(t, []byte("digest"), d)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("FailuresAreRemembered", func(t *testing.T) {
		cache := NewHashCache()
		boom := errors.New("vanished")
		var calls atomic.Int32

		for i := 0; i < 3; i++ {
			_, _, err := cache.GetOrCompute("/gone", func() ([]byte, error) {
				calls.Add(1)
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)
		}
		assert.Equal(t, int32(1), calls.Load())

		_, ok := cache.Get("/gone")
		assert.False(t, ok)
	})

	t.Run("Get", func(t *testing.T) {
		cache := NewHashCache()
		_, ok := cache.Get("/none")
		assert.False(t, ok)

		_, _, err := cache.GetOrCompute("/x", func() ([]byte, error) { return []byte{9}, nil })
		require.NoError(t, err)

		d, ok := cache.Get("/x")
		assert.True(t, ok)
		assert.Equal(t, []byte{9}, d)
	})
}

func TestVerifier(t *testing.T) {
	h := NewTestHelper(t)
	ctx := context.Background()
	v := NewVerifier(4096)

	big := bytes.Repeat([]byte("abcdefgh"), 4096)
	changed := append([]byte(nil), big...)
	changed[10000] = 'Z'

	h.CreateFile("a.bin", big)
	h.CreateFile("b.bin", big)
	h.CreateFile("c.bin", changed)
	h.CreateFile("short.bin", big[:100])
	h.CreateFile("e1.bin", nil)
	h.CreateFile("e2.bin", nil)

	t.Run("Identical", func(t *testing.T) {
		eq, n, err := v.Equal(ctx, h.backend, "a.bin", h.backend, "b.bin")
		require.NoError(t, err)
		assert.True(t, eq)
		assert.Equal(t, int64(len(big)), n)
	})

	t.Run("DifferentOffset", func(t *testing.T) {
		eq, off, err := v.Equal(ctx, h.backend, "a.bin", h.backend, "c.bin")
		require.NoError(t, err)
		assert.False(t, eq)
		assert.Equal(t, int64(10000), off)
	})

	t.Run("DifferentLength", func(t *testing.T) {
		eq, off, err := v.Equal(ctx, h.backend, "a.bin", h.backend, "short.bin")
		require.NoError(t, err)
		assert.False(t, eq)
		assert.Equal(t, int64(100), off)
	})

	t.Run("EmptyFiles", func(t *testing.T) {
		eq, _, err := v.Equal(ctx, h.backend, "e1.bin", h.backend, "e2.bin")
		require.NoError(t, err)
		assert.True(t, eq)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, _, err := v.Equal(ctx, h.backend, "a.bin", h.backend, "nope.bin")
		assert.Error(t, err)
	})
}
