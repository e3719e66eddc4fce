package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sdejongh/dirlink/pkg/storage"
)

// Verifier compares two files byte-by-byte. It is the last, slowest check
// and only runs after digests already agree.
type Verifier struct {
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
}

// NewVerifier creates a byte-by-byte verifier
func NewVerifier(bufferSize int) *Verifier {
	return &Verifier{bufferPool: newBufferPool(bufferSize)}
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (v *Verifier) SetReaderWrapper(wrapper ReaderWrapper) {
	v.readerWrapper = wrapper
}

// Equal reports whether both files hold the same bytes. When they differ,
// offset is the first differing byte.
func (v *Verifier) Equal(ctx context.Context, a storage.Backend, aPath string, b storage.Backend, bPath string) (equal bool, offset int64, err error) {
	ra, err := v.open(ctx, a, aPath)
	if err != nil {
		return false, 0, err
	}
	defer ra.Close()

	rb, err := v.open(ctx, b, bPath)
	if err != nil {
		return false, 0, err
	}
	defer rb.Close()

	aBufPtr := v.bufferPool.Get().(*[]byte)
	defer v.bufferPool.Put(aBufPtr)
	bBufPtr := v.bufferPool.Get().(*[]byte)
	defer v.bufferPool.Put(bBufPtr)
	aBuf, bBuf := *aBufPtr, *bBufPtr

	var compared int64
	for {
		select {
		case <-ctx.Done():
			return false, compared, ctx.Err()
		default:
		}

		an, aErr := io.ReadFull(ra, aBuf)
		bn, bErr := io.ReadFull(rb, bBuf)
		if aErr != nil && aErr != io.EOF && aErr != io.ErrUnexpectedEOF {
			return false, compared, fmt.Errorf("failed to read %s: %w", aPath, aErr)
		}
		if bErr != nil && bErr != io.EOF && bErr != io.ErrUnexpectedEOF {
			return false, compared, fmt.Errorf("failed to read %s: %w", bPath, bErr)
		}

		n := an
		if bn < n {
			n = bn
		}
		if !bytes.Equal(aBuf[:n], bBuf[:n]) {
			for i := 0; i < n; i++ {
				if aBuf[i] != bBuf[i] {
					return false, compared + int64(i), nil
				}
			}
		}
		if an != bn {
			return false, compared + int64(n), nil
		}
		compared += int64(an)

		// A short or empty read means both files ended at the same point
		if aErr != nil {
			return true, compared, nil
		}
	}
}

func (v *Verifier) open(ctx context.Context, backend storage.Backend, path string) (io.ReadCloser, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if v.readerWrapper != nil {
		reader = v.readerWrapper(reader)
	}
	return reader, nil
}
