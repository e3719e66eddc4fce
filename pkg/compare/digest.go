package compare

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"sync"
	"time"

	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/storage"
)

// ReaderWrapper wraps a file reader, e.g. for rate limiting
type ReaderWrapper func(io.ReadCloser) io.ReadCloser

// Digester computes a full-content digest of a file. The digest depends on
// the file bytes only.
type Digester interface {
	Digest(ctx context.Context, backend storage.Backend, path string) ([]byte, error)

	// Name returns the digest algorithm name
	Name() string
}

// HashDigester streams a file through a cryptographic hash
type HashDigester struct {
	algorithm      models.HashAlgorithm
	newHash        func() hash.Hash
	bufferPool     *sync.Pool
	progressReport func(path string, current int64) // Optional progress callback
	readerWrapper  ReaderWrapper
}

// NewHashDigester creates a digester for the given algorithm
func NewHashDigester(algorithm models.HashAlgorithm, bufferSize int) (*HashDigester, error) {
	var newHash func() hash.Hash
	switch algorithm {
	case models.HashSHA256, "":
		algorithm = models.HashSHA256
		newHash = sha256.New
	case models.HashSHA512:
		newHash = sha512.New
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}

	return &HashDigester{
		algorithm:  algorithm,
		newHash:    newHash,
		bufferPool: newBufferPool(bufferSize),
	}, nil
}

// SetProgressCallback sets a callback for progress reporting during hashing
func (d *HashDigester) SetProgressCallback(callback func(path string, current int64)) {
	d.progressReport = callback
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (d *HashDigester) SetReaderWrapper(wrapper ReaderWrapper) {
	d.readerWrapper = wrapper
}

// Digest hashes the whole file at path
func (d *HashDigester) Digest(ctx context.Context, backend storage.Backend, path string) ([]byte, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if d.readerWrapper != nil {
		reader = d.readerWrapper(reader)
	}
	defer reader.Close()

	hasher := d.newHash()

	bufPtr := d.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer d.bufferPool.Put(bufPtr)

	const (
		progressReportInterval = 50 * time.Millisecond
		progressReportBytes    = 1024 * 1024
	)
	var totalRead, lastReported int64
	lastReportTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			totalRead += int64(n)

			if d.progressReport != nil &&
				(totalRead-lastReported >= progressReportBytes || time.Since(lastReportTime) >= progressReportInterval) {
				d.progressReport(path, totalRead)
				lastReported = totalRead
				lastReportTime = time.Now()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	if d.progressReport != nil && totalRead > lastReported {
		d.progressReport(path, totalRead)
	}

	return hasher.Sum(nil), nil
}

// Name returns the algorithm name
func (d *HashDigester) Name() string {
	return string(d.algorithm)
}

func newBufferPool(bufferSize int) *sync.Pool {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &sync.Pool{
		New: func() interface{} {
			buf := make([]byte, bufferSize)
			return &buf
		},
	}
}
