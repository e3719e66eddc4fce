package compare

import (
	"context"
	"fmt"
	"io"

	"github.com/sdejongh/dirlink/pkg/storage"
)

// DefaultPrefixSize is how many leading bytes the prefix filter compares
const DefaultPrefixSize = 8192

// ReadPrefix reads the first min(limit, size) bytes of a file. A file that is
// now shorter than size is reported as an error, not as a short prefix.
func ReadPrefix(ctx context.Context, backend storage.Backend, path string, size uint64, limit int) ([]byte, error) {
	n := uint64(limit)
	if size < n {
		n = size
	}

	reader, err := backend.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	buf := make([]byte, n)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, fmt.Errorf("failed to read prefix: %w", err)
	}
	return buf, nil
}
