package counter

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kryptco/u2fkeyd"
)

// FileProvider persists the 4-byte big-endian counter to a single file,
// written atomically via write-to-temp-then-rename. file_persister.go's
// SaveMe/LoadMe use a plain ioutil.WriteFile for similarly small JSON
// blobs; this tightens that to a true atomic rename so a crash mid-write
// can never leave a half-written, unparsable counter file behind.
type FileProvider struct {
	mu   sync.Mutex
	path string
	n    uint32
}

// NewFileProvider loads path if it exists (must be exactly 4 bytes) or
// starts the counter at zero.
func NewFileProvider(path string) (*FileProvider, error) {
	fp := &FileProvider{path: path}
	b, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return fp, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %s", u2f.ErrCounterPersist, err)
	}
	if len(b) != 4 {
		return nil, fmt.Errorf("%w: counter file %s is not 4 bytes", u2f.ErrCounterPersist, path)
	}
	fp.n = binary.BigEndian.Uint32(b)
	return fp, nil
}

// Next increments and atomically persists the counter.
func (fp *FileProvider) Next() (uint32, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	next := fp.n + 1
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], next)

	tmp := fp.path + ".tmp"
	if err := os.WriteFile(tmp, b[:], 0600); err != nil {
		return 0, fmt.Errorf("%w: %s", u2f.ErrCounterPersist, err)
	}
	if err := os.Rename(tmp, fp.path); err != nil {
		return 0, fmt.Errorf("%w: %s", u2f.ErrCounterPersist, err)
	}
	fp.n = next
	return next, nil
}

// DefaultPath returns the standard counter file location under dir (a
// u2fkeyd state directory, analogous to kr.KrDir()).
func DefaultPath(dir string) string {
	return filepath.Join(dir, "counter")
}
