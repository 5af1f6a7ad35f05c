package scan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ankur-anand/dupekit/internal/dupectl/output"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"go.etcd.io/bbolt"
)

var resultsBucket = []byte("scan_results_v1")

// resultCache remembers scan entries keyed by path, size and modification
// time, so unchanged files are not decoded again. Only outcomes decided by
// the file's bytes are stored; failures from load limits or from the
// filesystem are decoded again on the next run.
type resultCache struct {
	db *bbolt.DB
}

func openCache(path string) (*resultCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open scan cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(resultsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &resultCache{db: db}, nil
}

func cacheKey(f file) []byte {
	return fmt.Appendf(nil, "%s\x00%d\x00%d", f.path, f.size, f.modTime.UnixNano())
}

// get is safe for concurrent use.
func (c *resultCache) get(f file) (output.ScanEntry, bool) {
	var (
		entry output.ScanEntry
		found bool
	)
	_ = c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(resultsBucket).Get(cacheKey(f))
		if v == nil {
			return nil
		}
		found = json.Unmarshal(v, &entry) == nil && cacheable(entry)
		return nil
	})
	return entry, found
}

// put stores all entries in one transaction.
func (c *resultCache) put(files []file, entries []output.ScanEntry) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(resultsBucket)
		for i, f := range files {
			e := entries[i]
			if !cacheable(e) {
				if err := b.Delete(cacheKey(f)); err != nil {
					return err
				}
				continue
			}
			e.Cached = false
			v, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := b.Put(cacheKey(f), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func cacheable(e output.ScanEntry) bool {
	if e.Status != output.StatusError {
		return true
	}
	switch e.ErrorKind {
	case "not_found", "permission_denied", "io_error":
		return false
	}
	return !dupefile.IsLimitKind(e.ErrorKind)
}

func (c *resultCache) Close() error {
	return c.db.Close()
}
