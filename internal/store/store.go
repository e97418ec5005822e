// Package store provides a thin bbolt wrapper for eqviz's local report cache.
//
// Only generated PDF reports are kept. Credentials and upload history are
// never written here; history always comes from the API.
//
// Buckets:
//
//	reports     — PDF bytes keyed by dataset ID
//	report_meta — JSON ReportMeta keyed by dataset ID
//	_meta       — internal: schema version, created_at
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/eqviz/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketReports    = []byte("reports")
	bucketReportMeta = []byte("report_meta")
	bucketInternal   = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"reports", "report_meta"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketReports, bucketReportMeta, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Reports ──────────────────────────────────────────────────────────────────

// ReportMeta describes a cached report.
type ReportMeta struct {
	ID               model.RecordID `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	URL              string         `json:"url"`
	Bytes            int64          `json:"bytes"`
	FetchedAt        time.Time      `json:"fetched_at"`
}

// PutReport stores pdf for meta.ID, stamping FetchedAt and Bytes.
func (s *Store) PutReport(meta ReportMeta, pdf []byte) error {
	if meta.ID == "" {
		return fmt.Errorf("report has no dataset id")
	}
	meta.FetchedAt = time.Now().UTC()
	meta.Bytes = int64(len(pdf))
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding report meta: %w", err)
	}
	key := []byte(meta.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketReports).Put(key, pdf); err != nil {
			return err
		}
		return tx.Bucket(bucketReportMeta).Put(key, b)
	})
}

// GetReport retrieves a cached report by dataset ID.
// Returns (meta, pdf, true, nil) if found, (zero, nil, false, nil) if not.
func (s *Store) GetReport(id model.RecordID) (ReportMeta, []byte, bool, error) {
	var (
		meta ReportMeta
		pdf  []byte
	)
	key := []byte(id)
	err := s.db.View(func(tx *bolt.Tx) error {
		m := tx.Bucket(bucketReportMeta).Get(key)
		v := tx.Bucket(bucketReports).Get(key)
		if m == nil || v == nil {
			return nil
		}
		// bbolt values are only valid inside the transaction.
		pdf = append([]byte(nil), v...)
		return json.Unmarshal(m, &meta)
	})
	if err != nil {
		return ReportMeta{}, nil, false, err
	}
	if pdf == nil {
		return ReportMeta{}, nil, false, nil
	}
	return meta, pdf, true, nil
}

// ListReports returns metadata for every cached report, newest first.
func (s *Store) ListReports() ([]ReportMeta, error) {
	var metas []ReportMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReportMeta).ForEach(func(k, v []byte) error {
			var m ReportMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			metas = append(metas, m)
			return nil
		})
	})
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].FetchedAt.After(metas[j].FetchedAt)
	})
	return metas, err
}

// DeleteReport removes a cached report. Missing IDs are not an error.
func (s *Store) DeleteReport(id model.RecordID) error {
	key := []byte(id)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketReports).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(bucketReportMeta).Delete(key)
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets, in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			_ = b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	if !knownBucket(name) {
		return fmt.Errorf("unknown bucket %q (valid: %v)", name, AllBuckets)
	}
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// Compact rewrites the database into a fresh file and swaps it into place,
// returning file sizes before and after. The Store stays usable afterwards.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()
	if fi, statErr := os.Stat(path); statErr == nil {
		before = fi.Size()
	}

	tmp := path + ".compact"
	_ = os.Remove(tmp)
	dst, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("opening compaction target: %w", err)
	}
	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		os.Remove(tmp)
		return before, 0, fmt.Errorf("copying data: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, err
	}
	if err := s.db.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return before, 0, fmt.Errorf("replacing database: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("reopening db %s: %w", path, err)
	}
	s.db = db
	if fi, statErr := os.Stat(path); statErr == nil {
		after = fi.Size()
	}
	return before, after, nil
}

func knownBucket(name string) bool {
	for _, b := range AllBuckets {
		if b == name {
			return true
		}
	}
	return false
}
