package store_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/derickschaefer/eqviz/internal/model"
	"github.com/derickschaefer/eqviz/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDB opens a fresh isolated database in t.TempDir().
// It is closed and deleted automatically when the test ends.
func testDB(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeMeta(id string) store.ReportMeta {
	return store.ReportMeta{
		ID:               model.RecordID(id),
		OriginalFilename: id + ".csv",
		URL:              "http://127.0.0.1:8000/media/reports/" + id + ".pdf",
	}
}

var samplePDF = []byte("%PDF-1.4\n% sample\n%%EOF\n")

// ─── Open / Path ──────────────────────────────────────────────────────────────

func TestOpenCreatesDB(t *testing.T) {
	s := testDB(t)
	if s.Path() == "" {
		t.Error("Path() should return the db path after open")
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open with nested path: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path: expected %q, got %q", path, s.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.PutReport(makeMeta("a"), samplePDF); err != nil {
		t.Fatalf("PutReport: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, _, found, _ := s2.GetReport("a"); !found {
		t.Error("report should survive reopen")
	}
}

// ─── Reports ──────────────────────────────────────────────────────────────────

func TestPutGetReport(t *testing.T) {
	s := testDB(t)
	before := time.Now().UTC().Add(-time.Second)
	if err := s.PutReport(makeMeta("a"), samplePDF); err != nil {
		t.Fatalf("PutReport: %v", err)
	}
	meta, pdf, found, err := s.GetReport("a")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if !found {
		t.Fatal("expected report to be found")
	}
	if !bytes.Equal(pdf, samplePDF) {
		t.Errorf("pdf bytes changed: %q", pdf)
	}
	if meta.Bytes != int64(len(samplePDF)) {
		t.Errorf("Bytes: %d", meta.Bytes)
	}
	if meta.FetchedAt.Before(before) {
		t.Errorf("FetchedAt not stamped: %v", meta.FetchedAt)
	}
	if meta.OriginalFilename != "a.csv" {
		t.Errorf("filename: %q", meta.OriginalFilename)
	}
}

func TestGetReportNotFound(t *testing.T) {
	s := testDB(t)
	_, pdf, found, err := s.GetReport("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || pdf != nil {
		t.Error("missing report should not be found")
	}
}

func TestPutReportRequiresID(t *testing.T) {
	s := testDB(t)
	if err := s.PutReport(store.ReportMeta{}, samplePDF); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestPutReportOverwrites(t *testing.T) {
	s := testDB(t)
	_ = s.PutReport(makeMeta("a"), []byte("old"))
	_ = s.PutReport(makeMeta("a"), []byte("newer"))
	_, pdf, _, _ := s.GetReport("a")
	if string(pdf) != "newer" {
		t.Errorf("expected overwrite, got %q", pdf)
	}
	metas, _ := s.ListReports()
	if len(metas) != 1 {
		t.Errorf("expected 1 entry, got %d", len(metas))
	}
}

func TestListReportsNewestFirst(t *testing.T) {
	s := testDB(t)
	_ = s.PutReport(makeMeta("first"), samplePDF)
	time.Sleep(5 * time.Millisecond)
	_ = s.PutReport(makeMeta("second"), samplePDF)

	metas, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2, got %d", len(metas))
	}
	if metas[0].ID != "second" || metas[1].ID != "first" {
		t.Errorf("order: %s, %s", metas[0].ID, metas[1].ID)
	}
}

func TestListReportsEmpty(t *testing.T) {
	s := testDB(t)
	metas, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("expected empty, got %d", len(metas))
	}
}

func TestDeleteReport(t *testing.T) {
	s := testDB(t)
	_ = s.PutReport(makeMeta("a"), samplePDF)
	if err := s.DeleteReport("a"); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if _, _, found, _ := s.GetReport("a"); found {
		t.Error("report should be gone")
	}
	if err := s.DeleteReport("never-existed"); err != nil {
		t.Errorf("deleting a missing id: %v", err)
	}
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

func TestStatsEmpty(t *testing.T) {
	s := testDB(t)
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != len(store.AllBuckets) {
		t.Fatalf("expected %d buckets, got %d", len(store.AllBuckets), len(stats))
	}
	for i, st := range stats {
		if st.Name != store.AllBuckets[i] {
			t.Errorf("bucket %d: %q", i, st.Name)
		}
		if st.Count != 0 {
			t.Errorf("%s: expected 0 rows, got %d", st.Name, st.Count)
		}
	}
}

func TestStatsCountsRows(t *testing.T) {
	s := testDB(t)
	_ = s.PutReport(makeMeta("a"), samplePDF)
	_ = s.PutReport(makeMeta("b"), samplePDF)

	stats, _ := s.Stats()
	for _, st := range stats {
		if st.Count != 2 {
			t.Errorf("%s: expected 2 rows, got %d", st.Name, st.Count)
		}
		if st.Bytes <= 0 {
			t.Errorf("%s: expected positive size", st.Name)
		}
	}
}

func TestClearBucket(t *testing.T) {
	s := testDB(t)
	_ = s.PutReport(makeMeta("a"), samplePDF)
	if err := s.ClearBucket("reports"); err != nil {
		t.Fatalf("ClearBucket: %v", err)
	}
	if _, _, found, _ := s.GetReport("a"); found {
		t.Error("report bytes should be cleared")
	}
	metas, _ := s.ListReports()
	if len(metas) != 1 {
		t.Error("report_meta should be left intact")
	}
}

func TestClearBucketUnknown(t *testing.T) {
	s := testDB(t)
	if err := s.ClearBucket("_meta"); err == nil {
		t.Error("internal bucket must not be clearable")
	}
}

func TestClearAll(t *testing.T) {
	s := testDB(t)
	_ = s.PutReport(makeMeta("a"), samplePDF)
	_ = s.PutReport(makeMeta("b"), samplePDF)
	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	metas, _ := s.ListReports()
	if len(metas) != 0 {
		t.Errorf("ClearAll: %d reports remain", len(metas))
	}
}

func TestCompactKeepsData(t *testing.T) {
	s := testDB(t)
	for i := 0; i < 20; i++ {
		_ = s.PutReport(makeMeta(string(rune('a'+i))), bytes.Repeat([]byte("x"), 4096))
	}
	_ = s.ClearBucket("reports")
	_ = s.PutReport(makeMeta("keep"), samplePDF)

	before, after, err := s.Compact()
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if before <= 0 || after <= 0 {
		t.Errorf("sizes: before=%d after=%d", before, after)
	}
	if _, pdf, found, err := s.GetReport("keep"); err != nil || !found || !bytes.Equal(pdf, samplePDF) {
		t.Errorf("report lost after compaction: found=%v err=%v", found, err)
	}
	if err := s.PutReport(makeMeta("after"), samplePDF); err != nil {
		t.Errorf("store unusable after compaction: %v", err)
	}
}

// ─── Isolation ────────────────────────────────────────────────────────────────

func TestEachTestGetsIsolatedDB(t *testing.T) {
	s1 := testDB(t)
	_ = s1.PutReport(makeMeta("a"), samplePDF)

	s2 := testDB(t)
	_, _, found, err := s2.GetReport("a")
	if err != nil {
		t.Fatalf("GetReport on s2: %v", err)
	}
	if found {
		t.Error("s2 should not see data written to s1")
	}
}
