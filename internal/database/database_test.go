package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return db
}

func TestOpen_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "vosynth.db")); os.IsNotExist(err) {
		t.Errorf("database file not created in %s", dir)
	}
}

func TestUpsertSample(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.UpsertSample("a", "/voices/a.wav", 44100, 4410); err != nil {
		t.Fatalf("UpsertSample failed: %v", err)
	}
	// 同 id 再次写入应覆盖而不是报错
	if err := db.UpsertSample("a", "/voices/a2.wav", 44100, 8820); err != nil {
		t.Fatalf("UpsertSample (replace) failed: %v", err)
	}

	n, err := db.SampleCount()
	if err != nil {
		t.Fatalf("SampleCount failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 sample after upsert, got %d", n)
	}
}

func TestRecordRender(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.RecordRender("job-1", 3, "/tmp/out.wav", 1986, 120*time.Millisecond); err != nil {
		t.Fatalf("RecordRender failed: %v", err)
	}

	records, err := db.RecentRenders(10)
	if err != nil {
		t.Fatalf("RecentRenders failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.JobID != "job-1" || r.NoteCount != 3 || r.Samples != 1986 || r.DurationMs != 120 {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestRecentRenders_Limit(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for i, id := range []string{"job-1", "job-2", "job-3"} {
		if err := db.RecordRender(id, i+1, "/tmp/out.wav", 100, time.Millisecond); err != nil {
			t.Fatalf("RecordRender %s failed: %v", id, err)
		}
	}

	records, err := db.RecentRenders(2)
	if err != nil {
		t.Fatalf("RecentRenders failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records with limit 2, got %d", len(records))
	}
}
