package aicf

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestStore_AppendCreatesDatedFile(t *testing.T) {
	store := NewStore(t.TempDir())

	rec := minimalRecord()
	rec.Timestamp = "2026-08-22T14:30:00Z"
	rec.ConversationID = "abc12345"

	path, err := store.Append(rec)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got, want := filepath.Base(path), "2026-08-22_abc12345.aicf"; got != want {
		t.Errorf("Append() path base = %q, want %q", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got, want := string(data), Encode(rec); got != want {
		t.Errorf("file contents = %q, want %q", got, want)
	}
}

func TestStore_AppendUsesUTCDateFromTimestamp(t *testing.T) {
	store := NewStore(t.TempDir())

	// 01:30+05:00 is 20:30 UTC the previous day.
	rec := minimalRecord()
	rec.Timestamp = "2026-08-23T01:30:00+05:00"
	rec.ConversationID = "abc12345"

	path, err := store.Append(rec)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got, want := filepath.Base(path), "2026-08-22_abc12345.aicf"; got != want {
		t.Errorf("Append() path base = %q, want %q", got, want)
	}
}

func TestStore_AppendAccumulatesRecords(t *testing.T) {
	store := NewStore(t.TempDir())

	first := minimalRecord()
	second := fullRecord()
	second.Timestamp = first.Timestamp
	second.ConversationID = first.ConversationID

	path1, err := store.Append(first)
	if err != nil {
		t.Fatalf("Append(first) error = %v", err)
	}
	path2, err := store.Append(second)
	if err != nil {
		t.Fatalf("Append(second) error = %v", err)
	}
	if path1 != path2 {
		t.Fatalf("same session wrote to two files: %q and %q", path1, path2)
	}

	data, err := os.ReadFile(path1)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "\n\n") {
		t.Error("appended records are not separated by a blank line")
	}

	records, err := store.ReadFile(path1)
	if err != nil {
		t.Fatalf("store.ReadFile() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ReadFile() returned %d records, want 2", len(records))
	}
	if !reflect.DeepEqual(records[0], first) {
		t.Errorf("record 0 = %#v, want %#v", records[0], first)
	}
	if !reflect.DeepEqual(records[1], second) {
		t.Errorf("record 1 = %#v, want %#v", records[1], second)
	}
}

func TestStore_AppendRejectsBadRecords(t *testing.T) {
	store := NewStore(t.TempDir())

	noID := minimalRecord()
	noID.ConversationID = ""
	if _, err := store.Append(noID); err == nil {
		t.Error("Append() with empty conversation id: error = nil, want non-nil")
	}

	badTS := minimalRecord()
	badTS.Timestamp = "yesterday"
	if _, err := store.Append(badTS); err == nil {
		t.Error("Append() with bad timestamp: error = nil, want non-nil")
	}
}

func TestStore_ReadFileMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.ReadFile(filepath.Join(store.Dir(), "2026-08-22_missing.aicf")); err == nil {
		t.Error("ReadFile() on missing file: error = nil, want non-nil")
	}
}

func TestStore_ReadFileReportsBadRecord(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	path := filepath.Join(dir, "2026-08-22_abc12345.aicf")
	text := Encode(minimalRecord()) + "\n\n" + "version|1.0\nnot a record"
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := store.ReadFile(path)
	if err == nil {
		t.Fatal("ReadFile() error = nil, want decode failure")
	}
	if !strings.Contains(err.Error(), "record 1") {
		t.Errorf("ReadFile() error = %v, want record index in message", err)
	}
}

func TestStore_ListFilesNewestFirst(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, tc := range []struct{ ts, id string }{
		{"2026-08-20T09:00:00Z", "aaaa1111"},
		{"2026-08-22T09:00:00Z", "bbbb2222"},
		{"2026-08-21T09:00:00Z", "cccc3333"},
	} {
		rec := minimalRecord()
		rec.Timestamp = tc.ts
		rec.ConversationID = tc.id
		if _, err := store.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	names, err := store.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	want := []string{
		"2026-08-22_bbbb2222.aicf",
		"2026-08-21_cccc3333.aicf",
		"2026-08-20_aaaa1111.aicf",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ListFiles() = %v, want %v", names, want)
	}
}

func TestStore_ListFilesEmptyDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "never-created"))
	names, err := store.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("ListFiles() = %v, want empty", names)
	}
}

func TestStore_SessionPath(t *testing.T) {
	store := NewStore("/tmp/sessions")
	date := time.Date(2026, 8, 22, 23, 59, 0, 0, time.UTC)
	if got, want := store.SessionPath(date, "abc12345"), filepath.Join("/tmp/sessions", "2026-08-22_abc12345.aicf"); got != want {
		t.Errorf("SessionPath() = %q, want %q", got, want)
	}
}
