package store

import (
	"testing"
	"time"

	kberrors "keybox/internal/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddSetsMtimeAndOrder(t *testing.T) {
	s := New()
	s.Clock = fixedClock(time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC))

	r1 := s.Add(map[string]string{"site": "a.com"})
	r2 := s.Add(map[string]string{"site": "b.com"})

	if r1.Fields["mtime"] != "2026-03-05 12:30:00" {
		t.Errorf("mtime = %q, want fixed clock value", r1.Fields["mtime"])
	}

	got := s.Iter()
	if len(got) != 2 || got[0].ID() != r1.ID() || got[1].ID() != r2.ID() {
		t.Error("Iter() should return records in insertion order")
	}
}

func TestAddTwoIdenticalRecordsAreDistinct(t *testing.T) {
	// S3: two records with identical field values must remain distinct.
	s := New()
	fields := map[string]string{"site": "Example", "user": "johny"}
	r1 := s.Add(fields)
	r2 := s.Add(fields)

	if r1.ID() == r2.ID() {
		t.Fatal("two Add() calls with identical fields produced the same identity")
	}

	found := s.Find("Example")
	if len(found) != 2 {
		t.Fatalf("Find() returned %d records, want 2", len(found))
	}
	if found[0].ID() != r1.ID() || found[1].ID() != r2.ID() {
		t.Error("Find() should preserve insertion order for tied matches")
	}
}

func TestModifyRefreshesMtimePreservesIdentity(t *testing.T) {
	s := New()
	s.Clock = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	r := s.Add(map[string]string{"site": "a.com"})

	s.Clock = fixedClock(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if err := s.Modify(r, map[string]string{"site": "b.com"}); err != nil {
		t.Fatalf("Modify: %v", err)
	}

	if r.Fields["site"] != "b.com" {
		t.Errorf("site = %q, want b.com", r.Fields["site"])
	}
	if r.Fields["mtime"] != "2026-01-02 00:00:00" {
		t.Errorf("mtime = %q, want refreshed value", r.Fields["mtime"])
	}
	if s.Iter()[0].ID() != r.ID() {
		t.Error("Modify() should preserve record identity and position")
	}
}

func TestDeleteRemovesByIdentity(t *testing.T) {
	s := New()
	r1 := s.Add(map[string]string{"site": "a.com"})
	r2 := s.Add(map[string]string{"site": "b.com"})

	if err := s.Delete(r1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got := s.Iter()
	if len(got) != 1 || got[0].ID() != r2.ID() {
		t.Error("Delete() should remove only the targeted record")
	}

	if err := s.Delete(r1); !kberrors.Is(err, kberrors.ErrNoSuchRecord) {
		t.Errorf("Delete() of an already-deleted record should fail with ErrNoSuchRecord, got %v", err)
	}
}

func TestFindCaseInsensitiveAcrossColumns(t *testing.T) {
	s := New()
	s.Add(map[string]string{"site": "Example.com", "user": "johny"})
	s.Add(map[string]string{"site": "other.com", "note": "has an EXAMPLE in notes"})
	s.Add(map[string]string{"site": "unrelated.com"})

	got := s.Find("example")
	if len(got) != 2 {
		t.Fatalf("Find(%q) returned %d records, want 2", "example", len(got))
	}
}

func TestFindColumnScoped(t *testing.T) {
	s := New()
	s.Add(map[string]string{"site": "example.com", "user": "johny"})
	s.Add(map[string]string{"site": "johny.example", "user": "other"})

	got := s.Find("user:johny")
	if len(got) != 1 || got[0].Fields["user"] != "johny" {
		t.Errorf("Find(%q) = %v, want one record with user=johny", "user:johny", got)
	}
}

func TestFindEmptyQueryMatchesAll(t *testing.T) {
	s := New()
	s.Add(map[string]string{"site": "a.com"})
	s.Add(map[string]string{"site": "b.com"})

	if got := s.Find(""); len(got) != 2 {
		t.Errorf("Find(\"\") returned %d records, want 2", len(got))
	}
}

func TestSetHeaderPreservesValuesAndAddsNewColumns(t *testing.T) {
	s := New()
	r := s.Add(map[string]string{"site": "a.com", "password": "cGE="})

	if err := s.SetHeader([]string{"password", "site", "mtime", "category"}, false); err != nil {
		t.Fatalf("SetHeader: %v", err)
	}
	if r.Fields["site"] != "a.com" {
		t.Error("SetHeader() should preserve existing values")
	}
	if v, ok := r.Fields["category"]; !ok || v != "" {
		t.Errorf("new column category = %q, ok=%v, want empty string present", v, ok)
	}
}

func TestSetHeaderRejectsDataLossUnlessForced(t *testing.T) {
	s := New()
	s.Add(map[string]string{"site": "a.com", "note": "important"})

	err := s.SetHeader([]string{"site"}, false)
	if !kberrors.Is(err, kberrors.ErrUnknownColumn) {
		t.Errorf("SetHeader() dropping a non-empty column should fail with ErrUnknownColumn, got %v", err)
	}

	if err := s.SetHeader([]string{"site"}, true); err != nil {
		t.Fatalf("SetHeader() with force=true should succeed, got %v", err)
	}
}

func TestSetHeaderAllowsDroppingEmptyColumn(t *testing.T) {
	s := New()
	s.Add(map[string]string{"site": "a.com"})

	if err := s.SetHeader([]string{"site", "user", "mtime", "password"}, false); err != nil {
		t.Fatalf("SetHeader() dropping an all-empty column should succeed, got %v", err)
	}
}

func TestAddImportedKeepsExistingMtime(t *testing.T) {
	s := New()
	s.Clock = fixedClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	r := s.AddImported(map[string]string{"site": "a.com", "mtime": "2020-01-01 00:00:00"})
	if r.Fields["mtime"] != "2020-01-01 00:00:00" {
		t.Errorf("mtime = %q, want preserved import value", r.Fields["mtime"])
	}

	r2 := s.AddImported(map[string]string{"site": "b.com"})
	if r2.Fields["mtime"] != "2026-06-01 00:00:00" {
		t.Errorf("mtime = %q, want now() fallback", r2.Fields["mtime"])
	}
}

func TestUnknownColumnSurvivesRoundTrip(t *testing.T) {
	s := New()
	r := s.Add(map[string]string{"site": "a.com", "favorite_color": "blue"})

	found := false
	for _, c := range s.Columns {
		if c == "favorite_color" {
			found = true
		}
	}
	if !found {
		t.Error("Add() with an unknown field should extend Columns")
	}
	if r.Fields["favorite_color"] != "blue" {
		t.Error("unknown column value should be preserved on the record")
	}
}
