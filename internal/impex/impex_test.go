package impex

import (
	"bytes"
	"testing"
)

func TestPlainRoundTrip(t *testing.T) {
	columns := []string{"site", "user", "password"}
	rows := []map[string]string{
		{"site": "example.com", "user": "johny", "password": "p\ta\nss\\word"},
	}

	encoded, err := ExportPlain(columns, rows)
	if err != nil {
		t.Fatalf("ExportPlain: %v", err)
	}

	table, err := ImportPlain(encoded)
	if err != nil {
		t.Fatalf("ImportPlain: %v", err)
	}
	if table.Rows[0]["password"] != "p\ta\nss\\word" {
		t.Errorf("password = %q, want %q", table.Rows[0]["password"], "p\ta\nss\\word")
	}
}

func TestPlainImportScenarioS6(t *testing.T) {
	// S6: "site\tuser\tpassword\nExample\tjohny\tpa\\nss\n" yields a password
	// of p, a, newline, s, s.
	data := []byte("site\tuser\tpassword\nExample\tjohny\tpa\\nss\n")

	table, err := ImportPlain(data)
	if err != nil {
		t.Fatalf("ImportPlain: %v", err)
	}
	want := "pa\nss"
	if table.Rows[0]["password"] != want {
		t.Errorf("password = %q, want %q", table.Rows[0]["password"], want)
	}
}

func TestUnescapeCRejectsTrailingBackslash(t *testing.T) {
	if _, err := UnescapeC(`abc\`); err == nil {
		t.Error("UnescapeC() with a trailing backslash should fail")
	}
}

func TestUnescapeCRejectsUnknownEscape(t *testing.T) {
	if _, err := UnescapeC(`a\qb`); err == nil {
		t.Error("UnescapeC() with an unrecognized escape should fail")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	columns := []string{"site", "password"}
	rows := []map[string]string{
		{"site": "example.com", "password": "hunter2"},
		{"site": "other.com", "password": "has \"quotes\" and a newline\n"},
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, columns, rows); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	got, err := ImportJSON(buf.Bytes())
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[1]["password"] != rows[1]["password"] {
		t.Errorf("password = %q, want %q", got[1]["password"], rows[1]["password"])
	}
}

func TestJSONEmitsKeysInColumnOrder(t *testing.T) {
	columns := []string{"password", "site"}
	rows := []map[string]string{{"site": "a.com", "password": "x"}}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, columns, rows); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	want := `[{"password":"x","site":"a.com"}]`
	if buf.String() != want {
		t.Errorf("ExportJSON() = %s, want %s", buf.String(), want)
	}
}
