// Package table encodes and decodes the tab-delimited record table that
// lives inside a keybox envelope's plaintext: one
// header line of column names, then one line per record, each
// tab-separated and newline-terminated.
package table

import (
	"bytes"
	"fmt"
	"strings"

	kberrors "keybox/internal/errors"
)

// Table is the decoded form of the plaintext: an ordered column list and
// the rows in file order. Column order is persisted data, not metadata;
// callers that care about order read it from Columns rather than
// assuming the default.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Encode serializes t as "header\nrow1\nrow2\n...". Every field value is
// validated to contain no tab or newline; the password
// column already holds Base64 ciphertext (internal table) or C-escaped
// plaintext (plain export) by this point, so it never fails the check in
// practice.
func Encode(t *Table) ([]byte, error) {
	var buf bytes.Buffer

	if err := writeLine(&buf, t.Columns); err != nil {
		return nil, kberrors.NewTableError(1, err)
	}

	for i, row := range t.Rows {
		values := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			values[j] = row[col]
		}
		if err := writeLine(&buf, values); err != nil {
			return nil, kberrors.NewTableError(i+2, err)
		}
	}

	return buf.Bytes(), nil
}

func writeLine(buf *bytes.Buffer, fields []string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, "\t\n") {
			return fmt.Errorf("%w: field contains a tab or newline", kberrors.ErrTableSyntax)
		}
	}
	buf.WriteString(strings.Join(fields, "\t"))
	buf.WriteByte('\n')
	return nil
}

// Decode parses the plaintext table produced by Encode. It reports
// TableError with a 1-based line number on a missing or empty header, a
// duplicate column name, or a row whose field count does not match the
// header. Fields are split on tab and newline, so no decoded field can
// contain either.
func Decode(data []byte) (*Table, error) {
	text := string(data)
	// A trailing "\n" produces one empty trailing element from
	// strings.Split; drop it rather than treat it as a blank final row.
	text = strings.TrimSuffix(text, "\n")

	if text == "" {
		return nil, kberrors.NewTableError(1, fmt.Errorf("%w: missing header line", kberrors.ErrTableSyntax))
	}

	lines := strings.Split(text, "\n")
	columns := strings.Split(lines[0], "\t")
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "") {
		return nil, kberrors.NewTableError(1, fmt.Errorf("%w: empty header line", kberrors.ErrTableSyntax))
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, kberrors.NewTableError(1, fmt.Errorf("%w: duplicate column %q", kberrors.ErrTableSyntax, c))
		}
		seen[c] = true
	}

	t := &Table{Columns: columns, Rows: make([]map[string]string, 0, len(lines)-1)}

	for i, line := range lines[1:] {
		lineNo := i + 2
		values := strings.Split(line, "\t")
		if len(values) != len(columns) {
			return nil, kberrors.NewTableError(lineNo, fmt.Errorf(
				"%w: got %d fields, want %d", kberrors.ErrTableSyntax, len(values), len(columns)))
		}
		row := make(map[string]string, len(columns))
		for j, col := range columns {
			row[col] = values[j]
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
