// Package impex implements the plain-text and JSON import/export
// formats: the same tab-delimited layout as the internal table, except
// passwords are C-escaped plaintext instead of Base64 ciphertext, plus a
// JSON array-of-objects form. Neither format is ever written to disk by
// this package directly; callers stream to their own sink.
package impex

import (
	"strings"

	kberrors "keybox/internal/errors"
	"keybox/internal/table"
)

// ExportPlain renders rows (password values already decrypted to
// plaintext) as the plain-text table: the password column is C-escaped,
// every other column is written verbatim.
func ExportPlain(columns []string, rows []map[string]string) ([]byte, error) {
	escaped := make([]map[string]string, len(rows))
	for i, row := range rows {
		out := make(map[string]string, len(row))
		for k, v := range row {
			out[k] = v
		}
		out["password"] = EscapeC(row["password"])
		escaped[i] = out
	}
	return table.Encode(&table.Table{Columns: columns, Rows: escaped})
}

// ImportPlain parses the plain-text table and unescapes the password
// column back to raw plaintext, leaving every other field untouched.
func ImportPlain(data []byte) (*table.Table, error) {
	t, err := table.Decode(data)
	if err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		plain, err := UnescapeC(row["password"])
		if err != nil {
			return nil, err
		}
		row["password"] = plain
	}
	return t, nil
}

// EscapeC renders s with the three escapes the plain format recognizes:
// backslash, tab, and newline. Every other character, including other
// control characters such as carriage return, is written unchanged; tab
// and newline are the only characters the table format forbids in a
// field value.
func EscapeC(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UnescapeC reverses EscapeC. A trailing lone backslash, or a backslash
// followed by anything other than \\, \t, or \n, is a syntax error.
func UnescapeC(s string) (string, error) {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		if i+1 >= len(runes) {
			return "", kberrors.ErrTableSyntax
		}
		i++
		switch runes[i] {
		case '\\':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		default:
			return "", kberrors.ErrTableSyntax
		}
	}
	return b.String(), nil
}
