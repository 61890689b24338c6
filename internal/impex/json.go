package impex

import (
	"encoding/json"
	"fmt"
	"io"

	kberrors "keybox/internal/errors"
)

// ExportJSON streams rows (passwords already decrypted to plaintext) to w
// as a JSON array of objects, one per record, with keys emitted in
// columns order.
func ExportJSON(w io.Writer, columns []string, rows []map[string]string) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, row := range rows {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if err := writeJSONObject(w, columns, row); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]")
	return err
}

func writeJSONObject(w io.Writer, columns []string, row map[string]string) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}
	for j, col := range columns {
		if j > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		keyJSON, err := json.Marshal(col)
		if err != nil {
			return fmt.Errorf("impex: marshal column name: %w", err)
		}
		valJSON, err := json.Marshal(row[col])
		if err != nil {
			return fmt.Errorf("impex: marshal field value: %w", err)
		}
		if _, err := w.Write(keyJSON); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ":"); err != nil {
			return err
		}
		if _, err := w.Write(valJSON); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "}")
	return err
}

// ImportJSON parses a JSON array of objects into rows. Key order within
// an object does not matter on read.
func ImportJSON(data []byte) ([]map[string]string, error) {
	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("impex: %w: %v", kberrors.ErrTableSyntax, err)
	}
	return rows, nil
}
