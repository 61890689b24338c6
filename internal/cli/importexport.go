package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"keybox/internal/config"
	"keybox/internal/impex"
	"keybox/internal/keybox"
)

var (
	impPlain bool
	impJSON  bool
	impInput string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records into the current keybox",
	Long: `Import reads records from a plain-text table, a JSON array, or
another keybox file (the default when neither --plain nor --json is
given) and appends them to the current keybox. In keybox-to-keybox mode,
-i/--input names the source file and is prompted for its own passphrase,
separate from the destination keybox's.

Without -i/--input, --plain and --json read the records from stdin. The
destination keybox's passphrase is read from stdin after that, so when
the records are piped in, no input is left for the passphrase prompt and
the import fails.

Examples:
  keybox import --plain -i exported.txt
  keybox import --json -i exported.json
  keybox import -i other.safe`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&impPlain, "plain", false, "input is the plain-text table format")
	importCmd.Flags().BoolVar(&impJSON, "json", false, "input is a JSON array of objects")
	importCmd.Flags().StringVarP(&impInput, "input", "i", "", "input file path (default stdin)")
}

func runImport(cmd *cobra.Command, args []string) error {
	if !impPlain && !impJSON {
		return runImportFromKeybox()
	}

	src, err := openInput(impInput)
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("cli: read import input: %w", err)
	}

	kb, err := openCurrentKeybox()
	if err != nil {
		return err
	}
	defer kb.Close()

	rows, err := parseImportRows(data)
	if err != nil {
		return err
	}

	for _, row := range rows {
		password := row["password"]
		delete(row, "password")
		enc, err := kb.EncryptPassword([]byte(password))
		if err != nil {
			return err
		}
		row["password"] = enc
		kb.Store().AddImported(row)
	}

	if err := kb.Save(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "imported %d records\n", len(rows))
	return nil
}

func parseImportRows(data []byte) ([]map[string]string, error) {
	if impJSON {
		return impex.ImportJSON(data)
	}
	t, err := impex.ImportPlain(data)
	if err != nil {
		return nil, err
	}
	return t.Rows, nil
}

// runImportFromKeybox handles the default import mode: --input names
// another keybox file rather than a plain-text or JSON stream. Its
// records are decrypted under its own passphrase and re-encrypted under
// the destination keybox's key before being appended.
func runImportFromKeybox() error {
	if impInput == "" {
		return fmt.Errorf("cli: import from a keybox file requires --input <path>")
	}

	source, err := keybox.Open(impInput, TerminalPassphraseProvider{})
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := openCurrentKeybox()
	if err != nil {
		return err
	}
	defer dest.Close()

	records := source.Store().Iter()
	for _, r := range records {
		plain, err := source.DecryptPassword(r)
		if err != nil {
			return err
		}
		row := make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			row[k] = v
		}
		enc, err := dest.EncryptPassword(plain)
		if err != nil {
			return err
		}
		row["password"] = enc
		dest.Store().AddImported(row)
	}

	if err := dest.Save(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "imported %d records\n", len(records))
	return nil
}

var (
	expPlain  bool
	expJSON   bool
	expOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Decrypt and export every record in the current keybox",
	Long: `Export decrypts every password and writes the full record set as a
plain-text table (--plain) or a JSON array (--json) to a file or stdout.

Examples:
  keybox export --plain -o backup.txt
  keybox export --json > backup.json`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVar(&expPlain, "plain", false, "emit the plain-text table format")
	exportCmd.Flags().BoolVar(&expJSON, "json", false, "emit a JSON array of objects")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "output file path (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	kb, err := openCurrentKeybox()
	if err != nil {
		return err
	}
	defer kb.Close()

	records := kb.Store().Iter()
	rows := make([]map[string]string, len(records))
	for i, r := range records {
		plain, err := kb.DecryptPassword(r)
		if err != nil {
			return err
		}
		row := make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			row[k] = v
		}
		row["password"] = string(plain)
		rows[i] = row
	}

	dst, err := openOutput(expOutput)
	if err != nil {
		return err
	}
	defer dst.Close()

	columns := kb.Store().Columns
	if expJSON {
		return impex.ExportJSON(dst, columns, rows)
	}
	encoded, err := impex.ExportPlain(columns, rows)
	if err != nil {
		return err
	}
	_, err = dst.Write(encoded)
	return err
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openCurrentKeybox() (*keybox.Keybox, error) {
	path := keyboxPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.Path
	}
	return keybox.Open(path, TerminalPassphraseProvider{})
}
