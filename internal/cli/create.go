package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"keybox/internal/config"
	"keybox/internal/keybox"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new empty keybox file",
	Long: `create writes a fresh, empty keybox file at the configured path
(or --path), prompting for a new passphrase with confirmation.`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	path := keyboxPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.Path
	}

	kb, err := createKeybox(path)
	if err != nil {
		return err
	}
	defer kb.Close()

	fmt.Printf("created %s\n", path)
	return nil
}

func createKeybox(path string) (*keybox.Keybox, error) {
	return keybox.Create(path, TerminalPassphraseProvider{}, nil)
}
