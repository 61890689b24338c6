// Package cli is the command shell around the keybox facade: argument
// parsing, passphrase prompting, and the import/export/pwgen
// subcommands. It is an external collaborator of the core: the core
// never imports this package.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	kberrors "keybox/internal/errors"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitGenericError = 1
	ExitAuthFailure  = 2
	ExitFormatError  = 3
)

// Version is replaced by Execute with the version string main passes in.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "keybox",
	Short:   "An offline secret store",
	Version: Version,
	Long: `keybox keeps site/user/password records in a single encrypted file
protected by a master passphrase, using Argon2id for key derivation and
XSalsa20+Poly1305 (secretbox) for authenticated encryption.`,
}

var keyboxPath string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&keyboxPath, "path", "", "keybox file path (overrides ~/.keybox/keybox.conf)")
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string) int {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case kberrors.IsAuthFailure(err):
		fmt.Fprintln(os.Stderr, "error:", err)
		return ExitAuthFailure
	case kberrors.Is(err, kberrors.ErrBadMagic),
		kberrors.Is(err, kberrors.ErrTruncatedHeader),
		kberrors.Is(err, kberrors.ErrTruncatedData),
		kberrors.Is(err, kberrors.ErrTableSyntax),
		kberrors.IsIntegrityFailure(err):
		fmt.Fprintln(os.Stderr, "error:", err)
		return ExitFormatError
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		return ExitGenericError
	}
}
