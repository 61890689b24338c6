package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	kberrors "keybox/internal/errors"
)

// isTerminal returns true if stdin is a terminal (not piped/redirected).
func isTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// stdinReader is shared by every piped-stdin prompt so that lines
// buffered by one read are still there for the next prompt.
var stdinReader = bufio.NewReader(os.Stdin)

// readLineSecure reads a line from stdin without echo when stdin is a
// terminal, falling back to a buffered read when it is piped (scripts,
// tests).
func readLineSecure(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !isTerminal() {
		line, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("cli: read passphrase: %w", err)
		}
		return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
	}

	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("cli: read passphrase: %w", err)
	}
	return string(pw), nil
}

// TerminalPassphraseProvider implements keybox.PassphraseProvider by
// prompting interactively over a terminal, with a piped-stdin fallback.
type TerminalPassphraseProvider struct{}

func (TerminalPassphraseProvider) Prompt() ([]byte, error) {
	pw, err := readLineSecure("Passphrase: ")
	if err != nil {
		return nil, err
	}
	if pw == "" {
		return nil, kberrors.ErrNoPassphrase
	}
	return []byte(pw), nil
}

func (TerminalPassphraseProvider) Confirm(passphrase []byte) error {
	pw, err := readLineSecure("Confirm passphrase: ")
	if err != nil {
		return err
	}
	if pw != string(passphrase) {
		return fmt.Errorf("cli: passphrases do not match")
	}
	return nil
}
