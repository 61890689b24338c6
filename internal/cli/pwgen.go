package cli

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
)

// pwgenAlphabet intentionally excludes visually ambiguous characters
// (0/O, 1/l/I). This is a plain uniform-random generator, not a
// dictionary-based entropy estimator; that kind of password strength
// scoring is out of scope for this tool.
const pwgenAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789!@#$%^&*-_=+"

var (
	pwgenCount  int
	pwgenLength int
)

var pwgenCmd = &cobra.Command{
	Use:   "pwgen",
	Short: "Generate candidate passwords",
	Long: `pwgen prints candidate passwords drawn uniformly from a fixed
alphabet using a cryptographically secure random source. It does not
evaluate dictionary-word entropy; it is a simple generator, not a
strength estimator.`,
	RunE: runPwgen,
}

func init() {
	rootCmd.AddCommand(pwgenCmd)
	pwgenCmd.Flags().IntVarP(&pwgenCount, "count", "n", 1, "number of passwords to generate")
	pwgenCmd.Flags().IntVarP(&pwgenLength, "length", "l", 20, "length of each generated password")
}

func runPwgen(cmd *cobra.Command, args []string) error {
	for i := 0; i < pwgenCount; i++ {
		pw, err := generatePassword(pwgenLength)
		if err != nil {
			return err
		}
		fmt.Println(pw)
	}
	return nil
}

func generatePassword(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(pwgenAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("cli: generate password: %w", err)
		}
		out[i] = pwgenAlphabet[n.Int64()]
	}
	return string(out), nil
}
