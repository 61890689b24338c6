package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// shellCmd is a deliberate stub. The interactive add/modify/delete/
// list/select/print/help/quit workflow is an external collaborator
// sketched only in; it is not part of this module's scope.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive record workflow (not implemented here)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("cli: the interactive shell is not part of this module; use import/export instead")
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
