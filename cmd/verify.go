package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridflex/gridflex/core/audit"
	"github.com/gridflex/gridflex/infra/export"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <audit-file>",
	Short: "Verify the signatures of an exported audit trail",
	Args:  cobra.ExactArgs(1),
	RunE:  verify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verify(cmd *cobra.Command, args []string) error {
	entries, err := export.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := audit.VerifyEntries(entries); err != nil {
		var ierr *audit.IntegrityError
		if errors.As(err, &ierr) {
			return fmt.Errorf("%s: %w", args[0], ierr)
		}
		return err
	}
	fmt.Printf("%s: %d entries, all signatures valid\n", args[0], len(entries))
	return nil
}
