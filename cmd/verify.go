package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/ecomgen/usecase/verify"
	"github.com/spf13/cobra"
)

// VerifyMain is wrapped by NewVerifyCommand and only exported for testing purposes.
var VerifyMain *verify.Main

// NewVerifyCommand returns a new cobra command wrapping VerifyMain.
func NewVerifyCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	VerifyMain = verify.NewMain(stdout)
	verifyCommand := &cobra.Command{
		Use:   "verify",
		Short: "Compare the record counts of each store with the dataset manifest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return VerifyMain.Run()
		},
	}
	flags := verifyCommand.Flags()
	err := commandeer.Flags(flags, VerifyMain)
	if err != nil {
		panic(err)
	}
	return verifyCommand
}

func init() {
	subcommandFns["verify"] = NewVerifyCommand
}
