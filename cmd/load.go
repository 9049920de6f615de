package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/ecomgen/usecase/load"
	"github.com/spf13/cobra"
)

// LoadMain is wrapped by NewLoadCommand and only exported for testing purposes.
var LoadMain *load.Main

// NewLoadCommand returns a new cobra command wrapping LoadMain.
func NewLoadCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	LoadMain = load.NewMain(stdout, stderr)
	loadCommand := &cobra.Command{
		Use:   "load",
		Short: "Load a generated dataset into the selected stores.",
		Long: `Load reads the dataset written by generate and writes it into every
selected store in parallel. Invalid records are skipped and counted; a store
that can't be reached fails on its own while the others keep loading. A
summary per store is printed at the end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = LoadMain.Run()
			if err != nil {
				return err
			}
			log.New(stderr, "", log.LstdFlags).Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := loadCommand.Flags()
	err = commandeer.Flags(flags, LoadMain)
	if err != nil {
		panic(err)
	}
	return loadCommand
}

func init() {
	subcommandFns["load"] = NewLoadCommand
}
