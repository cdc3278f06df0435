package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stackform/stackform/manifest"
)

var initCommand = &cobra.Command{
	Use:   "init <name> [dir]",
	Short: "Create a new stack in the given directory",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		dir := "."
		if len(args) > 1 {
			dir = args[1]
		}

		existing, err := manifest.FindStack(dir)
		if err != nil {
			log.Fatalf("Find stack: %v", err)
		}
		if existing != nil {
			fmt.Fprintf(os.Stderr, "Stack %q already exists in %s\n", existing.Name, existing.RootDir)
			os.Exit(2)
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			log.Fatalf("Resolve dir: %v", err)
		}
		stack := &manifest.Stack{RootDir: abs, Name: name}
		if err := stack.Write(); err != nil {
			log.Fatalf("Write stack: %v", err)
		}
		fmt.Printf("Created stack %q in %s\n", name, abs)
	},
}

func init() {
	Stackform.AddCommand(initCommand)
}
