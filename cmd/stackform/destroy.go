package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackform/stackform/deploy"
	"github.com/stackform/stackform/plan"
)

var destroyCommand = &cobra.Command{
	Use:   "destroy [dir]",
	Short: "Tear down the stack",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		stack, m := loadStack(args[0])

		reg, g, err := m.Build()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		p, err := plan.Create(g)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		kv, done := openState(cmd)
		defer done()

		ctx := signalContext(context.Background())
		if err := kv.Restore(ctx, stack.Name, reg); err != nil {
			log.Fatalf("Restore state: %v", err)
		}

		exec := &deploy.Executor{
			Provider: newProvider(cmd),
			Storage:  kv,
			Stack:    stack.Name,
			Logger:   newLogger(cmd),
		}
		if err := exec.Destroy(ctx, p, g); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Println("Stack destroyed")
	},
}

func init() {
	addExecFlags(destroyCommand)
	Stackform.AddCommand(destroyCommand)
}
