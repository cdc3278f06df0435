package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/stackform/stackform/deploy"
	"github.com/stackform/stackform/plan"
	"github.com/zclconf/go-cty/cty"
)

var applyCommand = &cobra.Command{
	Use:   "apply [dir]",
	Short: "Deploy the stack",
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
		outputs, err := exec.Execute(ctx, p, g, m.Outputs)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		names := make([]string, 0, len(outputs))
		for name := range outputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s = %s\n", name, valueString(outputs[name]))
		}
	},
}

func valueString(v cty.Value) string {
	if v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
		return v.AsString()
	}
	return v.GoString()
}

func init() {
	addExecFlags(applyCommand)
	Stackform.AddCommand(applyCommand)
}
