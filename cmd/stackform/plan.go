package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackform/stackform/plan"
)

var planCommand = &cobra.Command{
	Use:   "plan [dir]",
	Short: "Print the provisioning order for the stack",
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

		dot, err := cmd.Flags().GetBool("dot")
		if err != nil {
			log.Fatalf("Get dot flag: %v", err)
		}
		if dot {
			b, err := g.DOT(stack.Name)
			if err != nil {
				log.Fatalf("Marshal graph: %v", err)
			}
			fmt.Println(string(b))
			return
		}

		for i, id := range p.IDs {
			n, err := reg.Get(id)
			if err != nil {
				log.Fatalf("Get %s: %v", id, err)
			}
			fmt.Printf("%2d. %s %s\n", i+1, n.Kind, n.ID)
		}
	},
}

func init() {
	planCommand.Flags().Bool("dot", false, "Print the dependency graph in graphviz dot format")
	Stackform.AddCommand(planCommand)
}
