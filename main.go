package main

import (
	"fmt"
	"os"

	cmd "github.com/stackform/stackform/cmd/stackform"
)

func main() {
	err := cmd.Stackform.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
