// Package cmd implements the stackform command line interface.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackform/stackform/manifest"
	"github.com/stackform/stackform/provider"
	"github.com/stackform/stackform/provider/aws"
	"github.com/stackform/stackform/provider/mock"
	"github.com/stackform/stackform/storage"
	"github.com/stackform/stackform/storage/kvbackend"
	"go.uber.org/zap"
)

// Stackform is the root command.
var Stackform = &cobra.Command{
	Use:           "stackform",
	Short:         "Declare, plan and deploy infrastructure stacks",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	Stackform.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
}

// loadStack finds the stack for the given directory and loads its manifest.
// Prints diagnostics and exits on any user error.
func loadStack(dir string) (*manifest.Stack, *manifest.Manifest) {
	stack, err := manifest.FindStack(dir)
	if err != nil {
		log.Fatalf("Find stack: %v", err)
	}
	if stack == nil {
		fmt.Fprintln(os.Stderr, "Stack not found. Run stackform init to create one.")
		os.Exit(2)
	}

	loader := &manifest.Loader{}
	m, diags := loader.Load(stack.RootDir)
	if diags.HasErrors() {
		loader.WriteDiagnostics(os.Stderr, diags)
		os.Exit(1)
	}
	return stack, m
}

// newLogger builds the logger used by the executor. Without --verbose only
// errors are logged; the CLI output itself stays on stdout.
func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		log.Fatalf("Get verbose flag: %v", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Build logger: %v", err)
	}
	return logger
}

// newProvider selects the provider from the --provider flag.
func newProvider(cmd *cobra.Command) provider.Provider {
	name, err := cmd.Flags().GetString("provider")
	if err != nil {
		log.Fatalf("Get provider flag: %v", err)
	}
	region, err := cmd.Flags().GetString("region")
	if err != nil {
		log.Fatalf("Get region flag: %v", err)
	}
	switch name {
	case "aws":
		return &aws.Provider{Region: region}
	case "mock":
		return &mock.Provider{}
	default:
		fmt.Fprintf(os.Stderr, "Unknown provider %q, valid providers: aws, mock\n", name)
		os.Exit(2)
		return nil
	}
}

// openState opens the stack state database from the --state flag.
func openState(cmd *cobra.Command) (*storage.KV, func()) {
	file, err := cmd.Flags().GetString("state")
	if err != nil {
		log.Fatalf("Get state flag: %v", err)
	}
	var bolt *kvbackend.Bolt
	if file == "" {
		bolt, err = kvbackend.NewBolt()
	} else {
		bolt, err = kvbackend.NewBoltWithFile(file)
	}
	if err != nil {
		log.Fatalf("Open state: %v", err)
	}
	return &storage.KV{Backend: bolt}, func() {
		_ = bolt.Close()
	}
}

func addExecFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "aws", "Provider to deploy with (aws, mock)")
	cmd.Flags().String("region", "", "Provider region")
	cmd.Flags().String("state", "", "Path to the state database (default ~/.stackform/state.db)")
}
