package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/medtriage/pkg/common/config"
	"github.com/synaptica-ai/medtriage/pkg/common/logger"
)

func main() {
	logger.Init()
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "triagectl",
		Short:         "Operate the MedTriage risk engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.ModelArtifactPath, "model", cfg.ModelArtifactPath, "Path to the model artifact")
	rootCmd.PersistentFlags().StringVar(&cfg.RoutingTablePath, "routing", cfg.RoutingTablePath, "Path to a YAML routing table")

	rootCmd.AddCommand(classifyCmd(cfg))
	rootCmd.AddCommand(modelCmd(cfg))
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(clinicianCmd())
	rootCmd.AddCommand(analysesCmd(cfg))
	return rootCmd
}
