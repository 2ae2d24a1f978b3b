package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/daybook"
)

var Version = "dev"

var confPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "daybookd",
		Short:         "daybook scheduling server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&confPath, "config", "c", daybook.DefaultConfigPath, "dotenv config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
