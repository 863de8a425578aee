package main

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "agrisupply",
	Short:         "Crop allocation and pickup routing service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", ".", "directory holding the .env file")
	rootCmd.AddCommand(serveCmd, schemaCmd, hashPasswordCmd, tokenCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
