package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"blemap/internal/config"
	"blemap/internal/errors"
	"blemap/internal/paths"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default configuration",
	Long: `Creates .blemap/config.json with the default configuration in dir, or in
the current directory. An existing configuration is kept unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return errors.New(errors.InternalError, "cannot resolve directory", err)
	}

	configPath := filepath.Join(dir, ".blemap", "config.json")
	if paths.FileExists(configPath) && !initForce {
		// Already initialised counts as success.
		fmt.Fprintf(cmd.OutOrStdout(), "blemap already initialized.\nConfiguration at: %s\n\nRun 'blemap init --force' to overwrite it.\n", configPath)
		return nil
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errors.New(errors.InputMissing, "directory not found: "+dir, err)
	}
	if err := config.DefaultConfig().Save(dir); err != nil {
		return errors.New(errors.OutputFailed, "cannot write configuration", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", configPath)
	return nil
}
