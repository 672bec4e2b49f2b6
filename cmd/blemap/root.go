package main

import (
	"github.com/spf13/cobra"

	"blemap/internal/version"
)

var (
	configFlag     string
	logLevelFlag   string
	statsFlag      bool
	mapFlag        bool
	appFlag        string
	validationFlag bool
	workersFlag    int
	outputFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "blemap",
	Short: "blemap - BLE identifier taxonomy and functionality mapping",
	Long: `blemap classifies the BLE attribute identifiers extracted from mobile
applications against the adopted, member and known-functionality registries,
and maps identifiers of unknown functionality to categories by matching the
API names, strings and fields that reference them.

  blemap --stats              # report population statistics to the log
  blemap --map                # write the functionality mapping
  blemap --map --app KEY      # map a single application

Without --stats or --map no work is performed.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.SetVersionTemplate("blemap version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: .blemap/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.Flags().BoolVarP(&statsFlag, "stats", "s", false, "Report corpus statistics")
	rootCmd.Flags().BoolVarP(&mapFlag, "map", "m", false, "Map unknown-functionality identifiers to categories")
	rootCmd.Flags().StringVar(&appFlag, "app", "", "Map only the application with this key (no memoisation)")
	rootCmd.Flags().BoolVar(&validationFlag, "validation", false, "Map known-functionality identifiers instead")
	rootCmd.Flags().IntVar(&workersFlag, "workers", 0, "Parallel mapping workers (default: from config)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Mapping output file; .zst compresses")
}
