// Command ticketbridge links helpdesk tickets to Jira issues and keeps the
// two sides in agreement.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/escalatedhq/ticketbridge/internal/debug"
	"github.com/escalatedhq/ticketbridge/internal/links"
	"github.com/escalatedhq/ticketbridge/internal/settings"
	"github.com/escalatedhq/ticketbridge/internal/version"
)

var (
	configDir   string
	verboseFlag bool
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "ticketbridge",
	Short: "Sync helpdesk tickets with Jira issues",
	Long: `ticketbridge keeps helpdesk tickets and Jira issues in agreement.

It creates Jira issues from tickets, records the associations, and
propagates status and assignee changes in one or both directions
according to the configured sync direction.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
	},
}

func init() {
	// Credentials commonly live in a .env next to the working directory.
	// Missing file is fine; real env always wins.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configDir, "config", defaultConfigDir(), "config directory")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")
}

// defaultConfigDir resolves the config directory: flag > env > user config.
func defaultConfigDir() string {
	if dir := os.Getenv("TICKETBRIDGE_CONFIG"); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "ticketbridge")
	}
	return ".ticketbridge"
}

// loadSettings reads the settings file and applies env overrides.
func loadSettings() *settings.Settings {
	cfg := settings.Load(settings.SettingsPath(configDir))
	cfg.ApplyEnv()
	return cfg
}

// linkStore opens the link store in the config directory.
func linkStore() *links.Store {
	return links.NewStore(settings.LinksPath(configDir))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatalf("%v", err)
	}
}
