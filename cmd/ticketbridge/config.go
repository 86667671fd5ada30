package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/escalatedhq/ticketbridge/internal/jira"
	"github.com/escalatedhq/ticketbridge/internal/settings"
	"github.com/escalatedhq/ticketbridge/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bridge settings",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective settings",
	Run: func(cmd *cobra.Command, args []string) {
		v := settingsViper()
		for _, key := range settingsKeys {
			val := v.GetString(key)
			if key == "api_token" && val != "" {
				val = "********"
			}
			fmt.Printf("%s = %s\n", key, val)
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v := settingsViper()
		if !v.IsSet(args[0]) {
			fatalf("unknown setting %q", args[0])
		}
		fmt.Println(v.GetString(args[0]))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]

		cfg := settings.Load(settings.SettingsPath(configDir))
		if err := applySetting(cfg, key, value); err != nil {
			fatalf("%v", err)
		}
		if err := cfg.Save(settings.SettingsPath(configDir)); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s = %s\n", key, value)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := settings.Load(settings.SettingsPath(configDir))

		autoCreate := cfg.AutoCreate
		direction := string(cfg.SyncDirection)

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Jira URL").
					Placeholder("https://company.atlassian.net").
					Value(&cfg.JiraURL),
				huh.NewInput().
					Title("API email").
					Value(&cfg.APIEmail),
				huh.NewInput().
					Title("API token").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.APIToken),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Default project key").
					Placeholder("PROJ").
					Value(&cfg.DefaultProject),
				huh.NewInput().
					Title("Default issue type").
					Value(&cfg.DefaultIssueType),
				huh.NewSelect[string]().
					Title("Sync direction").
					Options(
						huh.NewOption("Helpdesk to Jira", string(settings.DirectionOutbound)),
						huh.NewOption("Jira to helpdesk", string(settings.DirectionInbound)),
						huh.NewOption("Both directions", string(settings.DirectionBoth)),
					).
					Value(&direction),
				huh.NewConfirm().
					Title("Create Jira issues for new tickets automatically?").
					Value(&autoCreate),
			),
		)

		if err := form.Run(); err != nil {
			fatalf("%v", err)
		}

		cfg.AutoCreate = autoCreate
		cfg.SyncDirection = settings.ParseDirection(direction)

		if err := cfg.Save(settings.SettingsPath(configDir)); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Settings saved to %s\n", settings.SettingsPath(configDir))
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Verify the Jira connection",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSettings()
		client := jira.NewClient(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		var name string
		op := func() error {
			n, res := client.TestConnection(ctx)
			if !res.OK {
				// Missing credentials won't fix themselves; don't retry.
				if res.StatusCode == 0 && !cfg.IsConfigured() {
					return backoff.Permanent(errors.New(res.Err))
				}
				return errors.New(res.Err)
			}
			name = n
			return nil
		}

		bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
			fmt.Println(ui.Render(ui.FailStyle, "✗")+" Connection failed:", err)
			return
		}
		fmt.Println(ui.Render(ui.PassStyle, "✓")+" Connected as", name)
	},
}

// settingsKeys lists the keys exposed by config get/list, in display order.
var settingsKeys = []string{
	"jira_url",
	"api_email",
	"api_token",
	"default_project",
	"default_issue_type",
	"auto_create",
	"sync_direction",
	"listen_addr",
	"helpdesk_url",
}

// settingsViper builds a viper view over the settings file with env
// overrides bound, so get/list show the effective configuration.
func settingsViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(settings.SettingsPath(configDir))
	v.SetConfigType("json")
	_ = v.ReadInConfig()

	cfg := loadSettings()
	v.SetDefault("jira_url", cfg.JiraURL)
	v.SetDefault("api_email", cfg.APIEmail)
	v.SetDefault("api_token", cfg.APIToken)
	v.SetDefault("default_project", cfg.DefaultProject)
	v.SetDefault("default_issue_type", cfg.DefaultIssueType)
	v.SetDefault("auto_create", strconv.FormatBool(cfg.AutoCreate))
	v.SetDefault("sync_direction", string(cfg.SyncDirection))
	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("webhook_secret", cfg.WebhookSecret)
	v.SetDefault("helpdesk_url", cfg.HelpdeskURL)
	v.SetDefault("helpdesk_token", cfg.HelpdeskToken)
	return v
}

// applySetting validates and assigns one settings key.
func applySetting(cfg *settings.Settings, key, value string) error {
	switch key {
	case "jira_url":
		cfg.JiraURL = value
	case "api_email":
		cfg.APIEmail = value
	case "api_token":
		cfg.APIToken = value
	case "default_project":
		cfg.DefaultProject = value
	case "default_issue_type":
		cfg.DefaultIssueType = value
	case "listen_addr":
		cfg.ListenAddr = value
	case "webhook_secret":
		cfg.WebhookSecret = value
	case "helpdesk_url":
		cfg.HelpdeskURL = value
	case "helpdesk_token":
		cfg.HelpdeskToken = value
	case "auto_create":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto_create must be true or false")
		}
		cfg.AutoCreate = b
	case "sync_direction":
		switch settings.Direction(value) {
		case settings.DirectionOutbound, settings.DirectionInbound, settings.DirectionBoth:
			cfg.SyncDirection = settings.Direction(value)
		default:
			return fmt.Errorf("sync_direction must be %s, %s, or %s",
				settings.DirectionOutbound, settings.DirectionInbound, settings.DirectionBoth)
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configInitCmd, configTestCmd)
	rootCmd.AddCommand(configCmd)
}
