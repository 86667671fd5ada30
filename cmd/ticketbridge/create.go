package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/escalatedhq/ticketbridge/internal/bridge"
	"github.com/escalatedhq/ticketbridge/internal/jira"
)

var (
	createSubject     string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create <ticket-id>",
	Short: "Create a Jira issue for a ticket and store the link",
	Long: `Create a Jira issue from a ticket, regardless of the auto_create
setting, and record the association. This is the manual "Create Jira
Issue" action.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSettings()
		if !cfg.IsConfigured() {
			fatalf("Jira connection is not configured; run 'ticketbridge config init'")
		}

		ticket := &bridge.Ticket{
			ID:          args[0],
			Subject:     createSubject,
			Description: createDescription,
		}

		client := jira.NewClient(cfg)
		res := client.CreateIssue(cmd.Context(), bridge.BuildIssueRequest(cfg, ticket))
		if !res.OK {
			fatalf("creating issue: %s", res.Err)
		}

		key := res.Str("key")
		if key == "" {
			fatalf("Jira returned no issue key")
		}

		if _, err := linkStore().Add(ticket.ID, key); err != nil {
			fatalf("issue %s created but storing the link failed: %v", key, err)
		}
		fmt.Printf("Created %s for ticket %s\n", key, args[0])
	},
}

func init() {
	createCmd.Flags().StringVarP(&createSubject, "subject", "s", "", "ticket subject (issue summary)")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "ticket description")
	_ = createCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(createCmd)
}
