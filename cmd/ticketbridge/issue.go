package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/escalatedhq/ticketbridge/internal/jira"
	"github.com/escalatedhq/ticketbridge/internal/ui"
)

var searchMax int

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Inspect Jira issues",
}

var issueShowCmd = &cobra.Command{
	Use:   "show <issue-key>",
	Short: "Show a Jira issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := jira.NewClient(loadSettings())
		res := client.GetIssue(cmd.Context(), args[0])
		if !res.OK {
			fatalf("%s", res.Err)
		}

		var issue struct {
			Key    string `json:"key"`
			Fields struct {
				Summary     string          `json:"summary"`
				Description json.RawMessage `json:"description"`
				Status      struct {
					Name string `json:"name"`
				} `json:"status"`
				Assignee struct {
					DisplayName string `json:"displayName"`
				} `json:"assignee"`
			} `json:"fields"`
		}
		if err := res.Decode(&issue); err != nil {
			fatalf("parsing issue: %v", err)
		}

		fmt.Printf("%s  %s\n", ui.Render(ui.AccentStyle, issue.Key), issue.Fields.Summary)
		fmt.Printf("Status:   %s\n", issue.Fields.Status.Name)
		if issue.Fields.Assignee.DisplayName != "" {
			fmt.Printf("Assignee: %s\n", issue.Fields.Assignee.DisplayName)
		}
		if desc := jira.ADFToText(issue.Fields.Description); desc != "" {
			fmt.Printf("\n%s\n", desc)
		}
	},
}

var issueSearchCmd = &cobra.Command{
	Use:   "search <jql>",
	Short: "Search Jira issues with JQL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := jira.NewClient(loadSettings())
		res := client.SearchIssues(cmd.Context(), args[0], searchMax)
		if !res.OK {
			fatalf("%s", res.Err)
		}

		var result struct {
			Total  int `json:"total"`
			Issues []struct {
				Key    string `json:"key"`
				Fields struct {
					Summary string `json:"summary"`
					Status  struct {
						Name string `json:"name"`
					} `json:"status"`
				} `json:"fields"`
			} `json:"issues"`
		}
		if err := res.Decode(&result); err != nil {
			fatalf("parsing search result: %v", err)
		}

		if len(result.Issues) == 0 {
			fmt.Println(ui.Render(ui.MutedStyle, "No matching issues."))
			return
		}
		for _, issue := range result.Issues {
			fmt.Printf("%-12s  %-14s  %s\n", issue.Key, issue.Fields.Status.Name, issue.Fields.Summary)
		}
	},
}

func init() {
	issueSearchCmd.Flags().IntVar(&searchMax, "max", 10, "maximum results")
	issueCmd.AddCommand(issueShowCmd, issueSearchCmd)
	rootCmd.AddCommand(issueCmd)
}
