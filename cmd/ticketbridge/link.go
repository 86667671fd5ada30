package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/escalatedhq/ticketbridge/internal/links"
	"github.com/escalatedhq/ticketbridge/internal/ui"
)

var linkCmd = &cobra.Command{
	Use:   "link <ticket-id> <issue-key>",
	Short: "Link a ticket to an existing Jira issue",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := linkStore()
		entry, err := store.Add(args[0], args[1])
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Linked ticket %s to %s\n", entry.TicketID, entry.IssueKey)
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <ticket-id> <issue-key>",
	Short: "Remove a ticket-to-issue link",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := linkStore()
		removed, err := store.Remove(args[0], args[1])
		if err != nil {
			fatalf("%v", err)
		}
		if !removed {
			fmt.Printf("No link found for ticket %s and %s\n", links.Normalize(args[0]), args[1])
			return
		}
		fmt.Printf("Unlinked ticket %s from %s\n", links.Normalize(args[0]), args[1])
	},
}

var linksCmd = &cobra.Command{
	Use:   "links [ticket-id]",
	Short: "List stored links",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := linkStore()

		var all []links.Link
		if len(args) == 1 {
			all = store.ForTicket(args[0])
		} else {
			all = store.All()
		}

		if len(all) == 0 {
			fmt.Println(ui.Render(ui.MutedStyle, "No links stored."))
			return
		}

		// Pad before styling: ANSI escapes would count against the width.
		fmt.Printf("%s  %s  %s\n",
			ui.Render(ui.HeaderStyle, fmt.Sprintf("%-6s", "TICKET")),
			ui.Render(ui.HeaderStyle, fmt.Sprintf("%-12s", "ISSUE")),
			ui.Render(ui.HeaderStyle, "LINKED"))
		for _, l := range all {
			fmt.Printf("%-6s  %-12s  %s\n",
				l.TicketID,
				l.IssueKey,
				ui.Render(ui.MutedStyle, l.LinkedAt.Format("2006-01-02 15:04")))
		}
	},
}

func init() {
	rootCmd.AddCommand(linkCmd, unlinkCmd, linksCmd)
}
