package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kenxiao1/limerence/internal/config"
	"github.com/kenxiao1/limerence/internal/session"
)

func sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect saved conversation sessions",
	}
	cmd.AddCommand(sessionsListCommand())
	return cmd
}

func sessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.SessionsDir()
			if err != nil {
				return err
			}
			headers, err := session.ListSessions(dir)
			if err != nil {
				return err
			}
			if len(headers) == 0 {
				fmt.Println("No sessions yet.")
				return nil
			}
			for _, h := range headers {
				fmt.Printf("%s  %-20s  %-20s  %s\n", h.ID, h.Character, h.Model, h.Timestamp.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
