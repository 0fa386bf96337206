package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kenxiao1/limerence/internal/config"
)

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect limerence configuration",
	}
	cmd.AddCommand(configShowCommand())
	return cmd
}

func configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dataDir, err := config.DataDir()
			if err != nil {
				return err
			}
			fmt.Printf("data dir:    %s\n", dataDir)
			fmt.Printf("model:       %s\n", cfg.Model.ID)
			fmt.Printf("base url:    %s\n", cfg.Model.BaseURL)
			fmt.Printf("api key env: %s\n", cfg.Model.APIKeyEnv)
			fmt.Printf("search:      %s\n", cfg.Search.Engine)
			if cfg.Search.SearxngURL != "" {
				fmt.Printf("searxng url: %s\n", cfg.Search.SearxngURL)
			}
			if _, ok := cfg.ToModel().APIKey(); !ok {
				fmt.Printf("\nwarning: %s is not set in the environment\n", cfg.Model.APIKeyEnv)
			}
			return nil
		},
	}
}
