// Command limerence is a terminal conversational agent with streaming
// tool-calling and a BM25 memory index of past conversations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "limerence",
		Short: "A terminal companion with persistent memory and tool use",
	}

	root.AddCommand(chatCommand())
	root.AddCommand(sessionsCommand())
	root.AddCommand(configCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
