// Package main provides the quarry CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/cli"
)

var (
	// Global flags
	provider string
	repoRoot string
	dbPath   string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "quarry",
		Short: "Iterative context discovery for code questions",
		Long: `Quarry digs through a repository to assemble the context behind a code
question: recent commits, uncommitted changes, and related code, refined
over several search iterations by an LLM analysis step.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVarP(&repoRoot, "repo", "r", "", "Repository root to search (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Session database path (default: quarry.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(researchCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider: provider,
		RepoRoot: repoRoot,
		DBPath:   dbPath,
		Verbose:  verbose,
	}
}

func researchCmd() *cobra.Command {
	var fileHint string
	var noStore bool

	cmd := &cobra.Command{
		Use:   "research [query]",
		Short: "Research a code question and emit a context bundle",
		Long: `Run the full research loop for a query: generate seed keywords, search
commit history, the working tree, and project files, analyze the findings
with an LLM, and repeat until the context is sufficient. The resulting
bundle is printed as JSON and stored in the session database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options()
			opts.NoStore = noStore
			return cli.Research(context.Background(), args[0], fileHint, opts)
		},
	}

	cmd.Flags().StringVarP(&fileHint, "file", "f", "", "File the question is about (improves keyword seeding)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not persist the session")

	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [keyword...]",
		Short: "Run one search fan-out without the LLM loop",
		Long: `Search commit history, uncommitted changes, and project files for the
given keywords and print the categorized matches as JSON. Useful for
inspecting what a research iteration would see.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Search(context.Background(), args, options())
		},
	}
	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored research sessions",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListSessions(context.Background(), limit, options())
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list (0 = all)")

	showCmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Print the stored context bundle for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ShowSession(context.Background(), args[0], options())
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [session-id]",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.DeleteSession(context.Background(), args[0], options())
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(showCmd)
	cmd.AddCommand(deleteCmd)
	return cmd
}
