package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reposcope/internal/config"
	"reposcope/internal/llm"
	"reposcope/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show the index and provider status of a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAppFromArgs(cmd, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project:   %s\n", a.root)
		fmt.Fprintf(out, "Database:  %s\n", a.cfg.DBPath)
		fmt.Fprintf(out, "Provider:  %s", a.cfg.Provider)
		if m := a.model(); m != "" {
			fmt.Fprintf(out, " (%s)", m)
		}
		fmt.Fprintln(out)

		if _, err := os.Stat(a.cfg.DBPath); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(out, "Index:     not built")
		} else {
			if err := printIndexStatus(cmd, a); err != nil {
				return err
			}
		}

		if a.cfg.Provider == config.ProviderOllama {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			models, err := llm.ListOllamaModels(ctx, a.cfg.Ollama.URL)
			if err != nil {
				a.logger.Debug("ollama model listing failed", "error", err)
				fmt.Fprintf(out, "Ollama:    unreachable at %s\n", a.cfg.Ollama.URL)
				return nil
			}
			fmt.Fprintf(out, "Ollama:    %d completion models\n", len(models))
			for _, m := range models {
				fmt.Fprintf(out, "  - %s (%s)\n", m.Name, m.HumanSize())
			}
		}
		return nil
	},
}

func printIndexStatus(cmd *cobra.Command, a *app) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.Counts()
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Index:     %d files, %d chunks", counts.Files, counts.Chunks)
	if !counts.IndexedAt.IsZero() {
		fmt.Fprintf(out, ", built %s", counts.IndexedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintln(out)
	for _, key := range []string{store.MetaProvider, store.MetaModel, store.MetaChunking} {
		if v, _ := st.GetMeta(key); v != "" {
			fmt.Fprintf(out, "  %-9s %s\n", key+":", v)
		}
	}
	if reason := a.staleReason(st); reason != "" {
		fmt.Fprintf(out, "  stale:    %s\n", reason)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
