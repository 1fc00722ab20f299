package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reposcope/internal/store"
)

var (
	flagWorkers  int
	flagOverview bool
	flagChunking string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository for questions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAppFromArgs(cmd, args)
		if err != nil {
			return err
		}
		if flagWorkers > 0 {
			a.cfg.Retrieval.Workers = flagWorkers
		}
		if flagChunking != "" {
			a.cfg.Retrieval.Chunking = flagChunking
			if err := a.cfg.Validate(); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexing %s...\n", a.root)
		start := time.Now()

		last := ""
		idx, stats, err := a.buildIndex(cmd.Context(), "", func(phase string, current, total int) {
			if phase != last {
				fmt.Fprintf(out, "  %s\n", phase)
				last = phase
			}
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(out, "  Files:     %d total, %d indexed, %d skipped\n",
			stats.FilesTotal, stats.FilesIndexed, stats.FilesSkipped)
		fmt.Fprintf(out, "  Chunks:    %d\n", stats.ChunksTotal)
		fmt.Fprintf(out, "  Summaries: %d reused, %d failed\n", stats.SummariesReused, stats.SummariesFailed)

		if flagOverview {
			path, err := a.writeOverview(cmd.Context(), idx)
			if err != nil {
				a.logger.Warn("overview generation failed", "error", err)
				fmt.Fprintf(out, "  Overview:  skipped (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "  Overview:  %s\n", path)
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset [path]",
	Short: "Delete the stored index of a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAppFromArgs(cmd, args)
		if err != nil {
			return err
		}
		st, err := a.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.DeleteAll(); err != nil {
			return fmt.Errorf("reset index: %w", err)
		}
		if err := st.SetMeta(store.MetaOverview, "false"); err != nil {
			return err
		}
		overview := filepath.Join(filepath.Dir(a.cfg.DBPath), overviewFile)
		if err := os.Remove(overview); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove overview: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared index at %s\n", a.cfg.DBPath)
		return nil
	},
}

func init() {
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel workers (default: number of CPUs)")
	indexCmd.Flags().BoolVar(&flagOverview, "overview", false, "generate a project overview used as context for answers")
	indexCmd.Flags().StringVar(&flagChunking, "chunking", "", "chunking strategy: lines or syntax")
	rootCmd.AddCommand(indexCmd, resetCmd)
}
