package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reposcope/internal/intent"
)

var (
	flagJSON    bool
	flagLang    string
	flagWeb     bool
	flagK       int
	flagContent bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question about the indexed repository",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAppFromArgs(cmd, nil)
		if err != nil {
			return err
		}
		eng, err := a.engine(engineOptions{language: flagLang, web: flagWeb, topK: flagK})
		if err != nil {
			return err
		}

		answers := eng.Ask(cmd.Context(), strings.Join(args, " "))
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), answers)
		}
		if len(answers) == 0 {
			return fmt.Errorf("no question to answer")
		}
		printMD := markdownPrinter(cmd.OutOrStdout())
		for i, ans := range answers {
			printMD(answerMarkdown(i, len(answers), ans))
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <intent>",
	Short: "Show the ranked code chunks for one intent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAppFromArgs(cmd, nil)
		if err != nil {
			return err
		}
		eng, err := a.engine(engineOptions{topK: flagK})
		if err != nil {
			return err
		}

		sr := eng.Search(cmd.Context(), strings.Join(args, " "))
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), sr)
		}
		markdownPrinter(cmd.OutOrStdout())(searchMarkdown(sr, flagContent))
		return nil
	},
}

var decomposeCmd = &cobra.Command{
	Use:   "decompose <question>",
	Short: "Split a question into independent intents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAppFromArgs(cmd, nil)
		if err != nil {
			return err
		}
		intents := intent.NewDecomposer(a.completer(), a.logger).Decompose(cmd.Context(), strings.Join(args, " "))
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), intents)
		}
		out := cmd.OutOrStdout()
		for _, in := range intents {
			fmt.Fprintf(out, "%d. [%s] %s\n", in.Priority, in.Type, in.Text)
			if len(in.Keywords) > 0 {
				fmt.Fprintf(out, "   keywords: %s\n", strings.Join(in.Keywords, ", "))
			}
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, searchCmd, decomposeCmd} {
		c.Flags().BoolVar(&flagJSON, "json", false, "print JSON instead of text")
	}
	for _, c := range []*cobra.Command{askCmd, searchCmd} {
		c.Flags().IntVarP(&flagK, "k", "k", 0, "chunks retrieved per intent (default from config)")
	}
	askCmd.Flags().StringVar(&flagLang, "lang", "", "answer language: en, es or fr")
	askCmd.Flags().BoolVar(&flagWeb, "web", false, "allow clearly labeled general background knowledge")
	searchCmd.Flags().BoolVar(&flagContent, "content", false, "include chunk content")
	rootCmd.AddCommand(askCmd, searchCmd, decomposeCmd)
}
