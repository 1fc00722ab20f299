package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reposcope/internal/explain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the indexed repository in a prompt loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAppFromArgs(cmd, nil)
		if err != nil {
			return err
		}
		completer := a.completer()
		idx, err := a.openIndex(completer)
		if err != nil {
			return err
		}
		eo := engineOptions{language: flagLang, web: flagWeb, topK: flagK}
		if eo.language == "" {
			eo.language = a.cfg.Language
		}
		eng := a.newEngine(idx, completer, eo)

		out := cmd.OutOrStdout()
		printMD := markdownPrinter(out)
		scanner := bufio.NewScanner(cmd.InOrStdin())

		fmt.Fprintln(out, "reposcope chat (type /help for commands, /exit to quit)")
		fmt.Fprintln(out)

		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "/") {
				name, arg, _ := strings.Cut(line, " ")
				arg = strings.TrimSpace(arg)
				switch name {
				case "/exit", "/quit":
					fmt.Fprintln(out, "Goodbye.")
					return nil
				case "/lang":
					if arg == "" {
						fmt.Fprintf(out, "Language: %s\n", explain.ParseLanguage(eo.language).Name())
						continue
					}
					eo.language = string(explain.ParseLanguage(arg))
					eng = a.newEngine(idx, completer, eo)
					fmt.Fprintf(out, "Answering in %s.\n", explain.ParseLanguage(eo.language).Name())
				case "/web":
					eo.web = !eo.web
					eng = a.newEngine(idx, completer, eo)
					fmt.Fprintf(out, "Background knowledge %s.\n", onOff(eo.web))
				case "/status":
					st := eng.Status()
					fmt.Fprintf(out, "%d files, %d chunks, %d cached rerankings\n", st.Files, st.Chunks, st.RerankCached)
				case "/help":
					fmt.Fprintln(out, "Commands:")
					fmt.Fprintln(out, "  /lang [en|es|fr] - show or set the answer language")
					fmt.Fprintln(out, "  /web             - toggle labeled background knowledge")
					fmt.Fprintln(out, "  /status          - show index and cache sizes")
					fmt.Fprintln(out, "  /exit            - quit chat")
					fmt.Fprintln(out, "  /help            - show this help")
				default:
					fmt.Fprintf(out, "Unknown command %s (try /help)\n", name)
				}
				continue
			}

			fmt.Fprintln(out, "[Searching...]")
			answers := eng.Ask(cmd.Context(), line)
			fmt.Fprintln(out)
			for i, ans := range answers {
				printMD(answerMarkdown(i, len(answers), ans))
			}
			fmt.Fprintln(out)
		}
		return scanner.Err()
	},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	chatCmd.Flags().StringVar(&flagLang, "lang", "", "answer language: en, es or fr")
	chatCmd.Flags().BoolVar(&flagWeb, "web", false, "allow clearly labeled general background knowledge")
	chatCmd.Flags().IntVarP(&flagK, "k", "k", 0, "chunks retrieved per intent (default from config)")
	rootCmd.AddCommand(chatCmd)
}
