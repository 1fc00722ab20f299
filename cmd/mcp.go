package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"reposcope/internal/explain"
	"reposcope/internal/index"
	"reposcope/internal/intent"
	"reposcope/internal/metrics"
	"reposcope/internal/rag"
)

var flagMetricsAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing repository question tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(nil)
	if err != nil {
		return err
	}
	// Stdout carries the protocol, so logs always go to stderr.
	a, err := loadApp(root, os.Stderr)
	if err != nil {
		return err
	}
	completer := a.completer()
	idx, err := a.openIndex(completer)
	if err != nil {
		return err
	}
	t := &mcpTools{
		engine:     a.newEngine(idx, completer, engineOptions{}),
		newEngine:  func(eo engineOptions) *rag.Engine { return a.newEngine(idx, completer, eo) },
		decomposer: intent.NewDecomposer(completer, a.logger),
		overview:   filepath.Join(filepath.Dir(a.cfg.DBPath), overviewFile),
	}

	addr := a.cfg.MetricsAddr
	if flagMetricsAddr != "" {
		addr = flagMetricsAddr
	}
	if addr != "" {
		srv := serveMetrics(addr, a)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	s := mcpserver.NewMCPServer("reposcope", Version, mcpserver.WithToolCapabilities(false))
	s.AddTool(searchCodeTool(), t.search)
	s.AddTool(explainQueryTool(), t.explain)
	s.AddTool(decomposeQueryTool(), t.decompose)
	s.AddTool(getFileSummaryTool(), t.fileSummary)
	s.AddTool(getProjectOverviewTool(), t.projectOverview)
	s.AddTool(listIndexedFilesTool(), t.listFiles)

	a.logger.Info("mcp server starting", "root", a.root, "files", len(idx.Files()), "chunks", len(idx.Chunks()))
	return mcpserver.ServeStdio(s)
}

func serveMetrics(addr string, a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", addr)
	return srv
}

func init() {
	mcpCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchCodeTool() mcp.Tool {
	return mcp.NewTool("search_code",
		mcp.WithDescription("Rank the indexed code chunks for one intent and report whether the evidence grounds it. Returns file paths, line ranges, scores and content."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("A single question or intent about the codebase"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return (default from config)"),
		),
	)
}

func explainQueryTool() mcp.Tool {
	return mcp.NewTool("explain_query",
		mcp.WithDescription("Answer a question about the codebase. Compound questions are split into intents; each answer only names entities found in the cited code."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural language question about the codebase"),
		),
		mcp.WithString("language",
			mcp.Description("Answer language: en, es or fr (default from config)"),
		),
	)
}

func decomposeQueryTool() mcp.Tool {
	return mcp.NewTool("decompose_query",
		mcp.WithDescription("Split a question into at most three independent intents."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural language question"),
		),
	)
}

func getFileSummaryTool() mcp.Tool {
	return mcp.NewTool("get_file_summary",
		mcp.WithDescription("Get the generated summary and metadata for a specific indexed file."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path as indexed (relative to the project root)"),
		),
	)
}

func getProjectOverviewTool() mcp.Tool {
	return mcp.NewTool("get_project_overview",
		mcp.WithDescription("Get the project overview written by 'reposcope index --overview'."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func listIndexedFilesTool() mcp.Tool {
	return mcp.NewTool("list_indexed_files",
		mcp.WithDescription("List all files in the index with their language, chunk count, and summary snippet."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("language",
			mcp.Description("Optional language filter (e.g. 'go', 'javascript'). Case-insensitive."),
		),
	)
}

// --- Handlers ---

// mcpTools serves tool calls. An Engine handles one request at a time, so
// calls that use it are serialized.
type mcpTools struct {
	mu         sync.Mutex
	engine     *rag.Engine
	newEngine  func(engineOptions) *rag.Engine
	decomposer *intent.Decomposer
	overview   string
}

func (t *mcpTools) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	eng := t.engine
	if k := req.GetInt("k", 0); k > 0 {
		eng = t.newEngine(engineOptions{topK: k})
	}

	t.mu.Lock()
	sr := eng.Search(ctx, query)
	t.mu.Unlock()
	return mcp.NewToolResultText(searchMarkdown(sr, true)), nil
}

func (t *mcpTools) explain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question := strings.TrimSpace(req.GetString("question", ""))
	if question == "" {
		return mcp.NewToolResultError("question is required"), nil
	}
	eng := t.engine
	if lang := req.GetString("language", ""); lang != "" {
		eng = t.newEngine(engineOptions{language: string(explain.ParseLanguage(lang))})
	}

	t.mu.Lock()
	answers := eng.Ask(ctx, question)
	t.mu.Unlock()

	var sb strings.Builder
	for i, ans := range answers {
		sb.WriteString(answerMarkdown(i, len(answers), ans))
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *mcpTools) decompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question := strings.TrimSpace(req.GetString("question", ""))
	if question == "" {
		return mcp.NewToolResultError("question is required"), nil
	}
	var sb strings.Builder
	for _, in := range t.decomposer.Decompose(ctx, question) {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", in.Priority, in.Type, in.Text)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *mcpTools) fileSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	for _, f := range t.engine.Index().Files() {
		if f.Path == path {
			summary := f.Summary
			if summary == "" {
				summary = "(No summary generated yet)"
			}
			return mcp.NewToolResultText(fmt.Sprintf("## %s\n\n**Language:** %s  \n**Lines:** %d  \n**Chunks:** %d\n\n%s",
				f.Path, f.Language, f.Lines, f.Chunks, summary)), nil
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("file %q not found in index; call list_indexed_files to see available paths", path)), nil
}

func (t *mcpTools) projectOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := os.ReadFile(t.overview)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mcp.NewToolResultText("No overview available yet. Run 'reposcope index --overview' to generate one."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("read overview failed: %v", err)), nil
	}
	if len(data) == 0 {
		return mcp.NewToolResultText("Overview file exists but is empty."), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *mcpTools) listFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(fileListMarkdown(t.engine.Index().Files(), req.GetString("language", ""))), nil
}

func fileListMarkdown(files []index.FileEntry, language string) string {
	language = strings.ToLower(language)
	var filtered []index.FileEntry
	for _, f := range files {
		if language == "" || strings.ToLower(f.Language) == language {
			filtered = append(filtered, f)
		}
	}

	var sb strings.Builder
	if language != "" {
		fmt.Fprintf(&sb, "## Indexed files (%d, language: %s)\n\n", len(filtered), language)
	} else {
		fmt.Fprintf(&sb, "## Indexed files (%d)\n\n", len(filtered))
	}
	for _, f := range filtered {
		snippet, _, _ := strings.Cut(f.Summary, "\n")
		if r := []rune(snippet); len(r) > 120 {
			snippet = string(r[:120]) + "..."
		}
		if snippet == "" {
			snippet = "(no summary)"
		}
		fmt.Fprintf(&sb, "- **%s** (%s, %d chunks): %s\n", f.Path, f.Language, f.Chunks, snippet)
	}
	return sb.String()
}
