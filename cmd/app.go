package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"reposcope/internal/chunker"
	"reposcope/internal/chunker/languages"
	"reposcope/internal/config"
	"reposcope/internal/explain"
	"reposcope/internal/index"
	"reposcope/internal/llm"
	"reposcope/internal/logging"
	"reposcope/internal/rag"
	"reposcope/internal/store"
	"reposcope/internal/walker"
)

// overviewFile is written next to the database by `index --overview`.
const overviewFile = "overview.md"

// app is everything a command needs for one project.
type app struct {
	root   string
	cfg    *config.Config
	level  slog.Level
	logger *slog.Logger
}

// projectRoot resolves the optional path argument, then --dir, defaulting
// to the working directory.
func projectRoot(args []string) (string, error) {
	dir := flagDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir != "" {
		root, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(root)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%s is not a directory", root)
		}
		return root, nil
	}
	return os.Getwd()
}

// loadApp reads configuration for root and applies command-line overrides.
// Logs go to w.
func loadApp(root string, w io.Writer) (*app, error) {
	v := config.New(root)
	pf := rootCmd.PersistentFlags()
	for key, flag := range map[string]string{"db_path": "db", "provider": "provider", "log_level": "log-level"} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(v, root)
	if err != nil {
		return nil, err
	}
	if flagModel != "" {
		switch cfg.Provider {
		case config.ProviderOpenAI:
			cfg.OpenAI.Model = flagModel
		default:
			cfg.Ollama.Model = flagModel
		}
	}

	level := logging.LevelFromString(cfg.LogLevel)
	if flagVerbose > 0 || flagQuiet {
		level = logging.LevelFromVerbosity(flagVerbose, flagQuiet)
	}
	return &app{root: root, cfg: cfg, level: level, logger: logging.New(w, level)}, nil
}

func loadAppFromArgs(cmd *cobra.Command, args []string) (*app, error) {
	root, err := projectRoot(args)
	if err != nil {
		return nil, err
	}
	return loadApp(root, cmd.ErrOrStderr())
}

// model returns the configured model of the active provider.
func (a *app) model() string {
	switch a.cfg.Provider {
	case config.ProviderOpenAI:
		return a.cfg.OpenAI.Model
	case config.ProviderOllama:
		return a.cfg.Ollama.Model
	}
	return ""
}

// completer builds the provider client wrapped with timeout, rate limiting,
// retries and metrics. It returns nil for provider "none".
func (a *app) completer() llm.Completer {
	var c llm.Completer
	switch a.cfg.Provider {
	case config.ProviderOllama:
		c = llm.NewOllamaChat(a.cfg.Ollama.URL, a.cfg.Ollama.Model)
	case config.ProviderOpenAI:
		c = llm.NewOpenAIChat(a.cfg.OpenAI.APIKey, a.cfg.OpenAI.BaseURL, a.cfg.OpenAI.Model)
	default:
		return nil
	}
	lim := a.cfg.Limits
	if lim.TimeoutSeconds > 0 {
		c = llm.WithTimeout(c, time.Duration(lim.TimeoutSeconds)*time.Second)
	}
	c = llm.WithMetrics(c, a.cfg.Provider)
	c = llm.WithRetry(c, lim.RetryAttempts)
	if lim.RateLimit > 0 {
		c = llm.WithRateLimit(c, rate.NewLimiter(rate.Limit(lim.RateLimit), max(lim.Burst, 1)))
	}
	return c
}

func (a *app) chunker() chunker.Chunker {
	lines := chunker.NewLineChunker(a.cfg.Retrieval.Window)
	if a.cfg.Retrieval.Chunking == config.ChunkingSyntax {
		return chunker.NewASTChunker(languages.NewRegistry(), lines)
	}
	return lines
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	st, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return st, nil
}

// errNoIndex is returned when a command needs an index that was never built.
var errNoIndex = errors.New("no index found")

// openIndex loads the stored index. It fails with errNoIndex when nothing
// was indexed yet.
func (a *app) openIndex(completer llm.Completer) (*index.Index, error) {
	if _, err := os.Stat(a.cfg.DBPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s\nRun 'reposcope index %s' first", errNoIndex, a.cfg.DBPath, a.root)
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	files, chunks, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w at %s\nRun 'reposcope index %s' first", errNoIndex, a.cfg.DBPath, a.root)
	}
	idx := index.New(a.chunker(), completer, index.Options{Workers: a.cfg.Retrieval.Workers, Logger: a.logger})
	idx.Restore(files, chunks)
	return idx, nil
}

// overview returns the saved project overview, or "".
func (a *app) overview() string {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(a.cfg.DBPath), overviewFile))
	if err != nil {
		return ""
	}
	return string(data)
}

// engineOptions are the per-command knobs on top of configuration.
type engineOptions struct {
	language string
	web      bool
	topK     int
}

// engine opens the index and wires the question pipeline around it.
func (a *app) engine(eo engineOptions) (*rag.Engine, error) {
	completer := a.completer()
	idx, err := a.openIndex(completer)
	if err != nil {
		return nil, err
	}
	return a.newEngine(idx, completer, eo), nil
}

func (a *app) newEngine(idx *index.Index, completer llm.Completer, eo engineOptions) *rag.Engine {
	lang := a.cfg.Language
	if eo.language != "" {
		lang = eo.language
	}
	topK := a.cfg.Retrieval.TopK
	if eo.topK > 0 {
		topK = eo.topK
	}
	return rag.NewEngine(idx, completer, rag.Options{
		TopK:         topK,
		Rerank:       a.cfg.Retrieval.Rerank,
		Language:     explain.ParseLanguage(lang),
		UseWebSearch: eo.web,
		RepoContext:  a.overview(),
		Logger:       a.logger,
	})
}

// buildIndex walks the project, rebuilds the index and persists it. model
// overrides the configured model when not empty.
func (a *app) buildIndex(ctx context.Context, model string, progress index.ProgressFunc) (*index.Index, index.Stats, error) {
	if model != "" {
		switch a.cfg.Provider {
		case config.ProviderOpenAI:
			a.cfg.OpenAI.Model = model
		case config.ProviderOllama:
			a.cfg.Ollama.Model = model
		}
	}

	st, err := a.openStore()
	if err != nil {
		return nil, index.Stats{}, err
	}
	defer st.Close()

	if progress != nil {
		progress("Walking files...", 0, 0)
	}
	files, err := walker.Collect(ctx, a.root, walker.Options{})
	if err != nil {
		return nil, index.Stats{}, fmt.Errorf("walk %s: %w", a.root, err)
	}

	// Summaries are only reused when they came from the same model.
	var known func(path, hash string) (string, bool)
	if prev, _ := st.GetMeta(store.MetaModel); prev == a.model() {
		known = st.KnownSummary
	}
	idx := index.New(a.chunker(), a.completer(), index.Options{
		Workers:      a.cfg.Retrieval.Workers,
		KnownSummary: known,
		Logger:       a.logger,
	})
	stats, err := idx.Build(ctx, files, os.DirFS(a.root), progress)
	if err != nil {
		return nil, stats, err
	}

	if progress != nil {
		progress("Saving index...", stats.FilesIndexed, stats.FilesIndexed)
	}
	if err := st.Save(idx.Files(), idx.Chunks()); err != nil {
		return nil, stats, fmt.Errorf("save index: %w", err)
	}
	for k, v := range map[string]string{
		store.MetaRoot:     a.root,
		store.MetaProvider: a.cfg.Provider,
		store.MetaModel:    a.model(),
		store.MetaChunking: a.cfg.Retrieval.Chunking,
	} {
		if err := st.SetMeta(k, v); err != nil {
			return nil, stats, fmt.Errorf("save index metadata: %w", err)
		}
	}
	a.logger.Info("index saved", "files", stats.FilesIndexed, "chunks", stats.ChunksTotal, "db", a.cfg.DBPath)
	return idx, stats, nil
}

// writeOverview generates and saves the project overview.
func (a *app) writeOverview(ctx context.Context, idx *index.Index) (string, error) {
	text, err := idx.Overview(ctx)
	if err != nil {
		return "", err
	}
	path := filepath.Join(filepath.Dir(a.cfg.DBPath), overviewFile)
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write overview: %w", err)
	}
	st, err := a.openStore()
	if err != nil {
		return path, err
	}
	defer st.Close()
	return path, st.SetMeta(store.MetaOverview, strconv.FormatBool(true))
}

// staleReason explains why the stored index no longer matches the
// configuration, or returns "".
func (a *app) staleReason(st *store.SQLiteStore) string {
	checks := []struct{ key, want, label string }{
		{store.MetaProvider, a.cfg.Provider, "provider"},
		{store.MetaModel, a.model(), "model"},
		{store.MetaChunking, a.cfg.Retrieval.Chunking, "chunking"},
	}
	for _, c := range checks {
		got, err := st.GetMeta(c.key)
		if err != nil || got == "" || got == c.want {
			continue
		}
		return fmt.Sprintf("Indexed with %s %q, configured %q. Press r to re-index.", c.label, got, c.want)
	}
	return ""
}
