package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"reposcope/internal/config"
	"reposcope/internal/index"
	"reposcope/internal/llm"
	"reposcope/internal/logging"
	"reposcope/internal/rag"
	"reposcope/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}
	a, err := loadApp(root, io.Discard)
	if err != nil {
		return err
	}
	// The screen belongs to the UI, so logs go to a file.
	logger, logFile, err := logging.NewFile(filepath.Join(root, config.DirName, "reposcope.log"), a.level)
	if err != nil {
		return err
	}
	defer logFile.Close()
	a.logger = logger
	return tui.Run(tui.Config{Root: root, Backend: &tuiBackend{app: a}})
}

// tuiBackend serves the interactive screens from the stored index.
type tuiBackend struct {
	app *app

	mu     sync.Mutex
	engine *rag.Engine
}

func (b *tuiBackend) Status(ctx context.Context) (tui.IndexStatus, error) {
	a := b.app
	if _, err := os.Stat(a.cfg.DBPath); errors.Is(err, os.ErrNotExist) {
		return tui.IndexStatus{}, nil
	}
	st, err := a.openStore()
	if err != nil {
		return tui.IndexStatus{}, err
	}
	defer st.Close()

	counts, err := st.Counts()
	if err != nil {
		return tui.IndexStatus{}, fmt.Errorf("read index: %w", err)
	}
	return tui.IndexStatus{
		Ready:       counts.Chunks > 0,
		Files:       counts.Files,
		Chunks:      counts.Chunks,
		StaleReason: a.staleReason(st),
	}, nil
}

func (b *tuiBackend) Models(ctx context.Context) ([]llm.OllamaModel, error) {
	if b.app.cfg.Provider != config.ProviderOllama {
		return nil, nil
	}
	return llm.ListOllamaModels(ctx, b.app.cfg.Ollama.URL)
}

func (b *tuiBackend) Index(ctx context.Context, model string, progress index.ProgressFunc) (index.Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, stats, err := b.app.buildIndex(ctx, model, progress)
	if err != nil {
		return stats, err
	}
	b.engine = b.app.newEngine(idx, b.app.completer(), engineOptions{})
	return stats, nil
}

func (b *tuiBackend) Ask(ctx context.Context, question string) ([]rag.Answer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.engine == nil {
		eng, err := b.app.engine(engineOptions{})
		if err != nil {
			return nil, err
		}
		b.engine = eng
	}
	return b.engine.Ask(ctx, question), nil
}
