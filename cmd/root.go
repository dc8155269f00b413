package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"askpdf/internal/config"
	"askpdf/internal/embedder"
	"askpdf/internal/extract"
	"askpdf/internal/llm"
	"askpdf/internal/logging"
	"askpdf/internal/rag"
	"askpdf/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "askpdf",
	Short: "Ask questions about your PDF documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
}

// app bundles the wired components every command needs.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *store.SQLiteStore
	extractor extract.PDF
	embedder  *embedder.OpenAIEmbedder
	generator *llm.OpenAIChat
	pipeline  *rag.Pipeline
}

func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("no OpenAI API key configured\nSet OPENAI_API_KEY or openai.api_key in the config file")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ex := extract.PDF{}
	emb := embedder.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.EmbedModel)
	gen := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		extractor: ex,
		embedder:  emb,
		generator: gen,
		pipeline:  rag.New(st, ex, emb, gen, logger),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.logger.Sync()
}
