package cmd

import (
	"askpdf/internal/tui"
)

func runTUI() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(tui.Config{
		Store:       a.store,
		Pipeline:    a.pipeline,
		ChunkSize:   a.cfg.Chunking.ChunkSize,
		Overlap:     a.cfg.Chunking.Overlap,
		TopK:        5,
		Temperature: 0.7,
		MaxTokens:   200,
	})
}
