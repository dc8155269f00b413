package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"askpdf/internal/config"
	"askpdf/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagChunkSize int
	flagOverlap   int
)

var indexCmd = &cobra.Command{
	Use:   "index <file.pdf>",
	Short: "Upload a PDF and build its vector index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := uuid.NewString()
		dst := filepath.Join(a.cfg.Storage.UploadDir, id+"_"+filepath.Base(src))
		size, err := copyFile(src, dst)
		if err != nil {
			return fmt.Errorf("copy upload: %w", err)
		}

		if err := a.store.SaveDocument(store.DocumentRecord{
			ID:        id,
			Filename:  filepath.Base(src),
			Path:      dst,
			SizeBytes: size,
		}); err != nil {
			os.Remove(dst)
			return fmt.Errorf("save document: %w", err)
		}

		chunkSize, overlap := resolveChunking(a.cfg.Chunking,
			cmd.Flags().Changed("chunk-size"), flagChunkSize,
			cmd.Flags().Changed("overlap"), flagOverlap)

		fmt.Printf("Indexing %s...\n", filepath.Base(src))
		start := time.Now()

		stats, err := a.pipeline.Index(context.Background(), id, chunkSize, overlap)
		if err != nil {
			return err
		}

		fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Document:  %s\n", stats.DocumentID)
		fmt.Printf("  Chunks:    %d (dimension %d)\n", stats.NumChunks, stats.Dimension)
		fmt.Printf("  Model:     %s\n", stats.EmbeddingModel)
		fmt.Printf("\nAsk a question: askpdf ask %s \"...\"\n", stats.DocumentID)
		return nil
	},
}

// resolveChunking falls back to config only for flags the user never
// set, so an explicit bad value still reaches the chunker's validation.
func resolveChunking(cfg config.ChunkingConfig, sizeSet bool, size int, overlapSet bool, overlap int) (int, int) {
	if !sizeSet {
		size = cfg.ChunkSize
	}
	if !overlapSet {
		overlap = cfg.Overlap
	}
	return size, overlap
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, nil
}

func init() {
	indexCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "characters per chunk (default from config)")
	indexCmd.Flags().IntVar(&flagOverlap, "overlap", 0, "overlapping characters between chunks (default from config)")
	rootCmd.AddCommand(indexCmd)
}
