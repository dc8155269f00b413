package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagTopK        int
	flagTemperature float64
	flagMaxTokens   int
)

var askCmd = &cobra.Command{
	Use:   "ask <document-id> <question>",
	Short: "Ask a one-shot question about an indexed document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ans, err := a.pipeline.Ask(context.Background(), args[0], args[1], flagTopK, flagTemperature, flagMaxTokens)
		if err != nil {
			return err
		}

		fmt.Println(ans.Answer)
		if len(ans.Sources) > 0 {
			fmt.Println()
			fmt.Println("Sources:")
			for _, src := range ans.Sources {
				fmt.Printf("  %s\n", src.ChunkID)
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.store.ListDocuments()
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("No documents uploaded yet. Run 'askpdf index <file.pdf>' first.")
			return nil
		}
		for _, doc := range docs {
			indexed, err := a.store.HasIndex(doc.ID)
			if err != nil {
				return err
			}
			status := "not indexed"
			if indexed {
				status = "indexed"
			}
			fmt.Printf("%s  %-40s %8d bytes  %s\n", doc.ID, doc.Filename, doc.SizeBytes, status)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().IntVar(&flagTopK, "top-k", 5, "number of chunks to retrieve")
	askCmd.Flags().Float64Var(&flagTemperature, "temperature", 0.7, "sampling temperature")
	askCmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 200, "maximum answer tokens")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(listCmd)
}
