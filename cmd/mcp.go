package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing document question-answering tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s := mcpserver.NewMCPServer("askpdf", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(askDocumentTool(), makeAskHandler(a))
	s.AddTool(listDocumentsTool(), makeListHandler(a))
	s.AddTool(indexDocumentTool(), makeIndexHandler(a))
	s.AddTool(getDocumentTextTool(), makeTextHandler(a))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func askDocumentTool() mcp.Tool {
	return mcp.NewTool("ask_document",
		mcp.WithDescription("Answer a question using only the content of an indexed PDF document. Returns the grounded answer with the chunk IDs it drew from."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document ID as returned by list_documents"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer from the document"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of chunks to retrieve (default 5, max 10)"),
		),
	)
}

func listDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List all uploaded PDF documents with their IDs, sizes, and index status."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func indexDocumentTool() mcp.Tool {
	return mcp.NewTool("index_document",
		mcp.WithDescription("Build or rebuild the vector index for an uploaded document. Must be done before ask_document can answer."),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document ID as returned by list_documents"),
		),
		mcp.WithNumber("chunk_size",
			mcp.Description("Characters per chunk (default from config)"),
		),
		mcp.WithNumber("overlap",
			mcp.Description("Overlapping characters between chunks (default from config)"),
		),
	)
}

func getDocumentTextTool() mcp.Tool {
	return mcp.NewTool("get_document_text",
		mcp.WithDescription("Extract the plain text of an uploaded PDF, truncated to max_chars."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document ID as returned by list_documents"),
		),
		mcp.WithNumber("max_chars",
			mcp.Description("Maximum characters to return (default 2000)"),
		),
	)
}

// --- Handler factories ---

func makeAskHandler(a *app) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		documentID := req.GetString("document_id", "")
		question := req.GetString("question", "")
		if documentID == "" || question == "" {
			return mcp.NewToolResultError("document_id and question are required"), nil
		}
		topK := req.GetInt("top_k", 5)

		ans, err := a.pipeline.Ask(ctx, documentID, question, topK, 0.7, 200)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(ans.Answer)
		if len(ans.Sources) > 0 {
			sb.WriteString("\n\nSources:\n")
			for _, src := range ans.Sources {
				fmt.Fprintf(&sb, "- %s\n", src.ChunkID)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeListHandler(a *app) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := a.store.ListDocuments()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list documents failed: %v", err)), nil
		}
		if len(docs) == 0 {
			return mcp.NewToolResultText("No documents uploaded yet."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Documents (%d)\n\n", len(docs))
		for _, doc := range docs {
			indexed, err := a.store.HasIndex(doc.ID)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("index check failed: %v", err)), nil
			}
			status := "not indexed"
			if indexed {
				status = "indexed"
			}
			fmt.Fprintf(&sb, "- **%s** (`%s`, %d bytes, %s)\n", doc.Filename, doc.ID, doc.SizeBytes, status)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeIndexHandler(a *app) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		documentID := req.GetString("document_id", "")
		if documentID == "" {
			return mcp.NewToolResultError("document_id is required"), nil
		}
		chunkSize := req.GetInt("chunk_size", a.cfg.Chunking.ChunkSize)
		overlap := req.GetInt("overlap", a.cfg.Chunking.Overlap)

		stats, err := a.pipeline.Index(ctx, documentID, chunkSize, overlap)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("index failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Indexed %s: %d chunks, dimension %d, model %s",
			stats.Filename, stats.NumChunks, stats.Dimension, stats.EmbeddingModel)), nil
	}
}

func makeTextHandler(a *app) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		documentID := req.GetString("document_id", "")
		if documentID == "" {
			return mcp.NewToolResultError("document_id is required"), nil
		}
		maxChars := req.GetInt("max_chars", 2000)
		if maxChars <= 0 {
			maxChars = 2000
		}

		doc, err := a.store.GetDocument(documentID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get document failed: %v", err)), nil
		}
		if doc == nil {
			return mcp.NewToolResultError(fmt.Sprintf("document %q not found — call list_documents to see available IDs", documentID)), nil
		}

		text, err := a.extractor.Text(doc.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract failed: %v", err)), nil
		}
		runes := []rune(text)
		if len(runes) > maxChars {
			runes = runes[:maxChars]
		}
		return mcp.NewToolResultText(string(runes)), nil
	}
}
