package rag

import "strings"

// AnswerSystemPrompt is the fixed system instruction for grounded
// answer generation.
const AnswerSystemPrompt = "You are a helpful assistant. Follow the user prompt exactly."

const contextSeparator = "\n\n--\n\n"

// BuildPrompt assembles the grounded prompt: retrieved context first,
// then the question, with an instruction to answer only from context.
func BuildPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant.\n")
	b.WriteString("Answer the question ONLY using the provided context.\n")
	b.WriteString("If the answer is not in the context, say \"I don't know\".\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(contexts, contextSeparator))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
