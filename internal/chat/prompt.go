package chat

import (
	"strings"

	"github.com/MikeSquared-Agency/pdfchat/internal/llm"
	"github.com/MikeSquared-Agency/pdfchat/internal/session"
)

const systemPrompt = `You are a support AI agent. Use only the PDF data to answer.
If the answer is not in the PDF, say so.
Format responses in Markdown.`

const contextHeader = "FAQ Context:\n"

// BuildPrompt lays out the model input: instructions, prior turns oldest
// first, the new message, then the retrieved context as a trailing system
// message. Blank context is replaced with a placeholder.
func BuildPrompt(history []session.Message, message, context string) []llm.Message {
	if strings.TrimSpace(context) == "" {
		context = emptyContext
	}

	out := make([]llm.Message, 0, len(history)+3)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == session.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	out = append(out,
		llm.Message{Role: llm.RoleUser, Content: message},
		llm.Message{Role: llm.RoleSystem, Content: contextHeader + context},
	)
	return out
}
