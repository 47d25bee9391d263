package rag

import (
	"fmt"
	"strings"

	"github.com/DegrassiAaron/meepleai/internal/vectordb"
)

var qaSystemPrompt = `You are MeepleAI, an assistant that answers questions about board-game rules.
Answer using ONLY the rulebook excerpts provided in the context.
If the context does not contain the information needed to answer, reply with exactly "Not specified" instead of guessing.
Keep answers concise and cite page numbers when they appear in the context.`

var explainSystemPrompt = `You are MeepleAI, an assistant that explains board-game rules in depth.
Using ONLY the rulebook excerpts provided in the context, write a clear spoken-style explanation of the requested topic.
If the context does not cover the topic, say so plainly instead of inventing rules.`

var setupSystemPrompt = `You are MeepleAI, an assistant that writes step-by-step setup guides for board games.
Using ONLY the rulebook excerpts provided in the context, produce an ordered setup guide.
Format every step as a line "### Step <number>: <title>" followed by the step's instructions on the next lines.
Mark steps that can be skipped by appending "(Optional)" to the title.`

var chessSystemPrompt = `You are MeepleAI, an assistant that answers questions about chess.
Answer using ONLY the chess knowledge excerpts provided in the context.
If the context does not contain the information needed to answer, reply with exactly "Not specified" instead of guessing.`

// buildContext concatenates retrieved passages with their source labels,
// keeping the gateway's ranking order.
func buildContext(snippets []vectordb.Snippet) string {
	var sb strings.Builder
	for i, s := range snippets {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source: %s, page %d]\n%s", s.SourceID, s.Page, s.Text)
	}
	return sb.String()
}

func buildQAPrompt(query string, snippets []vectordb.Snippet) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(buildContext(snippets))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

func buildExplainPrompt(topic string, snippets []vectordb.Snippet) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(buildContext(snippets))
	sb.WriteString("\n\nTopic to explain: ")
	sb.WriteString(topic)
	sb.WriteString("\n\nExplanation:")
	return sb.String()
}

func buildSetupPrompt(gameTitle string, snippets []vectordb.Snippet) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(buildContext(snippets))
	sb.WriteString("\n\nWrite the setup guide for ")
	sb.WriteString(gameTitle)
	sb.WriteString(".\n\nSetup guide:")
	return sb.String()
}
