package rag

import (
	"bufio"
	"context"
	"log/slog"
	"strings"

	"github.com/DegrassiAaron/meepleai/apimodels"
	"github.com/DegrassiAaron/meepleai/internal/cache"
	"github.com/DegrassiAaron/meepleai/internal/vectordb"
)

const (
	unknownGameTitle = "Unknown Game"

	// stepHeaderPrefix is the line shape the setup prompt instructs the
	// model to emit for each step.
	stepHeaderPrefix = "### Step"

	// optionalMarker flags skippable steps in generated titles. It is
	// stripped from the stored title.
	optionalMarker = "(optional)"

	// instructionMaxChars caps each step's instruction text.
	instructionMaxChars = 500
)

// GenerateSetupGuide builds an ordered setup checklist for a game. An
// unknown game id yields the default generic guide; a generation
// failure falls back to the same default steps for the resolved title.
func (e *Engine) GenerateSetupGuide(ctx context.Context, gameID string) (resp *apimodels.SetupGuideResponse) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Setup-guide pipeline panicked", "gameId", gameID, "panic", r)
			resp = defaultGuide(unknownGameTitle)
		}
	}()

	title, known := e.catalog.Resolve(gameID)
	if !known {
		slog.Info("Unknown game id, returning default guide", "gameId", gameID)
		return defaultGuide(unknownGameTitle)
	}

	query := "How do I set up " + title + "?"

	key := cache.Key(cache.EndpointSetup, gameID, query)
	var cached apimodels.SetupGuideResponse
	if e.cache.Get(ctx, key, &cached) {
		slog.Debug("Setup-guide cache hit", "gameId", gameID, "key", key)
		return &cached
	}

	vectors, err := e.embedder.Embed(ctx, query)
	if err != nil || len(vectors) == 0 {
		if err != nil {
			slog.Error("Embedding failed", "gameId", gameID, "error", err)
		}
		return defaultGuide(title)
	}

	if ctx.Err() != nil {
		return defaultGuide(title)
	}

	snippets, err := e.search.Search(ctx, searchRequest(gameID, vectors[0], topKSetup, ""))
	if err != nil {
		slog.Error("Vector search failed", "gameId", gameID, "error", err)
		return defaultGuide(title)
	}
	if len(snippets) == 0 {
		slog.Info("No passages retrieved for setup, skipping generation", "gameId", gameID)
		return defaultGuide(title)
	}

	if ctx.Err() != nil {
		return defaultGuide(title)
	}

	gen, err := e.llm.Complete(ctx, setupSystemPrompt, buildSetupPrompt(title, snippets))
	if err != nil {
		slog.Error("Generation failed", "gameId", gameID, "error", err)
		return defaultGuide(title)
	}

	steps := parseSteps(gen.Content)
	distributeReferences(steps, snippets)

	resp = &apimodels.SetupGuideResponse{
		GameTitle:        title,
		Steps:            steps,
		PromptTokens:     gen.Usage.PromptTokens,
		CompletionTokens: gen.Usage.CompletionTokens,
		TotalTokens:      gen.Usage.TotalTokens,
		Confidence:       confidenceOf(snippets),
		Metadata:         gen.Metadata,
	}

	e.cache.Set(ctx, key, resp, e.ttl)
	return resp
}

// parseSteps scans the generated text line by line with two states:
// seeking a step header, then accumulating instruction lines until the
// next header. Step numbers are reassigned sequentially from 1 no
// matter what numbering the raw text carries. Unparseable output
// yields an empty step list.
func parseSteps(raw string) []apimodels.SetupStep {
	steps := []apimodels.SetupStep{}
	var current *apimodels.SetupStep
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Instruction = truncateWithEllipsis(
			strings.TrimSpace(strings.Join(body, "\n")), instructionMaxChars)
		steps = append(steps, *current)
		current = nil
		body = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()

		title, ok := parseStepHeader(line)
		if !ok {
			if current != nil {
				body = append(body, line)
			}
			continue
		}

		flush()

		step := apimodels.SetupStep{
			StepNumber: len(steps) + 1,
			References: []apimodels.Snippet{},
		}
		step.Title, step.IsOptional = stripOptionalMarker(title)
		current = &step
	}
	flush()

	return steps
}

// parseStepHeader recognizes lines of the form "### Step <n>: <title>".
// The embedded number is ignored; only the title is kept.
func parseStepHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, stepHeaderPrefix) {
		return "", false
	}

	rest := strings.TrimSpace(trimmed[len(stepHeaderPrefix):])
	_, title, found := strings.Cut(rest, ":")
	if !found {
		return "", false
	}

	return strings.TrimSpace(title), true
}

// stripOptionalMarker removes the optional marker from a title,
// reporting whether it was present.
func stripOptionalMarker(title string) (string, bool) {
	lower := strings.ToLower(title)
	idx := strings.Index(lower, optionalMarker)
	if idx < 0 {
		return title, false
	}

	stripped := title[:idx] + title[idx+len(optionalMarker):]
	return strings.TrimSpace(stripped), true
}

// distributeReferences hands the retrieved passages to the steps in
// contiguous, non-overlapping blocks: the first block to step 1, the
// next to step 2, and so on. Steps beyond the available passages keep
// an empty reference list.
func distributeReferences(steps []apimodels.SetupStep, snippets []vectordb.Snippet) {
	if len(steps) == 0 || len(snippets) == 0 {
		return
	}

	refs := toAPISnippets(snippets)
	block := (len(refs) + len(steps) - 1) / len(steps)
	if block < 1 {
		block = 1
	}

	for i := range steps {
		start := i * block
		if start >= len(refs) {
			break
		}
		end := start + block
		if end > len(refs) {
			end = len(refs)
		}
		steps[i].References = refs[start:end]
	}
}

// defaultGuide is the fixed five-step generic checklist used when the
// game is unknown or the pipeline cannot produce a real guide.
func defaultGuide(title string) *apimodels.SetupGuideResponse {
	generic := []struct {
		title       string
		instruction string
	}{
		{"Read the rulebook", "Skim the rulebook once to get familiar with the components and the flow of play."},
		{"Gather the components", "Unbox all components and check them against the component list."},
		{"Prepare the play area", "Lay out the board or play area so every player can reach it."},
		{"Set up player areas", "Give each player their starting pieces, cards, or resources."},
		{"Determine the first player", "Pick a first player using the rulebook's method, or choose randomly."},
	}

	steps := make([]apimodels.SetupStep, len(generic))
	for i, g := range generic {
		steps[i] = apimodels.SetupStep{
			StepNumber:  i + 1,
			Title:       g.title,
			Instruction: g.instruction,
			References:  []apimodels.Snippet{},
		}
	}

	return &apimodels.SetupGuideResponse{
		GameTitle: title,
		Steps:     steps,
	}
}
