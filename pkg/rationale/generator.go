// Package rationale turns a structured expansion suggestion into a short
// narrative rationale using the Anthropic API. Failures degrade to a
// template sentence so rationale generation never blocks scoring output.
package rationale

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
)

const systemPrompt = `You are a retail expansion analyst. Given a scored
candidate location, write a concise 2-3 sentence rationale for a regional
manager. Mention the dominant driver and any material risks. Plain prose,
no markdown, no hedging filler.`

// Generator produces a human-readable rationale for a suggestion.
type Generator interface {
	Narrative(ctx context.Context, s *model.StrategicSuggestion) (string, error)
}

type generator struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// New creates an Anthropic-backed rationale generator.
func New(cfg config.AnthropicConfig) Generator {
	return &generator{
		client:    sdk.NewClient(option.WithAPIKey(cfg.Key)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (g *generator) Narrative(ctx context.Context, s *model.StrategicSuggestion) (string, error) {
	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(describeSuggestion(s))),
		},
	})
	if err != nil {
		zap.L().Warn("rationale: falling back to template", zap.Error(err))
		return FallbackNarrative(s), eris.Wrap(err, "rationale: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return FallbackNarrative(s), nil
	}
	return text, nil
}

// describeSuggestion renders the structured suggestion as prompt input.
func describeSuggestion(s *model.StrategicSuggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate at (%.5f, %.5f). Confidence: %s.\n", s.Lat, s.Lng, s.Confidence)
	fmt.Fprintf(&b, "Dominant strategy: %s. Classification: %s. Weighted total: %.2f.\n",
		s.Breakdown.DominantStrategy, s.Breakdown.Classification, s.Breakdown.WeightedTotal)
	fmt.Fprintf(&b, "Scores: white_space=%.2f economic=%.2f anchor=%.2f cluster=%.2f.\n",
		s.Breakdown.WhiteSpaceScore, s.Breakdown.EconomicScore,
		s.Breakdown.AnchorScore, s.Breakdown.ClusterScore)
	if len(s.Highlights) > 0 {
		fmt.Fprintf(&b, "Highlights: %s.\n", strings.Join(s.Highlights, "; "))
	}
	if len(s.RiskFactors) > 0 {
		fmt.Fprintf(&b, "Risks: %s.\n", strings.Join(s.RiskFactors, "; "))
	}
	return b.String()
}

// FallbackNarrative is the template used when the API is unavailable.
func FallbackNarrative(s *model.StrategicSuggestion) string {
	return fmt.Sprintf("Candidate scores %.0f%% overall (%s confidence); primary driver is the %s strategy.",
		s.Breakdown.WeightedTotal*100, strings.ToLower(string(s.Confidence)), s.Breakdown.DominantStrategy)
}
