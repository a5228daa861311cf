package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"healthgenie.io/assistant/internal/logging"
	"healthgenie.io/assistant/internal/metrics"
	"healthgenie.io/assistant/internal/store"
)

// Gateway is the only path to the completion service. Its methods never
// return an error: failures come back as an apology string carrying the
// error detail.
type Gateway struct {
	completer Completer
	prompts   *Prompts
	metrics   *metrics.Metrics
}

func NewGateway(completer Completer, prompts *Prompts, m *metrics.Metrics) *Gateway {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &Gateway{
		completer: completer,
		prompts:   prompts,
		metrics:   m,
	}
}

// Generate wraps prompt and chatContext in the HealthGenie preamble and returns
// the model's text.
func (g *Gateway) Generate(ctx context.Context, prompt, chatContext string) string {
	return g.generate(ctx, "chat", prompt, chatContext)
}

func (g *Gateway) generate(ctx context.Context, kind, prompt, chatContext string) (reply string) {
	defer logging.LogDuration(ctx, "gateway_"+kind)()
	log := logging.FromContext(ctx)

	// Client libraries panic on some malformed responses.
	defer func() {
		if r := recover(); r != nil {
			log.Error("Completion panicked", zap.String("kind", kind), zap.Any("panic", r))
			g.metrics.ObserveCompletion(kind, 0, fmt.Errorf("panic: %v", r))
			reply = apologyPrefix + fmt.Sprint(r)
		}
	}()

	fullPrompt, err := g.prompts.Generate(prompt, chatContext)
	if err != nil {
		log.Error("Failed to build prompt", zap.String("kind", kind), zap.Error(err))
		return apologyPrefix + err.Error()
	}

	start := time.Now()
	text, err := g.completer.Complete(ctx, fullPrompt)
	g.metrics.ObserveCompletion(kind, time.Since(start), err)
	if err != nil {
		log.Warn("Completion failed", zap.String("kind", kind), zap.Error(err))
		return apologyPrefix + err.Error()
	}
	return text
}

// SummarizeDocument asks for a patient-friendly summary of document text.
func (g *Gateway) SummarizeDocument(ctx context.Context, text string) string {
	prompt, err := g.prompts.DocumentSummary(text)
	if err != nil {
		return apologyPrefix + err.Error()
	}
	return g.generate(ctx, "document_summary", prompt, "")
}

// HealthInsights asks for nutrition, sleep, hydration and activity advice
// tailored to the profile and the last ten symptoms.
func (g *Gateway) HealthInsights(ctx context.Context, profile store.UserProfile, symptoms []store.SymptomEntry) string {
	prompt, err := g.prompts.Insights(profile, RecentSymptomDescriptions(symptoms, recentSymptomsForLLM))
	if err != nil {
		return apologyPrefix + err.Error()
	}
	return g.generate(ctx, "insights", prompt, "")
}

// AnalyzeSymptomPatterns asks for recurrence, triggers, tracking advice and
// consult thresholds over the last ten symptoms.
func (g *Gateway) AnalyzeSymptomPatterns(ctx context.Context, symptoms []store.SymptomEntry) string {
	prompt, err := g.prompts.SymptomPatterns(RecentSymptomDescriptions(symptoms, recentSymptomsForLLM))
	if err != nil {
		return apologyPrefix + err.Error()
	}
	return g.generate(ctx, "symptom_patterns", prompt, "")
}
