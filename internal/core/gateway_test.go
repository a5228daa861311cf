package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthgenie.io/assistant/internal/metrics"
	"healthgenie.io/assistant/internal/store"
)

// fakeCompleter records prompts and answers with reply or err.
type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func TestGenerateWrapsPromptAndContext(t *testing.T) {
	fc := &fakeCompleter{reply: "Drink water."}
	g := NewGateway(fc, nil, nil)

	reply := g.Generate(context.Background(), "I have a headache", SymptomLogContext)

	assert.Equal(t, "Drink water.", reply)
	prompt := fc.lastPrompt()
	assert.Contains(t, prompt, "You are HealthGenie")
	assert.Contains(t, prompt, "Context: "+SymptomLogContext)
	assert.Contains(t, prompt, "User Query: I have a headache")
	assert.Contains(t, prompt, "consulting healthcare professionals")
}

func TestGenerateFailureBecomesApology(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("quota exceeded")}
	m := metrics.MustNewMetrics(prometheus.NewRegistry())
	g := NewGateway(fc, nil, m)

	reply := g.Generate(context.Background(), "hello", GeneralChatContext)

	assert.Equal(t, apologyPrefix+"quota exceeded", reply)
	assert.Contains(t, reply, "I apologize")
}

type panickingCompleter struct{}

func (panickingCompleter) Complete(context.Context, string) (string, error) {
	panic("malformed response")
}

func TestGeneratePanicBecomesApology(t *testing.T) {
	m := metrics.MustNewMetrics(prometheus.NewRegistry())
	g := NewGateway(panickingCompleter{}, nil, m)

	var reply string
	require.NotPanics(t, func() {
		reply = g.Generate(context.Background(), "hi", "")
	})
	assert.Equal(t, apologyPrefix+"malformed response", reply)

	summary := g.SummarizeDocument(context.Background(), "text")
	assert.Equal(t, apologyPrefix+"malformed response", summary)
}

func TestDerivedCallsUseTheirTemplates(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	g := NewGateway(fc, nil, nil)
	ctx := context.Background()

	assert.Equal(t, "ok", g.SummarizeDocument(ctx, "Hemoglobin 13.5 g/dL"))
	assert.Contains(t, fc.lastPrompt(), "Medical Document Text:\nHemoglobin 13.5 g/dL")
	assert.Contains(t, fc.lastPrompt(), "You are HealthGenie")

	profile := store.UserProfile{Age: "42", Allergies: "penicillin"}
	symptoms := []store.SymptomEntry{{Description: "headache"}, {Description: "tired"}}
	g.HealthInsights(ctx, profile, symptoms)
	prompt := fc.lastPrompt()
	assert.Contains(t, prompt, "- Age: 42")
	assert.Contains(t, prompt, "- Health Conditions: None specified")
	assert.Contains(t, prompt, "- Allergies: penicillin")
	assert.Contains(t, prompt, "- Lifestyle: Not specified")
	assert.Contains(t, prompt, `Recent Symptoms: ["headache", "tired"]`)

	g.AnalyzeSymptomPatterns(ctx, symptoms)
	assert.Contains(t, fc.lastPrompt(), "Analyze these recent symptoms for patterns")
	assert.Contains(t, fc.lastPrompt(), `["headache", "tired"]`)
}

func TestDerivedCallFailureBecomesApology(t *testing.T) {
	g := NewGateway(&fakeCompleter{err: errors.New("offline")}, nil, nil)

	summary := g.SummarizeDocument(context.Background(), "text")

	assert.Equal(t, apologyPrefix+"offline", summary)
}

func TestRecentSymptomDescriptionsKeepsLastTen(t *testing.T) {
	var entries []store.SymptomEntry
	for i := 0; i < 12; i++ {
		entries = append(entries, store.SymptomEntry{Description: string(rune('a' + i))})
	}

	got := RecentSymptomDescriptions(entries, recentSymptomsForLLM)

	require.Len(t, got, 10)
	assert.Equal(t, "c", got[0])
	assert.Equal(t, "l", got[9])
}

func TestLoadPromptsRejectsMissingTemplate(t *testing.T) {
	_, err := LoadPrompts([]byte("generate: hi\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document_summary")
}
