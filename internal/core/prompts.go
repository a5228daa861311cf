package core

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"healthgenie.io/assistant/internal/store"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Chat contexts handed to the gateway alongside the user's message.
const (
	SymptomLogContext    = "The user is logging a symptom. Acknowledge the symptom log and provide relevant advice."
	GeneralChatContext   = "General health conversation."
	apologyPrefix        = "I apologize, but I'm having trouble processing your request. Please try again. Error: "
	recentSymptomsForLLM = 10
)

type promptSet struct {
	Generate        string `yaml:"generate"`
	DocumentSummary string `yaml:"document_summary"`
	Insights        string `yaml:"insights"`
	SymptomPatterns string `yaml:"symptom_patterns"`
}

// Prompts holds the parsed prompt templates.
type Prompts struct {
	generate        *template.Template
	documentSummary *template.Template
	insights        *template.Template
	symptomPatterns *template.Template
}

var templateFuncs = template.FuncMap{
	"quoteList": quoteList,
}

// LoadPrompts parses a YAML document of prompt templates.
func LoadPrompts(raw []byte) (*Prompts, error) {
	var set promptSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("failed to decode prompts: %w", err)
	}

	p := &Prompts{}
	for _, t := range []struct {
		name string
		text string
		dst  **template.Template
	}{
		{"generate", set.Generate, &p.generate},
		{"document_summary", set.DocumentSummary, &p.documentSummary},
		{"insights", set.Insights, &p.insights},
		{"symptom_patterns", set.SymptomPatterns, &p.symptomPatterns},
	} {
		if strings.TrimSpace(t.text) == "" {
			return nil, fmt.Errorf("prompt %q is missing", t.name)
		}
		tmpl, err := template.New(t.name).Funcs(templateFuncs).Option("missingkey=error").Parse(t.text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %q: %w", t.name, err)
		}
		*t.dst = tmpl
	}
	return p, nil
}

// DefaultPrompts returns the templates embedded in the binary.
func DefaultPrompts() *Prompts {
	p, err := LoadPrompts(promptsYAML)
	if err != nil {
		panic("core: embedded prompts are invalid: " + err.Error())
	}
	return p
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", t.Name(), err)
	}
	return b.String(), nil
}

func (p *Prompts) Generate(prompt, chatContext string) (string, error) {
	return render(p.generate, struct{ Prompt, Context string }{prompt, chatContext})
}

func (p *Prompts) DocumentSummary(text string) (string, error) {
	return render(p.documentSummary, struct{ Text string }{text})
}

func (p *Prompts) Insights(profile store.UserProfile, symptoms []string) (string, error) {
	return render(p.insights, struct {
		Profile  store.UserProfile
		Symptoms []string
	}{profile, symptoms})
}

func (p *Prompts) SymptomPatterns(symptoms []string) (string, error) {
	return render(p.symptomPatterns, struct{ Symptoms []string }{symptoms})
}

// quoteList renders ["a", "b"].
func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// RecentSymptomDescriptions returns the descriptions of the last n entries in
// log order.
func RecentSymptomDescriptions(entries []store.SymptomEntry, n int) []string {
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Description
	}
	return out
}
