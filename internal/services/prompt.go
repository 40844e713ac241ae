package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quillhq/rfpdesk-backend/internal/types"
)

// PromptTemplates are overridable from a YAML file (PROMPT_TEMPLATES_PATH);
// the compiled-in defaults are used otherwise. Placeholders use {{name}}.
type PromptTemplates struct {
	PlanSystem   string `yaml:"plan_system"`
	PlanUser     string `yaml:"plan_user"`
	AnswerSystem string `yaml:"answer_system"`
	AnswerUser   string `yaml:"answer_user"`
}

const defaultPlanSystem = `You are a proposal writer planning answers to an RFP questionnaire.
Given the company profile, extracted requirements, reference material and the question list,
allocate source material across questions. Respond with JSON:
{"sufficient": bool, "allocations": [{"question_id": "...", "focus": "...", "target_length": "short|medium|long"}]}.
Set "sufficient" to false when the source material cannot support useful answers.`

const defaultPlanUser = `Company profile:
{{profile}}

Requirements:
{{requirements}}

Reference material:
{{reference_docs}}

Questions:
{{questions}}`

const defaultAnswerSystem = `You are a proposal writer. Answer the single question below using only the
provided source material and the allocation focus. Write the answer text directly, no preamble.`

const defaultAnswerUser = `Question:
{{question}}

Allocation focus: {{focus}}
Target length: {{target_length}}

Company profile:
{{profile}}

Requirements:
{{requirements}}

Reference material:
{{reference_docs}}`

func DefaultPromptTemplates() PromptTemplates {
	return PromptTemplates{
		PlanSystem:   defaultPlanSystem,
		PlanUser:     defaultPlanUser,
		AnswerSystem: defaultAnswerSystem,
		AnswerUser:   defaultAnswerUser,
	}
}

// LoadPromptTemplates reads overrides from path; empty fields keep their
// defaults. An empty path returns the defaults unchanged.
func LoadPromptTemplates(path string) (PromptTemplates, error) {
	templates := DefaultPromptTemplates()
	if path == "" {
		return templates, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return templates, fmt.Errorf("read prompt templates: %w", err)
	}
	var overrides PromptTemplates
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return templates, fmt.Errorf("parse prompt templates: %w", err)
	}
	if overrides.PlanSystem != "" {
		templates.PlanSystem = overrides.PlanSystem
	}
	if overrides.PlanUser != "" {
		templates.PlanUser = overrides.PlanUser
	}
	if overrides.AnswerSystem != "" {
		templates.AnswerSystem = overrides.AnswerSystem
	}
	if overrides.AnswerUser != "" {
		templates.AnswerUser = overrides.AnswerUser
	}
	return templates, nil
}

func renderTemplate(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func renderProfile(fields map[string]*string) string {
	if len(fields) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for k, v := range fields {
		b.WriteString("- " + k + ": ")
		if v != nil {
			b.WriteString(*v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderRequirements(items []*types.Requirement) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, r := range items {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", r.ID, r.Title, r.Content)
	}
	return b.String()
}

func renderReferenceDocs(items []*types.ReferenceDoc) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, d := range items {
		fmt.Fprintf(&b, "### %s\n%s\n", d.FileName, d.ExtractedText)
	}
	return b.String()
}

func renderQuestions(items []*types.Question) string {
	var b strings.Builder
	for i, q := range items {
		fmt.Fprintf(&b, "%d. [%s] %s\n%s\n", i+1, q.ID, q.Title, q.Body)
	}
	return b.String()
}

// BuildPlanPrompt renders the phase-1 planning call covering the whole group.
func (t PromptTemplates) BuildPlanPrompt(snapshot *ProjectSnapshot, questions []*types.Question) (system string, user string) {
	user = renderTemplate(t.PlanUser, map[string]string{
		"profile":        renderProfile(snapshot.ProfileFields),
		"requirements":   renderRequirements(snapshot.Requirements),
		"reference_docs": renderReferenceDocs(snapshot.ReferenceDocs),
		"questions":      renderQuestions(questions),
	})
	return t.PlanSystem, user
}

// BuildAnswerPrompt renders the phase-2 per-question generation call.
func (t PromptTemplates) BuildAnswerPrompt(snapshot *ProjectSnapshot, question *types.Question, allocation PlanAllocation) (system string, user string) {
	user = renderTemplate(t.AnswerUser, map[string]string{
		"question":       question.Title + "\n" + question.Body,
		"focus":          allocation.Focus,
		"target_length":  allocation.TargetLength,
		"profile":        renderProfile(snapshot.ProfileFields),
		"requirements":   renderRequirements(snapshot.Requirements),
		"reference_docs": renderReferenceDocs(snapshot.ReferenceDocs),
	})
	return t.AnswerSystem, user
}
