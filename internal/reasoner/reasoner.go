// Package reasoner produces remediation recommendations for violations and
// answers free-text compliance questions. When an API key is configured it
// consults Gemini through the genai client; otherwise a deterministic
// rule-based fallback produces the same shape of output.
package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"compdash/internal/config"
	"compdash/internal/detect"
	"compdash/internal/logging"
	"compdash/internal/rag"
	"compdash/internal/store"
)

// Autonomy states whether a recommended action may run unattended.
type Autonomy string

const (
	AutonomyAutonomous Autonomy = "AUTONOMOUS"
	AutonomyHumanGated Autonomy = "HUMAN_APPROVAL_REQUIRED"
)

// Analysis is the reasoner's verdict on one violation.
type Analysis struct {
	ViolationID       string          `json:"violation_id"`
	Explanation       string          `json:"explanation"`
	RegulationRef     string          `json:"regulation_reference"`
	Severity          detect.Severity `json:"risk_severity"`
	RecommendedAction string          `json:"recommended_action"`
	Autonomy          Autonomy        `json:"autonomy_level"`
}

// Answer is a response to a free-text compliance question.
type Answer struct {
	Question string
	Markdown string // rendered by the query page through glamour
	Clauses  []rag.Result
	Took     time.Duration
}

// Cognitive is the reasoning engine.
type Cognitive struct {
	corpus *rag.Corpus
	client *genai.Client
	model  string
	log    *zap.Logger
}

// New builds a reasoner. A missing API key is not an error: the reasoner runs
// in rule-based mode.
func New(ctx context.Context, cfg config.ReasonerConfig, corpus *rag.Corpus) (*Cognitive, error) {
	c := &Cognitive{
		corpus: corpus,
		model:  cfg.Model,
		log:    logging.Get(logging.CategoryReasoner),
	}
	if cfg.APIKey == "" {
		c.log.Info("no API key configured, using rule-based reasoning")
		return c, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.client = client
	return c, nil
}

// Analyze reasons about a violation and returns a remediation recommendation.
func (c *Cognitive) Analyze(ctx context.Context, v store.Violation) (Analysis, error) {
	if c.client == nil {
		return c.ruleAnalyze(v), nil
	}

	results, err := c.corpus.Search(ctx, v.Clause+" "+v.Kind, 3)
	if err != nil {
		return Analysis{}, err
	}
	prompt := buildAnalysisPrompt(v, results)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		c.log.Warn("genai call failed, falling back to rules", zap.Error(err))
		return c.ruleAnalyze(v), nil
	}

	var out Analysis
	if err := json.Unmarshal([]byte(extractJSON(resp.Text())), &out); err != nil {
		c.log.Warn("unparseable reasoner output, falling back to rules", zap.Error(err))
		return c.ruleAnalyze(v), nil
	}
	out.ViolationID = v.ID
	return out, nil
}

// AnswerQuery retrieves relevant clauses and composes a markdown answer.
func (c *Cognitive) AnswerQuery(ctx context.Context, question string) (Answer, error) {
	start := time.Now()
	results, err := c.corpus.Search(ctx, question, 4)
	if err != nil {
		return Answer{}, err
	}

	ans := Answer{Question: question, Clauses: results}

	if c.client != nil && len(results) > 0 {
		prompt := buildQueryPrompt(question, results)
		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
		if err == nil {
			ans.Markdown = resp.Text()
			ans.Took = time.Since(start)
			return ans, nil
		}
		c.log.Warn("genai query failed, composing answer from clauses", zap.Error(err))
	}

	ans.Markdown = composeAnswer(question, results)
	ans.Took = time.Since(start)
	return ans, nil
}

// ruleAnalyze mirrors the deterministic recommendations for each finding kind.
func (c *Cognitive) ruleAnalyze(v store.Violation) Analysis {
	a := Analysis{
		ViolationID:   v.ID,
		RegulationRef: v.Clause,
		Severity:      v.Severity,
	}
	switch v.Kind {
	case "pan":
		a.Explanation = "An unmasked primary account number appeared in plaintext, violating PCI-DSS cardholder data protection requirements."
		a.RecommendedAction = "Mask the PAN to its last four digits, purge the plaintext value from records and logs, and alert the security team for incident review."
		a.Autonomy = AutonomyAutonomous
	case "ssn":
		a.Explanation = "A social security number was exposed, placing consumer personal information at risk under CCPA."
		a.RecommendedAction = "Mask the SSN to its last four digits, encrypt at rest, and review access logs to determine exposure scope."
		a.Autonomy = AutonomyAutonomous
	case "email", "phone", "ip":
		a.Explanation = "Personal data appeared without safeguards, conflicting with GDPR security-of-processing obligations."
		a.RecommendedAction = "Partially mask the value and confirm access controls and retention policy cover this data flow."
		a.Autonomy = AutonomyAutonomous
	case "drivers_license":
		a.Explanation = "A driver's license number was exposed; CCPA requires reasonable security procedures for this identifier."
		a.RecommendedAction = "Redact the identifier and verify the collecting workflow has a documented business purpose."
		a.Autonomy = AutonomyHumanGated
	default:
		a.Explanation = "A policy violation was detected that requires review."
		a.RecommendedAction = "Escalate to the compliance team for manual triage."
		a.Autonomy = AutonomyHumanGated
	}
	return a
}

func buildAnalysisPrompt(v store.Violation, results []rag.Result) string {
	var sb strings.Builder
	sb.WriteString("You are a compliance officer. Analyze this violation and respond with JSON only, keys: explanation, regulation_reference, risk_severity, recommended_action, autonomy_level.\n\n")
	fmt.Fprintf(&sb, "Violation: %s\nFramework: %s\nKind: %s\nSource: %s/%s\nSeverity: %s\n\nRelevant regulation text:\n",
		v.Description, v.Framework, v.Kind, v.SourceType, v.SourceID, v.Severity)
	for _, r := range results {
		fmt.Fprintf(&sb, "- [%s] %s\n", r.Clause.Ref, r.Clause.Text)
	}
	return sb.String()
}

func buildQueryPrompt(question string, results []rag.Result) string {
	var sb strings.Builder
	sb.WriteString("Answer the compliance question using only the regulation excerpts below. Respond in concise markdown and cite clause references.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\nExcerpts:\n", question)
	for _, r := range results {
		fmt.Fprintf(&sb, "- [%s] %s\n", r.Clause.Ref, r.Clause.Text)
	}
	return sb.String()
}

// composeAnswer builds a retrieval-only markdown answer when no model is
// available.
func composeAnswer(question string, results []rag.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("## No matching regulation text\n\nNo clause in the corpus matches %q. Try naming the data type (PAN, SSN, email) or the regulation.", question)
	}
	var sb strings.Builder
	sb.WriteString("## Relevant regulation clauses\n\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "**%s** (relevance %.0f%%)\n\n%s\n\n", r.Clause.Ref, r.Score*100, r.Clause.Text)
	}
	sb.WriteString("---\n*Retrieval-only answer; configure an API key for synthesized guidance.*\n")
	return sb.String()
}

// extractJSON strips markdown fences a model may wrap around a JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			return s[i : j+1]
		}
	}
	return s
}
