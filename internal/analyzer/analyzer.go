package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"docintake/internal/llm"
	"docintake/internal/model"
)

// ErrAnalysis marks a failed model call or an unparseable model response.
var ErrAnalysis = errors.New("document analysis failed")

// DefaultSummary replaces a summary the model left out.
const DefaultSummary = "No summary provided"

// Analysis is the structured result of analysing a document.
type Analysis struct {
	Summary     string
	ActionItems []model.ActionItem
	Tags        []string
}

// DocumentAnalyzer summarises documents and answers questions about them.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
	Ask(ctx context.Context, text, question string) (string, error)
}

// Analyzer implements DocumentAnalyzer on top of an llm.Client.
type Analyzer struct {
	client  llm.Client
	timeout time.Duration
	schema  *jsonschema.Schema
	log     *zap.Logger
	now     func() time.Time
}

var _ DocumentAnalyzer = (*Analyzer)(nil)

// New compiles the response schema once. A zero timeout means no extra bound
// beyond the caller's context.
func New(client llm.Client, timeout time.Duration, log *zap.Logger) (*Analyzer, error) {
	schema, err := compileSchema(analysisSchema)
	if err != nil {
		return nil, err
	}
	return &Analyzer{client: client, timeout: timeout, schema: schema, log: log, now: time.Now}, nil
}

// Analyze asks the model for a summary, action items and tags.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Analysis, error) {
	reply, err := a.complete(ctx, buildAnalyzePrompt(text, a.now()))
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(reply)
	if err != nil {
		a.log.Warn("analysis_parse_failed", zap.Error(err), zap.Int("reply_bytes", len(reply)))
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}
	if err := validate(a.schema, raw); err != nil {
		a.log.Warn("analysis_schema_invalid", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	var resp analysisResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode analysis: %v", ErrAnalysis, err)
	}
	return resp.normalize(), nil
}

// Ask returns the model's free-text answer, trimmed.
func (a *Analyzer) Ask(ctx context.Context, text, question string) (string, error) {
	reply, err := a.complete(ctx, buildAskPrompt(text, question))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	start := time.Now()
	reply, err := a.client.Complete(ctx, prompt)
	if err != nil {
		a.log.Error("llm_call_failed",
			zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return "", fmt.Errorf("%w: llm call: %w", ErrAnalysis, err)
	}
	return reply, nil
}

type analysisResponse struct {
	Summary     json.RawMessage `json:"summary"`
	ActionItems []struct {
		Task     *string `json:"task"`
		DueDate  *string `json:"dueDate"`
		Priority *string `json:"priority"`
	} `json:"actionItems"`
	Tags []string `json:"tags"`
}

func (r analysisResponse) normalize() *Analysis {
	out := &Analysis{
		Summary:     summaryText(r.Summary),
		ActionItems: make([]model.ActionItem, 0, len(r.ActionItems)),
		Tags:        make([]string, 0, len(r.Tags)),
	}
	for _, it := range r.ActionItems {
		task := strings.TrimSpace(deref(it.Task))
		if task == "" {
			continue
		}
		item := model.ActionItem{Task: task, DueDate: strings.TrimSpace(deref(it.DueDate))}
		if p := model.Priority(strings.ToLower(strings.TrimSpace(deref(it.Priority)))); p.Valid() {
			item.Priority = p
		}
		out.ActionItems = append(out.ActionItems, item)
	}
	seen := make(map[string]struct{}, len(r.Tags))
	for _, tag := range r.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(tag)]; dup {
			continue
		}
		seen[strings.ToLower(tag)] = struct{}{}
		out.Tags = append(out.Tags, tag)
	}
	return out
}

func summaryText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultSummary
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return DefaultSummary
		}
		return s
	}
	var bullets []string
	if err := json.Unmarshal(raw, &bullets); err == nil && len(bullets) > 0 {
		lines := make([]string, 0, len(bullets))
		for _, b := range bullets {
			if b = strings.TrimSpace(b); b != "" {
				lines = append(lines, "- "+strings.TrimLeft(b, "-• "))
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n")
		}
	}
	return DefaultSummary
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// extractJSON returns the JSON object embedded in a model reply. A fenced
// ```json block wins; otherwise the first '{' that starts a well-formed object.
func extractJSON(reply string) ([]byte, error) {
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) && strings.HasPrefix(candidate, "{") {
			return []byte(candidate), nil
		}
	}
	for i := 0; i < len(reply); i++ {
		if reply[i] != '{' {
			continue
		}
		var obj json.RawMessage
		dec := json.NewDecoder(strings.NewReader(reply[i:]))
		if err := dec.Decode(&obj); err == nil {
			return obj, nil
		}
	}
	return nil, errors.New("no JSON object found in model response")
}
