package safety

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bilgisen/postcraft/internal/ai"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/settings"
)

// ErrNoAlternative is returned when flagged content could not be rewritten.
var ErrNoAlternative = errors.New("safe alternative could not be generated")

const (
	IssueIce     = "DANGER: Recommends using heavy equipment on ice - extreme fall-through risk"
	IssueHeight  = "WARNING: Contains height-related activities without safety mentions"
	IssueWeather = "WARNING: Recommends equipment use in dangerous weather conditions"
	IssueAIIce   = "AI detected ice safety concerns"
)

// Result is the outcome of a safety check. SafeAlternative is set only when Safe is false.
type Result struct {
	Safe            bool
	Issues          []string
	SafeAlternative string
}

func words(terms ...string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

var (
	iceTerms     = words("ice", "iced", "icy", "frozen", "winter lake", "ice fishing", "frozen pond")
	heavyTerms   = words("mini-excavator", "mini excavator", "skid steer", "excavator", "bulldozer", "compactor")
	heightTerms  = words("roof", "ladder", "elevated", "climbing", "overhead")
	weatherTerms = words("storm", "high wind", "high winds", "lightning", "severe weather")
)

const reviewPrompt = `Based on these content guidelines:
---
%s
---
Analyze this social media content for potential safety issues or dangerous recommendations:
"%s"

Check for:
1. Heavy equipment on ice/frozen surfaces (extremely dangerous - equipment can fall through)
2. Equipment use without proper safety measures
3. Dangerous work environments
4. Improper equipment applications
5. Weather-related safety concerns

Respond with ONLY a JSON array of specific safety concerns, or an empty array [] if safe.
Be very strict about ice safety - NO heavy equipment should EVER be on ice.`

type Validator struct {
	model               ai.TextModel
	guidelines          string
	alternativeTemplate string
}

type Option func(*Validator)

// WithGuidelines sets the content guidelines quoted in the AI review prompt.
func WithGuidelines(g string) Option {
	return func(v *Validator) {
		if g != "" {
			v.guidelines = g
		}
	}
}

// WithAlternativeTemplate sets the rewrite prompt; {title} and {body} are substituted.
func WithAlternativeTemplate(t string) Option {
	return func(v *Validator) {
		if t != "" {
			v.alternativeTemplate = t
		}
	}
}

// NewValidator builds a validator. A nil model limits checks to keyword rules.
func NewValidator(model ai.TextModel, opts ...Option) *Validator {
	v := &Validator{
		model:               model,
		guidelines:          settings.DefaultContentGuidelines,
		alternativeTemplate: settings.DefaultSafeAlternativePrompt,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Check validates a draft and, when it is flagged, asks the model for a safe body.
// The error is non-nil only when flagged content could not be rewritten.
func (v *Validator) Check(ctx context.Context, title, body string) (Result, error) {
	issues := KeywordIssues(title, body)
	issues = append(issues, v.reviewWithModel(ctx, title+" "+body)...)

	if len(issues) == 0 {
		return Result{Safe: true}, nil
	}

	logger.Get().Warn().Strs("issues", issues).Str("title", title).Msg("Content flagged by safety check")
	res := Result{Issues: issues}

	alt, err := v.SafeAlternative(ctx, title, body)
	if err != nil {
		return res, err
	}
	res.SafeAlternative = alt
	return res, nil
}

// KeywordIssues applies the fixed keyword rules.
func KeywordIssues(title, body string) []string {
	content := title + " " + body
	var issues []string
	if iceTerms.MatchString(content) && heavyTerms.MatchString(content) {
		issues = append(issues, IssueIce)
	}
	if heightTerms.MatchString(content) {
		issues = append(issues, IssueHeight)
	}
	if weatherTerms.MatchString(content) {
		issues = append(issues, IssueWeather)
	}
	return issues
}

// reviewWithModel returns the model's concerns. Model failures yield none.
func (v *Validator) reviewWithModel(ctx context.Context, content string) []string {
	if v.model == nil {
		return nil
	}

	resp, err := v.model.GenerateText(ctx, fmt.Sprintf(reviewPrompt, v.guidelines, strings.ReplaceAll(content, `"`, `'`)))
	if err != nil {
		logger.Get().Warn().Err(err).Msg("AI safety review failed, using keyword rules only")
		return nil
	}

	var concerns []string
	if err := json.Unmarshal([]byte(ai.StripFences(resp)), &concerns); err != nil {
		lower := strings.ToLower(resp)
		if strings.Contains(lower, "ice") && (strings.Contains(lower, "danger") || strings.Contains(lower, "unsafe")) {
			return []string{IssueAIIce}
		}
		return nil
	}

	out := concerns[:0]
	for _, c := range concerns {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// SafeAlternative asks the model for a rewritten body.
func (v *Validator) SafeAlternative(ctx context.Context, title, body string) (string, error) {
	if v.model == nil {
		return "", ErrNoAlternative
	}

	prompt := strings.NewReplacer("{title}", title, "{body}", body).Replace(v.alternativeTemplate)
	resp, err := v.model.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoAlternative, err)
	}
	alt := strings.TrimSpace(resp)
	if alt == "" {
		return "", ErrNoAlternative
	}
	return alt, nil
}
