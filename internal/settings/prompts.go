package settings

import (
	"context"

	"github.com/bilgisen/postcraft/internal/logger"
)

// DefaultContentGuidelines is used when the CMS has no content generation prompt.
const DefaultContentGuidelines = `Write for a local equipment rental business whose customers are contractors,
landscapers and homeowners. Keep a helpful, professional tone. Every post must promote safe,
appropriate equipment use: never suggest heavy equipment on ice or frozen surfaces, never show
work at height without fall protection, and always mention personal protective equipment where
it applies. End with a soft call to action to reserve the equipment.`

// DefaultSafeAlternativePrompt asks the model for a safe rewrite. {title} and {body} are substituted.
const DefaultSafeAlternativePrompt = `The following social media content was flagged as unsafe:
Title: {title}
Body: {body}

Create a SAFE alternative that:
1. Promotes the same equipment rental
2. Shows appropriate, safe use cases
3. Emphasizes safety and proper applications
4. Avoids dangerous scenarios (no heavy equipment on ice!)

Return only the new, safe body text:`

type promptDocument struct {
	Content string `json:"content"`
}

// ContentPrompt returns the "Content Generation Prompt" guidelines document,
// falling back to DefaultContentGuidelines.
func (l *Loader) ContentPrompt(ctx context.Context) string {
	return l.prompt(ctx,
		`*[_type == "contentPrompt" && title == "Content Generation Prompt"][0]{content}`,
		DefaultContentGuidelines)
}

// SafeAlternativePrompt returns the safe alternative template, falling back to
// DefaultSafeAlternativePrompt.
func (l *Loader) SafeAlternativePrompt(ctx context.Context) string {
	return l.prompt(ctx,
		`*[_type == "contentPrompt" && promptType == "safeAlternativeGeneration"][0]{content}`,
		DefaultSafeAlternativePrompt)
}

func (l *Loader) prompt(ctx context.Context, groq, fallback string) string {
	var doc promptDocument
	found, err := l.store.Query(ctx, groq, nil, &doc)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("Failed to fetch prompt document, using built-in prompt")
		return fallback
	}
	if !found || doc.Content == "" {
		return fallback
	}
	return doc.Content
}
