package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bilgisen/postcraft/internal/models"
)

const ellipsis = "..."

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// StripFences removes markdown code fence markers (```json, ```) around a model response.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseIdeas parses a model response holding a JSON array of ideas.
// A single object is accepted as a one-element array.
func ParseIdeas(response string) ([]models.ContentIdea, error) {
	clean := StripFences(response)
	if clean == "" {
		return nil, ErrEmptyResponse
	}

	var ideas []models.ContentIdea
	if strings.HasPrefix(clean, "{") {
		var one models.ContentIdea
		if err := json.Unmarshal([]byte(clean), &one); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		ideas = []models.ContentIdea{one}
	} else if err := json.Unmarshal([]byte(clean), &ideas); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(ideas) == 0 {
		return nil, fmt.Errorf("failed to parse response: no ideas in %q", truncateRunes(clean, 120))
	}
	return ideas, nil
}

// Truncate shortens s to at most limit runes, ending with "..." when cut.
// limit <= 0 means unlimited.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	return truncateRunes(s, limit)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

type PostProcessor struct {
	maxTitleLength int
	minBodyLength  int
}

func NewPostProcessor() *PostProcessor {
	return &PostProcessor{
		maxTitleLength: 100,
		minBodyLength:  10,
	}
}

// ProcessIdea validates and cleans one generated idea; fallback fills an empty pillar.
func (p *PostProcessor) ProcessIdea(idea *models.ContentIdea, fallback models.Pillar) error {
	idea.Title = p.cleanText(idea.Title)
	idea.Body = p.cleanBody(idea.Body)

	if idea.Title == "" {
		return fmt.Errorf("missing required field: title")
	}
	if len([]rune(idea.Body)) < p.minBodyLength {
		return fmt.Errorf("body too short, minimum %d characters required", p.minBodyLength)
	}

	idea.Title = truncateRunes(idea.Title, p.maxTitleLength)

	if pillar, ok := models.ParsePillar(idea.Pillar); ok {
		idea.Pillar = string(pillar)
	} else {
		idea.Pillar = string(fallback)
	}

	keywords := idea.Keywords[:0]
	for _, kw := range idea.Keywords {
		if kw = p.cleanText(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	idea.Keywords = keywords
	return nil
}

// cleanText removes control characters and normalizes whitespace
func (p *PostProcessor) cleanText(s string) string {
	s = controlChars.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Join(strings.Fields(s), " ")
}

// cleanBody keeps paragraph breaks but drops control characters and script tags.
func (p *PostProcessor) cleanBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = scriptTags.ReplaceAllString(s, "")
	s = controlChars.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var scriptTags = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
