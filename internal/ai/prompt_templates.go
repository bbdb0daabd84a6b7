package ai

import (
	"fmt"
	"strings"

	"github.com/bilgisen/postcraft/internal/models"
)

// ExistingIdea is a previously generated idea the model should not repeat.
type ExistingIdea struct {
	Title string
	Copy  string
}

// IdeaRequest is everything the idea prompt is built from.
type IdeaRequest struct {
	Count         int
	Guidelines    string
	Plan          models.ContentPlan
	Equipment     []models.Equipment
	InputText     string
	ExistingIdeas []ExistingIdea
}

// PromptTemplates holds the fixed parts of the prompts sent to the text model
var PromptTemplates = struct {
	Intro       string
	Strategy    string
	InputText   string
	Avoid       string
	OutputShape string
}{
	Intro: `You are a creative social media manager for a tool and equipment rental company.
Your task is to generate %d fresh, engaging content idea(s).
Adhere strictly to the following Content Guidelines:
---
%s
---
`,
	Strategy: `Strategic brief:
- Content pillar: %s
- Target platform: %s
- Equipment category: %s
- Seasonal context: %s
- Why this post: %s
`,
	InputText: "Base your suggestions on this user-provided text:\n---\n%s\n---\n",
	Avoid: `IMPORTANT: Avoid generating ideas that are too similar to the following existing ideas. Focus on novelty and distinctiveness:
---
`,
	OutputShape: `For each idea, provide the content pillar, a short catchy title (under 100 chars), the full post body, and 3-5 relevant keywords.
Return your response as a valid JSON array of objects. Each object must have "pillar", "title", "body", and "keywords" keys.
Example:
[
  {
    "pillar": "equipment_spotlight",
    "title": "Mini-Excavator: Small But Mighty",
    "body": "Perfect for tight spaces and big jobs! #ToolRental #Excavator",
    "keywords": ["excavator", "construction", "digging"]
  }
]
`,
}

// maxExistingIdeas bounds how many prior ideas are quoted back to the model.
const maxExistingIdeas = 20

// BuildIdeaPrompt composes guidelines, the strategic brief, the featured equipment,
// optional operator text and prior ideas into one prompt.
func BuildIdeaPrompt(req IdeaRequest) string {
	count := req.Count
	if count <= 0 {
		count = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, PromptTemplates.Intro, count, strings.TrimSpace(req.Guidelines))

	p := req.Plan
	fmt.Fprintf(&b, PromptTemplates.Strategy,
		p.Pillar, p.TargetPlatform, p.EquipmentCategory, p.SeasonalContext, p.BusinessRationale)

	if len(req.Equipment) > 0 {
		b.WriteString("Feature the following equipment:\n")
		for _, eq := range req.Equipment {
			b.WriteString(describeEquipment(eq))
		}
	}

	if text := strings.TrimSpace(req.InputText); text != "" {
		fmt.Fprintf(&b, PromptTemplates.InputText, text)
	}

	if len(req.ExistingIdeas) > 0 {
		b.WriteString(PromptTemplates.Avoid)
		ideas := req.ExistingIdeas
		if len(ideas) > maxExistingIdeas {
			ideas = ideas[len(ideas)-maxExistingIdeas:]
		}
		for i, idea := range ideas {
			fmt.Fprintf(&b, "Idea %d:\nTitle: %s\nCopy: %s\n---\n", i+1, escapeForPrompt(idea.Title), escapeForPrompt(idea.Copy))
		}
	}

	b.WriteString(PromptTemplates.OutputShape)
	return b.String()
}

func describeEquipment(eq models.Equipment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s", escapeForPrompt(eq.Name))
	if eq.Brand != "" {
		fmt.Fprintf(&b, " (%s)", escapeForPrompt(eq.Brand))
	}
	if eq.ShortDescription != "" {
		fmt.Fprintf(&b, ": %s", escapeForPrompt(eq.ShortDescription))
	}
	if eq.Pricing != nil && eq.Pricing.Daily > 0 {
		fmt.Fprintf(&b, " [from $%.2f/day]", eq.Pricing.Daily)
	}
	if len(eq.SafetyFlags) > 0 {
		fmt.Fprintf(&b, " Safety notes: %s.", strings.Join(eq.SafetyFlags, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

// escapeForPrompt flattens whitespace so user text cannot break the prompt layout
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
