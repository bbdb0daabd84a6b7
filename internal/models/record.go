package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Keywords accepts either a JSON array or a comma separated string.
type Keywords []string

func (k *Keywords) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*k = nil
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*k = append(*k, part)
		}
	}
	return nil
}

// String joins keywords the way the CMS stores them.
func (k Keywords) String() string {
	return strings.Join(k, ", ")
}

// ContentIdea is one idea returned by the text model
type ContentIdea struct {
	Pillar   string   `json:"pillar"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Keywords Keywords `json:"keywords"`
}

// GenerationMetadata records how a record was produced
type GenerationMetadata struct {
	GeneratedAt    time.Time `json:"generated_at"`
	Method         string    `json:"method"`
	TextModel      string    `json:"text_model"`
	ImageModel     string    `json:"image_model,omitempty"`
	EnhancedImages int       `json:"enhanced_images"`
	OriginalImages int       `json:"original_images"`
}

// ContentRecord is the final artifact written to the CMS and mirrored to Notion.
type ContentRecord struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Body             string             `json:"body"`
	Pillar           Pillar             `json:"pillar"`
	Keywords         Keywords           `json:"keywords"`
	Platform         Platform           `json:"platform"`
	Plan             ContentPlan        `json:"plan"`
	RelatedEquipment []EquipmentRef     `json:"related_equipment"`
	Images           []ImageEntry       `json:"images"`
	SafetyIssues     []string           `json:"safety_issues,omitempty"`
	Metadata         GenerationMetadata `json:"metadata"`
	CMSID            string             `json:"cms_id,omitempty"`
	NotionPageID     string             `json:"notion_page_id,omitempty"`
	FilePath         string             `json:"file_path,omitempty"`
}
