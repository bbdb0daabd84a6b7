package persist

import (
	"time"

	"github.com/google/uuid"

	"github.com/bilgisen/postcraft/internal/models"
)

// SocialContentType is the CMS document type for generated posts.
const SocialContentType = "socialContent"

type reference struct {
	Type string `json:"_type"`
	Key  string `json:"_key,omitempty"`
	Ref  string `json:"_ref"`
}

type imageObject struct {
	Type    string     `json:"_type"`
	Key     string     `json:"_key"`
	Asset   *reference `json:"asset,omitempty"`
	URL     string     `json:"url,omitempty"`
	Alt     string     `json:"alt"`
	Caption string     `json:"caption"`
	Kind    string     `json:"source,omitempty"`
}

type generationMetadata struct {
	ModelUsed      string `json:"model_used"`
	ImageModel     string `json:"image_model,omitempty"`
	Method         string `json:"method"`
	Timestamp      string `json:"timestamp"`
	EnhancedImages int    `json:"enhanced_images"`
	OriginalImages int    `json:"original_images"`
}

type strategyInfo struct {
	Category          string  `json:"equipment_category,omitempty"`
	SeasonalContext   string  `json:"seasonal_context,omitempty"`
	PriorityScore     float64 `json:"priority_score"`
	BusinessRationale string  `json:"business_rationale,omitempty"`
}

// socialContent is the CMS shape of a ContentRecord.
type socialContent struct {
	ID                 string             `json:"_id"`
	Type               string             `json:"_type"`
	Title              string             `json:"title"`
	Body               string             `json:"body"`
	ContentPillar      string             `json:"content_pillar"`
	Keywords           string             `json:"keywords"`
	Platform           string             `json:"platform"`
	Status             string             `json:"status"`
	SafetyIssues       []string           `json:"safety_issues,omitempty"`
	PerformanceMetrics map[string]any     `json:"performance_metrics"`
	Images             []imageObject      `json:"images"`
	RelatedEquipment   []reference        `json:"related_equipment"`
	Strategy           strategyInfo       `json:"strategy"`
	Metadata           generationMetadata `json:"ai_generation_metadata"`
}

func toDocument(r *models.ContentRecord) socialContent {
	doc := socialContent{
		ID:                 r.ID,
		Type:               SocialContentType,
		Title:              r.Title,
		Body:               r.Body,
		ContentPillar:      string(r.Pillar),
		Keywords:           r.Keywords.String(),
		Platform:           string(r.Platform),
		Status:             "generated",
		SafetyIssues:       r.SafetyIssues,
		PerformanceMetrics: map[string]any{},
		Images:             make([]imageObject, 0, len(r.Images)),
		RelatedEquipment:   make([]reference, 0, len(r.RelatedEquipment)),
		Strategy: strategyInfo{
			Category:          r.Plan.EquipmentCategory,
			SeasonalContext:   r.Plan.SeasonalContext,
			PriorityScore:     r.Plan.PriorityScore,
			BusinessRationale: r.Plan.BusinessRationale,
		},
		Metadata: generationMetadata{
			ModelUsed:      r.Metadata.TextModel,
			ImageModel:     r.Metadata.ImageModel,
			Method:         r.Metadata.Method,
			Timestamp:      r.Metadata.GeneratedAt.Format(time.RFC3339),
			EnhancedImages: r.Metadata.EnhancedImages,
			OriginalImages: r.Metadata.OriginalImages,
		},
	}

	for _, eq := range r.RelatedEquipment {
		doc.RelatedEquipment = append(doc.RelatedEquipment, reference{Type: "reference", Key: eq.ID, Ref: eq.ID})
	}

	for _, img := range r.Images {
		obj := imageObject{
			Type:    "image",
			Key:     uuid.NewString(),
			URL:     img.URL,
			Alt:     img.AltText,
			Caption: img.Caption,
			Kind:    string(img.Kind),
		}
		if img.AssetID != "" {
			obj.Asset = &reference{Type: "reference", Ref: img.AssetID}
		}
		doc.Images = append(doc.Images, obj)
	}
	return doc
}
