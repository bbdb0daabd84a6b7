package imagegen

import (
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
)

// ValidateImages drops entries without pixels and defaults missing alt text and captions.
func (g *Generator) ValidateImages(images []models.ImageEntry) []models.ImageEntry {
	valid := make([]models.ImageEntry, 0, len(images))
	for _, img := range images {
		if !img.HasImage() {
			logger.Get().Warn().Str("equipment", img.EquipmentName).Msg("Image validation failed: no image data")
			continue
		}
		name := img.EquipmentName
		if name == "" {
			name = "equipment"
		}
		if img.AltText == "" {
			img.AltText = "Image of " + name
		}
		if img.Caption == "" {
			img.Caption = name + " available for rent"
		}
		valid = append(valid, img)
	}

	logger.Get().Info().Int("valid", len(valid)).Int("total", len(images)).Msg("Validated images")
	return valid
}

// OptimizeForPlatform tags each image with the platform's target dimensions.
// Pixel data is left untouched.
func (g *Generator) OptimizeForPlatform(images []models.ImageEntry, platform models.Platform) []models.ImageEntry {
	width, height := g.settings.ImageDimensions(platform)

	out := make([]models.ImageEntry, len(images))
	for i, img := range images {
		img.OptimizedFor = platform
		img.TargetWidth = width
		img.TargetHeight = height
		out[i] = img
	}
	return out
}

type Summary struct {
	Total             int      `json:"total_images"`
	Enhanced          int      `json:"enhanced_images"`
	Original          int      `json:"original_images"`
	EnhancementRate   float64  `json:"enhancement_rate"`
	EquipmentFeatured []string `json:"equipment_featured"`
	Success           bool     `json:"success"`
}

func Summarize(images []models.ImageEntry) Summary {
	s := Summary{Total: len(images), EquipmentFeatured: make([]string, 0, len(images))}
	for _, img := range images {
		switch img.Kind {
		case models.ImageEnhanced:
			s.Enhanced++
		case models.ImageOriginal:
			s.Original++
		}
		s.EquipmentFeatured = append(s.EquipmentFeatured, img.EquipmentName)
	}
	if s.Total > 0 {
		s.EnhancementRate = float64(s.Enhanced) / float64(s.Total)
		s.Success = true
	}
	return s
}
