package settings

import "github.com/bilgisen/postcraft/internal/models"

const defaultEnhancementPrompt = "Enhance this equipment image with professional lighting and clean background."

// PillarWeight returns the configured target weight for a pillar, 0 when absent.
func (s *Settings) PillarWeight(p models.Pillar) float64 {
	w, _ := lookupWeight(s.ContentStrategy.PillarWeights, string(p))
	return w
}

// PlatformPreference returns the global preference weight for a platform.
func (s *Settings) PlatformPreference(p models.Platform) float64 {
	w, _ := lookupWeight(s.ContentStrategy.PlatformPreferences, string(p))
	return w
}

// EnhancementPrompt returns the pillar's image enhancement prompt or the built-in default.
func (s *Settings) EnhancementPrompt(p models.Pillar) string {
	if prompt, ok := lookupWeight(s.ImageGeneration.EnhancementPrompts, string(p)); ok && prompt != "" {
		return prompt
	}
	return defaultEnhancementPrompt
}

// PlatformSpec returns the spec for a platform.
func (s *Settings) PlatformSpec(p models.Platform) (PlatformSpec, bool) {
	switch p {
	case models.PlatformFacebook:
		return s.Platforms.Facebook, true
	case models.PlatformInstagram:
		return s.Platforms.Instagram, true
	case models.PlatformBlog:
		return s.Platforms.Blog, true
	}
	return PlatformSpec{}, false
}

// MaxContentLength is the body limit for a platform: the platform spec first,
// then the content quality rules, 0 meaning unlimited.
func (s *Settings) MaxContentLength(p models.Platform) int {
	if spec, ok := s.PlatformSpec(p); ok && spec.ContentLength.Max > 0 {
		return spec.ContentLength.Max
	}
	if n, ok := lookupWeight(s.ContentStrategy.ContentQualityRules.MaxContentLength, string(p)); ok && n > 0 {
		return n
	}
	return 0
}

// ImageDimensions returns the platform's target image size, 1080x1080 when unset.
func (s *Settings) ImageDimensions(p models.Platform) (int, int) {
	width, height := 1080, 1080
	if spec, ok := s.PlatformSpec(p); ok {
		if spec.ImageSpecs.Width > 0 {
			width = spec.ImageSpecs.Width
		}
		if spec.ImageSpecs.Height > 0 {
			height = spec.ImageSpecs.Height
		}
	}
	return width, height
}

// AspectRatio returns the platform's image aspect ratio hint.
func (s *Settings) AspectRatio(p models.Platform) string {
	if spec, ok := s.PlatformSpec(p); ok && spec.ImageSpecs.AspectRatio != "" {
		return spec.ImageSpecs.AspectRatio
	}
	if ratio, ok := lookupWeight(s.ImageGeneration.QualityStandards.PreferredAspectRatios, string(p)); ok && ratio != "" {
		return ratio
	}
	return "1:1"
}
