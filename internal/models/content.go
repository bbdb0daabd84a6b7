package models

import (
	"strings"
	"unicode"
)

// Pillar is a content category the strategy engine plans for
type Pillar string

const (
	PillarEquipmentSpotlight Pillar = "equipment_spotlight"
	PillarProjectShowcase    Pillar = "project_showcase"
	PillarSeasonalContent    Pillar = "seasonal_content"
	PillarSafetyTraining     Pillar = "safety_training"
	PillarEducationalContent Pillar = "educational_content"
	PillarIndustryFocus      Pillar = "industry_focus"
	PillarCustomerSuccess    Pillar = "customer_success"
	PillarMaintenanceTips    Pillar = "maintenance_tips"
)

// Pillars lists every pillar in a fixed order.
var Pillars = []Pillar{
	PillarEquipmentSpotlight,
	PillarProjectShowcase,
	PillarSeasonalContent,
	PillarSafetyTraining,
	PillarEducationalContent,
	PillarIndustryFocus,
	PillarCustomerSuccess,
	PillarMaintenanceTips,
}

// CamelKey returns the key used by CMS documents, e.g. "equipmentSpotlight".
func (p Pillar) CamelKey() string {
	parts := strings.Split(string(p), "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// Label returns the human readable name used in Notion selects.
func (p Pillar) Label() string {
	parts := strings.Split(string(p), "_")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// ParsePillar accepts snake_case, camelCase or label form.
func ParsePillar(s string) (Pillar, bool) {
	key := NormalizeKey(s)
	for _, p := range Pillars {
		if NormalizeKey(string(p)) == key {
			return p, true
		}
	}
	return "", false
}

// Platform is a publishing target
type Platform string

const (
	PlatformFacebook  Platform = "Facebook"
	PlatformInstagram Platform = "Instagram"
	PlatformBlog      Platform = "Blog"
)

var Platforms = []Platform{PlatformFacebook, PlatformInstagram, PlatformBlog}

// Key returns the lower-case key used in settings documents.
func (p Platform) Key() string {
	return strings.ToLower(string(p))
}

// ParsePlatform matches a platform name case-insensitively.
func ParsePlatform(s string) (Platform, bool) {
	for _, p := range Platforms {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// NormalizeKey drops separators and case so "safety_training",
// "safetyTraining" and "Safety Training" compare equal.
func NormalizeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// ContentPlan is one planned idea
type ContentPlan struct {
	Pillar            Pillar   `json:"pillar"`
	TargetPlatform    Platform `json:"target_platform"`
	EquipmentCategory string   `json:"equipment_category"`
	SeasonalContext   string   `json:"seasonal_context"`
	PriorityScore     float64  `json:"priority_score"`
	BusinessRationale string   `json:"business_rationale"`
}

// EquipmentTarget resolves a plan into concrete catalog items
type EquipmentTarget struct {
	Category           string   `json:"category"`
	EquipmentIDs       []string `json:"equipment_ids"`
	AvailabilityFilter string   `json:"availability_filter"`
	PriorityReasons    []string `json:"priority_reasons"`
}

// Empty reports whether no equipment could be selected.
func (t EquipmentTarget) Empty() bool {
	return len(t.EquipmentIDs) == 0
}

// PerformanceReport summarises recently generated content.
type PerformanceReport struct {
	TotalContent         int            `json:"total_content"`
	PillarDistribution   map[string]int `json:"pillar_distribution"`
	PlatformDistribution map[string]int `json:"platform_distribution"`
	Recommendations      []string       `json:"recommendations"`
	Error                string         `json:"error,omitempty"`
}
