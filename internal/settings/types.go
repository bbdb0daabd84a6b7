package settings

import (
	"strings"

	"github.com/bilgisen/postcraft/internal/models"
)

// Settings is the read-only snapshot of the four configuration documents.
// It is loaded once per run and shared by the engine, image generator and orchestrator.
type Settings struct {
	ContentStrategy ContentStrategy
	Seasonal        Seasonal
	ImageGeneration ImageGeneration
	Platforms       Platforms
}

type ContentStrategy struct {
	Title                   string                  `json:"title" yaml:"title"`
	PillarWeights           map[string]float64      `json:"pillarWeights" yaml:"pillarWeights"`
	PlatformPreferences     map[string]float64      `json:"platformPreferences" yaml:"platformPreferences"`
	EquipmentSelectionRules EquipmentSelectionRules `json:"equipmentSelectionRules" yaml:"equipmentSelectionRules"`
	ContentQualityRules     ContentQualityRules     `json:"contentQualityRules" yaml:"contentQualityRules"`
}

type EquipmentSelectionRules struct {
	PrioritizeNewEquipment  bool `json:"prioritizeNewEquipment" yaml:"prioritizeNewEquipment"`
	PrioritizeUnderutilized bool `json:"prioritizeUnderutilized" yaml:"prioritizeUnderutilized"`
	PrioritizeHighMargin    bool `json:"prioritizeHighMargin" yaml:"prioritizeHighMargin"`
	ExcludeUnavailable      bool `json:"excludeUnavailable" yaml:"excludeUnavailable"`
	MaxEquipmentAge         int  `json:"maxEquipmentAge" yaml:"maxEquipmentAge"`
	MaxEquipmentPerPost     int  `json:"maxEquipmentPerPost" yaml:"maxEquipmentPerPost"`
}

// MaxPerPost returns maxEquipmentPerPost, 3 when unset.
func (r EquipmentSelectionRules) MaxPerPost() int {
	if r.MaxEquipmentPerPost <= 0 {
		return 3
	}
	return r.MaxEquipmentPerPost
}

type ContentQualityRules struct {
	MinImageQuality        int            `json:"minImageQuality" yaml:"minImageQuality"`
	RequireEquipmentImages bool           `json:"requireEquipmentImages" yaml:"requireEquipmentImages"`
	MaxContentLength       map[string]int `json:"maxContentLength" yaml:"maxContentLength"`
	MinContentLength       map[string]int `json:"minContentLength" yaml:"minContentLength"`
}

type Seasonal struct {
	CurrentSeason             string              `json:"currentSeason" yaml:"currentSeason"`
	SeasonalKeywords          map[string][]string `json:"seasonalKeywords" yaml:"seasonalKeywords"`
	SeasonalEquipmentPriority map[string][]string `json:"seasonalEquipmentPriority" yaml:"seasonalEquipmentPriority"`
	SeasonalContentThemes     map[string][]string `json:"seasonalContentThemes" yaml:"seasonalContentThemes"`
	SeasonalBoosts            SeasonalBoosts      `json:"seasonalBoosts" yaml:"seasonalBoosts"`
	WeatherConsiderations     map[string]any      `json:"weatherConsiderations" yaml:"weatherConsiderations"`
}

type SeasonalBoosts struct {
	CurrentSeasonBoost  *float64 `json:"currentSeasonBoost" yaml:"currentSeasonBoost"`
	UpcomingSeasonBoost *float64 `json:"upcomingSeasonBoost" yaml:"upcomingSeasonBoost"`
	OffSeasonPenalty    *float64 `json:"offSeasonPenalty" yaml:"offSeasonPenalty"`
}

// Season returns the lower-cased current season, "winter" when unset.
func (s Seasonal) Season() string {
	season := strings.ToLower(strings.TrimSpace(s.CurrentSeason))
	if season == "" {
		return "winter"
	}
	return season
}

// CurrentBoost is the multiplier for in-season content, 1.0 when unset.
func (s Seasonal) CurrentBoost() float64 {
	if s.SeasonalBoosts.CurrentSeasonBoost == nil {
		return 1.0
	}
	return *s.SeasonalBoosts.CurrentSeasonBoost
}

func (s Seasonal) Themes() []string { return lookupSeason(s.SeasonalContentThemes, s.Season()) }
func (s Seasonal) EquipmentPriority() []string {
	return lookupSeason(s.SeasonalEquipmentPriority, s.Season())
}

func lookupSeason(m map[string][]string, season string) []string {
	for k, v := range m {
		if strings.EqualFold(k, season) {
			return v
		}
	}
	return nil
}

type ImageGeneration struct {
	BrandGuidelines    BrandGuidelines   `json:"brandGuidelines" yaml:"brandGuidelines"`
	EnhancementPrompts map[string]string `json:"imageEnhancementPrompts" yaml:"imageEnhancementPrompts"`
	QualityStandards   QualityStandards  `json:"imageQualityStandards" yaml:"imageQualityStandards"`
	GenerationRules    GenerationRules   `json:"generationRules" yaml:"generationRules"`
	SafetyFilters      SafetyFilters     `json:"safetyFilters" yaml:"safetyFilters"`
}

type BrandGuidelines struct {
	BrandColors     []BrandColor `json:"brandColors" yaml:"brandColors"`
	LogoUsage       string       `json:"logoUsage" yaml:"logoUsage"`
	FontPreferences []string     `json:"fontPreferences" yaml:"fontPreferences"`
	VisualStyle     string       `json:"visualStyle" yaml:"visualStyle"`
}

type BrandColor struct {
	Name  string `json:"name" yaml:"name"`
	Hex   string `json:"hex" yaml:"hex"`
	Usage string `json:"usage" yaml:"usage"`
}

type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

type QualityStandards struct {
	MinResolution         Dimensions        `json:"minResolution" yaml:"minResolution"`
	PreferredAspectRatios map[string]string `json:"preferredAspectRatios" yaml:"preferredAspectRatios"`
	ImageFormats          []string          `json:"imageFormats" yaml:"imageFormats"`
	MaxFileSize           int               `json:"maxFileSize" yaml:"maxFileSize"`
}

type GenerationRules struct {
	MaxImagesPerPost           int    `json:"maxImagesPerPost" yaml:"maxImagesPerPost"`
	FallbackToOriginal         bool   `json:"fallbackToOriginal" yaml:"fallbackToOriginal"`
	RequireEquipmentVisibility bool   `json:"requireEquipmentVisibility" yaml:"requireEquipmentVisibility"`
	IncludeWatermark           *bool  `json:"includeWatermark" yaml:"includeWatermark"`
	WatermarkPosition          string `json:"watermarkPosition" yaml:"watermarkPosition"`
}

// MaxImages returns maxImagesPerPost, 3 when unset.
func (r GenerationRules) MaxImages() int {
	if r.MaxImagesPerPost <= 0 {
		return 3
	}
	return r.MaxImagesPerPost
}

// Watermark reports whether to request a watermark and where. Enabled unless explicitly disabled.
func (r GenerationRules) Watermark() (bool, string) {
	position := r.WatermarkPosition
	if position == "" {
		position = "bottom-right"
	}
	if r.IncludeWatermark == nil {
		return true, position
	}
	return *r.IncludeWatermark, position
}

type SafetyFilters struct {
	ProhibitedElements     []string `json:"prohibitedElements" yaml:"prohibitedElements"`
	RequiredSafetyElements []string `json:"requiredSafetyElements" yaml:"requiredSafetyElements"`
	AutomaticSafetyCheck   bool     `json:"automaticSafetyCheck" yaml:"automaticSafetyCheck"`
}

type Platforms struct {
	Facebook              PlatformSpec   `json:"facebook" yaml:"facebook"`
	Instagram             PlatformSpec   `json:"instagram" yaml:"instagram"`
	Blog                  PlatformSpec   `json:"blog" yaml:"blog"`
	CrossPlatformSettings map[string]any `json:"crossPlatformSettings" yaml:"crossPlatformSettings"`
}

type PlatformSpec struct {
	Enabled         bool              `json:"enabled" yaml:"enabled"`
	ContentStyle    map[string]string `json:"contentStyle" yaml:"contentStyle"`
	ContentLength   LengthRange       `json:"contentLength" yaml:"contentLength"`
	ImageSpecs      ImageSpecs        `json:"imageSpecs" yaml:"imageSpecs"`
	Hashtags        Hashtags          `json:"hashtags" yaml:"hashtags"`
	PostingSchedule PostingSchedule   `json:"postingSchedule" yaml:"postingSchedule"`
}

type LengthRange struct {
	Min     int `json:"min" yaml:"min"`
	Max     int `json:"max" yaml:"max"`
	Optimal int `json:"optimal" yaml:"optimal"`
}

type ImageSpecs struct {
	Width       int    `json:"width" yaml:"width"`
	Height      int    `json:"height" yaml:"height"`
	AspectRatio string `json:"aspectRatio" yaml:"aspectRatio"`
	MaxImages   int    `json:"maxImages" yaml:"maxImages"`
}

type Hashtags struct {
	MaxHashtags     int    `json:"maxHashtags" yaml:"maxHashtags"`
	OptimalHashtags int    `json:"optimalHashtags" yaml:"optimalHashtags"`
	Placement       string `json:"placement" yaml:"placement"`
}

type PostingSchedule struct {
	Frequency    string   `json:"frequency" yaml:"frequency"`
	OptimalTimes []string `json:"optimalTimes" yaml:"optimalTimes"`
}

// lookupWeight finds a weight keyed by snake_case, camelCase or label form.
func lookupWeight[V any](m map[string]V, key string) (V, bool) {
	want := models.NormalizeKey(key)
	for k, v := range m {
		if models.NormalizeKey(k) == want {
			return v, true
		}
	}
	var zero V
	return zero, false
}
