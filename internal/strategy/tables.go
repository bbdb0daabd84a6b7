package strategy

import "github.com/bilgisen/postcraft/internal/models"

type weightedPlatform struct {
	platform models.Platform
	weight   float64
}

// Pillars with a fixed platform mix; the rest follow the global preferences.
var pillarPlatformRules = map[models.Pillar][]weightedPlatform{
	models.PillarProjectShowcase: {
		{models.PlatformInstagram, 70},
		{models.PlatformFacebook, 30},
	},
	models.PillarSafetyTraining: {
		{models.PlatformBlog, 80},
		{models.PlatformFacebook, 20},
	},
	models.PillarEducationalContent: {
		{models.PlatformBlog, 60},
		{models.PlatformFacebook, 40},
	},
	models.PillarCustomerSuccess: {
		{models.PlatformFacebook, 60},
		{models.PlatformInstagram, 40},
	},
}

var pillarCategories = map[models.Pillar][]string{
	models.PillarEquipmentSpotlight: {"Excavation", "Concrete Equipment", "Lawn & Garden", "Material Handling", "Compaction"},
	models.PillarProjectShowcase:    {"Excavation", "Concrete Equipment", "Landscaping", "Demolition"},
	models.PillarSeasonalContent:    {"Lawn & Garden", "Landscaping", "Snow Removal", "Heaters", "Pumps", "Generators", "Excavation"},
	models.PillarSafetyTraining:     {"Excavation", "Aerial Lifts", "Demolition", "Power Tools"},
	models.PillarEducationalContent: {"Hand Tools", "Power Tools", "Concrete Equipment", "Compaction"},
	models.PillarIndustryFocus:      {"Excavation", "Concrete Equipment", "Material Handling", "Aerial Lifts"},
	models.PillarCustomerSuccess:    {"Excavation", "Lawn & Garden", "Concrete Equipment", "Landscaping"},
	models.PillarMaintenanceTips:    {"Lawn & Garden", "Power Tools", "Generators", "Pumps"},
}

// seasonal equipment priority keyword -> catalog category
var seasonKeywordCategories = map[string]string{
	"landscaping":       "Landscaping",
	"excavation":        "Excavation",
	"lawn-care":         "Lawn & Garden",
	"compaction":        "Compaction",
	"material-handling": "Material Handling",
	"construction":      "Concrete Equipment",
	"concrete":          "Concrete Equipment",
	"demolition":        "Demolition",
	"pumps":             "Pumps",
	"generators":        "Generators",
	"leaf-blowers":      "Lawn & Garden",
	"chippers":          "Lawn & Garden",
	"cleanup":           "Lawn & Garden",
	"snow-removal":      "Snow Removal",
	"heaters":           "Heaters",
	"indoor-tools":      "Power Tools",
}

var pillarRationales = map[models.Pillar]string{
	models.PillarEquipmentSpotlight: "Showcase specific equipment to drive rental interest",
	models.PillarProjectShowcase:    "Demonstrate equipment in action to build customer confidence",
	models.PillarSeasonalContent:    "Capitalize on seasonal rental demand",
	models.PillarSafetyTraining:     "Build trust through safety education and compliance",
	models.PillarEducationalContent: "Establish expertise and support customer decision-making",
	models.PillarIndustryFocus:      "Target specific industry segments for growth",
	models.PillarCustomerSuccess:    "Leverage social proof to attract new customers",
	models.PillarMaintenanceTips:    "Add value and extend customer relationships",
}

// fallbackCategories is used by the random planner when the catalog has none.
var fallbackCategories = []string{"Hand Tools", "Lawn & Garden", "Concrete Equipment"}
