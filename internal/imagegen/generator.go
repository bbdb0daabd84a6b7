package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp"

	"github.com/bilgisen/postcraft/internal/ai"
	"github.com/bilgisen/postcraft/internal/logger"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/settings"
)

const defaultBrandName = "Rental Village"

// Generator enhances catalog photos with an image model, falling back to the
// original photo when enhancement fails.
type Generator struct {
	model     ai.ImageModel
	settings  *settings.Settings
	client    *resty.Client
	brandName string
}

type Option func(*Generator)

func WithHTTPClient(c *resty.Client) Option {
	return func(g *Generator) { g.client = c }
}

// WithBrandName sets the name used in the watermark instruction.
func WithBrandName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.brandName = name
		}
	}
}

func NewGenerator(model ai.ImageModel, s *settings.Settings, opts ...Option) *Generator {
	g := &Generator{
		model:     model,
		settings:  s,
		client:    resty.New().SetTimeout(30 * time.Second),
		brandName: defaultBrandName,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnhanceEquipmentImages processes at most maxImagesPerPost items in catalog order.
// Items are independent: one failure never stops the rest. The only error is
// cancellation of ctx; entries produced before it are still returned.
func (g *Generator) EnhanceEquipmentImages(ctx context.Context, equipment []models.Equipment, pillar models.Pillar, platform models.Platform, contentContext string) ([]models.ImageEntry, error) {
	log := logger.Get()
	limit := g.settings.ImageGeneration.GenerationRules.MaxImages()
	if len(equipment) > limit {
		equipment = equipment[:limit]
	}
	log.Info().Int("count", len(equipment)).Str("pillar", string(pillar)).Msg("Enhancing equipment images")

	entries := make([]models.ImageEntry, 0, len(equipment))
	for _, eq := range equipment {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		res := g.Enhance(ctx, eq, pillar, platform, contentContext)
		switch res.Kind {
		case models.ImageSkipped:
			log.Warn().Str("equipment", eq.Name).Str("reason", res.Reason).Msg("Skipped equipment image")
		case models.ImageOriginal:
			log.Info().Str("equipment", eq.Name).Str("reason", res.Reason).Msg("Used original image")
			entries = append(entries, *res.Entry)
		default:
			log.Info().Str("equipment", eq.Name).Msg("Enhanced image")
			entries = append(entries, *res.Entry)
		}
	}

	log.Info().Int("processed", len(entries)).Msg("Image enhancement finished")
	return entries, nil
}

// Enhance produces the outcome for a single equipment item.
func (g *Generator) Enhance(ctx context.Context, eq models.Equipment, pillar models.Pillar, platform models.Platform, contentContext string) models.ImageResult {
	sourceURL := eq.SourceImageURL()
	if sourceURL == "" {
		return models.ImageResult{Kind: models.ImageSkipped, Reason: "no image found"}
	}

	data, mimeType, err := g.download(ctx, sourceURL)
	if err != nil {
		return models.ImageResult{Kind: models.ImageSkipped, Reason: err.Error()}
	}

	instruction := g.BuildInstruction(eq, pillar, platform, contentContext)
	img, err := g.model.EditImage(ctx, instruction, data, mimeType)
	if err != nil {
		logger.Get().Error().Err(err).Str("equipment", eq.Name).Msg("Error enhancing image")
		return models.ImageResult{
			Kind:   models.ImageOriginal,
			Entry:  originalEntry(eq, sourceURL),
			Reason: err.Error(),
		}
	}

	return models.ImageResult{
		Kind: models.ImageEnhanced,
		Entry: &models.ImageEntry{
			Kind:                   models.ImageEnhanced,
			EquipmentID:            eq.ID,
			EquipmentName:          nameOr(eq, "Unknown"),
			Data:                   img.Data,
			MIMEType:               img.MIMEType,
			SourceURL:              sourceURL,
			EnhancementDescription: img.Description,
			EnhancementPrompt:      instruction,
			AltText:                "Enhanced image of " + nameOr(eq, "equipment"),
			Caption:                caption(eq),
		},
	}
}

func (g *Generator) download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := g.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode())
	}
	data := resp.Body()
	if len(data) == 0 {
		return nil, "", fmt.Errorf("failed to download image: empty body")
	}

	mimeType := resp.Header().Get("Content-Type")
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		mimeType = "image/" + format
		g.checkResolution(url, cfg.Width, cfg.Height)
	}
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return data, mimeType, nil
}

func (g *Generator) checkResolution(url string, width, height int) {
	floor := g.settings.ImageGeneration.QualityStandards.MinResolution
	if (floor.Width > 0 && width < floor.Width) || (floor.Height > 0 && height < floor.Height) {
		logger.Get().Warn().
			Str("url", url).
			Int("width", width).
			Int("height", height).
			Msg("Source image below minimum resolution")
	}
}

// BuildInstruction assembles the enhancement instruction for one item.
func (g *Generator) BuildInstruction(eq models.Equipment, pillar models.Pillar, platform models.Platform, contentContext string) string {
	ig := g.settings.ImageGeneration
	parts := []string{g.settings.EnhancementPrompt(pillar)}

	name := nameOr(eq, "equipment")
	if eq.ShortDescription != "" {
		parts = append(parts, fmt.Sprintf("This is a %s: %s.", name, strings.TrimSuffix(eq.ShortDescription, ".")))
	} else {
		parts = append(parts, fmt.Sprintf("This is a %s.", name))
	}

	if contentContext != "" {
		parts = append(parts, fmt.Sprintf("Content context: %s.", contentContext))
	}

	parts = append(parts, fmt.Sprintf("Optimize for %s with %s aspect ratio.", platform, g.settings.AspectRatio(platform)))

	style := ig.BrandGuidelines.VisualStyle
	if style == "" {
		style = "professional"
	}
	parts = append(parts, fmt.Sprintf("Maintain %s visual style.", style))

	if colors := ig.BrandGuidelines.BrandColors; len(colors) > 0 {
		names := make([]string, 0, 2)
		for _, c := range colors[:min(2, len(colors))] {
			n := c.Name
			if n == "" {
				n = "brand color"
			}
			names = append(names, n)
		}
		parts = append(parts, fmt.Sprintf("Incorporate brand colors: %s.", strings.Join(names, ", ")))
	}

	if elems := ig.SafetyFilters.RequiredSafetyElements; len(elems) > 0 {
		parts = append(parts, fmt.Sprintf("Ensure safety elements are visible: %s.", strings.Join(elems[:min(2, len(elems))], ", ")))
	}

	if enabled, position := ig.GenerationRules.Watermark(); enabled {
		parts = append(parts, fmt.Sprintf("Add %s watermark in %s corner.", g.brandName, position))
	}

	return strings.Join(parts, " ")
}

func originalEntry(eq models.Equipment, url string) *models.ImageEntry {
	return &models.ImageEntry{
		Kind:                   models.ImageOriginal,
		EquipmentID:            eq.ID,
		EquipmentName:          nameOr(eq, "Unknown"),
		URL:                    url,
		SourceURL:              url,
		EnhancementDescription: "Using original equipment photo",
		AltText:                "Image of " + nameOr(eq, "equipment"),
		Caption:                caption(eq),
	}
}

func nameOr(eq models.Equipment, fallback string) string {
	if n := strings.TrimSpace(eq.Name); n != "" {
		return n
	}
	return fallback
}

func caption(eq models.Equipment) string {
	desc := strings.TrimSpace(eq.ShortDescription)
	if desc == "" {
		desc = "Professional rental equipment"
	}
	return nameOr(eq, "Equipment") + " - " + desc
}
