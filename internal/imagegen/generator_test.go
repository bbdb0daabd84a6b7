package imagegen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/postcraft/internal/ai"
	"github.com/bilgisen/postcraft/internal/models"
	"github.com/bilgisen/postcraft/internal/settings"
)

type fakeModel struct {
	failFor      map[string]bool
	instructions []string
	mimeTypes    []string
}

func (f *fakeModel) EditImage(_ context.Context, instruction string, source []byte, mimeType string) (*ai.GeneratedImage, error) {
	f.instructions = append(f.instructions, instruction)
	f.mimeTypes = append(f.mimeTypes, mimeType)
	for name := range f.failFor {
		if strings.Contains(instruction, name) {
			return nil, ai.ErrNoImage
		}
	}
	return &ai.GeneratedImage{Data: append([]byte("enhanced:"), source[:4]...), MIMEType: "image/png", Description: "Cleaner background"}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	photo := pngBytes(t, 8, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(photo)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSettings() *settings.Settings {
	yes := true
	return &settings.Settings{
		ImageGeneration: settings.ImageGeneration{
			BrandGuidelines: settings.BrandGuidelines{
				VisualStyle: "clean industrial",
				BrandColors: []settings.BrandColor{{Name: "Safety Orange"}, {Name: "Charcoal"}, {Name: "White"}},
			},
			EnhancementPrompts: map[string]string{"equipmentSpotlight": "Studio lighting on the machine."},
			GenerationRules: settings.GenerationRules{
				MaxImagesPerPost:  2,
				IncludeWatermark:  &yes,
				WatermarkPosition: "top-left",
			},
			SafetyFilters: settings.SafetyFilters{
				RequiredSafetyElements: []string{"hard hat", "safety vest", "gloves"},
			},
		},
	}
}

func equipment(base string) []models.Equipment {
	return []models.Equipment{
		{ID: "e1", Name: "Skid Steer", ShortDescription: "Compact loader", PrimaryImage: &models.ImageRef{URL: base + "/skid.png"}},
		{ID: "e2", Name: "Trencher", Images: []models.ImageRef{{URL: base + "/trencher.png"}}},
		{ID: "e3", Name: "Plate Compactor", PrimaryImage: &models.ImageRef{URL: base + "/plate.png"}},
	}
}

func TestEnhanceEquipmentImagesRespectsLimitAndOrder(t *testing.T) {
	srv := imageServer(t)
	model := &fakeModel{}
	gen := NewGenerator(model, testSettings())

	entries, err := gen.EnhanceEquipmentImages(context.Background(), equipment(srv.URL), models.PillarEquipmentSpotlight, models.PlatformFacebook, "Winter Context")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "e1", entries[0].EquipmentID)
	assert.Equal(t, "e2", entries[1].EquipmentID)
	for _, e := range entries {
		assert.Equal(t, models.ImageEnhanced, e.Kind)
		assert.NotEmpty(t, e.AltText)
		assert.NotEmpty(t, e.Caption)
		assert.NotEmpty(t, e.Data)
	}
	assert.Equal(t, srv.URL+"/skid.png", entries[0].SourceURL)
	assert.Equal(t, srv.URL+"/trencher.png", entries[1].SourceURL)
	assert.Equal(t, "Skid Steer - Compact loader", entries[0].Caption)
	assert.Equal(t, "Trencher - Professional rental equipment", entries[1].Caption)
	assert.Equal(t, []string{"image/png", "image/png"}, model.mimeTypes)
}

func TestEnhanceFallsBackToOriginal(t *testing.T) {
	srv := imageServer(t)
	model := &fakeModel{failFor: map[string]bool{"Trencher": true}}
	gen := NewGenerator(model, testSettings())

	entries, err := gen.EnhanceEquipmentImages(context.Background(), equipment(srv.URL), models.PillarEquipmentSpotlight, models.PlatformFacebook, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.ImageOriginal, entries[1].Kind)
	assert.Equal(t, srv.URL+"/trencher.png", entries[1].URL)
	assert.Equal(t, "Image of Trencher", entries[1].AltText)
	assert.Empty(t, entries[1].Data)
}

func TestEnhanceSkipsMissingAndUndownloadable(t *testing.T) {
	srv := imageServer(t)
	model := &fakeModel{}
	s := testSettings()
	s.ImageGeneration.GenerationRules.MaxImagesPerPost = 5
	gen := NewGenerator(model, s)

	list := []models.Equipment{
		{ID: "none", Name: "No Photo"},
		{ID: "gone", Name: "Gone", PrimaryImage: &models.ImageRef{URL: srv.URL + "/missing.png"}},
		{ID: "ok", Name: "Auger", PrimaryImage: &models.ImageRef{URL: srv.URL + "/auger.png"}},
	}
	entries, err := gen.EnhanceEquipmentImages(context.Background(), list, models.PillarMaintenanceTips, models.PlatformBlog, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].EquipmentID)
	assert.Len(t, model.instructions, 1)

	res := gen.Enhance(context.Background(), list[0], models.PillarMaintenanceTips, models.PlatformBlog, "")
	assert.Equal(t, models.ImageSkipped, res.Kind)
	assert.Nil(t, res.Entry)
}

func TestEnhanceStopsOnCancelledContext(t *testing.T) {
	srv := imageServer(t)
	gen := NewGenerator(&fakeModel{}, testSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := gen.EnhanceEquipmentImages(ctx, equipment(srv.URL), models.PillarEquipmentSpotlight, models.PlatformFacebook, "")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, entries)
}

func TestBuildInstruction(t *testing.T) {
	gen := NewGenerator(&fakeModel{}, testSettings(), WithBrandName("Acme Rentals"))

	got := gen.BuildInstruction(models.Equipment{Name: "Skid Steer", ShortDescription: "Compact loader."},
		models.PillarEquipmentSpotlight, models.PlatformInstagram, "Snow Ready")

	assert.Equal(t, "Studio lighting on the machine. "+
		"This is a Skid Steer: Compact loader. "+
		"Content context: Snow Ready. "+
		"Optimize for Instagram with 1:1 aspect ratio. "+
		"Maintain clean industrial visual style. "+
		"Incorporate brand colors: Safety Orange, Charcoal. "+
		"Ensure safety elements are visible: hard hat, safety vest. "+
		"Add Acme Rentals watermark in top-left corner.", got)
}

func TestBuildInstructionDefaults(t *testing.T) {
	gen := NewGenerator(&fakeModel{}, &settings.Settings{})

	got := gen.BuildInstruction(models.Equipment{}, models.PillarIndustryFocus, models.PlatformFacebook, "")
	assert.Equal(t, "Enhance this equipment image with professional lighting and clean background. "+
		"This is a equipment. "+
		"Optimize for Facebook with 1:1 aspect ratio. "+
		"Maintain professional visual style. "+
		"Add Rental Village watermark in bottom-right corner.", got)
}

func TestValidateImages(t *testing.T) {
	gen := NewGenerator(&fakeModel{}, testSettings())

	out := gen.ValidateImages([]models.ImageEntry{
		{EquipmentName: "Lift", URL: "https://cdn/lift.jpg"},
		{EquipmentName: "Ghost"},
		{Data: []byte{1}, AltText: "alt", Caption: "cap"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "Image of Lift", out[0].AltText)
	assert.Equal(t, "Lift available for rent", out[0].Caption)
	assert.Equal(t, "alt", out[1].AltText)
}

func TestOptimizeForPlatform(t *testing.T) {
	s := testSettings()
	s.Platforms.Facebook = settings.PlatformSpec{ImageSpecs: settings.ImageSpecs{Width: 1200, Height: 630}}
	gen := NewGenerator(&fakeModel{}, s)

	in := []models.ImageEntry{{URL: "a"}, {Data: []byte{1}}}
	out := gen.OptimizeForPlatform(in, models.PlatformFacebook)
	require.Len(t, out, 2)
	assert.Equal(t, 1200, out[0].TargetWidth)
	assert.Equal(t, 630, out[1].TargetHeight)
	assert.Equal(t, models.PlatformFacebook, out[1].OptimizedFor)
	assert.Zero(t, in[0].TargetWidth)

	out = gen.OptimizeForPlatform(in, models.PlatformBlog)
	assert.Equal(t, 1080, out[0].TargetWidth)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.ImageEntry{
		{Kind: models.ImageEnhanced, EquipmentName: "A"},
		{Kind: models.ImageOriginal, EquipmentName: "B"},
		{Kind: models.ImageEnhanced, EquipmentName: "C"},
		{Kind: models.ImageEnhanced, EquipmentName: "D"},
	})
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Enhanced)
	assert.Equal(t, 0.75, s.EnhancementRate)
	assert.True(t, s.Success)

	assert.False(t, Summarize(nil).Success)
}
