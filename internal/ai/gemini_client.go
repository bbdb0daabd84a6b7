package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/bilgisen/postcraft/internal/logger"
)

var (
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrNoImage is returned when an image request yields no inline image part.
	ErrNoImage = errors.New("model returned no image")
)

// TextModel generates free text from a prompt.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageModel edits a source image following an instruction.
type ImageModel interface {
	EditImage(ctx context.Context, instruction string, source []byte, mimeType string) (*GeneratedImage, error)
}

// GeneratedImage is the first inline image of a response plus any text parts.
type GeneratedImage struct {
	Data        []byte
	MIMEType    string
	Description string
}

type Config struct {
	APIKey     string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

// GeminiClient talks to the Gemini API for both text and image generation.
type GeminiClient struct {
	client     *genai.Client
	textModel  string
	imageModel string
	timeout    time.Duration
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:     client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		timeout:    cfg.Timeout,
	}, nil
}

func (g *GeminiClient) TextModelName() string  { return g.textModel }
func (g *GeminiClient) ImageModelName() string { return g.imageModel }

func (g *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// GenerateText sends a single prompt to the text model and returns the response text.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("error calling Gemini API: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	logger.Get().Debug().
		Str("model", g.textModel).
		Int("chars", len(text)).
		Dur("took", time.Since(start)).
		Msg("Text generated")
	return text, nil
}

// EditImage submits the instruction and source image and asks for TEXT and IMAGE output.
func (g *GeminiClient) EditImage(ctx context.Context, instruction string, source []byte, mimeType string) (*GeneratedImage, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(instruction)}
	if len(source) > 0 {
		parts = append(parts, genai.NewPartFromBytes(source, mimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("error calling Gemini image model: %w", err)
	}

	return firstInlineImage(result)
}

func firstInlineImage(result *genai.GenerateContentResponse) (*GeneratedImage, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}

	var (
		image *GeneratedImage
		texts []string
	)
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			texts = append(texts, strings.TrimSpace(part.Text))
		}
		if image == nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			image = &GeneratedImage{
				Data:     part.InlineData.Data,
				MIMEType: part.InlineData.MIMEType,
			}
		}
	}
	if image == nil {
		return nil, ErrNoImage
	}
	if image.MIMEType == "" {
		image.MIMEType = "image/png"
	}
	image.Description = strings.Join(texts, " ")
	return image, nil
}
