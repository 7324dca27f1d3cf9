package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"docmonitor/internal/config"
	"docmonitor/internal/logging"
)

// Gemini classifies documents with a Vertex AI Gemini model.
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *slog.Logger
}

// NewGemini connects to Vertex AI using the classifier section of cfg.
func NewGemini(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gemini, error) {
	if cfg == nil {
		return nil, errors.New("gemini: config is required")
	}
	if err := cfg.RequireClassifier(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.Classifier.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := genai.NewClient(ctx, cfg.Classifier.Project, cfg.Classifier.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := client.GenerativeModel(cfg.Classifier.Model)
	model.GenerationConfig = generationConfig(cfg.Classifier)

	return &Gemini{
		client:    client,
		model:     model,
		modelName: cfg.Classifier.Model,
		logger:    logging.NewComponentLogger(logger, "gemini"),
	}, nil
}

func generationConfig(c config.Classifier) genai.GenerationConfig {
	gen := genai.GenerationConfig{ResponseMIMEType: "application/json"}
	if c.Temperature != nil {
		gen.Temperature = genai.Ptr(float32(*c.Temperature))
	}
	if c.TopK != nil {
		gen.TopK = genai.Ptr(int32(*c.TopK))
	}
	if c.TopP != nil {
		gen.TopP = genai.Ptr(float32(*c.TopP))
	}
	return gen
}

// Classify sends the prompt and the file to the model and parses the reply.
func (g *Gemini) Classify(ctx context.Context, req Request) (*Result, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = DetectMIMEType(req.Path)
	}

	g.logger.Debug("gemini request",
		logging.String(logging.FieldSourcePath, req.Path),
		logging.String("model", g.modelName),
		logging.String("mime_type", mimeType),
		logging.Int("bytes", len(req.Data)),
		logging.Int("prompt_chars", len(req.Prompt)),
	)

	resp, err := g.model.GenerateContent(ctx,
		genai.Text(req.Prompt),
		genai.Blob{MIMEType: mimeType, Data: req.Data},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	return ParseResponse(responseText(resp), filepath.Base(req.Path))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// Close releases the Vertex AI client.
func (g *Gemini) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}
