package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/Lllllllleong/invoicedocumentflow/internal/normalize"
	"github.com/Lllllllleong/invoicedocumentflow/internal/prompts"
)

// VertexClient holds the pre-configured generative models for the pipeline:
// one for vendor identification, one for structured extraction, and a judge
// for ground-truth comparison.
type VertexClient struct {
	RouterModel    *genai.GenerativeModel
	ExtractorModel *genai.GenerativeModel
	JudgeModel     *genai.GenerativeModel
	baseClient     *genai.Client
}

// NewVertexClient creates a new client holding all necessary models.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	routerModel := baseClient.GenerativeModel("gemini-1.5-pro")
	routerModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	extractorModel := baseClient.GenerativeModel("gemini-1.5-pro")
	extractorModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	judgeModel := baseClient.GenerativeModel("gemini-1.5-pro")
	judgeModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output; the verdict parser depends on it.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		RouterModel:    routerModel,
		ExtractorModel: extractorModel,
		JudgeModel:     judgeModel,
		baseClient:     baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// IdentifySeller asks the router model for the seller name of a document.
func (c *VertexClient) IdentifySeller(ctx context.Context, doc normalize.Payload) (string, error) {
	resp, err := c.RouterModel.GenerateContent(ctx,
		genai.Text(prompts.RoutingInstruction),
		genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate seller name from gemini: %w", err)
	}
	return responseText(resp), nil
}

// ExtractInvoice asks the extractor model for the full structured record.
func (c *VertexClient) ExtractInvoice(ctx context.Context, doc normalize.Payload) (string, error) {
	resp, err := c.ExtractorModel.GenerateContent(ctx,
		genai.Text(prompts.ExtractionInstruction),
		genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate extraction from gemini: %w", err)
	}
	return responseText(resp), nil
}

// CompareRecords sends a fully built comparison prompt to the judge model.
func (c *VertexClient) CompareRecords(ctx context.Context, prompt string) (string, error) {
	resp, err := c.JudgeModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate verdict from gemini: %w", err)
	}
	return responseText(resp), nil
}

// responseText concatenates the text parts of a model response.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
