package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider calls the Gemini generateContent API with a response schema
// so the service is constrained to the analysis shape.
type GeminiProvider struct {
	model    string
	endpoint string
	timeout  time.Duration
}

// NewGeminiProvider creates a Gemini provider. An empty endpoint uses the
// public Google endpoint.
func NewGeminiProvider(model, endpoint string, timeout time.Duration) *GeminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &GeminiProvider{
		model:    model,
		endpoint: endpoint,
		timeout:  timeout,
	}
}

func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("gemini/%s", p.model)
}

// Complete sends the prompt and returns the text of the first candidate
func (p *GeminiProvider) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: p.timeout},
	}
	if p.endpoint != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSuffix(p.endpoint, "/") + "/"
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", transportError(p.Name(), err)
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", transportError(p.Name(), err)
	}

	text := resp.Text()
	if text == "" {
		return "", transportError(p.Name(), fmt.Errorf("no text in response"))
	}
	return text, nil
}

// analysisSchema mirrors the fields the result validator requires
func analysisSchema() *genai.Schema {
	number := func() *genai.Schema { return &genai.Schema{Type: genai.TypeNumber} }
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	nullableNumber := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Nullable: genai.Ptr(true)}
	}

	object := func(props map[string]*genai.Schema, required ...string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
	}
	array := func(items *genai.Schema) *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: items}
	}

	return object(map[string]*genai.Schema{
		"currentCost":   number(),
		"optimizedCost": number(),
		"savings":       number(),
		"breakdown": object(map[string]*genai.Schema{
			"compute": number(),
			"storage": number(),
			"network": number(),
			"other":   number(),
		}, "compute", "storage", "network", "other"),
		"costBreakdown": array(object(map[string]*genai.Schema{
			"service": str(),
			"cost":    number(),
		}, "service", "cost")),
		"recommendations": array(object(map[string]*genai.Schema{
			"title":            str(),
			"description":      str(),
			"estimatedSavings": number(),
		}, "title", "description", "estimatedSavings")),
		"forecast": array(object(map[string]*genai.Schema{
			"month":         str(),
			"cost":          nullableNumber(),
			"predictedCost": nullableNumber(),
		}, "month")),
	}, "currentCost", "optimizedCost", "savings", "breakdown", "costBreakdown", "recommendations", "forecast")
}
