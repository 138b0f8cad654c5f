// Package gemini implements language-model services on Google Gemini.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/fwojciec/searchcrawl"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the extractor nor the request names one.
const DefaultModel = "gemini-2.5-flash"

const systemInstruction = "You are an AI assistant that reads information from web pages and performs tasks based on user instructions."

// Ensure FieldExtractor implements searchcrawl.FieldExtractor at compile time.
var _ searchcrawl.FieldExtractor = (*FieldExtractor)(nil)

// FieldExtractor implements searchcrawl.FieldExtractor using Google Gemini
// structured output.
type FieldExtractor struct {
	client *genai.Client
	model  string
}

// NewFieldExtractor creates a new FieldExtractor. An empty model selects
// DefaultModel.
func NewFieldExtractor(client *genai.Client, model string) *FieldExtractor {
	if model == "" {
		model = DefaultModel
	}
	return &FieldExtractor{client: client, model: model}
}

// ExtractFields sends the readable content of pages and the instruction to
// the model and decodes the JSON object it returns. Pages that failed to
// fetch are left out of the prompt.
func (e *FieldExtractor) ExtractFields(ctx context.Context, req *searchcrawl.ExtractRequest, pages []*searchcrawl.ScrapeResult) (map[string]any, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := BuildExtractPrompt(req.Instruction, pages)
	if err != nil {
		return nil, err
	}

	model := e.model
	if req.Model != "" {
		model = req.Model
	}

	result, err := e.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildExtractConfig(req.JSONSchema),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINTERNAL, "gemini returned nil result")
	}

	return ParseFields(result.Text())
}

// BuildExtractConfig returns the GenerateContentConfig that constrains the
// response to a JSON object matching schema.
func BuildExtractConfig(schema map[string]any) *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature:        &temp,
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema,
	}
}

type promptPage struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BuildExtractPrompt builds the user prompt holding the instruction and the
// url, title and content of every page that was fetched. It returns an
// ENOTFOUND error when no page has content to read.
func BuildExtractPrompt(instruction string, pages []*searchcrawl.ScrapeResult) (string, error) {
	contents := make([]promptPage, 0, len(pages))
	for _, p := range pages {
		if p == nil || p.Degraded() {
			continue
		}
		contents = append(contents, promptPage{URL: p.URL, Title: p.Title, Content: p.Content})
	}
	if len(contents) == 0 {
		return "", searchcrawl.Errorf(searchcrawl.ENOTFOUND, "no crawled content to extract from")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(contents); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Read the website contents provided in the `Contents:` section and answer the user instructions accurately.\n\n")
	sb.WriteString("Instruction:\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\nContents:\n```json\n")
	sb.WriteString(strings.TrimSuffix(buf.String(), "\n"))
	sb.WriteString("\n```")
	return sb.String(), nil
}

// ParseFields decodes a model response into a JSON object. A surrounding
// Markdown code fence is tolerated.
func ParseFields(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINTERNAL, "model returned invalid JSON: %v", err)
	}
	if fields == nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINTERNAL, "model returned no JSON object")
	}
	return fields, nil
}
