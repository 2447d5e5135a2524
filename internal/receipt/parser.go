// Package receipt turns recognized receipt text into a transaction draft
// using a generative model. OCR itself happens upstream; this package only
// sees the recognized text. Every failure path yields the placeholder draft
// rather than an error.
package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"pennykeep/internal/log"
)

const DefaultModel = "gemini-2.0-flash-lite"

const promptTemplate = "Extract the receipt title, total amount and the date of the receipt " +
	"from the following receipt text. Title should be the name of the place item was purchased. " +
	"Return the result as a JSON object with keys \"title\", \"amount\", and \"date\". " +
	"Date should be returned in yyyy-mm-dd format. Do not place a comma for amount. " +
	"Return ONLY valid raw JSON with no Markdown fences. Receipt text:\n\n%s"

// Draft is the best-effort parse of a receipt. Amount stays a string: the
// entry form owns numeric validation, the same way manual input does.
type Draft struct {
	Title  string    `json:"title"`
	Amount string    `json:"amount"`
	Date   time.Time `json:"date"`
}

// placeholder is returned whenever parsing fails at any stage.
func placeholder(now time.Time) Draft {
	return Draft{Title: "Receipt", Amount: "0.00", Date: now}
}

type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Parser asks a generative model to structure receipt text.
type Parser struct {
	model  string
	gen    generator
	logger *log.Logger
	now    func() time.Time
}

// NewParser builds a parser backed by the genai API. Credentials come from
// the environment the genai client reads (GEMINI_API_KEY or GOOGLE_API_KEY).
func NewParser(ctx context.Context, model string, logger *log.Logger) (*Parser, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Parser{
		model:  model,
		gen:    &genaiGenerator{client: client, model: model},
		logger: logger.WithComponent(log.ComponentReceipt),
		now:    time.Now,
	}, nil
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Parse structures the recognized text. It never returns an error: a failed
// model call or unusable output produces the placeholder draft.
func (p *Parser) Parse(ctx context.Context, recognizedText string) Draft {
	raw, err := p.gen.generate(ctx, fmt.Sprintf(promptTemplate, recognizedText))
	if err != nil {
		p.logger.WarnContext(ctx, "Receipt model call failed, using placeholder",
			log.FieldOperation, log.OpParse, log.FieldError, err)
		return placeholder(p.now())
	}

	draft, err := extractDraft(raw, p.now())
	if err != nil {
		p.logger.WarnContext(ctx, "Receipt model output not usable, using placeholder",
			log.FieldOperation, log.OpParse, log.FieldError, err)
		return placeholder(p.now())
	}
	return draft
}

// extractDraft parses the model output: strip fences the model was told not
// to emit (it sometimes does anyway), then decode the JSON object.
func extractDraft(raw string, now time.Time) (Draft, error) {
	clean := stripFences(raw)

	var payload struct {
		Title  string          `json:"title"`
		Amount json.RawMessage `json:"amount"`
		Date   string          `json:"date"`
	}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return Draft{}, fmt.Errorf("decode model output: %w", err)
	}
	if payload.Title == "" {
		return Draft{}, fmt.Errorf("model output has no title")
	}

	draft := Draft{Title: payload.Title, Amount: "0.00", Date: now}

	// amount may arrive as a number or a string.
	if len(payload.Amount) > 0 {
		var asString string
		var asNumber float64
		if err := json.Unmarshal(payload.Amount, &asString); err == nil && asString != "" {
			draft.Amount = asString
		} else if err := json.Unmarshal(payload.Amount, &asNumber); err == nil {
			draft.Amount = fmt.Sprintf("%.2f", asNumber)
		}
	}

	if payload.Date != "" {
		if parsed, err := time.Parse("2006-01-02", payload.Date); err == nil {
			draft.Date = parsed
		}
	}
	return draft, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
