// Package extract turns a finalized single-page PDF into a canonical
// QuarterlyReport record via the LLM collaborator, then corrects quarter and
// year from the source filename.
package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lankadata/csepipe/internal/model"
	"github.com/lankadata/csepipe/internal/pdfdoc"
	"github.com/lankadata/csepipe/pkg/anthropic"
)

// Extraction failure taxonomy. Both are per-document: the batch moves on to
// the next document, keeping the raw payload for offline recovery.
var (
	ErrEmptyExtraction   = eris.New("extract: empty response from model")
	ErrInvalidExtraction = eris.New("extract: response is not valid JSON")
)

// Extractor sends document text to the LLM collaborator and parses the
// structured record it returns.
type Extractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64

	// textFn extracts plain text from a PDF; swapped in tests.
	textFn func(path string, maxPages int) (string, error)
}

// New creates an Extractor using the given model.
func New(client anthropic.Client, llmModel string) *Extractor {
	return &Extractor{
		client:    client,
		model:     llmModel,
		maxTokens: 2048,
		textFn:    pdfdoc.Text,
	}
}

// ExtractFile processes one finalized PDF into a validated, filename-
// corrected record. On ErrInvalidExtraction the raw model output is returned
// alongside the error so the caller can preserve it.
func (e *Extractor) ExtractFile(ctx context.Context, pdfPath string) (*model.QuarterlyReport, string, error) {
	text, err := e.textFn(pdfPath, 0)
	if err != nil {
		return nil, "", eris.Wrapf(err, "extract: read %s", pdfPath)
	}

	temp := 0.2
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: extractionPrompt + "\n\n" + text},
		},
	})
	if err != nil {
		return nil, "", eris.Wrapf(err, "extract: %s", pdfPath)
	}
	resp.Usage.LogUsage(resp.Model, "extract")

	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return nil, "", eris.Wrapf(ErrEmptyExtraction, "extract: %s", pdfPath)
	}

	var report model.QuarterlyReport
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &report); err != nil {
		zap.L().Error("extraction output failed to parse",
			zap.String("pdf", pdfPath),
			zap.Error(err))
		return nil, raw, eris.Wrapf(ErrInvalidExtraction, "extract: %s", pdfPath)
	}

	report = CorrectFromFilename(pdfPath, report)

	if err := report.Validate(); err != nil {
		return nil, raw, eris.Wrapf(err, "extract: %s", pdfPath)
	}
	return &report, raw, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
