package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
)

const defaultBatchSize = 30

// classifyRequest is the wire format for a single classification batch.
type classifyRequest struct {
	Descriptor  string   `json:"descriptor"`
	Items       []string `json:"items"`
	Model       string   `json:"model,omitempty"`
	Temperature float64  `json:"temperature"`
}

type classifyResponse struct {
	Matches []bool `json:"matches"`
}

// ClassifierService calls an external model endpoint to decide, per song,
// whether it matches a mood descriptor. Classification is best-effort by
// contract: a failed or malformed batch degrades to all-false for that
// batch and never aborts the run.
type ClassifierService struct {
	httpClient  *http.Client
	logger      *log.Logger
	baseURL     string
	apiKey      string
	model       string
	batchSize   int
	temperature float64
}

// ClassifierOpts contains the dependencies for creating a ClassifierService.
type ClassifierOpts struct {
	Config     shared.ClassifierConfig
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClassifierService creates a classifier from config. BaseURL is
// required; BatchSize defaults to 30 and Temperature is passed through
// as configured.
func NewClassifierService(opts ClassifierOpts) (*ClassifierService, error) {
	if opts.Config.BaseURL == "" {
		return nil, fmt.Errorf("%w: classifier base_url is required", shared.ErrMissingConfig)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	batchSize := opts.Config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &ClassifierService{
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		baseURL:     strings.TrimRight(opts.Config.BaseURL, "/"),
		apiKey:      opts.Config.APIKey,
		model:       opts.Config.Model,
		batchSize:   batchSize,
		temperature: opts.Config.Temperature,
	}, nil
}

// Classify partitions items into contiguous batches and classifies each
// independently. The result always has exactly len(items) entries, aligned
// by index with the input: a failed batch contributes all-false, a short
// batch response is padded with false, an over-long one is truncated.
func (c *ClassifierService) Classify(ctx context.Context, descriptor string, items []string) []bool {
	matches := make([]bool, 0, len(items))

	for start := 0; start < len(items); start += c.batchSize {
		end := start + c.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		result := c.classifyBatch(ctx, descriptor, batch)

		// pad or truncate so the batch stays index-aligned
		if len(result) < len(batch) {
			result = append(result, make([]bool, len(batch)-len(result))...)
		} else if len(result) > len(batch) {
			result = result[:len(batch)]
		}

		matches = append(matches, result...)
	}

	return matches
}

func (c *ClassifierService) classifyBatch(ctx context.Context, descriptor string, batch []string) []bool {
	body, err := json.Marshal(classifyRequest{
		Descriptor:  descriptor,
		Items:       batch,
		Model:       c.model,
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Warn("failed to encode classification batch", "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("failed to create classification request", "error", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("classification batch failed", "size", len(batch), "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		c.logger.Warn("classifier rejected batch", "status", resp.StatusCode, "body", string(payload))
		return nil
	}

	var cr classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		c.logger.Warn("malformed classifier response", "error", err)
		return nil
	}

	return cr.Matches
}
