package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
)

// apiSubmitter posts completed flows to the appointments endpoint.
type apiSubmitter struct {
	endpoint string
	client   *http.Client
}

func newAPISubmitter(baseURL string, timeout time.Duration) *apiSubmitter {
	return &apiSubmitter{
		endpoint: strings.TrimRight(baseURL, "/") + "/appointments",
		client:   &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Error   string            `json:"error"`
	Details []forms.Violation `json:"details"`
}

func (s *apiSubmitter) Submit(ctx context.Context, req wizard.SubmitRequest) (*wizard.Receipt, error) {
	payload := req.Answers.Merge(forms.Answers{
		"appointmentType": string(req.Flow.Type),
		"formVariant":     string(req.Flow.Variant),
	})
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("intake: encode payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("intake: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("intake: post appointment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		err := fmt.Errorf("intake: api returned %d", resp.StatusCode)
		if len(apiErr.Details) > 0 {
			err = forms.AsError(apiErr.Details)
		}
		return nil, &wizard.SubmitError{Message: apiErr.Error, Err: err}
	}

	var receipt wizard.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("intake: decode response: %w", err)
	}
	return &receipt, nil
}
