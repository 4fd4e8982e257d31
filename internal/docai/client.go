package docai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	submitPath = "/fax-ai"
	pollPath   = "/response"

	accessTokenHeader = "x-access-tokens"

	// The service clusters pages into per-subject documents when asked for
	// full multi-patient detection.
	multiPatientMode = "full"
)

// HTTPClient implements Client against the hosted document-AI endpoint.
type HTTPClient struct {
	baseURL     string
	accessToken string
	maxPages    int
	httpClient  *http.Client
}

// NewHTTPClient constructs an HTTPClient.
func NewHTTPClient(baseURL, accessToken string, maxPages int, timeout time.Duration) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("DOCAI_BASE_URL is required")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("DOCAI_ACCESS_TOKEN is required")
	}
	if maxPages <= 0 {
		maxPages = 200
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		maxPages:    maxPages,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type submitResponse struct {
	IsSuccess bool   `json:"is_success"`
	TaskID    string `json:"task_id"`
	Message   string `json:"message"`
}

// Submit uploads a document for processing and returns the remote task id.
func (c *HTTPClient) Submit(ctx context.Context, fileName string, file io.Reader) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("docai submit: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("docai submit: read file: %w", err)
	}
	if err := writer.WriteField("multi_patient", multiPatientMode); err != nil {
		return "", fmt.Errorf("docai submit: build form: %w", err)
	}
	if err := writer.WriteField("max_pages", strconv.Itoa(c.maxPages)); err != nil {
		return "", fmt.Errorf("docai submit: build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("docai submit: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(accessTokenHeader, c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("docai submit timeout: %w", err)
		}
		return "", fmt.Errorf("docai submit: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("docai submit: read response: %w", err)
	}

	var parsed submitResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("docai submit: parse response (http %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.IsSuccess {
		msg := strings.TrimSpace(parsed.Message)
		if msg == "" {
			msg = "upload failed"
		}
		return "", fmt.Errorf("docai submit rejected: %s", msg)
	}
	if strings.TrimSpace(parsed.TaskID) == "" {
		return "", fmt.Errorf("docai submit: response missing task_id")
	}
	return parsed.TaskID, nil
}

type pollEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Poll fetches the current status for a task. On terminal success the full
// response body is returned as the raw result payload.
func (c *HTTPClient) Poll(ctx context.Context, taskID string) (PollResult, error) {
	endpoint := c.baseURL + pollPath + "?task_id=" + url.QueryEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return PollResult{}, err
	}
	req.Header.Set(accessTokenHeader, c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PollResult{}, fmt.Errorf("docai poll: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return PollResult{}, fmt.Errorf("docai poll: read response: %w", err)
	}

	var envelope pollEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PollResult{}, fmt.Errorf("docai poll: parse response (http %d): %w", resp.StatusCode, err)
	}

	result := PollResult{
		Status:  envelope.Status,
		Message: strings.TrimSpace(envelope.Message),
	}
	if envelope.Status == StatusSuccess {
		result.Payload = json.RawMessage(raw)
	}
	return result, nil
}

var _ Client = (*HTTPClient)(nil)
