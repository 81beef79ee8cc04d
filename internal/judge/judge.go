package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// languageIds maps supported language tags to judge language identifiers.
var languageIds = map[string]int{
	"javascript": 63,
	"python":     71,
	"java":       62,
	"cpp":        54,
	"c":          50,
}

var ErrUnsupportedLanguage = fmt.Errorf("unsupported language")

func SupportedLanguage(language string) bool {
	_, ok := languageIds[language]
	return ok
}

type SubmissionParams struct {
	Code     string
	Language string
	Stdin    string
}

type Result struct {
	Output string
	Status string
}

type Runner interface {
	Execute(ctx context.Context, params SubmissionParams) (Result, error)
}

// Client submits code to a Judge0-compatible execution API and waits for
// the result. Calls are bounded by the configured timeout; nothing is
// retried.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *log.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logger,
	}
}

type submissionRequest struct {
	LanguageId int    `json:"language_id"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

type submissionResponse struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Message       string `json:"message"`
	Status        struct {
		Description string `json:"description"`
	} `json:"status"`
}

func (c *Client) Execute(ctx context.Context, params SubmissionParams) (Result, error) {
	languageId, ok := languageIds[params.Language]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, params.Language)
	}

	body, err := json.Marshal(submissionRequest{
		LanguageId: languageId,
		SourceCode: params.Code,
		Stdin:      params.Stdin,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal submission: %w", err)
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var sub submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	return Result{
		Output: firstNonEmpty(sub.Stdout, sub.Stderr, sub.CompileOutput, sub.Message, "No Output"),
		Status: sub.Status.Description,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
