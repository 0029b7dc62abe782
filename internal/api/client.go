package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/internal/dto"
	"github.com/studyline/testflow/internal/model"
)

// Client is the knowledge/tests API surface the attempt engine consumes. The
// server normalizes response envelopes; this client only supplies paths and
// payload shapes.
type Client interface {
	FetchTest(ctx context.Context, testID string) (*model.TestDefinition, error)
	FetchState(ctx context.Context, testID string) (model.AttemptState, error)
	SaveAnswer(ctx context.Context, testID, taskID, value string) (*model.SubmittedAnswer, error)
	Complete(ctx context.Context, testID string) (*model.CompletedAttempt, error)
	LessonStatus(ctx context.Context, lessonID string) ([]model.TestStatusSummary, error)
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds the HTTP-backed API client. baseURL is the platform root
// without a trailing slash; token, when non-empty, is sent as a bearer token.
func NewClient(baseURL, token string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) FetchTest(ctx context.Context, testID string) (*model.TestDefinition, error) {
	var payload dto.TestDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/knowledge/tests/%s/", testID), nil, nil, &payload); err != nil {
		return nil, err
	}
	def, err := payload.ToModel()
	if err != nil {
		log.Error().Err(err).Str("testID", testID).Msg("Fetched test definition failed validation")
		return nil, err
	}
	return def, nil
}

func (c *httpClient) FetchState(ctx context.Context, testID string) (model.AttemptState, error) {
	var payload dto.AttemptStateDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/knowledge/tests/%s/state", testID), nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.ToModel()
}

func (c *httpClient) SaveAnswer(ctx context.Context, testID, taskID, value string) (*model.SubmittedAnswer, error) {
	body := dto.SaveAnswerRequest{TaskID: taskID, UserAnswer: value}
	var echo dto.SubmittedAnswerDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/knowledge/tests/%s/answer", testID), nil, body, &echo); err != nil {
		return nil, err
	}
	return &model.SubmittedAnswer{Value: echo.Value}, nil
}

func (c *httpClient) Complete(ctx context.Context, testID string) (*model.CompletedAttempt, error) {
	var payload dto.AttemptStateDTO
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/knowledge/tests/%s/complete", testID), nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.ToCompleted()
}

func (c *httpClient) LessonStatus(ctx context.Context, lessonID string) ([]model.TestStatusSummary, error) {
	var rows []dto.TestStatusDTO
	params := url.Values{"lessonId": []string{lessonID}}
	if err := c.do(ctx, http.MethodGet, "/knowledge/tests/status", params, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.TestStatusSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToModel())
	}
	return out, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	op := method + " " + path

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request body: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("Request failed before reaching the server")
		return &RequestError{Op: op, Err: err}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case res.StatusCode/100 != 2:
		log.Warn().Str("op", op).Int("status", res.StatusCode).Msg("Server rejected request")
		return &RequestError{Op: op, StatusCode: res.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
