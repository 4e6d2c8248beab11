// Package plangen talks to the external AI plan-generation API.
package plangen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fitformula/api/internal/domain"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	mealPlanPath    = "/api/meal-plan"
	workoutPlanPath = "/workout"

	defaultTimeout = 90 * time.Second
	maxErrorBody   = 64 << 10
)

// ErrUnavailable covers failures to reach the plan API or to make sense of its answer.
var ErrUnavailable = errors.New("plan api unavailable")

// APIError is a non-2xx answer from the plan API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("plan api: %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("plan api: status %d", e.Status)
}

// Client generates plans.
type Client interface {
	GenerateMealPlan(ctx context.Context, req domain.MealPlanRequest) (*domain.MealPlan, error)
	GenerateWorkoutPlan(ctx context.Context, req domain.WorkoutPlanRequest) (*domain.WorkoutPlan, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) (Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("plan api base url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *httpClient) GenerateMealPlan(ctx context.Context, req domain.MealPlanRequest) (*domain.MealPlan, error) {
	var out domain.MealPlan
	if err := c.post(ctx, mealPlanPath, req, &out); err != nil {
		return nil, err
	}
	if out.Content == "" {
		return nil, fmt.Errorf("%w: empty meal plan", ErrUnavailable)
	}
	return &out, nil
}

func (c *httpClient) GenerateWorkoutPlan(ctx context.Context, req domain.WorkoutPlanRequest) (*domain.WorkoutPlan, error) {
	var out domain.WorkoutPlan
	if err := c.post(ctx, workoutPlanPath, req, &out); err != nil {
		return nil, err
	}
	if out.Content == "" {
		return nil, fmt.Errorf("%w: empty workout plan", ErrUnavailable)
	}
	if out.Exercises == nil {
		out.Exercises = []domain.Exercise{}
	}
	return &out, nil
}

func (c *httpClient) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// decodeAPIError reads the {"detail": ...} body the plan API sends on failure.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			apiErr.Detail = s
		} else {
			// Validation failures come back as a structured list
			apiErr.Detail = string(body.Detail)
		}
	}
	return apiErr
}
