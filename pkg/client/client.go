// Package client provides a Go client for the spacecol HTTP API.
//
// It covers inspection (Info, Status, State, Connections), synchronous
// stepping and background runs that are tracked as Tasks.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sanonone/spacecol/pkg/core/colony"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/sanonone/spacecol/pkg/export/dot"
)

// --- Custom Errors ---

// APIError represents an error returned by the API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// --- JSON Response Structs ---

// StepResult models the response of POST /step.
type StepResult struct {
	Steps   int              `json:"steps"`
	Created int              `json:"created"`
	Last    colony.StepStats `json:"last"`
	Status  engine.Status    `json:"status"`
	Errors  []string         `json:"frame_errors,omitempty"`
}

// Info models GET /info. The configuration is kept raw so the client does
// not pin the server's config schema.
type Info struct {
	RunID  string          `json:"run_id"`
	Host   json.RawMessage `json:"host"`
	Config json.RawMessage `json:"config"`
}

type connectionsResponse struct {
	Edges []dot.Edge `json:"edges"`
}

// Task represents a background run on the server.
type Task struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Summary *engine.Summary `json:"summary,omitempty"`
	Error   string          `json:"error,omitempty"`

	client *Client // Reference to the client for polling.
}

// --- Client ---

// Client talks to a spacecol server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for host:port. token may be empty.
func New(host string, port int, token string) *Client {
	return NewFromURL(fmt.Sprintf("http://%s:%d", host, port), token)
}

// NewFromURL creates a client for a base URL such as "http://127.0.0.1:9093".
func NewFromURL(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// request executes a call and returns the body of a successful response.
func (c *Client) request(method, endpoint string) ([]byte, error) {
	req, err := http.NewRequest(method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(respBody, &errResp) == nil && errResp["error"] != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return respBody, nil
}

// jsonRequest executes a call and decodes the JSON response into out.
func (c *Client) jsonRequest(method, endpoint string, out any) error {
	body, err := c.request(method, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid JSON response for %s %s: %w", method, endpoint, err)
	}
	return nil
}

// Refresh updates the task's status by querying the server.
func (t *Task) Refresh() error {
	if t.client == nil {
		return fmt.Errorf("client is not associated with the task")
	}
	updated, err := t.client.GetTaskStatus(t.ID)
	if err != nil {
		return err
	}
	t.Status = updated.Status
	t.Summary = updated.Summary
	t.Error = updated.Error
	return nil
}

// Wait blocks until the task has finished, checking its status at regular
// intervals. A cancelled run is not an error.
func (t *Task) Wait(interval, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return fmt.Errorf("timeout exceeded while waiting for task %s", t.ID)
		case <-ticker.C:
			if err := t.Refresh(); err != nil {
				return err
			}
			switch t.Status {
			case "completed", "cancelled":
				return nil
			case "failed":
				return fmt.Errorf("task %s failed with error: %s", t.ID, t.Error)
			case "running":
				// Continue waiting.
			default:
				return fmt.Errorf("unknown task status: %s", t.Status)
			}
		}
	}
}

// --- Simulation Methods ---

// Health reports whether the server answers /healthz.
func (c *Client) Health() error {
	_, err := c.request(http.MethodGet, "/healthz")
	return err
}

// Info returns the run id, host and configuration of the server.
func (c *Client) Info() (*Info, error) {
	var info Info
	if err := c.jsonRequest(http.MethodGet, "/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Status returns the engine counters.
func (c *Client) Status() (*engine.Status, error) {
	var st engine.Status
	if err := c.jsonRequest(http.MethodGet, "/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// State returns a full snapshot.
func (c *Client) State() (*engine.Snapshot, error) {
	var s engine.Snapshot
	if err := c.jsonRequest(http.MethodGet, "/state", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Step advances the simulation by n iterations.
func (c *Client) Step(n int) (*StepResult, error) {
	var res StepResult
	if err := c.jsonRequest(http.MethodPost, "/step?n="+strconv.Itoa(n), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Connections returns the source to target edges.
func (c *Client) Connections() ([]dot.Edge, error) {
	var resp connectionsResponse
	if err := c.jsonRequest(http.MethodGet, "/connections", &resp); err != nil {
		return nil, err
	}
	return resp.Edges, nil
}

// ConnectionsDOT returns the connection graph in Graphviz format.
func (c *Client) ConnectionsDOT() (string, error) {
	body, err := c.request(http.MethodGet, "/connections?format=dot")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Run starts a background run and returns its Task.
func (c *Client) Run() (*Task, error) {
	var task Task
	if err := c.jsonRequest(http.MethodPost, "/run", &task); err != nil {
		return nil, err
	}
	task.client = c // Inject the client to allow polling.
	return &task, nil
}

// GetTaskStatus retrieves the status of a background run.
func (c *Client) GetTaskStatus(taskID string) (*Task, error) {
	var task Task
	if err := c.jsonRequest(http.MethodGet, "/tasks/"+taskID, &task); err != nil {
		return nil, err
	}
	task.client = c
	return &task, nil
}

// CancelTask stops a background run and returns its final state.
func (c *Client) CancelTask(taskID string) (*Task, error) {
	var task Task
	if err := c.jsonRequest(http.MethodPost, "/tasks/"+taskID+"/cancel", &task); err != nil {
		return nil, err
	}
	task.client = c
	return &task, nil
}
