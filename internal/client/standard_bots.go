// Package client implements the HTTP client for the Standard Bots routine
// editor API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/standardbots/sb-mcp/internal/common"
)

const routineEditorBase = "/api/v1/routine-editor"

// StandardBotsClient issues authenticated requests against a Standard Bots
// controller. Every request carries the bearer API key and a robot_kind
// header ("live" for a physical robot, "sim" for simulation).
//
// The client holds no state beyond the immutable connection configuration.
// Concurrent calls are independent HTTP requests with no ordering guarantee;
// serializing conflicting commands is the controller's job.
type StandardBotsClient struct {
	baseURL    string
	apiKey     string
	robotKind  string
	httpClient *http.Client
	logger     *common.Logger
}

// NewStandardBotsClient creates a client for the controller at baseURL.
// Returns an error when baseURL or apiKey is empty so that misconfiguration
// is caught at startup rather than on the first tool call.
func NewStandardBotsClient(baseURL, apiKey, robotKind string, logger *common.Logger) (*StandardBotsClient, error) {
	if baseURL == "" {
		return nil, invalidArgumentf("controller URL is required")
	}
	if apiKey == "" {
		return nil, invalidArgumentf("API key is required")
	}
	if robotKind == "" {
		robotKind = "live"
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	return &StandardBotsClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		robotKind: robotKind,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// BaseURL returns the configured controller URL.
func (c *StandardBotsClient) BaseURL() string { return c.baseURL }

// PlayRoutine starts executing the named routine, optionally seeding initial
// variable values. The variables mapping is forwarded verbatim.
func (c *StandardBotsClient) PlayRoutine(ctx context.Context, routineID string, variables map[string]interface{}) ([]byte, error) {
	if routineID == "" {
		return nil, invalidArgumentf("routine_id is required")
	}
	body := map[string]interface{}{}
	if len(variables) > 0 {
		body["variables"] = variables
	}
	return c.post(ctx, fmt.Sprintf("%s/routines/%s/play", routineEditorBase, url.PathEscape(routineID)), body)
}

// PauseRoutine suspends a running routine. With an empty routineID the
// editor-level pause endpoint is used, targeting whatever routine is running.
func (c *StandardBotsClient) PauseRoutine(ctx context.Context, routineID string) ([]byte, error) {
	if routineID == "" {
		return c.post(ctx, routineEditorBase+"/pause", nil)
	}
	return c.post(ctx, fmt.Sprintf("%s/routines/%s/pause", routineEditorBase, url.PathEscape(routineID)), nil)
}

// StopRoutine halts the running routine and all in-progress motion. Delivery
// failure is logged at error level before propagating: a lost stop request
// means the physical robot may still be moving.
func (c *StandardBotsClient) StopRoutine(ctx context.Context) ([]byte, error) {
	body, err := c.post(ctx, routineEditorBase+"/stop", nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("Stop request not delivered — robot may still be in motion")
		return nil, fmt.Errorf("stop request not delivered: %w", err)
	}
	return body, nil
}

// ListRoutines fetches routine summaries defined in the Routine Editor UI.
// Pagination is whatever the controller returns for the given window.
func (c *StandardBotsClient) ListRoutines(ctx context.Context, limit, offset int) ([]byte, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	return c.get(ctx, routineEditorBase+"/routines?"+params.Encode())
}

// GetRoutine fetches full routine detail by ID. A controller 404 surfaces as
// ErrNotFound.
func (c *StandardBotsClient) GetRoutine(ctx context.Context, routineID string) ([]byte, error) {
	if routineID == "" {
		return nil, invalidArgumentf("routine_id is required")
	}
	return c.get(ctx, fmt.Sprintf("%s/routines/%s", routineEditorBase, url.PathEscape(routineID)))
}

// GetRoutineState fetches the execution state of a routine. With an empty
// routineID the editor-level state endpoint reports on whatever is running.
func (c *StandardBotsClient) GetRoutineState(ctx context.Context, routineID string) ([]byte, error) {
	if routineID == "" {
		return c.get(ctx, routineEditorBase+"/state")
	}
	return c.get(ctx, fmt.Sprintf("%s/routines/%s/state", routineEditorBase, url.PathEscape(routineID)))
}

// GetStepVariables fetches the step variable values of a running routine.
// stepIDMap asks the controller to include the variable→step mapping.
func (c *StandardBotsClient) GetStepVariables(ctx context.Context, routineID string, stepIDMap bool) ([]byte, error) {
	params := url.Values{}
	params.Set("step_id_map", strconv.FormatBool(stepIDMap))
	if routineID == "" {
		return c.get(ctx, routineEditorBase+"/step-variables?"+params.Encode())
	}
	return c.get(ctx, fmt.Sprintf("%s/routines/%s/step-variables?%s", routineEditorBase, url.PathEscape(routineID), params.Encode()))
}

// --- HTTP plumbing ---

func (c *StandardBotsClient) applyHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("robot_kind", c.robotKind)
}

// get performs a GET request and returns the response body.
func (c *StandardBotsClient) get(ctx context.Context, path string) ([]byte, error) {
	c.logger.Debug().
		Str("method", "GET").
		Str("path", path).
		Msg("Controller Request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	return c.do(req, path)
}

// post performs a POST request with an optional JSON body and returns the
// response body.
func (c *StandardBotsClient) post(ctx context.Context, path string, data interface{}) ([]byte, error) {
	c.logger.Debug().
		Str("method", "POST").
		Str("path", path).
		Msg("Controller Request")

	var bodyReader io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	return c.do(req, path)
}

func (c *StandardBotsClient) do(req *http.Request, path string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Dur("duration", duration).Msg("Controller Request Failed")
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("status", resp.Status).
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Msg("Controller Response")

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := ""
		if json.Unmarshal(body, &errResp) == nil {
			if errResp.Error != "" {
				msg = errResp.Error
			} else if errResp.Message != "" {
				msg = errResp.Message
			}
		}
		if msg == "" {
			msg = string(body)
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}

	return body, nil
}
