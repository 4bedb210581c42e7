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
	"strings"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// userHeader identifies the caller when the server authenticates with a
// shared token rather than per-user JWTs.
const userHeader = "X-User-ID"

// HTTPClient implements Client using the flightpath HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	user       string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// WithUser returns c set to send user as the caller's ID.
func (c *HTTPClient) WithUser(user string) *HTTPClient {
	c.user = user
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Airports ---

func (c *HTTPClient) ListAirports(ctx context.Context, skip, limit int) (*ListAirportsResponse, error) {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/airports"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp ListAirportsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetAirport(ctx context.Context, id int64) (*model.Airport, error) {
	var airport model.Airport
	if err := c.doJSON(ctx, http.MethodGet, "/v1/airports/"+strconv.FormatInt(id, 10), nil, &airport); err != nil {
		return nil, err
	}
	return &airport, nil
}

// --- Topology ---

func (c *HTTPClient) Topology(ctx context.Context) (*model.Topology, error) {
	var topo model.Topology
	if err := c.doJSON(ctx, http.MethodGet, "/v1/topology", nil, &topo); err != nil {
		return nil, err
	}
	return &topo, nil
}

func (c *HTTPClient) Synthesize(ctx context.Context, airportIDs []int64) (*SynthesisResponse, error) {
	body := map[string]any{}
	if len(airportIDs) > 0 {
		body["airport_ids"] = airportIDs
	}
	var resp SynthesisResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/topology/synthesize", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Routes ---

func (c *HTTPClient) PlanRoute(ctx context.Context, req *PlanRouteRequest) (*PlanRouteResponse, error) {
	var resp PlanRouteResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/routes", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListRoutes(ctx context.Context, limit int) ([]*model.Route, error) {
	path := "/v1/routes"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Routes []*model.Route `json:"routes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Routes, nil
}

func (c *HTTPClient) GetRoute(ctx context.Context, id string) (*model.Route, error) {
	var route model.Route
	if err := c.doJSON(ctx, http.MethodGet, "/v1/routes/"+url.PathEscape(id), nil, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

func (c *HTTPClient) DeleteRoute(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/routes/"+url.PathEscape(id), nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.user != "" {
		req.Header.Set(userHeader, c.user)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

var _ Client = (*HTTPClient)(nil)
