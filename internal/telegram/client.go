package telegram

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
	"time"

	"github.com/sirupsen/logrus"
)

// APIError is a failed catalog call. Message is the server's error string,
// or a transport description when there is none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unauthorized reports whether the server rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

type Company struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Project struct {
	ID          uint   `json:"id"`
	CompanySlug string `json:"company_slug"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}

type Unit struct {
	ID          uint     `json:"id"`
	ProjectID   uint     `json:"project_id"`
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Sqm         float64  `json:"sqm"`
	PricePerSqm int64    `json:"price_per_sqm"`
	TotalPrice  int64    `json:"total_price"`
	Floor       string   `json:"floor"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Status      string   `json:"status"`
	Images      []string `json:"images"`
	ImageURLs   []string `json:"image_urls"`
}

type NewUnit struct {
	ProjectID   uint    `json:"project_id"`
	Code        string  `json:"code"`
	Sqm         float64 `json:"sqm"`
	PricePerSqm int64   `json:"price_per_sqm"`
	Floor       string  `json:"floor"`
}

type NewProject struct {
	CompanySlug string `json:"company_slug"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
}

type envelope struct {
	OK          bool            `json:"ok"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error"`
	AccessToken string          `json:"access_token"`
}

// CatalogClient talks to the catalog REST API. Calls are never retried.
type CatalogClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

func NewCatalogClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *CatalogClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FileURL is where the API serves an uploaded file.
func (c *CatalogClient) FileURL(name string) string {
	return c.baseURL + "/uploads/" + url.PathEscape(name)
}

func (c *CatalogClient) do(ctx context.Context, method, path string, query url.Values, body any, token string) (*envelope, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Error("Catalog request failed")
		return nil, &APIError{Message: fmt.Sprintf("Request error: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("Request error: %v", err)}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("HTTP error: %d", resp.StatusCode)
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
			"error":  msg,
		}).Warn("Catalog request rejected")
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "Invalid response from API"}
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return &env, nil
}

func (c *CatalogClient) fetch(ctx context.Context, method, path string, query url.Values, body any, token string, out any) error {
	env, err := c.do(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Status: http.StatusOK, Message: "Invalid response from API"}
	}
	return nil
}

func (c *CatalogClient) Companies(ctx context.Context) ([]Company, error) {
	var companies []Company
	err := c.fetch(ctx, http.MethodGet, "/companies", nil, nil, "", &companies)
	return companies, err
}

// Projects lists projects, optionally limited to one company.
func (c *CatalogClient) Projects(ctx context.Context, companySlug string) ([]Project, error) {
	query := url.Values{}
	if companySlug != "" {
		query.Set("company_slug", companySlug)
	}
	var projects []Project
	err := c.fetch(ctx, http.MethodGet, "/projects", query, nil, "", &projects)
	return projects, err
}

// Units returns the first page of a project's units at the largest page size.
func (c *CatalogClient) Units(ctx context.Context, projectID uint) ([]Unit, error) {
	query := url.Values{
		"project_id": []string{strconv.FormatUint(uint64(projectID), 10)},
		"limit":      []string{"50"},
	}
	var units []Unit
	err := c.fetch(ctx, http.MethodGet, "/units", query, nil, "", &units)
	return units, err
}

func (c *CatalogClient) Unit(ctx context.Context, id uint) (*Unit, error) {
	var unit Unit
	if err := c.fetch(ctx, http.MethodGet, fmt.Sprintf("/units/%d", id), nil, nil, "", &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

// Login returns an access token for the given credentials.
func (c *CatalogClient) Login(ctx context.Context, username, password string) (string, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"username": username,
		"password": password,
	}, "")
	if err != nil {
		return "", err
	}
	if env.AccessToken == "" {
		return "", &APIError{Status: http.StatusOK, Message: "Invalid response from API"}
	}
	return env.AccessToken, nil
}

func (c *CatalogClient) CreateUnit(ctx context.Context, token string, req NewUnit) (*Unit, error) {
	var unit Unit
	if err := c.fetch(ctx, http.MethodPost, "/units", nil, req, token, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (c *CatalogClient) DeleteUnit(ctx context.Context, token string, id uint) error {
	return c.fetch(ctx, http.MethodDelete, fmt.Sprintf("/units/%d", id), nil, nil, token, nil)
}

func (c *CatalogClient) CreateProject(ctx context.Context, token string, req NewProject) (*Project, error) {
	var project Project
	if err := c.fetch(ctx, http.MethodPost, "/projects", nil, req, token, &project); err != nil {
		return nil, err
	}
	return &project, nil
}
