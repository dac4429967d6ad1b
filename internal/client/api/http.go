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

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

// HTTPClient implements Client over the JSON REST surface.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient returns an HTTPClient for the given base URL. token may be
// empty; a nil httpClient gets a default with a 15s timeout.
func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *HTTPClient) Changes(ctx context.Context, since string) (*ChangesResponse, error) {
	q := url.Values{}
	if since != "" {
		q.Set("since", since)
	}
	path := "/sync/changes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	out := &ChangesResponse{}
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Apply(ctx context.Context, clientID string, ops []ApplyOp) (*ApplyResponse, error) {
	if len(ops) > MaxApplyOps {
		return nil, fmt.Errorf("apply batch exceeds %d ops", MaxApplyOps)
	}
	body := map[string]any{"clientId": clientID, "ops": ops}
	out := &ApplyResponse{}
	if err := c.doJSON(ctx, http.MethodPost, "/sync/apply", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateTicketAttachment(ctx context.Context, ticketID string, in AttachmentInput) (*models.Attachment, error) {
	return c.createAttachment(ctx, fmt.Sprintf("/tickets/%s/attachments", url.PathEscape(ticketID)), in)
}

func (c *HTTPClient) CreateVisitAttachment(ctx context.Context, visitID string, in AttachmentInput) (*models.Attachment, error) {
	return c.createAttachment(ctx, fmt.Sprintf("/visits/%s/attachments", url.PathEscape(visitID)), in)
}

func (c *HTTPClient) createAttachment(ctx context.Context, path string, in AttachmentInput) (*models.Attachment, error) {
	out := &models.Attachment{}
	if err := c.doJSON(ctx, http.MethodPost, path, "", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) UploadAttachment(ctx context.Context, id string, mimeType string, data []byte) (*models.Attachment, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	path := fmt.Sprintf("/attachments/%s/content", url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mimeType)
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, readErr)
	}
	if err := checkStatus(resp.StatusCode, payload); err != nil {
		return nil, err
	}

	out := &models.Attachment{}
	if err := json.Unmarshal(payload, out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var out []models.Template
	if err := c.doJSON(ctx, http.MethodGet, "/templates", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListSiteOwners(ctx context.Context) ([]models.SiteOwner, error) {
	var out []models.SiteOwner
	if err := c.doJSON(ctx, http.MethodGet, "/site-owners", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListFieldDefs(ctx context.Context) ([]models.FieldDef, error) {
	var out []models.FieldDef
	if err := c.doJSON(ctx, http.MethodGet, "/field-defs", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListTickets(ctx context.Context, page, pageSize int) ([]models.TicketSummary, error) {
	var out []models.TicketSummary
	if err := c.doJSON(ctx, http.MethodGet, pagedPath("/tickets", page, pageSize), "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListSites(ctx context.Context, page, pageSize int) ([]models.Site, error) {
	var out []models.Site
	if err := c.doJSON(ctx, http.MethodGet, pagedPath("/sites", page, pageSize), "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	out := &models.Ticket{}
	if err := c.doJSON(ctx, http.MethodGet, "/tickets/"+url.PathEscape(id), "", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetSite(ctx context.Context, id string) (*models.Site, error) {
	out := &models.Site{}
	if err := c.doJSON(ctx, http.MethodGet, "/sites/"+url.PathEscape(id), "", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func pagedPath(base string, page, pageSize int) string {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))
	q.Set("sort", "-updatedAt")
	return base + "?" + q.Encode()
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, method, requestPath, contentType string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, readErr)
	}

	if err := checkStatus(resp.StatusCode, payload); err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func checkStatus(statusCode int, payload []byte) error {
	if statusCode >= 200 && statusCode <= 299 {
		return nil
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return ErrUnauthorized
	}

	var errPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &errPayload)
	return &APIError{
		StatusCode: statusCode,
		Code:       errPayload.Code,
		Message:    errPayload.Message,
	}
}
