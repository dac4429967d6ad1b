package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanges_SinceParamAndDecoding(t *testing.T) {
	var gotSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sync/changes", r.URL.Path)
		gotSince = r.URL.Query().Get("since")
		_ = json.NewEncoder(w).Encode(ChangesResponse{
			Cursor: "2024-01-02T00:00:00Z",
			Changes: models.ChangeSet{
				Tickets: []models.TicketSummary{{ID: "t1", UpdatedAt: "2024-01-02T00:00:00Z"}},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", nil)

	resp, err := c.Changes(context.Background(), "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", gotSince)
	assert.Equal(t, "2024-01-02T00:00:00Z", resp.Cursor)
	require.Len(t, resp.Changes.Tickets, 1)

	// first pull: no since param at all
	_, err = c.Changes(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, gotSince)
}

func TestApply_SendsClientIDAndOps(t *testing.T) {
	var gotBody struct {
		ClientID string    `json:"clientId"`
		Ops      []ApplyOp `json:"ops"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sync/apply", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(ApplyResponse{Results: []ApplyResult{
			{OpID: "op1", OK: true, ServerUpdatedAt: "2024-01-02T00:00:00Z"},
		}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", nil)

	resp, err := c.Apply(context.Background(), "client-1", []ApplyOp{
		{ID: "op1", Entity: "ticket", EntityID: "T1", Op: "update", BaseUpdatedAt: "2024-01-01T00:00:00Z", Payload: []byte(`{"patch":{}}`)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].OK)

	assert.Equal(t, "client-1", gotBody.ClientID)
	require.Len(t, gotBody.Ops, 1)
	assert.Equal(t, "op1", gotBody.Ops[0].ID)
	assert.Equal(t, "2024-01-01T00:00:00Z", gotBody.Ops[0].BaseUpdatedAt)
}

func TestApply_RejectsOversizeBatch(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:0", "", nil)
	ops := make([]ApplyOp, MaxApplyOps+1)
	_, err := c.Apply(context.Background(), "c", ops)
	require.Error(t, err)
}

func TestUploadAttachment_PutsRawBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/attachments/A9/content", r.URL.Path)
		require.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, body)
		_ = json.NewEncoder(w).Encode(models.Attachment{
			ID: "A9", URL: "https://cdn.example.com/A9", Status: models.AttachmentReady,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", nil)

	got, err := c.UploadAttachment(context.Background(), "A9", "image/jpeg", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, models.AttachmentReady, got.Status)
	assert.Equal(t, "https://cdn.example.com/A9", got.URL)
}

func TestAuthTokenHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", nil)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "api error with code",
			status: http.StatusNotFound,
			body:   `{"code":"NOT_FOUND","message":"no such ticket"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "NOT_FOUND", apiErr.Code)
				assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, "", nil)
			err := c.Ping(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestTransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewHTTPClient(srv.URL, "", nil)
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestListTickets_PagedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tickets", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "50", r.URL.Query().Get("pageSize"))
		require.Equal(t, "-updatedAt", r.URL.Query().Get("sort"))
		_ = json.NewEncoder(w).Encode([]models.TicketSummary{{ID: "t1"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", nil)
	got, err := c.ListTickets(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
