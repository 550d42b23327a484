package anchor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testAlert() domain.EmergencyAlert {
	return domain.EmergencyAlert{
		ID:          "ALERT-20260714-ABCD1234",
		Title:       "Coastal flooding",
		Description: "Rising water levels along the southern shore.",
		Severity:    domain.SeverityHigh,
		Status:      domain.StatusActive,
		Latitude:    60.1699,
		Longitude:   24.9384,
		IssuedAt:    time.Date(2026, 7, 14, 14, 0, 0, 0, time.UTC),
	}
}

func TestDataHash_Deterministic(t *testing.T) {
	h1, err := DataHash(testAlert())
	require.NoError(t, err)
	h2, err := DataHash(testAlert())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestDataHash_SensitiveToContent(t *testing.T) {
	h1, err := DataHash(testAlert())
	require.NoError(t, err)

	changed := testAlert()
	changed.Description = "Water levels receding."
	h2, err := DataHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestDataHash_IgnoresExistingProof(t *testing.T) {
	h1, err := DataHash(testAlert())
	require.NoError(t, err)

	anchored := testAlert()
	anchored.Proof = &domain.Proof{Hash: "deadbeef", Reference: "tx-1", Status: domain.ProofAnchored}
	h2, err := DataHash(anchored)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestClient_Submit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/anchor", r.URL.Path)

		var req anchorRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ALERT-20260714-ABCD1234", req.AlertID)
		assert.Len(t, req.Hash, 64)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(anchorResponse{Reference: "tx-0042"}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	proof, err := c.Submit(context.Background(), testAlert())
	require.NoError(t, err)
	assert.Equal(t, "tx-0042", proof.Reference)
	assert.Equal(t, domain.ProofAnchored, proof.Status)
	assert.Len(t, proof.Hash, 64)
}

func TestClient_Submit_MissingReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Submit(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reference")
}

func TestClient_Submit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "ledger down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Submit(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_Verify_Anchored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anchor/tx-0042", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(anchorResponse{Reference: "tx-0042", Hash: "abc123"}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	proof, err := c.Verify(context.Background(), "tx-0042")
	require.NoError(t, err)
	assert.Equal(t, domain.ProofAnchored, proof.Status)
	assert.Equal(t, "abc123", proof.Hash)
}

func TestClient_Verify_NotFoundIsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	proof, err := c.Verify(context.Background(), "tx-9999")
	require.NoError(t, err)
	assert.Equal(t, domain.ProofPending, proof.Status)
	assert.Equal(t, "tx-9999", proof.Reference)
}
