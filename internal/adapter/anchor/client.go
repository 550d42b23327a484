package anchor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// Client submits alert data hashes to the external tamper-evident ledger.
// It implements alert.Anchorer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a ledger client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Submit hashes the alert and records the hash on the ledger. The returned
// proof carries the ledger's reference for later verification.
func (c *Client) Submit(ctx context.Context, a domain.EmergencyAlert) (domain.Proof, error) {
	hash, err := DataHash(a)
	if err != nil {
		return domain.Proof{}, err
	}

	payload, err := json.Marshal(anchorRequest{AlertID: a.ID, Hash: hash})
	if err != nil {
		return domain.Proof{}, fmt.Errorf("encode anchor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/anchor", bytes.NewReader(payload))
	if err != nil {
		return domain.Proof{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Proof{}, fmt.Errorf("anchor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return domain.Proof{}, fmt.Errorf("ledger API error: status %d: %s", resp.StatusCode, body)
	}

	var anchorResp anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&anchorResp); err != nil {
		return domain.Proof{}, fmt.Errorf("decode response: %w", err)
	}
	if anchorResp.Reference == "" {
		return domain.Proof{}, fmt.Errorf("ledger returned no reference for %s", a.ID)
	}

	return domain.Proof{
		Hash:      hash,
		Reference: anchorResp.Reference,
		Status:    domain.ProofAnchored,
	}, nil
}

// Verify checks whether a previously anchored reference still matches the
// hash the ledger recorded.
func (c *Client) Verify(ctx context.Context, reference string) (domain.Proof, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/anchor/"+reference, nil)
	if err != nil {
		return domain.Proof{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Proof{}, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Proof{Reference: reference, Status: domain.ProofPending}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Proof{}, fmt.Errorf("ledger API error: status %d: %s", resp.StatusCode, body)
	}

	var verifyResp anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return domain.Proof{}, fmt.Errorf("decode response: %w", err)
	}
	return domain.Proof{
		Hash:      verifyResp.Hash,
		Reference: reference,
		Status:    domain.ProofAnchored,
	}, nil
}

// DataHash produces the canonical SHA-256 hash of an alert. The alert is
// re-marshalled through a map so keys are sorted; the hash is stable across
// processes and releases as long as the field set is unchanged.
func DataHash(a domain.EmergencyAlert) (string, error) {
	// The stored proof is excluded: it is derived from this hash.
	a.Proof = nil

	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal alert: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("canonicalize alert: %w", err)
	}
	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal canonical alert: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Ledger API types.

type anchorRequest struct {
	AlertID string `json:"alert_id"`
	Hash    string `json:"hash"`
}

type anchorResponse struct {
	Reference string `json:"reference"`
	Hash      string `json:"hash,omitempty"`
}
