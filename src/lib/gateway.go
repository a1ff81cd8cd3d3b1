package lib

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// GatewayClient talks to the redirect-checkout payment gateway. The
// gateway has no Go SDK so the two calls it needs are done over plain
// HTTP.
type GatewayClient struct {
	BaseURL string
	Login   string
	TranKey string

	HTTPClient *http.Client
}

var gatewayClient *GatewayClient

func GetGatewayClient() *GatewayClient {
	if gatewayClient != nil {
		return gatewayClient
	}
	c := &GatewayClient{
		BaseURL:    os.Getenv("GATEWAY_BASE_URL"),
		Login:      os.Getenv("GATEWAY_LOGIN"),
		TranKey:    os.Getenv("GATEWAY_TRANKEY"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	gatewayClient = c
	return c
}

// NewGatewayClient Replace gateway instance with custom client implementation
func NewGatewayClient(c *GatewayClient) *GatewayClient {
	gatewayClient = c
	return gatewayClient
}

type GatewaySessionRequest struct {
	Reference   string  `json:"reference"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	ReturnURL   string  `json:"returnUrl,omitempty"`
}

type GatewaySession struct {
	RequestID  string `json:"requestId"`
	ProcessURL string `json:"processUrl"`
}

// auth builds the per-request auth block: fresh nonce, seed timestamp
// and a SHA-256 digest of nonce+seed+tranKey.
func (c *GatewayClient) auth() (map[string]string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	seed := time.Now().Format(time.RFC3339)
	digest := sha256.Sum256(append(append(raw, []byte(seed)...), []byte(c.TranKey)...))
	return map[string]string{
		"login":   c.Login,
		"nonce":   base64.StdEncoding.EncodeToString(raw),
		"seed":    seed,
		"tranKey": base64.StdEncoding.EncodeToString(digest[:]),
	}, nil
}

func (c *GatewayClient) post(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	body["auth"] = auth
	bBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(bBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		log.Printf("[gateway] %s responded %d: %s\n", path, res.StatusCode, string(resBody))
		return nil, fmt.Errorf("gateway responded with status %d", res.StatusCode)
	}
	return resBody, nil
}

// CreateSession asks the gateway for a checkout session and returns the
// external request id together with the redirect URL.
func (c *GatewayClient) CreateSession(ctx context.Context, in *GatewaySessionRequest) (*GatewaySession, error) {
	body := map[string]any{
		"payment": map[string]any{
			"reference":   in.Reference,
			"description": in.Description,
			"amount": map[string]any{
				"total":    in.Amount,
				"currency": in.Currency,
			},
		},
		"returnUrl":  in.ReturnURL,
		"expiration": time.Now().Add(30 * time.Minute).Format(time.RFC3339),
	}
	resBody, err := c.post(ctx, "/api/session", body)
	if err != nil {
		return nil, err
	}
	var session GatewaySession
	if err := json.Unmarshal(resBody, &session); err != nil {
		return nil, err
	}
	if session.RequestID == "" {
		return nil, fmt.Errorf("gateway session response missing requestId: %s", string(resBody))
	}
	return &session, nil
}

// QueryStatus fetches the current state of a session by its external
// request id. The raw body is returned untouched so callers can run it
// through the shape normalizer.
func (c *GatewayClient) QueryStatus(ctx context.Context, requestID string) ([]byte, error) {
	return c.post(ctx, fmt.Sprintf("/api/session/%s", requestID), map[string]any{})
}
