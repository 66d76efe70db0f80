package clients

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bridge-backend/internal/config"
	"bridge-backend/internal/models"
)

// KMSClient KMS service client, signs EVM transactions with keys held by the service
type KMSClient struct {
	baseURL    string
	authToken  string
	keyAliases map[string]string // chainID -> key alias
	httpClient *http.Client
}

// KMSEthereumSignRequest KMS ethereum signature request
type KMSEthereumSignRequest struct {
	KeyAlias string `json:"key_alias"`
	ChainID  string `json:"chain_id"`
	Signer   string `json:"signer"`
	Payload  string `json:"payload"` // unsigned transaction JSON
	SignType string `json:"sign_type"`
}

// KMSEthereumSignResponse KMS ethereum signature response
type KMSEthereumSignResponse struct {
	Success  bool   `json:"success"`
	SignedTx string `json:"signed_tx,omitempty"` // hex RLP
	Error    string `json:"error,omitempty"`
}

// NewKMSClient Create KMS client
func NewKMSClient(cfg config.KMSConfig, keyAliases map[string]string) *KMSClient {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &KMSClient{
		baseURL:    strings.TrimRight(cfg.ServiceURL, "/"),
		authToken:  cfg.AuthToken,
		keyAliases: keyAliases,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SignEthereum asks the KMS to sign a payload for a chain and signer
func (c *KMSClient) SignEthereum(ctx context.Context, chainID string, signer string, payload []byte, signType models.EthSignType) ([]byte, error) {
	keyAlias, ok := c.keyAliases[chainID]
	if !ok || keyAlias == "" {
		return nil, fmt.Errorf("no KMS key alias configured for chain %s", chainID)
	}

	req := KMSEthereumSignRequest{
		KeyAlias: keyAlias,
		ChainID:  chainID,
		Signer:   signer,
		Payload:  string(payload),
		SignType: string(signType),
	}

	response, err := c.makeRequest(ctx, http.MethodPost, "/api/v1/ethereum/sign", req)
	if err != nil {
		return nil, fmt.Errorf("KMS request failed: %w", err)
	}

	var signResp KMSEthereumSignResponse
	if err := json.Unmarshal(response, &signResp); err != nil {
		return nil, fmt.Errorf("failed to parse KMS response: %w", err)
	}
	if !signResp.Success {
		return nil, fmt.Errorf("KMS signing failed: %s", signResp.Error)
	}
	if signResp.SignedTx == "" {
		return nil, nil
	}

	signed, err := hex.DecodeString(strings.TrimPrefix(signResp.SignedTx, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signed transaction hex from KMS: %w", err)
	}
	return signed, nil
}

// HealthCheck KMS service check
func (c *KMSClient) HealthCheck(ctx context.Context) error {
	response, err := c.makeRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("KMS health check failed: %w", err)
	}

	var healthResp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(response, &healthResp); err != nil {
		return fmt.Errorf("failed to parse KMS health response: %w", err)
	}

	if healthResp.Status != "healthy" {
		return fmt.Errorf("KMS service status: %s", healthResp.Status)
	}

	return nil
}

// makeRequest HTTP request
func (c *KMSClient) makeRequest(ctx context.Context, method, path string, data interface{}) ([]byte, error) {
	url := c.baseURL + path

	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "bridge-backend/1.0")

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
		req.Header.Set("X-Service-Name", "bridge-backend")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP request failed: status=%d, body=%s", resp.StatusCode, string(responseBody))
	}

	return responseBody, nil
}
