package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/verdantlab/ranger/internal/models"
	"github.com/verdantlab/ranger/internal/netx"
)

// RelayConfig carries the settings for the gasless relay service.
type RelayConfig struct {
	URL       string
	AppID     string
	APISecret string
	Contract  string
}

// RelayClient submits meta-transactions to a relay that pays gas on the
// user's behalf. The user still signs the request digest; the relay verifies
// the signature and wraps the call in its own funded transaction.
type RelayClient struct {
	cfg    RelayConfig
	signer Signer
	client *http.Client
}

// NewRelayClient returns a client for the given relay endpoint.
func NewRelayClient(cfg RelayConfig, signer Signer) *RelayClient {
	return &RelayClient{
		cfg:    cfg,
		signer: signer,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

type relayRequest struct {
	From     string `json:"from"`
	Contract string `json:"contract"`
	Call     Call   `json:"call"`
	IssuedAt int64  `json:"issued_at"`
}

type signedRelayRequest struct {
	relayRequest
	Signature string `json:"signature"`
}

type relayResponse struct {
	TxHash   string `json:"tx_hash"`
	BlockRef string `json:"block_ref"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Submit sends the call through the relay and waits for the mined receipt.
// The relay applies its own mining timeout; an unreachable or overloaded
// relay maps to ErrRelayUnavailable.
func (c *RelayClient) Submit(ctx context.Context, call Call) (*models.Receipt, error) {
	req := relayRequest{
		From:     c.signer.Address(),
		Contract: c.cfg.Contract,
		Call:     call,
		IssuedAt: time.Now().Unix(),
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode relay request: %w", err)
	}

	sig, err := c.signer.SignDigest(Digest(payload))
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to sign relay request: %w", err)
	}

	token, err := c.authToken()
	if err != nil {
		return nil, fmt.Errorf("failed to build relay auth token: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	signed := signedRelayRequest{relayRequest: req, Signature: hex.EncodeToString(sig)}

	var resp relayResponse
	if err := netx.PostJSON(ctx, c.client, c.cfg.URL, header, signed, &resp); err != nil {
		return nil, c.mapError(err)
	}

	if resp.Status != "mined" {
		detail := resp.Error
		if detail == "" {
			detail = "relay reported status " + resp.Status
		}
		return nil, &ChainError{Detail: detail}
	}

	return &models.Receipt{TxHash: resp.TxHash, BlockRef: resp.BlockRef}, nil
}

// authToken issues a short-lived HS256 token identifying the app to the
// relay.
func (c *RelayClient) authToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.cfg.AppID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.APISecret))
}

func (c *RelayClient) mapError(err error) error {
	var se *netx.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusPaymentRequired:
			return fmt.Errorf("%w: relay funds exhausted", ErrInsufficientFunds)
		case se.Code >= 500:
			return fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
		default:
			return &ChainError{Detail: se.Body, Err: err}
		}
	}

	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
}
