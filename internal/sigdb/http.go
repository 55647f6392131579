package sigdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"evmlens/internal/retry"
)

const (
	DefaultHTTPURL = "https://api.openchain.xyz"
	lookupPath     = "/signature-database/v1/lookup"
)

// HTTPConfig configures the HTTP signature database client.
type HTTPConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// HTTP queries an openchain-compatible signature lookup API.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
	logger *zap.Logger
}

type lookupResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result struct {
		Function map[string][]lookupSignature `json:"function"`
		Event    map[string][]lookupSignature `json:"event"`
	} `json:"result"`
}

type lookupSignature struct {
	Name     string `json:"name"`
	Filtered bool   `json:"filtered"`
}

// NewHTTP builds an HTTP signature database client.
func NewHTTP(cfg HTTPConfig, logger *zap.Logger) *HTTP {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHTTPURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (h *HTTP) LookupSelector(ctx context.Context, selector [4]byte) ([]string, error) {
	key := hexutil.Encode(selector[:])
	resp, err := h.lookup(ctx, "function", key)
	if err != nil {
		return nil, err
	}
	return signatureNames(resp.Result.Function[key]), nil
}

func (h *HTTP) LookupEvent(ctx context.Context, topic common.Hash) ([]string, error) {
	key := topic.Hex()
	resp, err := h.lookup(ctx, "event", key)
	if err != nil {
		return nil, err
	}
	return signatureNames(resp.Result.Event[key]), nil
}

func (h *HTTP) lookup(ctx context.Context, param, key string) (*lookupResponse, error) {
	query := url.Values{}
	query.Set(param, key)
	query.Set("filter", "true")
	endpoint := h.cfg.BaseURL + lookupPath + "?" + query.Encode()

	var resp *lookupResponse
	err := retry.Do(ctx, h.cfg.MaxRetries, h.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		resp, err = h.get(ctx, endpoint)
		if err != nil {
			h.logger.Warn("signature lookup failed", zap.Error(err), zap.String(param, key))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lookup %s %s: %w", param, key, err)
	}
	return resp, nil
}

func (h *HTTP) get(ctx context.Context, endpoint string) (*lookupResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out lookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.OK {
		return nil, fmt.Errorf("lookup rejected: %s", out.Error)
	}
	return &out, nil
}

func signatureNames(entries []lookupSignature) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Filtered {
			continue
		}
		names = append(names, e.Name)
	}
	return uniqueSorted(names)
}
