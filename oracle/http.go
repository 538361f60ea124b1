package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ledgerid/models"
)

// HTTPClient reads the ledger through a gateway exposing
//
//	GET /info               -> {"height": n}
//	GET /block/height/{h}   -> {"height": h, "timestamp": t}
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a gateway client. A zero timeout leaves the transport
// default in place.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Tip fetches the current ledger head
func (c *HTTPClient) Tip(ctx context.Context) (models.Tip, error) {
	var tip models.Tip
	err := c.get(ctx, "/info", &tip)
	return tip, err
}

// BlockAt fetches the block at height
func (c *HTTPClient) BlockAt(ctx context.Context, height int64) (models.Block, error) {
	var block models.Block
	err := c.get(ctx, "/block/height/"+strconv.FormatInt(height, 10), &block)
	return block, err
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// an aborted request reports the context error, not an outage
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: GET %s", ErrBlockNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: GET %s: status %d", ErrOracleUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrOracleUnavailable, path, err)
	}
	return nil
}
