package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/axiomfin/be-invoice-review/internal/errors"
)

// HTTPStore queries a remote risk service over HTTP. Timeouts come from the
// caller's context; the embedded client carries no timeout of its own so the
// orchestrator's deadline is the only one in play.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore creates a client for the risk service at baseURL.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Lookup implements Store. A 404 from the service is a clean miss.
func (s *HTTPStore) Lookup(ctx context.Context, vendorID string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/api/v1/risk/profiles?vendor_id=%s", s.baseURL, url.QueryEscape(vendorID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build risk lookup request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "risk service unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, errors.New(errors.ErrCodeUnavailable,
			fmt.Sprintf("risk service returned status %d", resp.StatusCode))
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to decode risk profile")
	}

	return &p, nil
}
