package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"

	"ridehail/internal/domain"
)

// OSRM queries the route service of an OSRM server.
type OSRM struct {
	baseURL string
	client  *http.Client
}

// NewOSRM creates an OSRM provider. Outbound calls are recorded as external
// segments when the request context carries a New Relic transaction.
func NewOSRM(baseURL string) *OSRM {
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"routes"`
}

// DistanceKm returns the driving distance of the first route OSRM proposes.
func (o *OSRM) DistanceKm(ctx context.Context, from, to domain.Point) (float64, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		o.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode osrm response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return 0, fmt.Errorf("osrm returned no route (code %q)", body.Code)
	}

	return body.Routes[0].Distance / 1000.0, nil
}
