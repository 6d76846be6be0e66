package distance

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"ridehail/internal/domain"
)

// GoogleMaps uses the Distance Matrix API.
type GoogleMaps struct {
	client *maps.Client
}

// NewGoogleMaps creates a provider with the given API key.
func NewGoogleMaps(apiKey string) (*GoogleMaps, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleMaps{client: client}, nil
}

// DistanceKm returns the driving distance between from and to.
func (g *GoogleMaps) DistanceKm(ctx context.Context, from, to domain.Point) (float64, error) {
	r := &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(from)},
		Destinations: []string{latLng(to)},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}

	resp, err := g.client.DistanceMatrix(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, fmt.Errorf("no route found: %s", element.Status)
	}

	return float64(element.Distance.Meters) / 1000.0, nil
}

func latLng(p domain.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
