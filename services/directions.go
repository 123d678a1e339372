package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/common"
)

const googleDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

// GoogleDirections is a RouteProvider backed by the Google Directions API.
type GoogleDirections struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

func NewGoogleDirections(apiKey string) *GoogleDirections {
	return &GoogleDirections{apiKey: apiKey, baseURL: googleDirectionsURL, timeout: 10 * time.Second}
}

// WithBaseURL points the client at another host, e.g. a local stub.
func (g *GoogleDirections) WithBaseURL(u string) *GoogleDirections {
	cp := *g
	cp.baseURL = u
	return &cp
}

type directionsValue struct {
	Value int64  `json:"value"`
	Text  string `json:"text"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Duration directionsValue `json:"duration"`
			Distance directionsValue `json:"distance"`
		} `json:"legs"`
	} `json:"routes"`
}

func formatLatLng(p LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

func (g *GoogleDirections) Route(ctx context.Context, origin, destination LatLng) (*Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	q := url.Values{}
	q.Set("origin", formatLatLng(origin))
	q.Set("destination", formatLatLng(destination))
	q.Set("mode", "driving")
	q.Set("key", g.apiKey)

	var resp directionsResponse
	code, _, errs := fiber.Get(g.baseURL + "?" + q.Encode()).Timeout(timeout).Struct(&resp)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", common.ErrRouteUnavailable, errs[0])
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("%w: directions returned HTTP %d", common.ErrRouteUnavailable, code)
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("%w: directions status %s %s", common.ErrRouteUnavailable, resp.Status, resp.ErrorMessage)
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return nil, fmt.Errorf("%w: directions returned no legs", common.ErrRouteUnavailable)
	}

	leg := resp.Routes[0].Legs[0]
	return &Route{
		DurationSeconds: leg.Duration.Value,
		DurationText:    leg.Duration.Text,
		DistanceMeters:  leg.Distance.Value,
	}, nil
}
