// Package nominatim talks to a Nominatim-compatible geocoding service. It
// implements ports.Geocoder and ports.VenueSearcher.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/pkg/geospatial"
)

const (
	forwardLimit = 5
	searchLimit  = 20
	// Reverse lookups at this zoom return settlement-level names.
	reverseZoom = 14
)

// Client is a Nominatim HTTP client.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	http      *fasthttp.Client
}

// New creates a Client. Nominatim's usage policy requires a descriptive
// user agent.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		timeout:   timeout,
		http: &fasthttp.Client{
			Name:                userAgent,
			MaxConnsPerHost:     16,
			MaxConnWaitTimeout:  timeout, // queue for a free connection instead of failing
			MaxIdleConnDuration: 30 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
	}
}

type place struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

func (p place) point() (domain.GeoPoint, bool) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	pt := domain.GeoPoint{Lat: lat, Lon: lon}
	return pt, pt.Valid()
}

// localityKeys are checked in order when naming the place around a point.
var localityKeys = []string{"city", "town", "village", "hamlet", "suburb"}

// Forward implements ports.Geocoder.
func (c *Client) Forward(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", strconv.Itoa(forwardLimit))

	var places []place
	if err := c.get(ctx, "/search", q, &places); err != nil {
		return nil, err
	}

	points := make([]domain.GeoPoint, 0, len(places))
	for _, p := range places {
		if pt, ok := p.point(); ok {
			points = append(points, pt)
		}
	}
	return points, nil
}

// Reverse implements ports.Geocoder. Points in open water have no address
// and yield "".
func (c *Client) Reverse(ctx context.Context, point domain.GeoPoint) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(point.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(point.Lon, 'f', 6, 64))
	q.Set("format", "jsonv2")
	q.Set("zoom", strconv.Itoa(reverseZoom))
	q.Set("addressdetails", "1")

	var p place
	if err := c.get(ctx, "/reverse", q, &p); err != nil {
		return "", err
	}
	if p.Error != "" {
		return "", nil
	}
	for _, k := range localityKeys {
		if v := p.Address[k]; v != "" {
			return v, nil
		}
	}
	return "", nil
}

// Search implements ports.VenueSearcher. Results are bounded to the box
// enclosing the search radius.
func (c *Client) Search(ctx context.Context, query string, center domain.GeoPoint, radiusMeters float64) ([]domain.VenueCandidate, error) {
	b := geospatial.Bounds(center, radiusMeters)

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", strconv.Itoa(searchLimit))
	q.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", b.MinLon, b.MaxLat, b.MaxLon, b.MinLat))
	q.Set("bounded", "1")

	var places []place
	if err := c.get(ctx, "/search", q, &places); err != nil {
		return nil, err
	}

	out := make([]domain.VenueCandidate, 0, len(places))
	for _, p := range places {
		pt, ok := p.point()
		if !ok {
			continue
		}
		name := p.Name
		if name == "" {
			name, _, _ = strings.Cut(p.DisplayName, ",")
		}
		category := p.Type
		if category == "" {
			category = p.Category
		}
		out = append(out, domain.VenueCandidate{
			Name:     name,
			Location: pt,
			Address:  p.DisplayName,
			Category: category,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path + "?" + q.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.SetUserAgent(c.userAgent)

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("nominatim %s: %w", path, err)
	}

	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return fmt.Errorf("nominatim %s: unexpected status %d", path, code)
	}
	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return fmt.Errorf("nominatim %s: decode: %w", path, err)
	}
	return nil
}
