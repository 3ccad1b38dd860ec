// Package routing estimates delivery routes between a vendor and a customer.
package routing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/errgroup"

	"fsanano/food-market/internal/geo"
)

const (
	ModeDriving = "driving"
	ModeCycling = "cycling"

	SourceAPI          = "api"
	SourceStraightLine = "straight_line"

	cacheTTL = 5 * time.Minute
)

// Average speeds used when no routing API is configured.
var fallbackSpeedKMH = map[string]float64{
	ModeDriving: 30,
	ModeCycling: 15,
}

type Config struct {
	APIURL   string
	ClientID string
	APIKey   string
}

type cachedEstimate struct {
	estimate *Estimate
	expiry   time.Time
}

type Client struct {
	client *http.Client
	config Config
	now    func() time.Time

	cacheMu   sync.RWMutex
	cacheData map[string]cachedEstimate
}

func NewClient(cfg Config) *Client {
	return &Client{
		client: &http.Client{
			Transport: &AuthTransport{
				ClientID: cfg.ClientID,
				APIKey:   cfg.APIKey,
				Base:     http.DefaultTransport,
			},
			Timeout: 10 * time.Second,
		},
		config:    cfg,
		now:       time.Now,
		cacheData: make(map[string]cachedEstimate),
	}
}

// AuthTransport adds Basic Auth headers
type AuthTransport struct {
	ClientID string
	APIKey   string
	Base     http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	auth := t.ClientID + ":" + t.APIKey
	encodedAuth := base64.StdEncoding.EncodeToString([]byte(auth))
	req.Header.Set("Authorization", "Basic "+encodedAuth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

// Estimate returns driving and cycling estimates from one point to another.
// Without a configured API it derives them from the straight-line distance.
func (c *Client) Estimate(ctx context.Context, from, to geo.Point) (*Estimate, error) {
	straight := math.Round(geo.DistanceKM(from, to)*100) / 100
	if c.config.APIURL == "" {
		return straightLine(straight), nil
	}

	cacheKey := fmt.Sprintf("%.4f,%.4f:%.4f,%.4f", from.Lat, from.Lng, to.Lat, to.Lng)

	c.cacheMu.RLock()
	data, ok := c.cacheData[cacheKey]
	if ok && c.now().Before(data.expiry) {
		c.cacheMu.RUnlock()
		return data.estimate, nil
	}
	c.cacheMu.RUnlock()

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	data, ok = c.cacheData[cacheKey]
	if ok && c.now().Before(data.expiry) {
		return data.estimate, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	var driving, cycling *RawRoute

	g.Go(func() error {
		var err error
		driving, err = c.fetchRoute(ctx, from, to, ModeDriving)
		if err != nil {
			return fmt.Errorf("failed to fetch driving route: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		cycling, err = c.fetchRoute(ctx, from, to, ModeCycling)
		if err != nil {
			return fmt.Errorf("failed to fetch cycling route: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	est := &Estimate{StraightLineKM: straight, Source: SourceAPI}
	for _, raw := range []*RawRoute{driving, cycling} {
		est.Modes = append(est.Modes, ModeEstimate{
			Mode:            raw.Mode,
			DistanceKM:      math.Round(raw.DistanceMeters/10) / 100,
			DurationMinutes: int(math.Ceil(raw.DurationSeconds / 60)),
		})
	}
	est.pickFastest()

	c.cacheData[cacheKey] = cachedEstimate{
		estimate: est,
		expiry:   c.now().Add(cacheTTL),
	}

	return est, nil
}

func straightLine(km float64) *Estimate {
	est := &Estimate{StraightLineKM: km, Source: SourceStraightLine}
	for _, mode := range []string{ModeDriving, ModeCycling} {
		est.Modes = append(est.Modes, ModeEstimate{
			Mode:            mode,
			DistanceKM:      km,
			DurationMinutes: int(math.Ceil(km / fallbackSpeedKMH[mode] * 60)),
		})
	}
	est.pickFastest()
	return est
}

func (e *Estimate) pickFastest() {
	if len(e.Modes) == 0 {
		return
	}
	modes := make([]ModeEstimate, len(e.Modes))
	copy(modes, e.Modes)
	sort.SliceStable(modes, func(i, j int) bool {
		return modes[i].DurationMinutes < modes[j].DurationMinutes
	})
	e.Fastest = &modes[0]
}

func (c *Client) fetchRoute(ctx context.Context, from, to geo.Point, mode string) (*RawRoute, error) {
	url := fmt.Sprintf("%s/route", c.config.APIURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("from", formatPoint(from))
	q.Add("to", formatPoint(to))
	q.Add("mode", mode)

	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.Header.Get("Content-Encoding") == "br" {
		resp.Body = &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && len(apiErr.Errors) > 0 {
			return nil, &apiErr
		}
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var route RawRoute
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return nil, err
	}
	if route.Mode == "" {
		route.Mode = mode
	}

	return &route, nil
}

func formatPoint(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}

func (r *readCloserWrapper) Read(p []byte) (n int, err error) {
	return r.Reader.Read(p)
}

func (r *readCloserWrapper) Close() error {
	return r.Closer.Close()
}
