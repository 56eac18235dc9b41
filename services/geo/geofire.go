package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"meramarket/models"

	"github.com/mmcloughlin/geohash"
	"go.uber.org/zap"
)

// hashPrecision is the length of stored geohashes (~5m cells).
const hashPrecision = 9

// Locate answers are kept for locateTTL, at most locateCacheSize of them.
const (
	locateTTL       = time.Hour
	locateCacheSize = 1024
)

// Approximate geohash cell size at the equator, indexed by precision. Width
// shrinks with the cosine of the latitude; height does not.
var (
	cellWidthKm  = []float64{0, 5009.4, 1252.3, 156.5, 39.1, 4.89, 1.22, 0.153, 0.0382, 0.00477}
	cellHeightKm = []float64{0, 4992.6, 624.1, 156.0, 19.5, 4.89, 0.61, 0.153, 0.0191, 0.00477}
)

// GeoFireService indexes points by geohash and resolves client IPs through an
// ipapi-compatible endpoint.
type GeoFireService struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger

	now       func() time.Time
	ttl       time.Duration
	cacheSize int

	mu    sync.RWMutex
	cache map[string]cachedLocation
}

type cachedLocation struct {
	loc     *models.Location
	expires time.Time
}

// ipapiResponse is the subset of the ipapi.co payload we use.
type ipapiResponse struct {
	IP        string  `json:"ip"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Postal    string  `json:"postal"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

// NewGeoFireService builds the service. endpoint must contain one "%s" for
// the IP; an empty endpoint uses ipapi.co.
func NewGeoFireService(endpoint string, logger *zap.Logger) *GeoFireService {
	if endpoint == "" {
		endpoint = "https://ipapi.co/%s/json/"
	}
	return &GeoFireService{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: 5 * time.Second},
		logger:    logger,
		now:       time.Now,
		ttl:       locateTTL,
		cacheSize: locateCacheSize,
		cache:     make(map[string]cachedLocation),
	}
}

func (s *GeoFireService) Geohash(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, hashPrecision)
}

// Cells returns the cell containing the centre plus its eight neighbours, at
// the finest precision whose cells are still larger than the radius in both
// directions.
func (s *GeoFireService) Cells(lat, lng, radiusKm float64) []string {
	if radiusKm <= 0 {
		return nil
	}
	shrink := math.Max(math.Cos(radians(lat)), 0.01)
	precision := uint(0)
	for p := 1; p < len(cellWidthKm); p++ {
		if cellWidthKm[p]*shrink < radiusKm || cellHeightKm[p] < radiusKm {
			break
		}
		precision = uint(p)
	}
	if precision == 0 {
		return nil
	}
	center := geohash.EncodeWithPrecision(lat, lng, precision)
	return append([]string{center}, geohash.Neighbors(center)...)
}

func (s *GeoFireService) Distance(aLat, aLng, bLat, bLng float64) float64 {
	return Haversine(aLat, aLng, bLat, bLng)
}

// Locate looks the IP up and caches the answer for a while. Private,
// loopback and unresolvable addresses get DefaultLocation.
func (s *GeoFireService) Locate(ctx context.Context, ip string) (*models.Location, error) {
	s.mu.RLock()
	hit, ok := s.cache[ip]
	s.mu.RUnlock()
	if ok && s.now().Before(hit.expires) {
		return hit.loc, nil
	}

	loc, err := s.lookup(ctx, ip)
	if err != nil {
		s.logger.Warn("Geo lookup failed, using default location", zap.String("ip", ip), zap.Error(err))
		def := DefaultLocation
		def.Geohash = s.Geohash(def.Lat, def.Lng)
		return &def, nil
	}

	s.mu.Lock()
	s.remember(ip, loc)
	s.mu.Unlock()
	return loc, nil
}

// remember stores loc, first dropping expired entries and then the entry
// closest to expiry while the cache is full. Callers hold s.mu.
func (s *GeoFireService) remember(ip string, loc *models.Location) {
	now := s.now()
	if _, ok := s.cache[ip]; !ok && len(s.cache) >= s.cacheSize {
		for k, c := range s.cache {
			if !now.Before(c.expires) {
				delete(s.cache, k)
			}
		}
		for len(s.cache) > 0 && len(s.cache) >= s.cacheSize {
			var oldest string
			var oldestAt time.Time
			for k, c := range s.cache {
				if oldest == "" || c.expires.Before(oldestAt) {
					oldest, oldestAt = k, c.expires
				}
			}
			delete(s.cache, oldest)
		}
	}
	s.cache[ip] = cachedLocation{loc: loc, expires: now.Add(s.ttl)}
}

func (s *GeoFireService) lookup(ctx context.Context, ip string) (*models.Location, error) {
	if isPrivateIP(ip) {
		return nil, fmt.Errorf("address %q is not publicly routable", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(s.endpoint, ip), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query geolocation API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geolocation response: %w", err)
	}
	if body.Error {
		return nil, fmt.Errorf("geolocation API error: %s", body.Reason)
	}

	return &models.Location{
		Lat:     body.Latitude,
		Lng:     body.Longitude,
		City:    body.City,
		State:   body.Region,
		Pincode: body.Postal,
		Geohash: s.Geohash(body.Latitude, body.Longitude),
	}, nil
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast()
}
