package maps

import (
	"context"
	"fmt"
	"strings"
	"time"

	gmaps "googlemaps.github.io/maps"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/modules/geo"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// Client adapts the Google Maps web services to the geo lookups.
type Client interface {
	FindPlaces(ctx context.Context, query string) ([]domain.PlaceResult, error)
	LookupTimezone(ctx context.Context, lat, lng float64, at time.Time) (*geo.TimezoneInfo, error)
}

type Config struct {
	APIKey   string
	Language string
	// BaseURL overrides the Maps host; tests point it at an httptest server.
	BaseURL string
}

type client struct {
	log      *logger.Logger
	gm       *gmaps.Client
	language string
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("missing GOOGLE_MAPS_API_KEY")
	}
	opts := []gmaps.ClientOption{gmaps.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, gmaps.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}
	gm, err := gmaps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &client{
		log:      log.With("service", "MapsClient"),
		gm:       gm,
		language: cfg.Language,
	}, nil
}

var placeFields = []gmaps.PlaceSearchFieldMask{
	gmaps.PlaceSearchFieldMaskPlaceID,
	gmaps.PlaceSearchFieldMaskFormattedAddress,
	gmaps.PlaceSearchFieldMaskGeometry,
	gmaps.PlaceSearchFieldMaskName,
}

func (c *client) FindPlaces(ctx context.Context, query string) ([]domain.PlaceResult, error) {
	resp, err := c.gm.FindPlaceFromText(ctx, &gmaps.FindPlaceFromTextRequest{
		Input:     query,
		InputType: gmaps.FindPlaceFromTextInputTypeTextQuery,
		Fields:    placeFields,
		Language:  c.language,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlaceResult, 0, len(resp.Candidates))
	for _, cand := range resp.Candidates {
		if cand.PlaceID == "" {
			continue
		}
		out = append(out, domain.PlaceResult{
			PlaceID:          cand.PlaceID,
			FormattedAddress: cand.FormattedAddress,
			Location: domain.Coordinates{
				Lat: cand.Geometry.Location.Lat,
				Lng: cand.Geometry.Location.Lng,
			},
			Name: cand.Name,
		})
	}
	return out, nil
}

func (c *client) LookupTimezone(ctx context.Context, lat, lng float64, at time.Time) (*geo.TimezoneInfo, error) {
	res, err := c.gm.Timezone(ctx, &gmaps.TimezoneRequest{
		Location:  &gmaps.LatLng{Lat: lat, Lng: lng},
		Timestamp: at,
		Language:  c.language,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.TimeZoneID == "" {
		return nil, nil
	}
	return &geo.TimezoneInfo{
		TimeZoneID: res.TimeZoneID,
		RawOffset:  res.RawOffset,
		DstOffset:  res.DstOffset,
	}, nil
}
