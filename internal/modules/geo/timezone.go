package geo

import (
	"context"
	"time"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

const DefaultTimezoneTimeout = 3 * time.Second

// TimezoneInfo is the provider's answer: zone id plus standard and DST offsets in seconds.
type TimezoneInfo struct {
	TimeZoneID string
	RawOffset  int
	DstOffset  int
}

type TimezoneLookup interface {
	LookupTimezone(ctx context.Context, lat, lng float64, at time.Time) (*TimezoneInfo, error)
}

type TimezoneResolver interface {
	// Resolve returns nil on failure. A zero at means "now", which gives the
	// offset in effect today rather than on the event date.
	Resolve(ctx context.Context, lat, lng float64, at time.Time) *domain.TimezoneResult
}

type timezoneResolver struct {
	log     *logger.Logger
	lookup  TimezoneLookup
	timeout time.Duration
	now     func() time.Time
}

func NewTimezoneResolver(log *logger.Logger, lookup TimezoneLookup, timeout time.Duration) TimezoneResolver {
	if timeout <= 0 {
		timeout = DefaultTimezoneTimeout
	}
	return &timezoneResolver{
		log:     log.With("service", "TimezoneResolver"),
		lookup:  lookup,
		timeout: timeout,
		now:     time.Now,
	}
}

func (r *timezoneResolver) Resolve(ctx context.Context, lat, lng float64, at time.Time) *domain.TimezoneResult {
	ctx = ctxutil.Default(ctx)
	if r.lookup == nil {
		return nil
	}
	if at.IsZero() {
		at = r.now()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	info, err := r.lookup.LookupTimezone(ctx, lat, lng, at)
	if err != nil {
		r.log.Warn("Timezone lookup failed", "lat", lat, "lng", lng, "error", err)
		return nil
	}
	if info == nil || info.TimeZoneID == "" {
		return nil
	}
	return &domain.TimezoneResult{
		TimeZoneID:    info.TimeZoneID,
		OffsetSeconds: info.RawOffset + info.DstOffset,
	}
}
