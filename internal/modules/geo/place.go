package geo

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

const (
	DefaultPlaceTTL     = 24 * time.Hour
	DefaultPlaceTimeout = 5 * time.Second
)

// PlaceSearcher returns candidate places for a free-text query, best first.
type PlaceSearcher interface {
	FindPlaces(ctx context.Context, query string) ([]domain.PlaceResult, error)
}

// SharedPlaceCache is an optional second cache level shared across processes.
type SharedPlaceCache interface {
	GetPlace(ctx context.Context, query string) (*domain.PlaceResult, error)
	SetPlace(ctx context.Context, query string, place domain.PlaceResult, ttl time.Duration) error
}

type PlaceResolver interface {
	// Resolve returns nil when nothing matches or the lookup fails.
	Resolve(ctx context.Context, query string) *domain.PlaceResult
}

type PlaceResolverOptions struct {
	TTL     time.Duration
	Timeout time.Duration
	// Shared may be nil.
	Shared SharedPlaceCache
	Now    func() time.Time
}

type cachedPlace struct {
	place    domain.PlaceResult
	storedAt time.Time
}

type placeResolver struct {
	log      *logger.Logger
	searcher PlaceSearcher
	opts     PlaceResolverOptions

	// cache evicts on the wall clock; storedAt is checked against opts.Now so
	// freshness follows the injected clock.
	cache *gocache.Cache
}

func NewPlaceResolver(log *logger.Logger, searcher PlaceSearcher, opts PlaceResolverOptions) PlaceResolver {
	if opts.TTL <= 0 {
		opts.TTL = DefaultPlaceTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPlaceTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &placeResolver{
		log:      log.With("service", "PlaceResolver"),
		searcher: searcher,
		opts:     opts,
		cache:    gocache.New(opts.TTL, opts.TTL/4),
	}
}

func (r *placeResolver) Resolve(ctx context.Context, query string) *domain.PlaceResult {
	ctx = ctxutil.Default(ctx)
	if strings.TrimSpace(query) == "" || r.searcher == nil {
		return nil
	}

	if p, ok := r.fromMemory(query); ok {
		return &p
	}

	if r.opts.Shared != nil {
		p, err := r.opts.Shared.GetPlace(ctx, query)
		if err != nil {
			r.log.Warn("Shared place cache read failed", "query", query, "error", err)
		} else if p != nil {
			r.remember(query, *p)
			return p
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	candidates, err := r.searcher.FindPlaces(lookupCtx, query)
	if err != nil {
		r.log.Warn("Place lookup failed", "query", query, "error", err)
		return nil
	}
	if len(candidates) == 0 {
		r.log.Debug("Place lookup found nothing", "query", query)
		return nil
	}

	place := candidates[0]
	if place.FormattedAddress == "" {
		place.FormattedAddress = query
	}
	r.remember(query, place)
	if r.opts.Shared != nil {
		if err := r.opts.Shared.SetPlace(ctx, query, place, r.opts.TTL); err != nil {
			r.log.Warn("Shared place cache write failed", "query", query, "error", err)
		}
	}
	return &place
}

func (r *placeResolver) fromMemory(query string) (domain.PlaceResult, bool) {
	c, ok := r.live(query)
	return c.place, ok
}

func (r *placeResolver) live(query string) (cachedPlace, bool) {
	v, ok := r.cache.Get(query)
	if !ok {
		return cachedPlace{}, false
	}
	c := v.(cachedPlace)
	if r.opts.Now().Sub(c.storedAt) >= r.opts.TTL {
		return cachedPlace{}, false
	}
	return c, true
}

// remember stores place unless a live entry already exists. Live entries are
// never overwritten; only an expired one is replaced.
func (r *placeResolver) remember(query string, place domain.PlaceResult) {
	entry := cachedPlace{place: place, storedAt: r.opts.Now()}
	if err := r.cache.Add(query, entry, gocache.DefaultExpiration); err == nil {
		return
	}
	if _, ok := r.live(query); ok {
		return
	}
	r.cache.Set(query, entry, gocache.DefaultExpiration)
}
