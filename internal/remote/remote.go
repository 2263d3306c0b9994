// Package remote resolves the catalog to current retail prices. It tries an
// ordered list of strategies (today's in-process result, the published
// price report, and a synthetic estimate from the reference table) and
// returns the first one that produces records.
package remote

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/catalog"
	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// Tier names, in the order they are attempted.
const (
	TierMemo      = "memo"
	TierLive      = "live"
	TierSynthetic = "synthetic"
)

// --- Sentinel errors ---

// ErrSkip is wrapped by a strategy that has nothing to offer and wants the
// next one to be tried.
var ErrSkip = errors.New("remote: tier skipped")

// ErrHTTP wraps an upstream HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// skipf builds an error that wraps ErrSkip.
func skipf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSkip, fmt.Sprintf(format, args...))
}

// Strategy is one way of obtaining prices. Attempt returns a result with
// records, or an error wrapping ErrSkip when the strategy cannot serve this
// request. Tier is filled in by the Source.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, cat *catalog.Catalog) (Result, error)
}

// --- Source ---

// Source runs the strategy chain. It is safe for concurrent use.
type Source struct {
	cfg        config.SourceConfig
	clock      infra.Clock
	httpClient *http.Client
	limiter    *infra.RateLimiter
	rnd        *lockedRand
	memo       *infra.DayMemo[[]models.PriceRecord]

	strategies []Strategy
}

// Option configures a Source.
type Option func(*Source)

// WithClock sets the clock used for calendar logic and memo expiry.
func WithClock(c infra.Clock) Option {
	return func(s *Source) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithHTTPClient sets the client used for upstream requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithRand sets the random source used for synthetic jitter.
func WithRand(r *rand.Rand) Option {
	return func(s *Source) {
		if r != nil {
			s.rnd = &lockedRand{r: r}
		}
	}
}

// WithLimiter replaces the upstream rate limiter.
func WithLimiter(l *infra.RateLimiter) Option {
	return func(s *Source) {
		if l != nil {
			s.limiter = l
		}
	}
}

// New creates a Source from configuration.
func New(cfg config.SourceConfig, opts ...Option) *Source {
	s := &Source{
		cfg:   cfg,
		clock: infra.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		timeout := cfg.Timeout()
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		s.httpClient = &http.Client{Timeout: timeout}
	}
	if s.limiter == nil {
		per := cfg.RatePerMin
		if per <= 0 {
			per = 6
		}
		s.limiter = infra.NewRateLimiterWithClock(per, time.Minute/time.Duration(per), s.clock)
	}
	if s.rnd == nil {
		s.rnd = newRand(cfg.Seed)
	}
	s.memo = infra.NewDayMemo[[]models.PriceRecord](s.clock, utils.PHT)

	s.strategies = []Strategy{
		&memoStrategy{memo: s.memo},
		&liveStrategy{src: s},
		&syntheticStrategy{src: s},
	}
	return s
}

// Tiers returns the strategy names in attempt order.
func (s *Source) Tiers() []string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name()
	}
	return names
}

// FetchOption adjusts one FetchCurrentPrices call.
type FetchOption func(*fetchSettings)

type fetchSettings struct {
	force bool
}

// Force bypasses today's in-process result.
func Force() FetchOption {
	return func(f *fetchSettings) { f.force = true }
}

// Result is the outcome of a fetch: the records and the tier that produced
// them. Rows holds the usable report rows behind a live result, exactly as
// published; it is empty for every other tier.
type Result struct {
	Records []models.PriceRecord
	Rows    []models.RawPriceRow
	Tier    string
}

// FetchCurrentPrices returns the first non-empty result along the strategy
// chain. Transient failures are logged and never returned; only an invalid
// catalog is an error.
func (s *Source) FetchCurrentPrices(ctx context.Context, cat *catalog.Catalog, opts ...FetchOption) ([]models.PriceRecord, error) {
	res, err := s.Fetch(ctx, cat, opts...)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Fetch is FetchCurrentPrices reporting which tier answered.
func (s *Source) Fetch(ctx context.Context, cat *catalog.Catalog, opts ...FetchOption) (Result, error) {
	if err := cat.Validate(); err != nil {
		return Result{}, fmt.Errorf("remote: %w", err)
	}
	var settings fetchSettings
	for _, opt := range opts {
		opt(&settings)
	}

	for _, st := range s.strategies {
		if settings.force && st.Name() == TierMemo {
			continue
		}
		res, err := st.Attempt(ctx, cat)
		if err != nil {
			if errors.Is(err, ErrSkip) {
				logx.WithContext(ctx).Infof("remote: tier skipped tier=%s reason=%v", st.Name(), err)
			} else {
				logx.WithContext(ctx).Errorf("remote: tier failed tier=%s err=%v", st.Name(), err)
			}
			continue
		}
		if len(res.Records) == 0 {
			continue
		}
		if st.Name() != TierMemo {
			s.memo.Set(slices.Clone(res.Records))
		}
		logx.WithContext(ctx).Infof("remote: prices resolved tier=%s records=%d rows=%d",
			st.Name(), len(res.Records), len(res.Rows))
		return Result{Records: slices.Clone(res.Records), Rows: slices.Clone(res.Rows), Tier: st.Name()}, nil
	}
	return Result{Records: []models.PriceRecord{}}, nil
}

// ResetMemo forgets today's in-process result.
func (s *Source) ResetMemo() { s.memo.Reset() }

// --- memo tier ---

type memoStrategy struct {
	memo *infra.DayMemo[[]models.PriceRecord]
}

func (m *memoStrategy) Name() string { return TierMemo }

func (m *memoStrategy) Attempt(context.Context, *catalog.Catalog) (Result, error) {
	recs, ok := m.memo.Get()
	if !ok || len(recs) == 0 {
		return Result{}, skipf("no result for today")
	}
	return Result{Records: recs}, nil
}

// --- random source ---

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newRand(seed int64) *lockedRand {
	if seed == 0 {
		return &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	return &lockedRand{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)))}
}

// Float64 returns a value in [0,1).
func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
