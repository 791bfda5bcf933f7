// Package dashboard orchestrates the analytics pipeline: it loads datasets
// from the store, runs the pure aggregation and chart builders, and caches
// the serialized views.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/domain/analytics"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/cache/redis"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/messaging/kafka"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/prometheus"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// RefreshPublisher fans a manual refresh out to every replica.  Optional;
// without one, Refresh only invalidates the local cache.
type RefreshPublisher interface {
	Publish(ctx context.Context, event kafka.RefreshEvent) error
}

// Options carries the dashboard parameters from configuration.
type Options struct {
	// FocusCountry is the ISO-2 code of the highlighted country.
	FocusCountry string

	// DefaultTopN is the top-countries slice size when a request does not
	// specify one.
	DefaultTopN int
}

// Service exposes every dashboard view as a typed operation.
type Service struct {
	store     storage.Store
	cache     redis.Cache
	publisher RefreshPublisher
	logger    logging.Logger
	metrics   *prometheus.Metrics
	opts      Options
}

// NewService wires the dashboard service.  cache must be non-nil (use
// redis.NopCache{} when caching is disabled); publisher and metrics may be
// nil.
func NewService(store storage.Store, cache redis.Cache, publisher RefreshPublisher,
	log logging.Logger, m *prometheus.Metrics, opts Options) *Service {
	if opts.FocusCountry == "" {
		opts.FocusCountry = "IN"
	}
	if opts.DefaultTopN < 1 {
		opts.DefaultTopN = 10
	}
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    log,
		metrics:   m,
		opts:      opts,
	}
}

// DatasetInfo is one entry of the dataset listing.
type DatasetInfo struct {
	Conference string `json:"conference"`
	Year       int    `json:"year"`
}

// FocusSummary is the focus country's headline numbers within a summary.
type FocusSummary struct {
	CountryCode      string `json:"country_code"`
	CountryName      string `json:"country_name"`
	Rank             int    `json:"rank"`
	PaperCount       int    `json:"paper_count"`
	TotalAuthors     int    `json:"total_authors"`
	TotalSpotlights  int    `json:"total_spotlights"`
	TotalOrals       int    `json:"total_orals"`
	InstitutionCount int    `json:"institution_count"`
}

// SummaryView is the headline block of one conference dashboard.
type SummaryView struct {
	ConferenceInfo analytics.ConferenceInfo `json:"conference_info"`
	DashboardTitle string                   `json:"dashboard_title"`
	TotalCountries int                      `json:"total_countries"`
	FocusCountry   FocusSummary             `json:"focus_country"`
}

// ListDatasets returns every dataset available in the store.
func (s *Service) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	keys, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DatasetInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, DatasetInfo{Conference: k.Conference, Year: k.Year})
	}
	return out, nil
}

// Summary returns the headline view for one dataset.
func (s *Service) Summary(ctx context.Context, key storage.DatasetKey) (SummaryView, error) {
	return throughCache(ctx, s, "summary", key, func(ctx context.Context) (SummaryView, error) {
		ds, err := s.load(ctx, key)
		if err != nil {
			return SummaryView{}, err
		}
		agg := s.aggregate(ds)

		view := SummaryView{
			ConferenceInfo: ds.ConferenceInfo,
			DashboardTitle: ds.Configuration.DashboardTitle,
			TotalCountries: len(agg),
			FocusCountry: FocusSummary{
				CountryCode:      s.opts.FocusCountry,
				CountryName:      ds.FocusCountry.CountryName,
				TotalAuthors:     ds.FocusCountry.TotalAuthors,
				TotalSpotlights:  ds.FocusCountry.TotalSpotlights,
				TotalOrals:       ds.FocusCountry.TotalOrals,
				InstitutionCount: len(ds.FocusCountry.Institutions),
			},
		}
		if focus := analytics.FindByCode(agg, s.opts.FocusCountry); focus != nil {
			view.FocusCountry.Rank = focus.Rank
			view.FocusCountry.PaperCount = focus.PaperCount
		}
		return view, nil
	})
}

// Countries returns the deduplicated, ranked country table.
func (s *Service) Countries(ctx context.Context, key storage.DatasetKey) ([]analytics.CountryRecord, error) {
	return throughCache(ctx, s, "countries", key, func(ctx context.Context) ([]analytics.CountryRecord, error) {
		ds, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		return s.aggregate(ds), nil
	})
}

// USChinaRest returns the US / China / Rest-of-World comparison.
func (s *Service) USChinaRest(ctx context.Context, key storage.DatasetKey) ([]analytics.DerivedChartRecord, error) {
	return throughCache(ctx, s, "us-china-rest", key, func(ctx context.Context) ([]analytics.DerivedChartRecord, error) {
		ds, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		return analytics.BuildUSChinaRest(s.aggregate(ds), ds.Configuration.ColorScheme), nil
	})
}

// Regional returns the APAC regional comparison.
func (s *Service) Regional(ctx context.Context, key storage.DatasetKey) ([]analytics.DerivedChartRecord, error) {
	return throughCache(ctx, s, "regional", key, func(ctx context.Context) ([]analytics.DerivedChartRecord, error) {
		ds, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		return analytics.BuildRegionalSubset(s.aggregate(ds),
			ds.Configuration.APACCountries, s.opts.FocusCountry, ds.Configuration.ColorScheme), nil
	})
}

// TopCountriesView pairs the ranked rows with their chart rendition.
type TopCountriesView struct {
	Countries []analytics.CountryRecord      `json:"countries"`
	Chart     []analytics.DerivedChartRecord `json:"chart"`
}

// TopCountries returns the first n ranked countries; n <= 0 selects the
// configured default.  With includeFocus, the focus country is appended when
// it ranks outside the slice.
func (s *Service) TopCountries(ctx context.Context, key storage.DatasetKey, n int, includeFocus bool) (TopCountriesView, error) {
	if n <= 0 {
		n = s.opts.DefaultTopN
	}
	view := fmt.Sprintf("top:%d:%t", n, includeFocus)
	return throughCache(ctx, s, view, key, func(ctx context.Context) (TopCountriesView, error) {
		ds, err := s.load(ctx, key)
		if err != nil {
			return TopCountriesView{}, err
		}
		agg := s.aggregate(ds)
		var total int
		for _, r := range agg {
			total += r.PaperCount
		}
		top := analytics.TopCountries(agg, n, s.opts.FocusCountry, includeFocus)
		return TopCountriesView{
			Countries: top,
			Chart:     analytics.BuildTopNChart(top, total, s.opts.FocusCountry, ds.Configuration.ColorScheme),
		}, nil
	})
}

// Institutions returns the focus-country institutions matching query,
// ranked.  Filtered lookups bypass the cache; the full table is cached.
func (s *Service) Institutions(ctx context.Context, key storage.DatasetKey, query string) ([]analytics.InstitutionRecord, error) {
	if query != "" {
		ds, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		return analytics.FilterInstitutions(ds.FocusCountry.Institutions, query), nil
	}
	return throughCache(ctx, s, "institutions", key, func(ctx context.Context) ([]analytics.InstitutionRecord, error) {
		ds, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		return analytics.FilterInstitutions(ds.FocusCountry.Institutions, ""), nil
	})
}

// Composition returns the three focus-country paper breakdowns.
func (s *Service) Composition(ctx context.Context, key storage.DatasetKey) (analytics.Composition, error) {
	return throughCache(ctx, s, "composition", key, func(ctx context.Context) (analytics.Composition, error) {
		ds, err := s.load(ctx, key)
		if err != nil {
			return analytics.Composition{}, err
		}
		return analytics.BuildComposition(ds.FocusCountry, ds.Configuration.ColorScheme), nil
	})
}

// Export kinds accepted by ExportCSV.
const (
	ExportCountries    = "countries"
	ExportInstitutions = "institutions"
)

// ExportCSV streams one table of the dataset as CSV.
func (s *Service) ExportCSV(ctx context.Context, key storage.DatasetKey, kind string, w io.Writer) error {
	var err error
	switch kind {
	case ExportCountries:
		var agg []analytics.CountryRecord
		if agg, err = s.Countries(ctx, key); err == nil {
			err = analytics.WriteCountriesCSV(w, agg)
		}
	case ExportInstitutions:
		var insts []analytics.InstitutionRecord
		if insts, err = s.Institutions(ctx, key, ""); err == nil {
			err = analytics.WriteInstitutionsCSV(w, insts)
		}
	default:
		err = errors.InvalidParam("unknown export kind").WithDetail(kind)
	}

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.ExportsTotal.WithLabelValues(kind, status).Inc()
	}
	return err
}

// Refresh drops every cached view of the dataset and, when a publisher is
// wired, fans the refresh out to the other replicas.
func (s *Service) Refresh(ctx context.Context, key storage.DatasetKey) (int, error) {
	key = normalizeKey(key)
	deleted, err := s.invalidate(ctx, key)
	if err != nil {
		return deleted, err
	}
	if s.publisher != nil {
		event := kafka.RefreshEvent{Conference: key.Conference, Year: key.Year}
		if err := s.publisher.Publish(ctx, event); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// HandleRefreshEvent reacts to a refresh event from the stream by dropping
// the local cached views.  It never republishes.
func (s *Service) HandleRefreshEvent(ctx context.Context, event kafka.RefreshEvent) error {
	key := storage.DatasetKey{Conference: event.Conference, Year: event.Year}
	deleted, err := s.invalidate(ctx, key)
	if err != nil {
		return err
	}
	s.logger.Info("dataset views invalidated",
		logging.String("dataset", key.String()),
		logging.Int("deleted", deleted))
	return nil
}

func (s *Service) invalidate(ctx context.Context, key storage.DatasetKey) (int, error) {
	key = normalizeKey(key)
	pattern := fmt.Sprintf("view:%s:%d:*", key.Conference, key.Year)
	return s.cache.Invalidate(ctx, pattern)
}

// normalizeKey lowercases the conference so store lookups, cache keys, and
// invalidation patterns agree regardless of the caller's casing.
func normalizeKey(key storage.DatasetKey) storage.DatasetKey {
	key.Conference = strings.ToLower(key.Conference)
	return key
}

func (s *Service) aggregate(ds *analytics.Dataset) []analytics.CountryRecord {
	return analytics.AggregateCountries(ds.GlobalStats.Countries,
		ds.Configuration.CountryMap, s.opts.FocusCountry)
}

// load fetches and decodes one dataset, recording load metrics.
func (s *Service) load(ctx context.Context, key storage.DatasetKey) (*analytics.Dataset, error) {
	key = normalizeKey(key)
	start := time.Now()
	data, err := s.store.Get(ctx, key)
	var ds *analytics.Dataset
	if err == nil {
		ds, err = analytics.DecodeDataset(data)
	}

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.DatasetLoadsTotal.WithLabelValues(key.String(), status).Inc()
		s.metrics.DatasetLoadDuration.WithLabelValues(key.String()).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// throughCache serializes a computed view into the cache and decodes it back
// on hits, so replicas sharing one Redis serve identical bytes.
func throughCache[T any](ctx context.Context, s *Service, view string, key storage.DatasetKey,
	compute func(context.Context) (T, error)) (T, error) {
	var zero T
	key = normalizeKey(key)
	cacheKey := fmt.Sprintf("view:%s:%d:%s", key.Conference, key.Year, view)

	data, err := s.cache.GetOrCompute(ctx, view, cacheKey, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode view").WithDetail(view)
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, errors.Wrap(err, errors.CodeSerialization, "failed to decode cached view").WithDetail(view)
	}
	return v, nil
}
