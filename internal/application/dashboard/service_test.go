package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/domain/analytics"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/messaging/kafka"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

const sampleDataset = `{
  "conferenceInfo": {
    "name": "ICLR", "year": 2025, "track": "Conference",
    "totalAcceptedPapers": 22, "totalAcceptedAuthors": 59
  },
  "globalStats": {
    "countries": [
      {"affiliation_country": "US", "paper_count": 10, "author_count": 30},
      {"affiliation_country": "CN", "paper_count": 8, "author_count": 20},
      {"affiliation_country": "GB", "paper_count": 2, "author_count": 4},
      {"affiliation_country": "UK", "paper_count": 1, "author_count": 2},
      {"affiliation_country": "IN", "paper_count": 1, "author_count": 3}
    ]
  },
  "focusCountry": {
    "country_code": "IN",
    "country_name": "India",
    "total_authors": 3,
    "total_spotlights": 1,
    "total_orals": 0,
    "institution_types": {"academic": 4, "corporate": 1},
    "at_least_one_focus_country_author": {"count": 5},
    "majority_focus_country_authors": {"count": 3},
    "first_focus_country_author": {"count": 2},
    "institutions": [
      {"institute": "IIT Bombay", "unique_paper_count": 3, "author_count": 6, "type": "academic"},
      {"institute": "Microsoft Research India", "unique_paper_count": 1, "author_count": 2, "type": "corporate"}
    ]
  },
  "configuration": {
    "countryMap": {
      "US": "United States", "CN": "China",
      "GB": "United Kingdom", "UK": "United Kingdom", "IN": "India"
    },
    "apacCountries": ["IN", "CN", "SG"],
    "dashboardTitle": "India @ ICLR 2025"
  }
}`

var iclr2025 = storage.DatasetKey{Conference: "iclr", Year: 2025}

type fakeStore struct {
	datasets map[storage.DatasetKey][]byte
}

func (f *fakeStore) List(context.Context) ([]storage.DatasetKey, error) {
	keys := make([]storage.DatasetKey, 0, len(f.datasets))
	for k := range f.datasets {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeStore) Get(_ context.Context, key storage.DatasetKey) ([]byte, error) {
	data, ok := f.datasets[key]
	if !ok {
		return nil, errors.New(errors.CodeDatasetNotFound, "dataset not found").WithDetail(key.String())
	}
	return data, nil
}

// spyCache passes everything through and records keys and invalidation
// patterns.
type spyCache struct {
	mu          sync.Mutex
	keys        []string
	invalidated []string
}

func (c *spyCache) GetOrCompute(ctx context.Context, _, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	c.keys = append(c.keys, key)
	c.mu.Unlock()
	return compute(ctx)
}

func (c *spyCache) Invalidate(_ context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pattern)
	return 3, nil
}

type spyPublisher struct {
	events []kafka.RefreshEvent
}

func (p *spyPublisher) Publish(_ context.Context, event kafka.RefreshEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newTestService(t *testing.T) (*Service, *spyCache, *spyPublisher) {
	t.Helper()
	store := &fakeStore{datasets: map[storage.DatasetKey][]byte{
		iclr2025: []byte(sampleDataset),
	}}
	cache := &spyCache{}
	publisher := &spyPublisher{}
	svc := NewService(store, cache, publisher, logging.NewNopLogger(), nil,
		Options{FocusCountry: "IN", DefaultTopN: 3})
	return svc, cache, publisher
}

func TestListDatasets(t *testing.T) {
	svc, _, _ := newTestService(t)

	infos, err := svc.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DatasetInfo{{Conference: "iclr", Year: 2025}}, infos)
}

func TestSummary(t *testing.T) {
	svc, _, _ := newTestService(t)

	view, err := svc.Summary(context.Background(), iclr2025)
	require.NoError(t, err)

	assert.Equal(t, "ICLR", view.ConferenceInfo.Name)
	assert.Equal(t, "India @ ICLR 2025", view.DashboardTitle)
	assert.Equal(t, 4, view.TotalCountries, "GB and UK merge into one row")
	assert.Equal(t, "India", view.FocusCountry.CountryName)
	assert.Equal(t, 4, view.FocusCountry.Rank)
	assert.Equal(t, 1, view.FocusCountry.PaperCount)
	assert.Equal(t, 2, view.FocusCountry.InstitutionCount)
}

func TestCountriesMergesAliases(t *testing.T) {
	svc, _, _ := newTestService(t)

	agg, err := svc.Countries(context.Background(), iclr2025)
	require.NoError(t, err)
	require.Len(t, agg, 4)

	uk := analytics.FindByCode(agg, "GB")
	require.NotNil(t, uk)
	assert.Equal(t, "United Kingdom", uk.CountryName)
	assert.Equal(t, 3, uk.PaperCount)
}

func TestUSChinaRest(t *testing.T) {
	svc, _, _ := newTestService(t)

	chart, err := svc.USChinaRest(context.Background(), iclr2025)
	require.NoError(t, err)
	require.Len(t, chart, 3)
	assert.Equal(t, 10.0, chart[0].Value)
	assert.Equal(t, 8.0, chart[1].Value)
	assert.Equal(t, 4.0, chart[2].Value, "rest = 22 - 10 - 8")
}

func TestRegionalUsesDatasetMembership(t *testing.T) {
	svc, _, _ := newTestService(t)

	chart, err := svc.Regional(context.Background(), iclr2025)
	require.NoError(t, err)
	require.Len(t, chart, 2, "only CN and IN of the APAC set are present")

	var total float64
	for _, r := range chart {
		total += r.Percent
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestTopCountriesDefaultsAndFocusAppend(t *testing.T) {
	svc, _, _ := newTestService(t)

	view, err := svc.TopCountries(context.Background(), iclr2025, 0, true)
	require.NoError(t, err)
	require.Len(t, view.Countries, 4, "default top 3 plus appended focus row")
	assert.Equal(t, "India", view.Countries[3].CountryName)
	assert.Equal(t, 4, view.Countries[3].Rank, "appended focus row keeps its true rank")
	assert.Len(t, view.Chart, 4)
}

func TestInstitutionsFilter(t *testing.T) {
	svc, _, _ := newTestService(t)

	insts, err := svc.Institutions(context.Background(), iclr2025, "iit")
	require.NoError(t, err)
	require.Len(t, insts, 1)
	assert.Equal(t, "IIT Bombay", insts[0].Institute)

	all, err := svc.Institutions(context.Background(), iclr2025, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestComposition(t *testing.T) {
	svc, _, _ := newTestService(t)

	comp, err := svc.Composition(context.Background(), iclr2025)
	require.NoError(t, err)
	require.Len(t, comp.Authorship, 2)
	assert.Equal(t, 3.0, comp.Authorship[0].Value)
	assert.Equal(t, 2.0, comp.Authorship[1].Value)
	require.Len(t, comp.InstitutionTypes, 2)
	assert.Equal(t, 4.0, comp.InstitutionTypes[0].Value)
}

func TestExportCSV(t *testing.T) {
	svc, _, _ := newTestService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), iclr2025, ExportCountries, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5, "header plus four aggregated countries")

	buf.Reset()
	require.NoError(t, svc.ExportCSV(context.Background(), iclr2025, ExportInstitutions, &buf))

	err = svc.ExportCSV(context.Background(), iclr2025, "papers", &buf)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestRefreshInvalidatesAndPublishes(t *testing.T) {
	svc, cache, publisher := newTestService(t)

	deleted, err := svc.Refresh(context.Background(), iclr2025)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []string{"view:iclr:2025:*"}, cache.invalidated)
	assert.Equal(t, []kafka.RefreshEvent{{Conference: "iclr", Year: 2025}}, publisher.events)
}

func TestHandleRefreshEventInvalidatesOnly(t *testing.T) {
	svc, cache, publisher := newTestService(t)

	err := svc.HandleRefreshEvent(context.Background(), kafka.RefreshEvent{Conference: "iclr", Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, []string{"view:iclr:2025:*"}, cache.invalidated)
	assert.Empty(t, publisher.events, "stream-driven refreshes never republish")
}

func TestConferenceCasingNormalized(t *testing.T) {
	svc, cache, publisher := newTestService(t)
	upper := storage.DatasetKey{Conference: "ICLR", Year: 2025}

	view, err := svc.Summary(context.Background(), upper)
	require.NoError(t, err, "mixed-case conference must resolve the same dataset")
	assert.Equal(t, "ICLR", view.ConferenceInfo.Name)
	assert.Equal(t, []string{"view:iclr:2025:summary"}, cache.keys,
		"cache keys are always lowercased")

	_, err = svc.Refresh(context.Background(), upper)
	require.NoError(t, err)
	assert.Equal(t, []string{"view:iclr:2025:*"}, cache.invalidated,
		"a mixed-case refresh must hit the same cache entries")
	assert.Equal(t, []kafka.RefreshEvent{{Conference: "iclr", Year: 2025}}, publisher.events)
}

func TestMissingDatasetPropagates(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Summary(context.Background(), storage.DatasetKey{Conference: "neurips", Year: 2024})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
