package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/application/dashboard"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/cache/redis"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/prometheus"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

const testDataset = `{
  "conferenceInfo": {"name": "ICLR", "year": 2025, "totalAcceptedPapers": 21, "totalAcceptedAuthors": 55},
  "globalStats": {"countries": [
    {"affiliation_country": "US", "paper_count": 10, "author_count": 30},
    {"affiliation_country": "CN", "paper_count": 8, "author_count": 20},
    {"affiliation_country": "IN", "paper_count": 3, "author_count": 5}
  ]},
  "focusCountry": {
    "country_name": "India",
    "total_authors": 5,
    "institution_types": {"academic": 2, "corporate": 1},
    "at_least_one_focus_country_author": {"count": 3},
    "majority_focus_country_authors": {"count": 2},
    "first_focus_country_author": {"count": 1},
    "institutions": [{"institute": "IIT Madras", "unique_paper_count": 2, "type": "academic"}]
  },
  "configuration": {
    "countryMap": {"US": "United States", "CN": "China", "IN": "India"},
    "apacCountries": ["IN", "CN"]
  }
}`

type fakeStore struct {
	datasets map[storage.DatasetKey][]byte
	listErr  error
}

func (f *fakeStore) List(context.Context) ([]storage.DatasetKey, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
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

func newTestRouter(t *testing.T, store storage.Store) http.Handler {
	t.Helper()
	svc := dashboard.NewService(store, redis.NopCache{}, nil, logging.NewNopLogger(), nil,
		dashboard.Options{FocusCountry: "IN", DefaultTopN: 10})
	m := prometheus.NewMetrics(prometheus.Options{Namespace: "test"})
	return NewRouter(config.ServerConfig{Mode: "test"}, svc, store, logging.NewNopLogger(), m)
}

func defaultStore() *fakeStore {
	return &fakeStore{datasets: map[storage.DatasetKey][]byte{
		{Conference: "iclr", Year: 2025}: []byte(testDataset),
	}}
}

func doRequest(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	assert.Equal(t, http.StatusOK, doRequest(router, "GET", "/healthz").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "GET", "/readyz").Code)
}

func TestReadyzFailsWhenStoreDown(t *testing.T) {
	store := defaultStore()
	store.listErr = errors.New(errors.CodeStorageError, "down")
	router := newTestRouter(t, store)

	assert.Equal(t, http.StatusServiceUnavailable, doRequest(router, "GET", "/readyz").Code)
}

func TestListConferences(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Datasets []dashboard.DatasetInfo `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []dashboard.DatasetInfo{{Conference: "iclr", Year: 2025}}, body.Datasets)
}

func TestSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/iclr/2025/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var view dashboard.SummaryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "ICLR", view.ConferenceInfo.Name)
	assert.Equal(t, 3, view.FocusCountry.Rank)
}

func TestCountriesEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/iclr/2025/countries")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "United States")
}

func TestChartEndpoints(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/iclr/2025/countries/us-china-rest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Rest of World")

	w = doRequest(router, "GET", "/api/v1/conferences/iclr/2025/countries/regional")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "India")

	w = doRequest(router, "GET", "/api/v1/conferences/iclr/2025/countries/top?n=2&include_focus=true")
	require.Equal(t, http.StatusOK, w.Code)

	var view dashboard.TopCountriesView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Countries, 3, "top 2 plus the appended focus row")
	assert.Equal(t, 3, view.Countries[2].Rank)

	w = doRequest(router, "GET", "/api/v1/conferences/iclr/2025/composition")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "institutionTypes")
}

func TestTopCountriesRejectsBadN(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/iclr/2025/countries/top?n=zero")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeInvalidParam.String())
}

func TestBadYearRejected(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/iclr/twentyfive/summary")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeInvalidParam.String())
}

func TestConferenceCasingNormalized(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/ICLR/2025/summary")
	require.Equal(t, http.StatusOK, w.Code, "casing must not change which dataset is served")
}

func TestMissingDatasetIs404(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/neurips/2024/summary")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeDatasetNotFound.String())
}

func TestExportEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "GET", "/api/v1/conferences/iclr/2025/export/countries")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "rank,country_code,country_name")

	w = doRequest(router, "GET", "/api/v1/conferences/iclr/2025/export/papers")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := doRequest(router, "POST", "/api/v1/conferences/iclr/2025/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "invalidated")
}

func TestRequestIDPropagation(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = doRequest(router, "GET", "/healthz")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"), "a fresh ID is assigned when absent")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultStore())

	doRequest(router, "GET", "/api/v1/conferences/iclr/2025/summary")
	w := doRequest(router, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
