package federalregister

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tariff-impact/internal/resilience"
)

func fastRetry() Option {
	return WithRetryPolicy(resilience.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
}

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "section 301", q.Get("conditions[term]"))
		assert.Equal(t, "5", q.Get("per_page"))
		assert.Equal(t, "newest", q.Get("order"))
		assert.Equal(t, []string{"RULE", "NOTICE"}, q["conditions[type][]"])
		assert.Equal(t, "2026-01-01", q.Get("conditions[publication_date][gte]"))
		assert.Contains(t, q["fields[]"], "document_number")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{ //nolint:errcheck
			Count: 1,
			Results: []Document{{
				DocumentNumber:  "2026-01234",
				Title:           "Notice of Modification of Section 301 Action",
				Type:            "Notice",
				PublicationDate: "2026-03-02",
				HTMLURL:         "https://www.federalregister.gov/d/2026-01234",
			}},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	got, err := client.Search(context.Background(), SearchParams{
		Term: "section 301", PerPage: 5, Types: []string{"RULE", "NOTICE"}, Since: "2026-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "2026-01234", got.Results[0].DocumentNumber)
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"count":0,"results":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0), fastRetry())
	got, err := client.Search(context.Background(), SearchParams{Term: "tariff"})
	require.NoError(t, err)
	assert.Zero(t, got.Count)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":["bad term"]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0), fastRetry())
	_, err := client.Search(context.Background(), SearchParams{Term: "tariff"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.Search(context.Background(), SearchParams{Term: "tariff"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestSearch_RequiresTerm(t *testing.T) {
	t.Parallel()

	_, err := NewClient().Search(context.Background(), SearchParams{})
	assert.Error(t, err)
}

func TestSearch_RateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"count":0,"results":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0.001))
	_, err := client.Search(context.Background(), SearchParams{Term: "tariff"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Search(ctx, SearchParams{Term: "tariff"})
	assert.Error(t, err)
}
