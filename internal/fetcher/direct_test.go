package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capmon/capmon/internal/fetcher"
)

const usagePage = `<html><body>
<p>Usage reported by Mediacom as of 3/5/2021 9:07. Note that counters may lag.</p>
<script>
usageCurrentData.push(123.4);
usageCurrentUpData.push(10.1);
usageCurrentDnData.push(113.3);
</script>
</body></html>`

func TestParseUsagePage(t *testing.T) {
	obs, err := fetcher.ParseUsagePage(usagePage)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2021, time.March, 5, 9, 7, 0, 0, time.UTC), obs.ObservedAt)
	assert.Equal(t, "2021-03-05 09:07:00", obs.ObservedAt.Format("2006-01-02 15:04:05"))
	assert.Equal(t, 123.4, obs.TotalGB)
	assert.Equal(t, 10.1, obs.UploadGB)
	assert.Equal(t, 113.3, obs.DownloadGB)

	// The direct endpoint does not report allowance or billing period
	assert.Zero(t, obs.AllowanceGB)
	assert.True(t, obs.PeriodStart.IsZero())
}

func TestParseUsagePage_MissingMarkers(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"error page", "<html><body>Service temporarily unavailable</body></html>"},
		{"missing as-of date", `usageCurrentData.push(1.0) usageCurrentUpData.push(2.0) usageCurrentDnData.push(3.0)`},
		{"missing total", `by Mediacom as of 3/5/2021 9:07. Note usageCurrentUpData.push(2.0) usageCurrentDnData.push(3.0)`},
		{"missing upload", `by Mediacom as of 3/5/2021 9:07. Note usageCurrentData.push(1.0) usageCurrentDnData.push(3.0)`},
		{"missing download", `by Mediacom as of 3/5/2021 9:07. Note usageCurrentData.push(1.0) usageCurrentUpData.push(2.0)`},
		{"non-numeric quantity", `by Mediacom as of 3/5/2021 9:07. Note usageCurrentData.push(null) usageCurrentUpData.push(2.0) usageCurrentDnData.push(3.0)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := fetcher.ParseUsagePage(tt.body)

			var extractionErr *fetcher.ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.True(t, obs.IsZero(), "no partial observation on extraction failure")
		})
	}
}

func TestDirectFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/um/usage.action", r.URL.Path)
		assert.Equal(t, "1234567890", r.URL.Query().Get("custId"))
		fmt.Fprint(w, usagePage)
	}))
	defer srv.Close()

	f := fetcher.NewDirectFetcher("1234567890", srv.URL+"/um/usage.action")
	obs, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 123.4, obs.TotalGB)
	assert.Equal(t, time.Date(2021, time.March, 5, 9, 7, 0, 0, time.UTC), obs.ObservedAt)
}

func TestDirectFetcher_Fetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := fetcher.NewDirectFetcher("1234567890", srv.URL+"/um/usage.action")
	_, err := f.Fetch(context.Background())

	var statusErr *fetcher.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestDirectFetcher_Fetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	f := fetcher.NewDirectFetcher("1234567890", srv.URL+"/um/usage.action")
	_, err := f.Fetch(context.Background())
	require.Error(t, err)

	// A network failure is not an extraction failure
	var extractionErr *fetcher.ExtractionError
	assert.False(t, errors.As(err, &extractionErr))
}
