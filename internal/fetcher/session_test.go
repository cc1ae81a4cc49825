package fetcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capmon/capmon/internal/fetcher"
)

// Two billing periods; the parser must use the last (most recent) one.
// 1000 GB quota = 1073741824000 octets.
const internetUsageBody = `{
	"PeriodUsages": [
		{
			"AsOfDate": "2/10/2021 12:00",
			"BillingPeriod": "Jan 16, 2021 - Feb 15, 2021",
			"Quota": 1073741824000,
			"TotalOctets": 970000000000,
			"TotalUpOctets": 70000000000,
			"TotalDnOctets": 900000000000
		},
		{
			"AsOfDate": "3/5/2021 9:07",
			"BillingPeriod": "Feb 16, 2021 - Mar 15, 2021",
			"Quota": 1073741824000,
			"TotalOctets": 530000000000,
			"TotalUpOctets": 21500000000,
			"TotalDnOctets": 508500000000
		}
	]
}`

func TestParseInternetUsage(t *testing.T) {
	obs, err := fetcher.ParseInternetUsage([]byte(internetUsageBody))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2021, time.March, 5, 9, 7, 0, 0, time.UTC), obs.ObservedAt)

	// Octets convert at 2^30 per GB, displayed to one decimal
	assert.Equal(t, 493.6, obs.TotalGB)
	assert.Equal(t, 20.0, obs.UploadGB)
	assert.Equal(t, 473.6, obs.DownloadGB)
	assert.Equal(t, 1000.0, obs.AllowanceGB)

	assert.Equal(t, time.Date(2021, time.February, 16, 0, 0, 0, 0, time.UTC), obs.PeriodStart)
	assert.Equal(t, time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC), obs.PeriodEnd)

	// 28-day period, day 18: round(1000 * 18/28) = 643
	assert.Equal(t, 643.0, obs.AllowanceToDate)
}

func TestParseInternetUsage_BadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>maintenance page</html>"},
		{"no periods key", `{"Something": []}`},
		{"empty periods", `{"PeriodUsages": []}`},
		{"bad as-of date", `{"PeriodUsages": [{"AsOfDate": "yesterday", "BillingPeriod": "Feb 16, 2021 - Mar 15, 2021"}]}`},
		{"bad period range", `{"PeriodUsages": [{"AsOfDate": "3/5/2021 9:07", "BillingPeriod": "Feb 16 to Mar 15"}]}`},
		{"bad period date", `{"PeriodUsages": [{"AsOfDate": "3/5/2021 9:07", "BillingPeriod": "16.2.2021 - 15.3.2021"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := fetcher.ParseInternetUsage([]byte(tt.body))

			var extractionErr *fetcher.ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.True(t, obs.IsZero(), "no partial observation on extraction failure")
		})
	}
}
