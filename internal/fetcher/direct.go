package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/capmon/capmon/pkg/models"
)

const defaultUsageURL = "http://50.19.209.155/um/usage.action"

var (
	asOfPattern     = regexp.MustCompile(`by Mediacom as of ([0-9]{1,2})/([0-9]{1,2})/([0-9]{4}) ([0-9]{1,2}):([0-9]{2})\. Note`)
	totalPattern    = regexp.MustCompile(`usageCurrentData\.push\((.+?)\)`)
	uploadPattern   = regexp.MustCompile(`usageCurrentUpData\.push\((.+?)\)`)
	downloadPattern = regexp.MustCompile(`usageCurrentDnData\.push\((.+?)\)`)
)

// DirectFetcher reads the unauthenticated usage lookup page for a customer
// id and extracts the embedded usage figures. Allowance and billing period
// are not available on this path.
type DirectFetcher struct {
	customerID string
	usageURL   string
	client     *http.Client
}

// NewDirectFetcher creates a direct HTTP fetcher for the given customer id
func NewDirectFetcher(customerID, usageURL string) *DirectFetcher {
	if usageURL == "" {
		usageURL = defaultUsageURL
	}
	return &DirectFetcher{
		customerID: customerID,
		usageURL:   usageURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves and parses the current usage snapshot
func (f *DirectFetcher) Fetch(ctx context.Context) (models.Observation, error) {
	reqURL := fmt.Sprintf("%s?custId=%s", f.usageURL, url.QueryEscape(f.customerID))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return models.Observation{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return models.Observation{}, fmt.Errorf("fetching usage page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Observation{}, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Observation{}, fmt.Errorf("reading response body: %w", err)
	}

	return ParseUsagePage(string(body))
}

// ParseUsagePage extracts a usage observation from the lookup page markup.
// It either matches every expected marker or fails; a partially matched
// page never produces an observation.
func ParseUsagePage(body string) (models.Observation, error) {
	m := asOfPattern.FindStringSubmatch(body)
	if m == nil {
		return models.Observation{}, &ExtractionError{Marker: "by Mediacom as of"}
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	observedAt := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)

	total, err := matchQuantity(body, totalPattern, "usageCurrentData")
	if err != nil {
		return models.Observation{}, err
	}
	upload, err := matchQuantity(body, uploadPattern, "usageCurrentUpData")
	if err != nil {
		return models.Observation{}, err
	}
	download, err := matchQuantity(body, downloadPattern, "usageCurrentDnData")
	if err != nil {
		return models.Observation{}, err
	}

	return models.Observation{
		ObservedAt: observedAt,
		TotalGB:    total,
		UploadGB:   upload,
		DownloadGB: download,
	}, nil
}

func matchQuantity(body string, pattern *regexp.Regexp, marker string) (float64, error) {
	m := pattern.FindStringSubmatch(body)
	if m == nil {
		return 0, &ExtractionError{Marker: marker}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &ExtractionError{Marker: marker}
	}
	return v, nil
}
