package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/capmon/capmon/pkg/models"
)

const (
	supportURL   = "https://support.mediacomcable.com"
	ssoURLPrefix = "https://sso.mediacomcable.com"
	usageAPIPath = "/api/api/InternetUsage/"

	// 1 GB = 2^30 bytes; the API reports raw octet counts
	bytesPerGB = 1 << 30
)

// SessionFetcher drives an authenticated headless browser session through
// the provider's support portal and captures the InternetUsage API
// response the account page requests in the background.
type SessionFetcher struct {
	username string
	password string
	timeout  time.Duration
	visible  bool
}

// NewSessionFetcher creates a session fetcher with the given portal
// credentials. timeout bounds the wait for the intercepted usage response.
func NewSessionFetcher(username, password string, timeout time.Duration) *SessionFetcher {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &SessionFetcher{
		username: username,
		password: password,
		timeout:  timeout,
	}
}

// SetVisible sets whether to show the browser window
func (f *SessionFetcher) SetVisible(visible bool) {
	f.visible = visible
}

// Fetch logs in and returns the observation for the most recent billing
// period. The browser session is torn down on every exit path.
func (f *SessionFetcher) Fetch(ctx context.Context) (models.Observation, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !f.visible),
		chromedp.Flag("no-sandbox", true),            // Required for running as root on Linux
		chromedp.Flag("disable-gpu", true),           // Recommended for headless Linux
		chromedp.Flag("disable-dev-shm-usage", true), // Avoid /dev/shm issues on Linux
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1440, 900),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Outer ceiling covers navigation and login on top of the usage wait
	browserCtx, cancel = context.WithTimeout(browserCtx, f.timeout+60*time.Second)
	defer cancel()

	// Watch for the background usage API call. The body is only safe to
	// read once loading has finished for the matched request.
	bodyCh := make(chan []byte, 1)
	var usageRequestID network.RequestID
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			if strings.Contains(ev.Response.URL, usageAPIPath) {
				usageRequestID = ev.RequestID
			}
		case *network.EventLoadingFinished:
			if usageRequestID == "" || ev.RequestID != usageRequestID {
				return
			}
			reqID := ev.RequestID
			go func() {
				var body []byte
				err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
					var err error
					body, err = network.GetResponseBody(reqID).Do(ctx)
					return err
				}))
				if err != nil {
					return
				}
				select {
				case bodyCh <- body:
				default:
				}
			}()
		}
	})

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(supportURL),
		chromedp.WaitVisible(`//button[text()="MEDIACOM ID"]`, chromedp.BySearch),
		chromedp.Sleep(1*time.Second),
		chromedp.Click(`//button[text()="MEDIACOM ID"]`, chromedp.BySearch),
		chromedp.Sleep(2*time.Second), // Wait for the redirect to the identity provider
	); err != nil {
		return models.Observation{}, fmt.Errorf("opening login flow: %w", err)
	}

	var currentURL string
	if err := chromedp.Run(browserCtx, chromedp.Location(&currentURL)); err != nil {
		return models.Observation{}, fmt.Errorf("reading location: %w", err)
	}
	if !strings.HasPrefix(currentURL, ssoURLPrefix) {
		return models.Observation{}, &RedirectError{URL: currentURL}
	}

	if err := chromedp.Run(browserCtx,
		chromedp.WaitVisible(`input[name="pf.username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="pf.username"]`, f.username, chromedp.ByQuery),
		chromedp.WaitVisible(`input[name="pf.pass"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="pf.pass"]`, f.password, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.Click(`//button[text()="Sign In"]`, chromedp.BySearch),
	); err != nil {
		return models.Observation{}, fmt.Errorf("submitting login form: %w", err)
	}

	select {
	case body := <-bodyCh:
		return ParseInternetUsage(body)
	case <-time.After(f.timeout):
		return models.Observation{}, ErrUsageTimeout
	case <-browserCtx.Done():
		return models.Observation{}, fmt.Errorf("browser session ended: %w", browserCtx.Err())
	}
}

type internetUsageResponse struct {
	PeriodUsages []periodUsage `json:"PeriodUsages"`
}

type periodUsage struct {
	AsOfDate      string  `json:"AsOfDate"`
	BillingPeriod string  `json:"BillingPeriod"`
	Quota         float64 `json:"Quota"`
	TotalOctets   float64 `json:"TotalOctets"`
	TotalUpOctets float64 `json:"TotalUpOctets"`
	TotalDnOctets float64 `json:"TotalDnOctets"`
}

// ParseInternetUsage converts the intercepted InternetUsage response body
// into an observation for the last (most recent) billing period.
func ParseInternetUsage(body []byte) (models.Observation, error) {
	var resp internetUsageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Observation{}, &ExtractionError{Marker: "PeriodUsages"}
	}
	if len(resp.PeriodUsages) == 0 {
		return models.Observation{}, &ExtractionError{Marker: "PeriodUsages"}
	}

	period := resp.PeriodUsages[len(resp.PeriodUsages)-1]

	observedAt, err := time.Parse("1/2/2006 15:04", period.AsOfDate)
	if err != nil {
		return models.Observation{}, &ExtractionError{Marker: "AsOfDate"}
	}

	start, end, err := parseBillingPeriod(period.BillingPeriod)
	if err != nil {
		return models.Observation{}, err
	}

	// Proration uses the unrounded allowance; only display values round
	allowance := period.Quota / bytesPerGB

	return models.Observation{
		ObservedAt:      observedAt,
		TotalGB:         round1(period.TotalOctets / bytesPerGB),
		UploadGB:        round1(period.TotalUpOctets / bytesPerGB),
		DownloadGB:      round1(period.TotalDnOctets / bytesPerGB),
		AllowanceGB:     round1(allowance),
		PeriodStart:     start,
		PeriodEnd:       end,
		AllowanceToDate: models.ProratedAllowance(allowance, start, end, observedAt),
	}, nil
}

// parseBillingPeriod splits a "Mon DD, YYYY - Mon DD, YYYY" range string
func parseBillingPeriod(s string) (time.Time, time.Time, error) {
	parts := strings.SplitN(s, " - ", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, &ExtractionError{Marker: "BillingPeriod"}
	}

	start, err := time.Parse("Jan 2, 2006", strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, &ExtractionError{Marker: "BillingPeriod"}
	}
	end, err := time.Parse("Jan 2, 2006", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, &ExtractionError{Marker: "BillingPeriod"}
	}

	return start, end, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
