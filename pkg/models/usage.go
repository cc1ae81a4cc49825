package models

import (
	"math"
	"time"
)

// Observation is one immutable snapshot of internet data usage as reported
// by the provider. ObservedAt is the provider's "as of" time, not the time
// the fetch ran; it is the natural ordering key for stored history.
type Observation struct {
	ID              int64     `json:"id,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
	TotalGB         float64   `json:"total_gb"`
	UploadGB        float64   `json:"upload_gb"`
	DownloadGB      float64   `json:"download_gb"`
	AllowanceGB     float64   `json:"allowance_gb,omitempty"`
	PeriodStart     time.Time `json:"period_start,omitempty"`
	PeriodEnd       time.Time `json:"period_end,omitempty"`
	AllowanceToDate float64   `json:"allowance_to_date,omitempty"`
}

// IsZero reports whether o is the "no prior data" sentinel returned for an
// empty store.
func (o Observation) IsZero() bool {
	return o.ObservedAt.IsZero()
}

// ProratedAllowance returns the share of the billing-period allowance
// expected to be consumed by asOf under even daily usage, rounded to a
// whole GB. Day counts are inclusive: a period starting and ending on the
// same day is one day long.
func ProratedAllowance(allowanceGB float64, periodStart, periodEnd, asOf time.Time) float64 {
	if periodStart.IsZero() || periodEnd.IsZero() {
		return 0
	}

	daysInPeriod := daysBetween(periodStart, periodEnd) + 1
	daysElapsed := daysBetween(periodStart, asOf) + 1
	if daysInPeriod <= 0 || daysElapsed <= 0 {
		return 0
	}

	return math.Round(allowanceGB / float64(daysInPeriod) * float64(daysElapsed))
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
