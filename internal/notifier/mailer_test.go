package notifier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capmon/capmon/internal/notifier"
	"github.com/capmon/capmon/pkg/models"
)

func TestFormatAlert(t *testing.T) {
	current := models.Observation{
		ObservedAt:      time.Date(2021, time.March, 5, 9, 7, 0, 0, time.UTC),
		TotalGB:         493.6,
		UploadGB:        20.0,
		DownloadGB:      473.6,
		AllowanceGB:     1000.0,
		PeriodStart:     time.Date(2021, time.February, 16, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC),
		AllowanceToDate: 643,
	}
	previous := models.Observation{
		ObservedAt: time.Date(2021, time.March, 4, 9, 5, 0, 0, time.UTC),
		TotalGB:    480.1,
		UploadGB:   19.5,
		DownloadGB: 460.6,
	}

	body := notifier.FormatAlert(current, previous)

	assert.Contains(t, body, "2021-03-05 09:07:00")
	assert.Contains(t, body, "2021-03-04 09:05:00")
	assert.Contains(t, body, "493.6 GB")
	assert.Contains(t, body, "480.1 GB")
	assert.Contains(t, body, "1,000 GB")
	assert.Contains(t, body, "643 GB expected to date")
	assert.Contains(t, body, "2021-02-16 - 2021-03-15")
}

func TestFormatAlert_NoPriorData(t *testing.T) {
	current := models.Observation{
		ObservedAt: time.Date(2021, time.March, 5, 9, 7, 0, 0, time.UTC),
		TotalGB:    123.4,
		UploadGB:   10.1,
		DownloadGB: 113.3,
	}

	body := notifier.FormatAlert(current, models.Observation{})

	assert.Contains(t, body, "(no prior data)")
	assert.Contains(t, body, "123.4 GB")
	// Optional fields stay out of the dump when unknown
	assert.NotContains(t, body, "Allowance")
	assert.NotContains(t, body, "Billing period")
}
