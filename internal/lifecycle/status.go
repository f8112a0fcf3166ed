package lifecycle

import (
	"time"

	"github.com/rtodesk/rto-records/internal/models"
)

// Windows maps a record kind to its expiring-soon window in days.
type Windows map[models.RecordKind]int

// DefaultWindowDays applies to kinds without an explicit entry.
const DefaultWindowDays = 30

// DefaultWindows is the window set used on the request paths.
var DefaultWindows = Windows{
	models.KindFitness:   30,
	models.KindTax:       30,
	models.KindInsurance: 30,
	models.KindPermit:    7,
}

// RefreshWindows is the window set used by the batch status refresh. The
// office runs a tighter fitness window for the nightly sweep than for the
// counter screens.
var RefreshWindows = Windows{
	models.KindFitness:   15,
	models.KindTax:       30,
	models.KindInsurance: 30,
	models.KindPermit:    7,
}

// For returns the expiring-soon window for a kind.
func (w Windows) For(kind models.RecordKind) int {
	if days, ok := w[kind]; ok {
		return days
	}
	return DefaultWindowDays
}

// Classify derives a record's lifecycle status from its validity end date.
// referenceDate is truncated to its calendar day at midnight UTC, matching
// how stored dates are parsed, so neither the time of day nor the process
// time zone shifts the comparison; the window end is pushed to end-of-day
// so a record expiring exactly on the boundary day still counts as expiring
// soon.
func Classify(validTo, referenceDate time.Time, windowDays int) models.Status {
	ref := time.Date(referenceDate.Year(), referenceDate.Month(), referenceDate.Day(),
		0, 0, 0, 0, time.UTC)
	end := ref.AddDate(0, 0, windowDays)
	windowEnd := time.Date(end.Year(), end.Month(), end.Day(),
		23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)

	switch {
	case validTo.Before(ref):
		return models.StatusExpired
	case !validTo.After(windowEnd):
		return models.StatusExpiringSoon
	default:
		return models.StatusActive
	}
}
