package records

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/rtodesk/rto-records/internal/dates"
	"github.com/rtodesk/rto-records/internal/db"
	"github.com/rtodesk/rto-records/internal/lifecycle"
	"github.com/rtodesk/rto-records/internal/metrics"
	"github.com/rtodesk/rto-records/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// RefreshSummary reports what a status refresh run did.
type RefreshSummary struct {
	TotalScanned int `json:"total_scanned"`
	UpdatedCount int `json:"updated_count"`
	SkippedCount int `json:"skipped_count"`
}

// Notifier is told about the expiring-soon active heads after each refresh
// run. Implementations must tolerate being called with an empty slice.
type Notifier interface {
	PublishExpiring(ctx context.Context, records []models.Record) error
}

// RefreshJob recomputes the persisted status of every record so listings
// stay queryable by the status index without recomputation on reads. It
// only ever writes the status field, so a concurrent renewal can at worst
// win the race on status, never lose is_renewed or fee data.
type RefreshJob struct {
	store    db.RecordStore
	windows  lifecycle.Windows
	notifier Notifier
}

// NewRefreshJob creates a refresh job. notifier may be nil.
func NewRefreshJob(store db.RecordStore, windows lifecycle.Windows, notifier Notifier) *RefreshJob {
	return &RefreshJob{store: store, windows: windows, notifier: notifier}
}

// Run scans all records, recomputes each status for referenceDate and
// persists only the ones that changed, in a single bulk write. Running it
// twice with the same reference date updates nothing the second time.
func (j *RefreshJob) Run(ctx context.Context, referenceDate time.Time) (RefreshSummary, error) {
	records, err := j.store.FindRecords(ctx, bson.M{})
	if err != nil {
		metrics.RefreshFailures.Inc()
		return RefreshSummary{}, err
	}

	var updates []db.StatusUpdate
	var expiring []models.Record
	for _, record := range records {
		validTo, err := dates.Parse(record.ValidTo)
		if err != nil {
			// Bad stored date; leave the record alone rather than guess.
			log.WithFields(log.Fields{
				"record_id": record.ID.Hex(),
				"valid_to":  record.ValidTo,
			}).Warn("Skipping record with unparseable valid_to")
			continue
		}

		newStatus := lifecycle.Classify(validTo, referenceDate, j.windows.For(record.Kind))
		if newStatus != record.Status {
			updates = append(updates, db.StatusUpdate{ID: record.ID, Status: newStatus})
		}
		if !record.IsRenewed && newStatus == models.StatusExpiringSoon {
			record.Status = newStatus
			expiring = append(expiring, record)
		}
	}

	if _, err := j.store.BulkUpdateStatus(ctx, updates); err != nil {
		metrics.RefreshFailures.Inc()
		return RefreshSummary{}, err
	}

	summary := RefreshSummary{
		TotalScanned: len(records),
		UpdatedCount: len(updates),
		SkippedCount: len(records) - len(updates),
	}

	metrics.RefreshRuns.Inc()
	metrics.RefreshUpdated.Add(float64(summary.UpdatedCount))
	metrics.RefreshScanned.Set(float64(summary.TotalScanned))

	if j.notifier != nil {
		if err := j.notifier.PublishExpiring(ctx, expiring); err != nil {
			log.WithError(err).Warn("Failed to publish expiring records")
		}
	}

	log.WithFields(log.Fields{
		"scanned": summary.TotalScanned,
		"updated": summary.UpdatedCount,
		"skipped": summary.SkippedCount,
	}).Info("Status refresh completed")

	return summary, nil
}
