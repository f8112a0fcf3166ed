package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/rtodesk/rto-records/internal/dates"
	"github.com/rtodesk/rto-records/internal/db"
	"github.com/rtodesk/rto-records/internal/lifecycle"
	"github.com/rtodesk/rto-records/internal/metrics"
	"github.com/rtodesk/rto-records/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUnknownKind      = errors.New("unknown record kind")
	ErrMissingVehicleNo = errors.New("vehicle number is required")
	ErrInvalidDateRange = errors.New("valid_from must not be after valid_to")
	// ErrRenewalIncomplete means the previous records were retired but the
	// new record could not be inserted, leaving the vehicle without an
	// active head. The chain needs manual reconciliation.
	ErrRenewalIncomplete = errors.New("renewal incomplete: prior records retired but new record not inserted")
)

// Service owns the renewal chain for time-bounded records: creating a new
// record always retires every prior non-renewed record for the same vehicle
// and kind, so the vehicle has exactly one current record of that kind.
type Service struct {
	store   db.RecordStore
	windows lifecycle.Windows

	// Now is the reference clock, replaceable in tests.
	Now func() time.Time
}

// NewService creates a record service using the given expiring-soon windows.
func NewService(store db.RecordStore, windows lifecycle.Windows) *Service {
	return &Service{
		store:   store,
		windows: windows,
		Now:     time.Now,
	}
}

// Renew validates the new record, retires every non-renewed record for the
// same kind and vehicle, and inserts the new record as the active head.
// Validation failures abort before any existing record is touched.
func (s *Service) Renew(ctx context.Context, req models.CreateRecordRequest) (models.Record, error) {
	if !models.IsValidKind(req.Kind) {
		return models.Record{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	vehicleNo := models.NormalizeVehicleNo(req.VehicleNo)
	if vehicleNo == "" {
		return models.Record{}, ErrMissingVehicleNo
	}

	if err := lifecycle.ValidateFees(req.TotalFee, req.Paid, req.Balance); err != nil {
		return models.Record{}, err
	}
	// Never trust the client balance; derive it from the fee fields.
	balance, err := lifecycle.RecomputeBalance(*req.TotalFee, *req.Paid)
	if err != nil {
		return models.Record{}, err
	}

	validFrom, err := dates.Parse(req.ValidFrom)
	if err != nil {
		return models.Record{}, err
	}
	validTo, err := dates.Parse(req.ValidTo)
	if err != nil {
		return models.Record{}, err
	}
	if validFrom.After(validTo) {
		return models.Record{}, ErrInvalidDateRange
	}

	now := s.Now()
	record := models.Record{
		Kind:        req.Kind,
		VehicleNo:   vehicleNo,
		OwnerName:   req.OwnerName,
		ReferenceNo: req.ReferenceNo,
		IssuedBy:    req.IssuedBy,
		ValidFrom:   dates.Format(validFrom),
		ValidTo:     dates.Format(validTo),
		TotalFee:    *req.TotalFee,
		Paid:        *req.Paid,
		Balance:     balance,
		Status:      lifecycle.Classify(validTo, now, s.windows.For(req.Kind)),
		IsRenewed:   false,
		Remarks:     req.Remarks,
	}

	var created models.Record
	var retired int64
	if s.store.SupportsTransactions() {
		err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
			var txErr error
			retired, txErr = s.store.RetireActive(ctx, req.Kind, vehicleNo, now)
			if txErr != nil {
				return txErr
			}
			created, txErr = s.store.InsertRecord(ctx, record)
			return txErr
		})
		if err != nil {
			return models.Record{}, err
		}
	} else {
		retired, err = s.store.RetireActive(ctx, req.Kind, vehicleNo, now)
		if err != nil {
			return models.Record{}, err
		}
		created, err = s.store.InsertRecord(ctx, record)
		if err != nil {
			if retired > 0 {
				// The old head is gone and the new one never landed.
				return models.Record{}, fmt.Errorf("%w: vehicle %s kind %s: %v",
					ErrRenewalIncomplete, vehicleNo, req.Kind, err)
			}
			return models.Record{}, err
		}
	}

	metrics.RecordsCreated.WithLabelValues(string(req.Kind)).Inc()
	if retired > 0 {
		metrics.RecordsRetired.Add(float64(retired))
	}
	log.WithFields(log.Fields{
		"kind":       req.Kind,
		"vehicle_no": vehicleNo,
		"retired":    retired,
		"status":     created.Status,
	}).Info("Record created")

	return created, nil
}

// Get returns a single record by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Record, error) {
	return s.store.FindRecordByID(ctx, id)
}

// ListFilter narrows a record listing.
type ListFilter struct {
	Kind           models.RecordKind
	VehicleNo      string
	Status         models.Status
	IncludeRenewed bool
}

// List returns records matching the filter. Status filtering applies only
// among non-renewed records: a renewed-away record is superseded and must
// not show up in expired/expiring listings, whatever its own dates say.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Record, error) {
	query := bson.M{}
	if filter.Kind != "" {
		if !models.IsValidKind(filter.Kind) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, filter.Kind)
		}
		query["kind"] = filter.Kind
	}
	if filter.VehicleNo != "" {
		query["vehicle_no"] = models.NormalizeVehicleNo(filter.VehicleNo)
	}
	if filter.Status != "" || !filter.IncludeRenewed {
		query["is_renewed"] = false
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	return s.store.FindRecords(ctx, query, opts)
}

// Expiring returns the expiring-soon active heads, optionally for one kind.
func (s *Service) Expiring(ctx context.Context, kind models.RecordKind) ([]models.Record, error) {
	return s.List(ctx, ListFilter{Kind: kind, Status: models.StatusExpiringSoon})
}

// Chain returns the full renewal history for a vehicle and kind, newest
// first.
func (s *Service) Chain(ctx context.Context, kind models.RecordKind, vehicleNo string) ([]models.Record, error) {
	if !models.IsValidKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	vehicleNo = models.NormalizeVehicleNo(vehicleNo)
	if vehicleNo == "" {
		return nil, ErrMissingVehicleNo
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	return s.store.FindRecords(ctx, bson.M{"kind": kind, "vehicle_no": vehicleNo}, opts)
}

// Update applies a partial edit to a record. Fee edits recompute the
// balance; a valid_to edit recomputes the status.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateRecordRequest) (*models.Record, error) {
	record, err := s.store.FindRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if req.OwnerName != nil {
		fields["owner_name"] = *req.OwnerName
	}
	if req.ReferenceNo != nil {
		fields["reference_no"] = *req.ReferenceNo
	}
	if req.IssuedBy != nil {
		fields["issued_by"] = *req.IssuedBy
	}
	if req.Remarks != nil {
		fields["remarks"] = *req.Remarks
	}

	if req.TotalFee != nil || req.Paid != nil {
		total := record.TotalFee
		paid := record.Paid
		if req.TotalFee != nil {
			total = *req.TotalFee
		}
		if req.Paid != nil {
			paid = *req.Paid
		}
		balance, err := lifecycle.RecomputeBalance(total, paid)
		if err != nil {
			return nil, err
		}
		fields["total_fee"] = total
		fields["paid"] = paid
		fields["balance"] = balance
	}

	var validFrom time.Time
	if req.ValidFrom != nil {
		validFrom, err = dates.Parse(*req.ValidFrom)
		if err != nil {
			return nil, err
		}
		fields["valid_from"] = dates.Format(validFrom)
		if req.ValidTo == nil {
			if validTo, err := dates.Parse(record.ValidTo); err == nil && validFrom.After(validTo) {
				return nil, ErrInvalidDateRange
			}
		}
	} else if parsed, err := dates.Parse(record.ValidFrom); err == nil {
		validFrom = parsed
	}

	if req.ValidTo != nil {
		validTo, err := dates.Parse(*req.ValidTo)
		if err != nil {
			return nil, err
		}
		if validFrom.After(validTo) {
			return nil, ErrInvalidDateRange
		}
		fields["valid_to"] = dates.Format(validTo)
		fields["status"] = lifecycle.Classify(validTo, s.Now(), s.windows.For(record.Kind))
	}

	if len(fields) == 0 {
		return record, nil
	}
	if err := s.store.UpdateRecord(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.store.FindRecordByID(ctx, id)
}

// Delete removes a record. This is an administrative override, not a
// lifecycle transition.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteRecord(ctx, id)
}
