package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rtodesk/rto-records/internal/db"
	"github.com/rtodesk/rto-records/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memoryStore is an in-memory db.RecordStore for unit tests.
type memoryStore struct {
	mu           sync.Mutex
	records      []models.Record
	clock        time.Time
	insertErr    error
	transactions bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{clock: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memoryStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memoryStore) InsertRecord(ctx context.Context, record models.Record) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return models.Record{}, m.insertErr
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = m.tick()
	record.UpdatedAt = record.CreatedAt
	m.records = append(m.records, record)
	return record, nil
}

func matches(record models.Record, filter bson.M) bool {
	for key, value := range filter {
		switch key {
		case "_id":
			if record.ID != value.(primitive.ObjectID) {
				return false
			}
		case "kind":
			if record.Kind != value.(models.RecordKind) {
				return false
			}
		case "vehicle_no":
			if record.VehicleNo != value.(string) {
				return false
			}
		case "is_renewed":
			if record.IsRenewed != value.(bool) {
				return false
			}
		case "status":
			if record.Status != value.(models.Status) {
				return false
			}
		}
	}
	return true
}

func (m *memoryStore) FindRecords(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Record
	for _, record := range m.records {
		if matches(record, filter) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) FindRecordByID(ctx context.Context, id string) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.ID.Hex() == id {
			r := record
			return &r, nil
		}
	}
	return nil, db.ErrRecordNotFound
}

func (m *memoryStore) UpdateRecord(ctx context.Context, id string, fields bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID.Hex() != id {
			continue
		}
		r := &m.records[i]
		for key, value := range fields {
			switch key {
			case "owner_name":
				r.OwnerName = value.(string)
			case "reference_no":
				r.ReferenceNo = value.(string)
			case "issued_by":
				r.IssuedBy = value.(string)
			case "remarks":
				r.Remarks = value.(string)
			case "valid_from":
				r.ValidFrom = value.(string)
			case "valid_to":
				r.ValidTo = value.(string)
			case "total_fee":
				r.TotalFee = value.(float64)
			case "paid":
				r.Paid = value.(float64)
			case "balance":
				r.Balance = value.(float64)
			case "status":
				r.Status = value.(models.Status)
			}
		}
		r.UpdatedAt = m.tick()
		return nil
	}
	return db.ErrRecordNotFound
}

func (m *memoryStore) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID.Hex() == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return db.ErrRecordNotFound
}

func (m *memoryStore) RetireActive(ctx context.Context, kind models.RecordKind, vehicleNo string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var retired int64
	for i := range m.records {
		r := &m.records[i]
		if r.Kind == kind && r.VehicleNo == vehicleNo && !r.IsRenewed {
			r.Status = models.StatusExpired
			r.IsRenewed = true
			r.UpdatedAt = now
			retired++
		}
	}
	return retired, nil
}

func (m *memoryStore) BulkUpdateStatus(ctx context.Context, updates []db.StatusUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var modified int64
	for _, u := range updates {
		for i := range m.records {
			if m.records[i].ID == u.ID && m.records[i].Status != u.Status {
				m.records[i].Status = u.Status
				modified++
			}
		}
	}
	return modified, nil
}

func (m *memoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memoryStore) SupportsTransactions() bool {
	return m.transactions
}
