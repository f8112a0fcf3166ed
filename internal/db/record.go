package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rtodesk/rto-records/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrRecordNotFound is returned when no record matches the given id.
var ErrRecordNotFound = errors.New("record not found")

// StatusUpdate is a single scoped status write for the bulk refresh.
type StatusUpdate struct {
	ID     primitive.ObjectID
	Status models.Status
}

// RecordStore defines the interface for record database operations
type RecordStore interface {
	InsertRecord(ctx context.Context, record models.Record) (models.Record, error)
	FindRecords(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Record, error)
	FindRecordByID(ctx context.Context, id string) (*models.Record, error)
	UpdateRecord(ctx context.Context, id string, fields bson.M) error
	DeleteRecord(ctx context.Context, id string) error
	RetireActive(ctx context.Context, kind models.RecordKind, vehicleNo string, now time.Time) (int64, error)
	BulkUpdateStatus(ctx context.Context, updates []StatusUpdate) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	SupportsTransactions() bool
}

// MongoRecordStore implements RecordStore for MongoDB
type MongoRecordStore struct {
	Client     *mongo.Client
	Collection *mongo.Collection
	// Transactions enables multi-document transactions for the renewal
	// retire+insert pair. Requires a replica set deployment.
	Transactions bool
}

// InsertRecord inserts a record, assigning an id and timestamps.
func (s *MongoRecordStore) InsertRecord(ctx context.Context, record models.Record) (models.Record, error) {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	if _, err := s.Collection.InsertOne(ctx, record); err != nil {
		return models.Record{}, err
	}
	return record, nil
}

// FindRecords queries records matching the filter.
func (s *MongoRecordStore) FindRecords(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Record, error) {
	cursor, err := s.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FindRecordByID finds a record by its ID.
func (s *MongoRecordStore) FindRecordByID(ctx context.Context, id string) (*models.Record, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record ID: %w", ErrRecordNotFound)
	}

	var record models.Record
	err = s.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpdateRecord applies a $set of the given fields to a record by its ID.
func (s *MongoRecordStore) UpdateRecord(ctx context.Context, id string, fields bson.M) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrRecordNotFound
	}

	fields["updated_at"] = time.Now()
	result, err := s.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteRecord deletes a record by its ID.
func (s *MongoRecordStore) DeleteRecord(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrRecordNotFound
	}

	result, err := s.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// RetireActive marks every non-renewed record for a kind and vehicle as
// expired and renewed, regardless of its own validity dates. Returns the
// number of records retired.
func (s *MongoRecordStore) RetireActive(ctx context.Context, kind models.RecordKind, vehicleNo string, now time.Time) (int64, error) {
	result, err := s.Collection.UpdateMany(ctx,
		bson.M{"kind": kind, "vehicle_no": vehicleNo, "is_renewed": false},
		bson.M{"$set": bson.M{
			"status":     models.StatusExpired,
			"is_renewed": true,
			"updated_at": now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// BulkUpdateStatus applies the queued status changes in a single unordered
// bulk write. Only the status field is touched.
func (s *MongoRecordStore) BulkUpdateStatus(ctx context.Context, updates []StatusUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(bson.M{"$set": bson.M{"status": u.Status}}))
	}

	result, err := s.Collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// WithTransaction runs fn in a multi-document transaction when enabled,
// otherwise it runs fn directly and the caller carries the partial-write
// risk between the individual operations.
func (s *MongoRecordStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.Transactions {
		return fn(ctx)
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// SupportsTransactions reports whether retire+insert pairs run atomically.
func (s *MongoRecordStore) SupportsTransactions() bool {
	return s.Transactions
}
