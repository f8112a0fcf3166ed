package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/rtodesk/rto-records/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func recordStoreForTest(t *testing.T) *MongoRecordStore {
	t.Helper()
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to create client: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	collection := client.Database("rto_test").Collection("records")
	collection.Drop(context.Background())
	return &MongoRecordStore{Client: client, Collection: collection}
}

func TestMongoRecordStore_InsertAndFind(t *testing.T) {
	store := recordStoreForTest(t)

	created, err := store.InsertRecord(context.Background(), models.Record{
		Kind:      models.KindFitness,
		VehicleNo: "CG04AB1234",
		OwnerName: "R Sharma",
		ValidFrom: "01/01/2025",
		ValidTo:   "31/12/2025",
		TotalFee:  800,
		Paid:      800,
		Status:    models.StatusActive,
	})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.NotZero(t, created.CreatedAt)

	found, err := store.FindRecordByID(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "CG04AB1234", found.VehicleNo)
	assert.Equal(t, models.KindFitness, found.Kind)
	assert.False(t, found.IsRenewed)
}

func TestMongoRecordStore_FindRecordByID_NotFound(t *testing.T) {
	store := recordStoreForTest(t)

	_, err := store.FindRecordByID(context.Background(), "507f1f77bcf86cd799439011")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = store.FindRecordByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMongoRecordStore_RetireActive(t *testing.T) {
	store := recordStoreForTest(t)
	ctx := context.Background()

	// one active head, one already renewed, one for a different vehicle
	_, err := store.InsertRecord(ctx, models.Record{
		Kind: models.KindTax, VehicleNo: "CG04AB1234", Status: models.StatusActive,
	})
	require.NoError(t, err)
	_, err = store.InsertRecord(ctx, models.Record{
		Kind: models.KindTax, VehicleNo: "CG04AB1234", Status: models.StatusExpired, IsRenewed: true,
	})
	require.NoError(t, err)
	_, err = store.InsertRecord(ctx, models.Record{
		Kind: models.KindTax, VehicleNo: "CG04XY9999", Status: models.StatusActive,
	})
	require.NoError(t, err)

	retired, err := store.RetireActive(ctx, models.KindTax, "CG04AB1234", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), retired)

	records, err := store.FindRecords(ctx, bson.M{"vehicle_no": "CG04AB1234"})
	require.NoError(t, err)
	for _, r := range records {
		assert.True(t, r.IsRenewed)
		assert.Equal(t, models.StatusExpired, r.Status)
	}

	other, err := store.FindRecords(ctx, bson.M{"vehicle_no": "CG04XY9999"})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.False(t, other[0].IsRenewed)
}

func TestMongoRecordStore_BulkUpdateStatus(t *testing.T) {
	store := recordStoreForTest(t)
	ctx := context.Background()

	first, err := store.InsertRecord(ctx, models.Record{
		Kind: models.KindInsurance, VehicleNo: "CG04AB1234", Status: models.StatusActive, Paid: 500, TotalFee: 500,
	})
	require.NoError(t, err)
	second, err := store.InsertRecord(ctx, models.Record{
		Kind: models.KindInsurance, VehicleNo: "CG04XY9999", Status: models.StatusActive,
	})
	require.NoError(t, err)

	modified, err := store.BulkUpdateStatus(ctx, []StatusUpdate{
		{ID: first.ID, Status: models.StatusExpired},
		{ID: second.ID, Status: models.StatusExpiringSoon},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), modified)

	// scoped write: only status changed
	found, err := store.FindRecordByID(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, found.Status)
	assert.False(t, found.IsRenewed)
	assert.Equal(t, 500.0, found.Paid)
	assert.Equal(t, first.UpdatedAt.Unix(), found.UpdatedAt.Unix())

	modified, err = store.BulkUpdateStatus(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, modified)
}

func TestMongoRecordStore_UpdateRecord_Scoped(t *testing.T) {
	store := recordStoreForTest(t)
	ctx := context.Background()

	created, err := store.InsertRecord(ctx, models.Record{
		Kind: models.KindPermit, VehicleNo: "CG04AB1234", OwnerName: "R Sharma", Status: models.StatusActive,
	})
	require.NoError(t, err)

	err = store.UpdateRecord(ctx, created.ID.Hex(), bson.M{"owner_name": "S Verma"})
	require.NoError(t, err)

	found, err := store.FindRecordByID(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "S Verma", found.OwnerName)
	assert.Equal(t, "CG04AB1234", found.VehicleNo)

	err = store.UpdateRecord(ctx, "507f1f77bcf86cd799439011", bson.M{"owner_name": "X"})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
