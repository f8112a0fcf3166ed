package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordKind identifies the regulatory document a record represents.
type RecordKind string

const (
	KindFitness   RecordKind = "fitness"
	KindPermit    RecordKind = "permit" // temporary permit, other state
	KindTax       RecordKind = "tax"
	KindInsurance RecordKind = "insurance"
)

// IsValidKind checks if a record kind is one the office manages.
func IsValidKind(kind RecordKind) bool {
	switch kind {
	case KindFitness, KindPermit, KindTax, KindInsurance:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state derived from a record's validity end date.
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

// Record is a time-bounded regulatory record for a vehicle. Records for the
// same vehicle and kind form a renewal chain ordered by created_at; at most
// one of them has is_renewed == false (the active head).
type Record struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        RecordKind         `bson:"kind" json:"kind"`
	VehicleNo   string             `bson:"vehicle_no" json:"vehicle_no"`
	OwnerName   string             `bson:"owner_name" json:"owner_name"`
	ReferenceNo string             `bson:"reference_no" json:"reference_no"` // permit/policy/receipt number
	IssuedBy    string             `bson:"issued_by" json:"issued_by"`
	ValidFrom   string             `bson:"valid_from" json:"valid_from"` // DD/MM/YYYY, DD-MM-YYYY accepted on input
	ValidTo     string             `bson:"valid_to" json:"valid_to"`
	TotalFee    float64            `bson:"total_fee" json:"total_fee"`
	Paid        float64            `bson:"paid" json:"paid"`
	Balance     float64            `bson:"balance" json:"balance"`
	Status      Status             `bson:"status" json:"status"`
	IsRenewed   bool               `bson:"is_renewed" json:"is_renewed"`
	Remarks     string             `bson:"remarks" json:"remarks"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// CreateRecordRequest carries the fields for a new record or renewal. Fee
// fields are pointers so missing values can be told apart from zero.
type CreateRecordRequest struct {
	Kind        RecordKind `json:"kind"`
	VehicleNo   string     `json:"vehicle_no"`
	OwnerName   string     `json:"owner_name"`
	ReferenceNo string     `json:"reference_no"`
	IssuedBy    string     `json:"issued_by"`
	ValidFrom   string     `json:"valid_from"`
	ValidTo     string     `json:"valid_to"`
	TotalFee    *float64   `json:"total_fee"`
	Paid        *float64   `json:"paid"`
	Balance     *float64   `json:"balance"`
	Remarks     string     `json:"remarks"`
}

// UpdateRecordRequest carries a partial edit of an existing record. Nil
// fields are left untouched. Balance is never accepted from the client on
// update; it is recomputed from total_fee and paid.
type UpdateRecordRequest struct {
	OwnerName   *string  `json:"owner_name"`
	ReferenceNo *string  `json:"reference_no"`
	IssuedBy    *string  `json:"issued_by"`
	ValidFrom   *string  `json:"valid_from"`
	ValidTo     *string  `json:"valid_to"`
	TotalFee    *float64 `json:"total_fee"`
	Paid        *float64 `json:"paid"`
	Remarks     *string  `json:"remarks"`
}

// NormalizeVehicleNo uppercases and trims a vehicle registration number so
// chain lookups are insensitive to entry style.
func NormalizeVehicleNo(vehicleNo string) string {
	return strings.ToUpper(strings.TrimSpace(vehicleNo))
}
