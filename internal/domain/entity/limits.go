package entity

import "github.com/shopspring/decimal"

// Limits holds the per-kind submission ceilings
type Limits struct {
	CashAdvanceMax    decimal.Decimal
	MileageMaxKm      decimal.Decimal
	MileageMinRate    decimal.Decimal
	MileageMaxRate    decimal.Decimal
	MileageRate       decimal.Decimal // default when the requester leaves it blank
	MealVoucherMax    decimal.Decimal
	PurchaseOrderMax  decimal.Decimal
	CertificateMaxMiB int64
}

// DefaultLimits returns the limits used when configuration is silent
func DefaultLimits() Limits {
	return Limits{
		CashAdvanceMax:    decimal.NewFromInt(5000),
		MileageMaxKm:      decimal.NewFromInt(2000),
		MileageMinRate:    decimal.RequireFromString("0.01"),
		MileageMaxRate:    decimal.NewFromInt(10),
		MileageRate:       decimal.RequireFromString("0.70"),
		MealVoucherMax:    decimal.NewFromInt(1000),
		PurchaseOrderMax:  decimal.NewFromInt(50000),
		CertificateMaxMiB: 5,
	}
}

// CertificateMaxBytes is the upload ceiling in bytes
func (l Limits) CertificateMaxBytes() int64 {
	return l.CertificateMaxMiB << 20
}
