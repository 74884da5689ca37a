package services

import (
	"camioBack/internal/models"
)

// Qualify computes the client-facing total from the transporter amount and the
// platform fee. This is the single place the total is computed; everything
// else reads the stored value.
func Qualify(transporterAmount, platformFee float64) (float64, error) {
	if transporterAmount <= 0 {
		return 0, models.ErrInvalidPricing
	}
	if platformFee < 0 {
		return 0, models.ErrInvalidPricing
	}
	return transporterAmount + platformFee, nil
}

// CommissionAmount is the admin-facing display figure derived from the global
// commission percentage. It is stored and shown independently of the
// per-request platform fee set at qualification; the two are not reconciled.
func CommissionAmount(transporterAmount, commissionPercentage float64) float64 {
	if transporterAmount <= 0 || commissionPercentage <= 0 {
		return 0
	}
	return transporterAmount * commissionPercentage / 100
}
