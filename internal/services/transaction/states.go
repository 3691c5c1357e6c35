package transaction

import (
	"pagora/internal/models"
)

// transitions is the full edge list of the transaction state machine.
// pending and processing are non-terminal; paid, failed and cancelled end
// the forward path, with paid still able to move to refunded or chargeback.
var transitions = map[models.TransactionStatus][]models.TransactionStatus{
	models.StatusPending:    {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing: {models.StatusPaid, models.StatusFailed},
	models.StatusPaid:       {models.StatusRefunded, models.StatusChargeback},
}

// CanTransition reports whether from -> to is a listed edge.
func CanTransition(from, to models.TransactionStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ComputeFee returns the fee in minor units for amount at rateBps basis
// points, rounded half-up. All arithmetic is integer to avoid floating
// rounding drift.
func ComputeFee(amount, rateBps int64) int64 {
	return (amount*rateBps + 5000) / 10000
}
