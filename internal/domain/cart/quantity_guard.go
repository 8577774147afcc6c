package cart

import (
	"github.com/shopfront/cartengine/internal/domain/shared"
)

// Quantity guard thresholds.
//
// The guard is the permanent countermeasure against a historical defect where
// quantities accumulated unbounded across repeated add events (rapid
// double-submission, merge loops). It is applied at every point a quantity is
// set or increased: direct adds, merge results from the server, and
// rehydration from storage.
//
// The add-path thresholds (50/20) and the stored-value thresholds (100/10)
// are intentionally asymmetric: merge and rehydration data reflects
// previously-accepted state, which deserves more suspicion than a single
// fresh user action. Do not unify them.
const (
	// MaxRequestQuantity is the hard ceiling for a single add or direct set.
	// Anything above it is definitely erroneous input and is rejected, not
	// clamped.
	MaxRequestQuantity = 50

	// SoftAccumulationCap bounds accumulated quantities on the add path.
	// Legitimate bulk purchases above it are rare but not impossible, so the
	// guard clamps instead of resetting.
	SoftAccumulationCap = 20

	// MaxStoredQuantity is the hard ceiling for already-stored values seen
	// during merge, rehydration and health sweeps.
	MaxStoredQuantity = 100

	// StoredQuantityCap bounds suspicious but plausible stored values.
	StoredQuantityCap = 10

	// ResetQuantity is the known-safe value a corrupt line is reset to. A
	// large accumulated total is evidence the stored value was already wrong,
	// so clamping would keep a plausible-looking but wrong number.
	ResetQuantity = 1
)

// CorrectionReason identifies which guard rule rewrote a quantity.
type CorrectionReason string

const (
	CorrectionAccumulationReset CorrectionReason = "ACCUMULATION_RESET"
	CorrectionSoftCap           CorrectionReason = "SOFT_CAP"
	CorrectionStoredReset       CorrectionReason = "STORED_RESET"
	CorrectionStoredCap         CorrectionReason = "STORED_CAP"
	CorrectionStoredFloor       CorrectionReason = "STORED_FLOOR"
)

// QuantityCorrection reports a self-healing rewrite applied by the guard.
type QuantityCorrection struct {
	LineID    string
	ProductID string
	From      int
	To        int
	Reason    CorrectionReason
}

// ValidateRequestQuantity checks a freshly requested quantity (add or direct
// set). Zero or negative requests and requests above the hard ceiling are
// rejected outright with no state change.
func ValidateRequestQuantity(requested int) error {
	if requested <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if requested > MaxRequestQuantity {
		return shared.NewDomainError("QUANTITY_TOO_LARGE", "Requested quantity exceeds the allowed maximum")
	}
	return nil
}

// AccumulateQuantity applies the add-path policy when a request accumulates
// onto an existing line. The returned reason is empty when the sum was
// accepted as-is.
func AccumulateQuantity(existing, requested int) (int, CorrectionReason) {
	sum := existing + requested
	switch {
	case sum > MaxRequestQuantity:
		// Accumulation-bug signature: the existing value was likely already
		// corrupt, so reset to the known-safe quantity instead of clamping.
		return ResetQuantity, CorrectionAccumulationReset
	case sum > SoftAccumulationCap:
		return SoftAccumulationCap, CorrectionSoftCap
	default:
		return sum, ""
	}
}

// SanitizeStoredQuantity applies the stored-value policy to quantities that
// were previously accepted: merge rows returned by the server, rehydrated
// snapshots and health sweeps.
func SanitizeStoredQuantity(q int) (int, CorrectionReason) {
	switch {
	case q > MaxStoredQuantity:
		return ResetQuantity, CorrectionStoredReset
	case q > StoredQuantityCap:
		return StoredQuantityCap, CorrectionStoredCap
	case q < 1:
		// Stored quantities below one are corrupt rows, not user intent.
		return ResetQuantity, CorrectionStoredFloor
	default:
		return q, ""
	}
}

// SweepQuantities applies the stored-value policy to every line in place and
// reports the corrections made. An empty result means the cart was healthy.
func SweepQuantities(items []*LineItem) []QuantityCorrection {
	var corrections []QuantityCorrection
	for _, item := range items {
		fixed, reason := SanitizeStoredQuantity(item.Quantity)
		if reason == "" {
			continue
		}
		corrections = append(corrections, QuantityCorrection{
			LineID:    item.ID.String(),
			ProductID: item.ProductID,
			From:      item.Quantity,
			To:        fixed,
			Reason:    reason,
		})
		item.Quantity = fixed
	}
	return corrections
}
