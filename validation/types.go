package validation

// SettlementValidationResult holds one flag per independent check. Details
// explain each decision in order.
type SettlementValidationResult struct {
	SignatureValid    bool
	SnapshotHashValid bool
	OutcomeValid      bool
	FeeSplitValid     bool
	CommitmentValid   bool
	ConservationValid bool
	ValidationDetails []string
}

// IsValid returns true if all settlement checks passed
func (r *SettlementValidationResult) IsValid() bool {
	return r.SignatureValid && r.SnapshotHashValid && r.OutcomeValid &&
		r.FeeSplitValid && r.CommitmentValid && r.ConservationValid
}

