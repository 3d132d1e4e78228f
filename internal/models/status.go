package models

// Transaction statuses
const (
	StatusInitiated             = "Initiated"
	StatusCompletingTransaction = "Completing Transaction"
	StatusCompleted             = "Completed"
	StatusFailed                = "Failed"
	StatusPaymentFailed         = "Payment Failed"
	StatusNeedsReconciliation   = "Needs Reconciliation"
)

// allowedTransitions maps a status to the statuses it may move to.
// Statuses without outgoing edges are terminal.
var allowedTransitions = map[string][]string{
	StatusInitiated: {
		StatusFailed,
		StatusCompletingTransaction,
		StatusNeedsReconciliation,
	},
	StatusCompletingTransaction: {
		StatusCompleted,
		StatusPaymentFailed,
		StatusNeedsReconciliation,
	},
	StatusCompleted:           {},
	StatusFailed:              {},
	StatusPaymentFailed:       {},
	StatusNeedsReconciliation: {},
}

// CanTransition reports whether a transaction may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are expected from status.
func IsTerminal(status string) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}
