package enums

// TransactionStatus mirrors the billing provider's transaction state. The
// provider owns this lifecycle; values are stored verbatim and only the ones
// the sync layer branches on are named here.
type TransactionStatus string

const (
	TransactionStatusDraft     TransactionStatus = "draft"
	TransactionStatusReady     TransactionStatus = "ready"
	TransactionStatusBilled    TransactionStatus = "billed"
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCanceled  TransactionStatus = "canceled"
	TransactionStatusPastDue   TransactionStatus = "past_due"
)

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}
