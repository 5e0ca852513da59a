package consistency

// Operation names reported to a Recorder
const (
	OpCreateOrder    = "create_order"
	OpUpdateOrder    = "update_order"
	OpDeleteOrder    = "delete_order"
	OpCreateCampaign = "create_campaign"
	OpUpdateCampaign = "update_campaign"
	OpDeleteCustomer = "delete_customer"
	OpReconcile      = "reconcile"
)

// Outcomes reported to a Recorder
const (
	OutcomeSuccess = "success"
	// OutcomeFailed means nothing was written, or everything was rolled back
	OutcomeFailed = "failed"
	// OutcomePartial means the primary write landed but a compensating write did not
	OutcomePartial = "partial"
)

// Recorder receives the outcome of every synchronizing operation
type Recorder interface {
	RecordSync(operation, outcome string)
	RecordCorrection()
}

// NopRecorder discards everything
type NopRecorder struct{}

func (NopRecorder) RecordSync(string, string) {}
func (NopRecorder) RecordCorrection()         {}

// Outcome classifies the result of a unit of work. primaryWritten tells
// whether the first write of the unit had already succeeded when err occurred.
func Outcome(mode Mode, err error, primaryWritten bool) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case mode == ModeSequential && primaryWritten:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}
