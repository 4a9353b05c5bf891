package checkout

// OrderStatus is the lifecycle state of a draft order on the remote side
// as tracked by this bridge.
type OrderStatus string

const (
	// OrderStatusDraft means the order exists remotely but is not confirmed.
	OrderStatusDraft OrderStatus = "draft"
	// OrderStatusConfirmed means the confirmation action succeeded.
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// DraftOrder tracks a remotely created order through the create+confirm
// sequence. Status only moves draft -> confirmed, never backwards.
type DraftOrder struct {
	// RemoteID is the positive integer id assigned by the remote system.
	RemoteID int64
	// Lines are the resolved checkout lines embedded in the order.
	Lines []Line
	status OrderStatus
}

// NewDraftOrder wraps a freshly created remote order id.
func NewDraftOrder(remoteID int64, lines []Line) (*DraftOrder, error) {
	if remoteID <= 0 {
		return nil, &InvalidResponseError{Value: "non-positive order id"}
	}
	return &DraftOrder{
		RemoteID: remoteID,
		Lines:    lines,
		status:   OrderStatusDraft,
	}, nil
}

// Status returns the current lifecycle state.
func (o *DraftOrder) Status() OrderStatus {
	return o.status
}

// MarkConfirmed transitions the order to confirmed. The transition is
// monotonic: confirming an already confirmed order is a no-op.
func (o *DraftOrder) MarkConfirmed() {
	o.status = OrderStatusConfirmed
}
