package domain

// StatusLabel is how a return status is shown to customers and staff.
type StatusLabel struct {
	Status ReturnStatus `json:"status"`
	Label  string       `json:"label"`
	Color  string       `json:"color"`
}

// Single source for every surface that renders a return status.
var returnStatusLabels = [ReturnStatusCount]StatusLabel{
	ReturnStatusPending:   {Status: ReturnStatusPending, Label: "Chờ duyệt", Color: "yellow"},
	ReturnStatusApproved:  {Status: ReturnStatusApproved, Label: "Đã duyệt", Color: "blue"},
	ReturnStatusShipped:   {Status: ReturnStatusShipped, Label: "Đã gửi", Color: "purple"},
	ReturnStatusReceived:  {Status: ReturnStatusReceived, Label: "Đã nhận", Color: "indigo"},
	ReturnStatusInspected: {Status: ReturnStatusInspected, Label: "Đang kiểm định", Color: "orange"},
	ReturnStatusCompleted: {Status: ReturnStatusCompleted, Label: "Hoàn thành", Color: "green"},
	ReturnStatusCancelled: {Status: ReturnStatusCancelled, Label: "Đã hủy", Color: "red"},
}

// Label returns the display label and color for s.
func (s ReturnStatus) Label() StatusLabel {
	if !s.IsValid() {
		return StatusLabel{Status: s, Label: s.String(), Color: "gray"}
	}
	return returnStatusLabels[s]
}

// ReturnStatusLabels returns the whole table in lifecycle order.
func ReturnStatusLabels() []StatusLabel {
	out := make([]StatusLabel, len(returnStatusLabels))
	copy(out, returnStatusLabels[:])
	return out
}
