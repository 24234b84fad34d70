package valueobject

import "github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"

type DisputeReason string

const (
	DisputeReasonWorkQuality   DisputeReason = "work_quality"
	DisputeReasonNoShow        DisputeReason = "no_show"
	DisputeReasonIncomplete    DisputeReason = "incomplete"
	DisputeReasonDifferentWork DisputeReason = "different_work"
	DisputeReasonCommunication DisputeReason = "communication"
	DisputeReasonSafety        DisputeReason = "safety"
	DisputeReasonOther         DisputeReason = "other"
)

type ReasonInfo struct {
	Value DisputeReason `json:"value"`
	Label string        `json:"label"`
}

var disputeReasons = []ReasonInfo{
	{DisputeReasonWorkQuality, "Poor Work Quality"},
	{DisputeReasonNoShow, "No Show"},
	{DisputeReasonIncomplete, "Incomplete Work"},
	{DisputeReasonDifferentWork, "Work Different Than Agreed"},
	{DisputeReasonCommunication, "Communication Problems"},
	{DisputeReasonSafety, "Safety Concern"},
	{DisputeReasonOther, "Other Issue"},
}

// DisputeReasons возвращает каталог причин в фиксированном порядке.
func DisputeReasons() []ReasonInfo {
	out := make([]ReasonInfo, len(disputeReasons))
	copy(out, disputeReasons)
	return out
}

func (r DisputeReason) IsValid() bool {
	for _, info := range disputeReasons {
		if info.Value == r {
			return true
		}
	}
	return false
}

func (r DisputeReason) Label() string {
	for _, info := range disputeReasons {
		if info.Value == r {
			return info.Label
		}
	}
	return string(r)
}

func NewDisputeReason(reason string) (DisputeReason, error) {
	r := DisputeReason(reason)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректная причина спора")
	}
	return r, nil
}

type Resolution string

const (
	ResolutionRefund    Resolution = "refund"
	ResolutionPayWorker Resolution = "pay_worker"
	ResolutionPartial   Resolution = "partial"
	ResolutionCancelled Resolution = "cancelled"
)

func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionRefund, ResolutionPayWorker, ResolutionPartial, ResolutionCancelled:
		return true
	}
	return false
}

// TaskOutcome: статус задачи после решения спора.
func (r Resolution) TaskOutcome() TaskStatus {
	switch r {
	case ResolutionRefund:
		return TaskStatusCancelled
	case ResolutionPayWorker, ResolutionPartial:
		return TaskStatusCompleted
	default:
		return TaskStatusOpen
	}
}

func NewResolution(resolution string) (Resolution, error) {
	r := Resolution(resolution)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректное решение спора")
	}
	return r, nil
}
