package domain

// Stage is a state of the extraction state machine. A run moves through the
// stages in declaration order and stops at Done or at the first failure.
type Stage string

const (
	StageReceived    Stage = "received"
	StagePrompted    Stage = "prompted"
	StageRawResponse Stage = "raw_response"
	StageSanitized   Stage = "sanitized"
	StageDecoded     Stage = "decoded"
	StageValidated   Stage = "validated"
	StageNormalized  Stage = "normalized"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

func (s Stage) String() string {
	return string(s)
}
