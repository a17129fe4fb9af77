package domain

// OutcomeKind is the closed set of pipeline results the UI renders.
type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeAPIFailure        OutcomeKind = "api_failure"
	OutcomeProcessingFailure OutcomeKind = "processing_failure"
	OutcomeUnknownFailure    OutcomeKind = "unknown_failure"
)

func (k OutcomeKind) String() string {
	return string(k)
}

// Outcome is returned by the pipeline runner instead of a bare error so the
// handler can match every variant explicitly.
type Outcome struct {
	Kind    OutcomeKind
	Result  *AnalysisResult
	Message string
	// Detail carries full diagnostics for unknown failures (error chain, panic stack).
	Detail string
}

func Succeeded(result *AnalysisResult) Outcome {
	return Outcome{Kind: OutcomeSuccess, Result: result}
}

func APIFailed(err error) Outcome {
	return Outcome{Kind: OutcomeAPIFailure, Message: err.Error()}
}

func ProcessingFailed(err error) Outcome {
	return Outcome{Kind: OutcomeProcessingFailure, Message: err.Error()}
}

func UnknownFailed(err error, detail string) Outcome {
	return Outcome{Kind: OutcomeUnknownFailure, Message: err.Error(), Detail: detail}
}

// StatusUpdate is one progress line emitted during a run.
type StatusUpdate struct {
	Step    int    `json:"step"`
	Message string `json:"message"`
}

// StatusReporter receives progress lines. Implementations must not block for long.
type StatusReporter func(update StatusUpdate)

// Report is safe to call on a nil reporter.
func (r StatusReporter) Report(step int, message string) {
	if r == nil {
		return
	}
	r(StatusUpdate{Step: step, Message: message})
}
