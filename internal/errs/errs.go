// Package errs defines the error taxonomy shared by every component of the
// search gateway. Callers should switch on Kind rather than matching error
// strings.
package errs

import "fmt"

// Kind tags an error with one of the six recognized failure categories.
type Kind string

const (
	// InvalidInput covers malformed queries, invalid pipeline configs, and
	// query-validator failures that could not be auto-fixed.
	InvalidInput Kind = "invalid_input"
	// UpstreamTransient covers 5xx, 429, timeouts, DNS failures, and known
	// "service unavailable" markers. Adapters retry these internally;
	// they should rarely escape to a caller.
	UpstreamTransient Kind = "upstream_transient"
	// UpstreamUnavailable is a permanent upstream failure after retries
	// are exhausted.
	UpstreamUnavailable Kind = "upstream_unavailable"
	// UpstreamParseError covers unexpected upstream payload shapes.
	UpstreamParseError Kind = "upstream_parse_error"
	// PipelineAborted is raised when a step with on_error=abort reports
	// an error of any kind.
	PipelineAborted Kind = "pipeline_aborted"
	// CoreInvariantBroken indicates a programming bug: a duplicate step id
	// or a cycle that escaped validation. Fatal to the request.
	CoreInvariantBroken Kind = "core_invariant_broken"
)

// GatewayError is the single error type produced anywhere in the gateway.
// It carries a Kind for programmatic dispatch, an optional StepID for
// pipeline-scoped failures, and wraps the underlying cause (if any).
type GatewayError struct {
	Kind    Kind
	Message string
	StepID  string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("%s: step %q: %s", e.Kind, e.StepID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// KindOf reports the Kind of err if it is (or wraps) a *GatewayError, and
// an empty Kind and false otherwise.
func KindOf(err error) (Kind, bool) {
	var ge *GatewayError
	if ok := asGatewayError(err, &ge); ok {
		return ge.Kind, true
	}
	return "", false
}

func asGatewayError(err error, target **GatewayError) bool {
	for err != nil {
		if ge, ok := err.(*GatewayError); ok {
			*target = ge
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

func New(kind Kind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

func Wrap(kind Kind, cause error, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message, Cause: cause}
}

func NewInvalidInput(message string) *GatewayError {
	return New(InvalidInput, message)
}

func WrapUpstreamTransient(cause error, message string) *GatewayError {
	return Wrap(UpstreamTransient, cause, message)
}

func WrapUpstreamUnavailable(cause error, message string) *GatewayError {
	return Wrap(UpstreamUnavailable, cause, message)
}

func WrapUpstreamParseError(cause error, message string) *GatewayError {
	return Wrap(UpstreamParseError, cause, message)
}

func NewPipelineAborted(stepID, message string) *GatewayError {
	return &GatewayError{Kind: PipelineAborted, StepID: stepID, Message: message}
}

func NewCoreInvariantBroken(message string) *GatewayError {
	return New(CoreInvariantBroken, message)
}

// RetryableSubstrings lists the upstream error substrings that the retry
// policy (§4.2 / §7) treats as transient. Matching is case-insensitive and
// is the one place in the gateway that does string matching on errors —
// it classifies a raw upstream failure into a Kind, it does not replace
// Kind-based dispatch afterward.
var RetryableSubstrings = []string{
	"service unavailable",
	"rate limit",
	"backend failed",
	"temporarily unavailable",
}
