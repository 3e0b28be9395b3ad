package errors

// ErrorClassification indicates whether an error should trigger a retry.
type ErrorClassification string

const (
	// ClassificationRetryable indicates the same call may succeed later,
	// for example once the in-flight operation has completed.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent indicates the call will fail again as issued.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification indicates retry should be attempted.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

// defaultClassifications maps error codes to their default classification.
var defaultClassifications = map[ErrorCode]ErrorClassification{
	CodeInProgress: ClassificationRetryable,
	CodeCanceled:   ClassificationRetryable,
	CodeIO:         ClassificationRetryable,

	CodeInvalidArgument: ClassificationPermanent,
	CodeInvalidConfig:   ClassificationPermanent,
	CodeClosed:          ClassificationPermanent,
	CodeMalformedInput:  ClassificationPermanent,
	CodeNotFound:        ClassificationPermanent,
	CodeUnsupported:     ClassificationPermanent,
	CodeInternal:        ClassificationPermanent,
	CodeUnknown:         ClassificationPermanent,
}

// getDefaultClassification returns the default classification for an error code.
// Unknown codes are permanent.
func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
