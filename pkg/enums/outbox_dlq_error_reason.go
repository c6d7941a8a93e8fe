package enums

// DLQErrorReason explains why an outbox event was parked in the dead letter table.
type DLQErrorReason string

const (
	DLQReasonMaxAttempts  DLQErrorReason = "max_attempts_exceeded"
	DLQReasonNonRetryable DLQErrorReason = "non_retryable_error"
	DLQReasonBadPayload   DLQErrorReason = "bad_payload"
)

func (r DLQErrorReason) IsValid() bool {
	switch r {
	case DLQReasonMaxAttempts, DLQReasonNonRetryable, DLQReasonBadPayload:
		return true
	}
	return false
}
