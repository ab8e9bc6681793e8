package types

// StreamStatus is the lifecycle status of a stream at a point in time.
type StreamStatus string

const (
	// StreamStatusNotStarted means the stream has not started yet.
	StreamStatusNotStarted StreamStatus = "not-started"
	// StreamStatusStreaming means the stream has started and has not been
	// paused or stopped yet.
	StreamStatusStreaming StreamStatus = "streaming"
	// StreamStatusPaused means the stream is paused.
	StreamStatusPaused StreamStatus = "paused"
	// StreamStatusCancelled means the stream has been cancelled.
	StreamStatusCancelled StreamStatus = "cancelled"
	// StreamStatusEnded means the stream has ended.
	StreamStatusEnded StreamStatus = "ended"
)

var streamStatusOrder = map[StreamStatus]int{
	StreamStatusNotStarted: 1,
	StreamStatusStreaming:  2,
	StreamStatusPaused:     3,
	StreamStatusCancelled:  4,
	StreamStatusEnded:      5,
}

// CompareStreamStatus orders two stream statuses. It returns a negative
// number if a sorts before b, a positive number if after and 0 otherwise.
func CompareStreamStatus(a, b StreamStatus) int {
	return streamStatusOrder[a] - streamStatusOrder[b]
}

// StreamPaymentStatus is the payment health of a stream at a point in time.
type StreamPaymentStatus string

const (
	// StreamPaymentStatusPrepaid means the stream is prepaid.
	StreamPaymentStatusPrepaid StreamPaymentStatus = "prepaid"
	// StreamPaymentStatusFullyPaid means the stream is fully paid and no
	// topups are needed.
	StreamPaymentStatusFullyPaid StreamPaymentStatus = "fully-paid"
	// StreamPaymentStatusStreaming means the stream has been paid enough
	// that it does not qualify as low topup.
	StreamPaymentStatusStreaming StreamPaymentStatus = "streaming"
	// StreamPaymentStatusLowTopup means the stream will become insolvent
	// within the low topup warning period and a warning can be shown.
	StreamPaymentStatusLowTopup StreamPaymentStatus = "low-topup"
	// StreamPaymentStatusNeedsTopup means the stream is insolvent and needs
	// a topup.
	StreamPaymentStatusNeedsTopup StreamPaymentStatus = "needs-topup"
)

var streamPaymentStatusOrder = map[StreamPaymentStatus]int{
	StreamPaymentStatusPrepaid:    1,
	StreamPaymentStatusFullyPaid:  2,
	StreamPaymentStatusStreaming:  3,
	StreamPaymentStatusLowTopup:   4,
	StreamPaymentStatusNeedsTopup: 5,
}

// CompareStreamPaymentStatus orders two stream payment statuses. It returns
// a negative number if a sorts before b, a positive number if after and 0
// otherwise.
func CompareStreamPaymentStatus(a, b StreamPaymentStatus) int {
	return streamPaymentStatusOrder[a] - streamPaymentStatusOrder[b]
}

// Status returns the lifecycle status of the stream at the given ledger time.
func (s *Stream) Status(at uint64) StreamStatus {
	if s.HasStopped(at) {
		if s.IsCancelled {
			return StreamStatusCancelled
		}
		return StreamStatusEnded
	} else if s.StartsAt > at {
		return StreamStatusNotStarted
	} else if s.IsPaused {
		return StreamStatusPaused
	}
	return StreamStatusStreaming
}

// PaymentStatus returns the payment health of the stream at the given ledger
// time.
func (s *Stream) PaymentStatus(at uint64) (StreamPaymentStatus, error) {
	if s.Status(at) != StreamStatusStreaming {
		return StreamPaymentStatusStreaming, nil
	}

	if s.IsPrepaid {
		return StreamPaymentStatusPrepaid, nil
	} else if !s.HasFlowPayments() {
		return StreamPaymentStatusFullyPaid, nil
	}

	limit, err := s.MaxAcceptableTopupAmount(at)
	if err != nil {
		return "", err
	}
	if !limit.NoLimit && limit.Amount == 0 {
		return StreamPaymentStatusFullyPaid, nil
	}

	amountOwed, err := s.AmountOwed(at)
	if err != nil {
		return "", err
	}
	if s.TotalTopupAmount <= amountOwed {
		return StreamPaymentStatusNeedsTopup, nil
	}

	remainingSecs := (s.TotalTopupAmount - amountOwed) * s.FlowInterval / s.FlowRate
	if remainingSecs <= LowTopupWarningPeriodSecs {
		return StreamPaymentStatusLowTopup, nil
	}
	return StreamPaymentStatusStreaming, nil
}
