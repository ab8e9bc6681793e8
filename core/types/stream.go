package types

import (
	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/util"
)

// Stream is a snapshot of one payment stream's on-chain state, with support
// for SPL tokens, prepaid and limited upfront payment, unlimited lifetime,
// cliffs and cancellations.
//
// Possible states of a stream:
//   - Not started
//   - Scheduled
//   - Cancelled before start
//   - Started but not stopped
//   - Streaming
//   - Paused
//   - Stopped
//   - Cancelled after start
//   - Ended
//
// All timestamps are unix seconds of ledger time and all amounts are in the
// token's base units. A Stream value is immutable: mutating operations
// produce a new snapshot on the next fetch.
type Stream struct {
	// PublicKey is the stream account address, derived from (seed, mint, name).
	PublicKey util.Address

	// IsPrepaid is true if the stream is prepaid - all the required amount
	// needs to be deposited on creation. Prepaid streams cannot have
	// unlimited lifetime.
	IsPrepaid bool

	// Mint is the SPL token mint address.
	Mint util.Address
	// Sender address.
	Sender util.Address
	// Recipient address.
	Recipient util.Address

	// CreatedAt is the time at which the stream was created.
	CreatedAt uint64
	// StartsAt is the start time of the stream.
	//
	// INVARIANT: >= CreatedAt
	StartsAt uint64
	// EndsAt is the end time of the stream. If the stream is unbounded, this
	// can be 0 to indicate no end time.
	//
	// INVARIANT: prepaid: >= StartsAt
	// INVARIANT: unbounded: == 0 || >= StartsAt
	EndsAt uint64

	// InitialAmount is the amount available to the recipient once the stream
	// starts.
	InitialAmount uint64
	// FlowInterval is the interval in which flow payments are released.
	FlowInterval uint64
	// FlowRate is the number of tokens to stream per interval.
	FlowRate uint64

	// IsCancelled is true if the stream has been cancelled.
	IsCancelled bool
	// IsCancelledBeforeStart is true if the stream has been cancelled before
	// start.
	//
	// INVARIANT: !IsCancelled => == false
	IsCancelledBeforeStart bool
	// IsCancelledBySender is true if the stream has been cancelled by the
	// sender.
	//
	// INVARIANT: !IsCancelled || !SenderCanCancel => == false
	IsCancelledBySender bool

	// CancelledAt is the time at which the stream was cancelled. If it is
	// > 0, the stream has been cancelled and any funds in the escrow account
	// not available to be withdrawn by the recipient have been retrieved.
	//
	// INVARIANT: CancelledAt > 0 iff IsCancelled == true
	CancelledAt uint64

	// SenderCanCancel is true if a solvent stream can be cancelled by the
	// sender.
	SenderCanCancel bool
	// SenderCanCancelAt is the time at which the sender is allowed to cancel
	// a solvent stream.
	SenderCanCancelAt uint64

	// SenderCanChangeSender is true if the sender can change the sender of
	// the stream who will do the upcoming topups.
	//
	// INVARIANT: prepaid: false
	SenderCanChangeSender bool
	// SenderCanChangeSenderAt is the time at which the sender is allowed to
	// change the sender.
	//
	// INVARIANT: prepaid: == 0
	SenderCanChangeSenderAt uint64

	// IsPaused is true if the stream is paused.
	//
	// INVARIANT: prepaid: == false
	IsPaused bool
	// IsPausedBySender is true if the stream is paused by the sender.
	//
	// INVARIANT: prepaid: == false
	// INVARIANT: runtime: unbounded: !IsPaused || !SenderCanPause => == false
	IsPausedBySender bool

	// SenderCanPause is true if a stream can be paused by the sender.
	//
	// INVARIANT: prepaid: false
	SenderCanPause bool
	// SenderCanPauseAt is the time at which the sender is allowed to pause a
	// stream.
	//
	// INVARIANT: prepaid: == 0
	SenderCanPauseAt uint64

	// RecipientCanResumePauseBySender is true if a stream can be resumed by
	// the recipient if it was paused by the sender.
	//
	// INVARIANT: prepaid: false
	RecipientCanResumePauseBySender bool
	// RecipientCanResumePauseBySenderAt is the time at which the recipient is
	// allowed to resume a stream which was paused by the sender.
	//
	// INVARIANT: prepaid: == 0
	RecipientCanResumePauseBySenderAt uint64

	// AnyoneCanWithdrawForRecipient is true if anyone can withdraw on behalf
	// of the recipient. The amount will go in the recipient's account.
	AnyoneCanWithdrawForRecipient bool
	// AnyoneCanWithdrawForRecipientAt is the time at which anyone can
	// withdraw on behalf of the recipient.
	AnyoneCanWithdrawForRecipientAt uint64

	// LastResumedAt is the time at which the stream was last resumed.
	//
	// INVARIANT: prepaid: == 0
	// INVARIANT: unbounded: (== 0 || >= StartsAt) && (EndsAt == 0 || < EndsAt)
	LastResumedAt uint64
	// AccumulatedActiveTime is the total accumulated active (!IsPaused) time
	// since StartsAt. This does not include (currentTime - LastResumedAt)
	// time if the stream is not paused.
	//
	// INVARIANT: prepaid: == 0
	AccumulatedActiveTime uint64

	// TotalWithdrawnAmount is the total amount withdrawn by the recipient.
	//
	// INVARIANT: runtime: <= amountOwed && <= TotalTopupAmount + DepositNeeded
	TotalWithdrawnAmount uint64
	// LastWithdrawnAt is the last time at which the recipient withdrew any
	// amount.
	LastWithdrawnAt uint64
	// LastWithdrawnAmount is the last amount which the recipient withdrew.
	LastWithdrawnAmount uint64

	// TotalTopupAmount is the total topup amount added for the stream.
	//
	// INVARIANT: prepaid: == totalPrepaidAmount
	// INVARIANT: unbounded: >= InitialAmount + streamingAmountOwed
	TotalTopupAmount uint64
	// LastTopupAt is the last time at which the sender topped up the stream.
	LastTopupAt uint64
	// LastTopupAmount is the last topup amount.
	LastTopupAmount uint64

	// DepositNeeded is the total deposit amount needed for the non-prepaid
	// stream. It is needed in case the sender does not topup the stream in
	// time and the amount owed becomes > total topup amount. When that
	// happens, anyone can cancel the stream and the deposit is distributed
	// as a reward to whoever finds the insolvency.
	//
	// INVARIANT: prepaid: == 0
	DepositNeeded uint64

	// Seed of the stream account. It's up to the client how they choose the
	// seed. Each tuple (seed, mint, name) corresponds to a unique stream.
	Seed uint64
	// Bump used in the stream account address derivation.
	Bump uint8

	// Name of the stream. Should be unique for a particular set of
	// (seed, mint).
	//
	// INVARIANT: length <= 100 unicode chars or 400 bytes
	Name string
}

// TopupLimit is the result of MaxAcceptableTopupAmount. If NoLimit is true,
// the stream accepts any topup amount and Amount is meaningless.
type TopupLimit struct {
	NoLimit bool
	Amount  uint64
}

// HasFlowPayments reports whether the stream has non-zero flow payments.
// Flow payments refers to payments without the initial amount.
func (s *Stream) HasFlowPayments() bool {
	return s.FlowRate > 0 && s.FlowInterval > 0 && (s.EndsAt == 0 || s.EndsAt > s.StartsAt)
}

// StopsAt returns the time at which the stream will stop or has already
// stopped. A return of 0 means the stream has no stop time.
func (s *Stream) StopsAt() uint64 {
	cancelledAt := s.CancelledAt
	endsAt := s.EndsAt
	if cancelledAt == 0 {
		return endsAt
	} else if endsAt == 0 {
		return cancelledAt
	}
	return util.MinU64(endsAt, cancelledAt)
}

// HasStopped reports whether the stream has stopped at the given ledger time.
func (s *Stream) HasStopped(at uint64) bool {
	stopsAt := s.StopsAt()
	return stopsAt > 0 && stopsAt <= at
}

// clampToStopsAt caps at to the stream's stop time so amounts are only
// accrued for the period the stream was live.
func (s *Stream) clampToStopsAt(at uint64) uint64 {
	stopsAt := s.StopsAt()
	if stopsAt > 0 && stopsAt < at {
		return stopsAt
	}
	return at
}

// activeTimeAfterStart returns the total non-paused duration since StartsAt.
//
// INVARIANT: (stopsAt == 0 || at <= stopsAt) && at >= StartsAt && HasFlowPayments()
func (s *Stream) activeTimeAfterStart(at uint64) (uint64, error) {
	if s.IsPaused {
		// Paused => the accumulated time is the total time.
		return s.AccumulatedActiveTime, nil
	} else if s.LastResumedAt == 0 {
		// Not paused and never resumed => the stream was never paused.
		return at - s.StartsAt, nil
	}
	// LastResumedAt >= StartsAt and, when EndsAt > 0, < EndsAt, so the
	// subtraction cannot wrap.
	return util.CheckedAdd(at-s.LastResumedAt, s.AccumulatedActiveTime)
}

// AmountOwed returns the total amount owed to the recipient at the given
// ledger time. This includes any amount the recipient has already withdrawn;
// subtract TotalWithdrawnAmount to get the amount the recipient is eligible
// to withdraw.
func (s *Stream) AmountOwed(at uint64) (uint64, error) {
	at = s.clampToStopsAt(at)

	if at < s.StartsAt {
		return 0, nil
	} else if !s.HasFlowPayments() {
		return s.InitialAmount, nil
	}

	activeTime, err := s.activeTimeAfterStart(at)
	if err != nil {
		return 0, err
	}
	if activeTime == 0 {
		return s.InitialAmount, nil
	}
	flow, err := util.CheckedMul(activeTime, s.FlowRate)
	if err != nil {
		return 0, errors.Wrap(err, "amount owed")
	}
	return util.CheckedAdd(s.InitialAmount, flow/s.FlowInterval)
}

// AmountAvailableToWithdraw returns the total amount available to withdraw
// to the recipient at the given ledger time. The result never exceeds what
// has actually been escrowed, even when the stream is insolvent.
func (s *Stream) AmountAvailableToWithdraw(at uint64) (uint64, error) {
	amountOwed, err := s.AmountOwed(at)
	if err != nil {
		return 0, err
	}
	available := util.SaturatingSub(amountOwed, s.TotalWithdrawnAmount)
	if available == 0 {
		return 0, nil
	}

	totalEscrowAmount, err := util.CheckedAdd(s.TotalTopupAmount, s.DepositNeeded)
	if err != nil {
		return 0, errors.Wrap(err, "amount available to withdraw")
	}
	remainingEscrowAmount := util.SaturatingSub(totalEscrowAmount, s.TotalWithdrawnAmount)
	return util.MinU64(available, remainingEscrowAmount), nil
}

// IsSolvent reports whether the stream's topups cover the amount owed at the
// given ledger time.
func (s *Stream) IsSolvent(at uint64) (bool, error) {
	amountOwed, err := s.AmountOwed(at)
	if err != nil {
		return false, err
	}
	return amountOwed <= s.TotalTopupAmount, nil
}

// MaxAcceptableTopupAmount returns the maximum acceptable topup amount at
// the given ledger time. Prepaid streams and streams with no flow payments
// never accept topups; an unbounded non-cancelled stream has no limit.
func (s *Stream) MaxAcceptableTopupAmount(at uint64) (TopupLimit, error) {
	if s.IsPrepaid || !s.HasFlowPayments() {
		return TopupLimit{}, nil
	}

	stopsAt := s.StopsAt()
	if stopsAt == 0 {
		return TopupLimit{NoLimit: true}, nil
	} else if stopsAt < s.StartsAt {
		// Stopped before start: no payments will ever flow.
		return TopupLimit{}, nil
	}

	var totalPossibleActiveTime uint64
	var err error
	if at < s.StartsAt {
		totalPossibleActiveTime = s.EndsAt - s.StartsAt
	} else if stopsAt <= at {
		totalPossibleActiveTime, err = s.activeTimeAfterStart(stopsAt)
		if err != nil {
			return TopupLimit{}, err
		}
	} else {
		activeTime, err := s.activeTimeAfterStart(at)
		if err != nil {
			return TopupLimit{}, err
		}
		totalPossibleActiveTime, err = util.CheckedAdd(activeTime, stopsAt-at)
		if err != nil {
			return TopupLimit{}, errors.Wrap(err, "max acceptable topup amount")
		}
	}

	totalPossibleTopup := s.InitialAmount
	if totalPossibleActiveTime > 0 {
		flow, err := util.CheckedMul(totalPossibleActiveTime, s.FlowRate)
		if err != nil {
			return TopupLimit{}, errors.Wrap(err, "max acceptable topup amount")
		}
		totalPossibleTopup, err = util.CheckedAdd(s.InitialAmount, flow/s.FlowInterval)
		if err != nil {
			return TopupLimit{}, errors.Wrap(err, "max acceptable topup amount")
		}
	}

	return TopupLimit{Amount: util.SaturatingSub(totalPossibleTopup, s.TotalTopupAmount)}, nil
}

// CancelDistribution describes how a stream's escrow splits when it is
// cancelled: the part still owed to the recipient, the sender's refund and
// the canceller's insolvency reward.
type CancelDistribution struct {
	Recipient uint64
	Sender    uint64
	Canceller uint64
}

// DistributionOnCancel returns how the escrow would split if the stream were
// cancelled at the given ledger time. The recipient gets what is owed and
// still escrowed, the sender gets back any unowed topup. The deposit returns
// to the sender of a solvent stream and rewards the canceller of an
// insolvent one.
func (s *Stream) DistributionOnCancel(at uint64) (CancelDistribution, error) {
	amountOwed, err := s.AmountOwed(at)
	if err != nil {
		return CancelDistribution{}, err
	}

	covered := util.MinU64(amountOwed, s.TotalTopupAmount)
	dist := CancelDistribution{
		Recipient: util.SaturatingSub(covered, s.TotalWithdrawnAmount),
	}
	if amountOwed <= s.TotalTopupAmount {
		dist.Sender = s.TotalTopupAmount - amountOwed + s.DepositNeeded
	} else {
		dist.Canceller = s.DepositNeeded
	}
	return dist, nil
}

// IsSender reports whether the given address is the sender of this stream.
func (s *Stream) IsSender(addr util.Address) bool {
	return addr.Equal(s.Sender)
}

// IsRecipient reports whether the given address is the recipient of this
// stream.
func (s *Stream) IsRecipient(addr util.Address) bool {
	return addr.Equal(s.Recipient)
}

// CompareCreatedAt orders two streams by their creation time. It returns -1
// if a was created before b, 1 if after and 0 otherwise.
func CompareCreatedAt(a, b *Stream) int {
	if a.CreatedAt < b.CreatedAt {
		return -1
	} else if a.CreatedAt > b.CreatedAt {
		return 1
	}
	return 0
}
