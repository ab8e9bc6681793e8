package streamapi

import (
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
)

// maxStreamNameBytes bounds the encoded name size; the on-chain account
// reserves 400 bytes for the name independent of its character count.
const maxStreamNameBytes = 400

// CreateStreamParams are the caller-chosen parameters validated before a
// create operation is submitted.
type CreateStreamParams struct {
	Recipient     util.Address
	Name          string
	StartsAt      uint64
	EndsAt        uint64
	InitialAmount uint64
	FlowInterval  uint64
	FlowRate      uint64
}

func (p CreateStreamParams) flowParams() types.FlowParams {
	return types.FlowParams{
		StartsAt:      p.StartsAt,
		EndsAt:        p.EndsAt,
		InitialAmount: p.InitialAmount,
		FlowInterval:  p.FlowInterval,
		FlowRate:      p.FlowRate,
	}
}

func validateCreate(at uint64, isPrepaid bool, sender util.Address, p CreateStreamParams) error {
	startsAt := p.StartsAt
	if at > startsAt {
		startsAt = at
	}

	if p.Recipient.IsZero() {
		return ErrEmptyRecipient
	} else if utf8.RuneCountInString(p.Name) < types.MinStreamNameLength {
		return errors.Wrapf(ErrStreamNameTooShort, "should be >= %d chars", types.MinStreamNameLength)
	} else if utf8.RuneCountInString(p.Name) > types.MaxStreamNameLength || len(p.Name) > maxStreamNameBytes {
		return errors.Wrapf(ErrStreamNameTooLong, "should be <= %d chars", types.MaxStreamNameLength)
	} else if p.Recipient.Equal(sender) {
		return ErrSameSenderAndRecipient
	} else if isPrepaid && p.EndsAt < startsAt {
		return ErrInvalidEndsAt
	} else if p.InitialAmount == 0 && (p.FlowRate == 0 || (p.EndsAt > 0 && p.EndsAt <= startsAt)) {
		return ErrZeroLifetimeAmount
	}
	return nil
}

// ValidateCreatePrepaid checks whether a prepaid stream with the given
// parameters can be created by sender at the given ledger time.
func ValidateCreatePrepaid(at uint64, sender util.Address, p CreateStreamParams) error {
	return validateCreate(at, true, sender, p)
}

// ValidateCreateNonPrepaid checks whether a non-prepaid stream with the
// given parameters and initial topup can be created by sender at the given
// ledger time. The topup must cover the initial amount plus twice the
// insolvency deposit.
func ValidateCreateNonPrepaid(at uint64, sender util.Address, p CreateStreamParams, topupAmount uint64) error {
	if err := validateCreate(at, false, sender, p); err != nil {
		return err
	}
	if topupAmount == 0 {
		return errors.Wrap(ErrZeroAmount, "topup amount")
	}

	minimum, err := types.MinimumTopupAmount(at, p.flowParams())
	if err != nil {
		return err
	}
	if topupAmount < minimum {
		return errors.Wrapf(ErrAmountLessThanMinimum, "minimum topup amount required is %d", minimum)
	}
	return nil
}

// ValidateCancel checks whether signer can cancel the stream at the given
// ledger time. A solvent stream can only be cancelled by the sender (when
// allowed to) or the recipient; an insolvent stream can be cancelled by
// anyone as an incentive to keep the ledger solvent.
func ValidateCancel(s *types.Stream, signer util.Address, at uint64) error {
	if s.IsCancelled {
		return ErrStreamAlreadyCancelled
	}

	solvent, err := s.IsSolvent(at)
	if err != nil {
		return err
	}
	if solvent {
		isSender := s.IsSender(signer)
		if !isSender && !s.IsRecipient(signer) {
			return ErrUnauthorizedToCancel
		} else if isSender {
			if !s.SenderCanCancel {
				return ErrSenderCannotCancel
			} else if s.SenderCanCancelAt > at {
				return errors.Wrapf(ErrSenderCannotCancel, "the sender can only cancel the stream at %d", s.SenderCanCancelAt)
			}
		}
	}

	if s.HasStopped(at) {
		return errors.Wrap(ErrStreamHasStopped, "cannot cancel a stopped stream")
	}
	return nil
}

// ValidateWithdraw checks whether signer can withdraw the recipient's funds
// from the stream at the given ledger time.
func ValidateWithdraw(s *types.Stream, signer util.Address, at uint64) error {
	amountOwed, err := s.AmountOwed(at)
	if err != nil {
		return err
	}
	totalEscrow, err := util.CheckedAdd(s.TotalTopupAmount, s.DepositNeeded)
	if err != nil {
		return err
	}

	if amountOwed <= s.TotalWithdrawnAmount {
		return ErrNothingToWithdraw
	} else if s.TotalWithdrawnAmount >= totalEscrow {
		return ErrEscrowFullyWithdrawn
	} else if !s.IsRecipient(signer) {
		if !s.AnyoneCanWithdrawForRecipient {
			return ErrUnauthorizedToWithdraw
		} else if s.AnyoneCanWithdrawForRecipientAt > at {
			return errors.Wrapf(ErrUnauthorizedToWithdraw,
				"non-recipients can only withdraw for the recipient at %d", s.AnyoneCanWithdrawForRecipientAt)
		}
	}
	return nil
}

// ValidateWithdrawAndChangeRecipient checks whether signer can withdraw the
// recipient's funds and hand the stream over to newRecipient at the given
// ledger time. Only the current recipient can change the recipient.
func ValidateWithdrawAndChangeRecipient(s *types.Stream, signer util.Address, at uint64, newRecipient util.Address) error {
	if err := ValidateWithdraw(s, signer, at); err != nil {
		return err
	}
	if !s.IsRecipient(signer) {
		return ErrUnauthorizedToChangeRecipient
	} else if !newRecipient.IsZero() && newRecipient.Equal(s.Recipient) {
		return ErrSameRecipients
	}
	return nil
}

// ValidateTopupNonPrepaid checks whether the stream accepts a topup of the
// given amount at the given ledger time.
func ValidateTopupNonPrepaid(s *types.Stream, at uint64, topupAmount uint64) error {
	if s.IsPrepaid {
		return errors.Wrap(ErrStreamIsPrepaid, "cannot topup a prepaid stream")
	} else if topupAmount == 0 {
		return errors.Wrap(ErrZeroAmount, "topup amount")
	} else if !s.HasFlowPayments() {
		return ErrStreamHasNoFlowPayments
	}

	if s.HasStopped(at) {
		return errors.Wrap(ErrStreamHasStopped, "cannot topup a stopped stream")
	}

	limit, err := s.MaxAcceptableTopupAmount(at)
	if err != nil {
		return err
	}
	if !limit.NoLimit && topupAmount > limit.Amount {
		return errors.Wrapf(ErrTopupMoreThanMaxAcceptable, "maximum acceptable topup amount is %d", limit.Amount)
	}
	return nil
}

// ValidateChangeSenderNonPrepaid checks whether signer can hand the stream's
// topup obligation over to newSender at the given ledger time.
func ValidateChangeSenderNonPrepaid(s *types.Stream, signer util.Address, at uint64, newSender util.Address) error {
	if s.IsPrepaid {
		return errors.Wrap(ErrStreamIsPrepaid, "sender of prepaid streams cannot be changed")
	} else if !s.IsSender(signer) {
		return ErrUnauthorizedToChangeSender
	} else if newSender.IsZero() {
		return ErrInvalidNewSender
	} else if newSender.Equal(s.Sender) {
		return ErrSameSenders
	}

	if !s.SenderCanChangeSender {
		return ErrSenderCannotChangeSender
	} else if s.SenderCanChangeSenderAt > at {
		return errors.Wrapf(ErrSenderCannotChangeSender,
			"the sender can only change the sender at %d", s.SenderCanChangeSenderAt)
	}

	if s.HasStopped(at) {
		return errors.Wrap(ErrStreamHasStopped, "cannot change sender of a stopped stream")
	}
	return nil
}

// ValidatePauseNonPrepaid checks whether signer can pause the stream at the
// given ledger time.
func ValidatePauseNonPrepaid(s *types.Stream, signer util.Address, at uint64) error {
	if s.IsPrepaid {
		return errors.Wrap(ErrStreamIsPrepaid, "prepaid streams cannot be paused")
	} else if s.IsPaused {
		return ErrStreamIsPaused
	} else if !s.HasFlowPayments() {
		return errors.Wrap(ErrStreamHasNoFlowPayments, "a stream with no flow payments cannot be paused")
	}

	isSender := s.IsSender(signer)
	if !isSender && !s.IsRecipient(signer) {
		return ErrUnauthorizedToPause
	} else if isSender {
		if !s.SenderCanPause {
			return ErrSenderCannotPause
		} else if s.SenderCanPauseAt > at {
			return errors.Wrapf(ErrSenderCannotPause, "the sender can only pause the stream at %d", s.SenderCanPauseAt)
		}
	}

	if s.HasStopped(at) {
		return errors.Wrap(ErrStreamHasStopped, "cannot pause a stopped stream")
	}
	return nil
}

// ValidateResumeNonPrepaid checks whether signer can resume the paused
// stream at the given ledger time. A recipient can only undo a pause made
// by the sender if the stream grants that permission.
func ValidateResumeNonPrepaid(s *types.Stream, signer util.Address, at uint64) error {
	if s.IsPrepaid {
		return errors.Wrap(ErrStreamIsPrepaid, "prepaid streams cannot be resumed")
	} else if !s.IsPaused {
		return ErrStreamNotPaused
	}

	isRecipient := s.IsRecipient(signer)
	if !s.IsSender(signer) && !isRecipient {
		return ErrUnauthorizedToResume
	} else if isRecipient && s.IsPausedBySender {
		if !s.RecipientCanResumePauseBySender {
			return ErrRecipientCannotResume
		} else if s.RecipientCanResumePauseBySenderAt > at {
			return errors.Wrapf(ErrRecipientCannotResume,
				"the recipient can only resume the stream at %d", s.RecipientCanResumePauseBySenderAt)
		}
	}

	if s.HasStopped(at) {
		return errors.Wrap(ErrStreamHasStopped, "cannot resume a stopped stream")
	}
	return nil
}

// ValidateWithdrawExcessTopupNonPrepaidEnded checks whether the sender's
// excess topup and deposit can be recovered from the stream at the given
// ledger time. Only an ended, solvent, non-cancelled stream has anything to
// give back.
func ValidateWithdrawExcessTopupNonPrepaidEnded(s *types.Stream, at uint64) error {
	if s.IsPrepaid {
		return errors.Wrap(ErrStreamIsPrepaid, "prepaid streams have no excess topup")
	} else if s.IsCancelled {
		return ErrStreamAlreadyCancelled
	}

	solvent, err := s.IsSolvent(at)
	if err != nil {
		return err
	}
	if !solvent {
		return ErrStreamInsolvent
	}

	amountOwed, err := s.AmountOwed(at)
	if err != nil {
		return err
	}
	totalEscrow, err := util.CheckedAdd(s.TotalTopupAmount, s.DepositNeeded)
	if err != nil {
		return err
	}
	if totalEscrow <= amountOwed {
		return ErrNoExcessTopup
	}

	if !s.HasStopped(at) {
		return errors.Wrap(ErrStreamNotStopped, "can withdraw excess topup only after the stream has ended")
	}
	return nil
}
