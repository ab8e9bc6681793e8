package streamapi

import "github.com/pkg/errors"

// Validation errors raised before any network call. Each precondition of a
// mutating operation maps to its own error kind so callers can react to the
// exact reason a submission would be rejected on-chain.
var (
	ErrEmptyRecipient         = errors.New("the stream recipient is empty, should be a valid address")
	ErrSameSenderAndRecipient = errors.New("the sender and recipient of the stream cannot be the same")
	ErrStreamNameTooShort     = errors.New("the stream name is too short")
	ErrStreamNameTooLong      = errors.New("the stream name is too long")
	ErrInvalidEndsAt          = errors.New("invalid ends at, for a prepaid stream it should be >= starts at")
	ErrZeroLifetimeAmount     = errors.New("the stream will never lead to any payments")
	ErrZeroAmount             = errors.New("the amount should be > 0")
	ErrAmountLessThanMinimum  = errors.New("the amount is less than the minimum amount needed")

	ErrStreamAlreadyCancelled = errors.New("the stream has already been cancelled")
	ErrStreamHasStopped       = errors.New("the stream has already stopped")
	ErrStreamNotStopped       = errors.New("the stream has not stopped yet")
	ErrStreamInsolvent        = errors.New("the stream is insolvent")
	ErrUnauthorizedToCancel   = errors.New("a solvent stream can only be cancelled by the sender or the recipient")
	ErrSenderCannotCancel     = errors.New("the sender is not allowed to cancel the stream")

	ErrNothingToWithdraw      = errors.New("the amount owed has already been withdrawn, nothing to withdraw")
	ErrEscrowFullyWithdrawn   = errors.New("the amount topped up has already been withdrawn, nothing to withdraw")
	ErrUnauthorizedToWithdraw = errors.New("only the recipient can withdraw")
	ErrNoExcessTopup          = errors.New("there is no excess topup to withdraw")

	ErrUnauthorizedToChangeRecipient = errors.New("only the recipient can withdraw and change recipient")
	ErrSameRecipients                = errors.New("the new recipient cannot be the same as the current recipient")

	ErrStreamIsPrepaid            = errors.New("the stream is prepaid, should be a non-prepaid stream")
	ErrStreamHasNoFlowPayments    = errors.New("the stream has no flow payments")
	ErrTopupMoreThanMaxAcceptable = errors.New("the topup amount is more than what is needed by the stream")

	ErrUnauthorizedToChangeSender = errors.New("only the sender can change the sender")
	ErrSenderCannotChangeSender   = errors.New("the sender is not allowed to change the sender of the stream")
	ErrInvalidNewSender           = errors.New("invalid new sender, should be a valid address")
	ErrSameSenders                = errors.New("the new sender cannot be the same as the current sender")

	ErrStreamIsPaused        = errors.New("the stream is already paused")
	ErrStreamNotPaused       = errors.New("only a paused stream can be resumed")
	ErrUnauthorizedToPause   = errors.New("only the sender and the recipient can pause a stream")
	ErrUnauthorizedToResume  = errors.New("only the sender and the recipient can resume a stream")
	ErrSenderCannotPause     = errors.New("the sender is not allowed to pause the stream")
	ErrRecipientCannotResume = errors.New("the recipient is not allowed to resume a stream paused by the sender")
)
