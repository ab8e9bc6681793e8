package types

import (
	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/util"
)

// Validate checks the structural invariants every well-formed stream
// snapshot must satisfy, independent of time. A failure means the decoded
// account is corrupt or was produced by an incompatible program version.
func (s *Stream) Validate() error {
	if s.IsCancelled != (s.CancelledAt > 0) {
		return errors.Errorf("stream %s: cancelledAt %d inconsistent with isCancelled %t",
			s.PublicKey, s.CancelledAt, s.IsCancelled)
	}
	if !s.IsCancelled && (s.IsCancelledBeforeStart || s.IsCancelledBySender) {
		return errors.Errorf("stream %s: cancellation detail flags set on a non-cancelled stream", s.PublicKey)
	}
	if s.StartsAt < s.CreatedAt {
		return errors.Errorf("stream %s: startsAt %d before createdAt %d", s.PublicKey, s.StartsAt, s.CreatedAt)
	}
	if s.EndsAt != 0 && s.EndsAt < s.StartsAt {
		return errors.Errorf("stream %s: endsAt %d before startsAt %d", s.PublicKey, s.EndsAt, s.StartsAt)
	}
	if s.FlowRate > 0 && s.FlowInterval == 0 {
		return errors.Errorf("stream %s: flow rate %d with a zero flow interval", s.PublicKey, s.FlowRate)
	}

	if s.IsPrepaid {
		if s.EndsAt == 0 {
			return errors.Errorf("stream %s: prepaid stream with no end time", s.PublicKey)
		}
		if s.IsPaused || s.IsPausedBySender || s.SenderCanPause || s.SenderCanChangeSender {
			return errors.Errorf("stream %s: prepaid stream with pause or change-sender capability", s.PublicKey)
		}
		if s.SenderCanPauseAt != 0 || s.SenderCanChangeSenderAt != 0 ||
			s.RecipientCanResumePauseBySender || s.RecipientCanResumePauseBySenderAt != 0 {
			return errors.Errorf("stream %s: prepaid stream with unbounded-only permission fields", s.PublicKey)
		}
		if s.LastResumedAt != 0 || s.AccumulatedActiveTime != 0 || s.DepositNeeded != 0 {
			return errors.Errorf("stream %s: prepaid stream with unbounded-only runtime fields", s.PublicKey)
		}
	}

	totalEscrow, err := util.CheckedAdd(s.TotalTopupAmount, s.DepositNeeded)
	if err != nil {
		return errors.Wrapf(err, "stream %s", s.PublicKey)
	}
	if s.TotalWithdrawnAmount > totalEscrow {
		return errors.Errorf("stream %s: withdrawn %d exceeds escrowed %d",
			s.PublicKey, s.TotalWithdrawnAmount, totalEscrow)
	}
	return nil
}
