package types

import (
	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/util"
)

const (
	// MinStreamNameLength is the minimum length of a stream name.
	MinStreamNameLength = 2
	// MaxStreamNameLength is the maximum length of a stream name in unicode
	// characters.
	MaxStreamNameLength = 100

	// DepositAmountPeriodSecs is the deposit amount period for a non-prepaid
	// stream. If a non-prepaid stream has unlimited lifetime or lifetime >=
	// DepositAmountPeriodSecs, a security deposit is taken from the sender
	// which would not be returned in case the stream becomes insolvent. This
	// is done to make sure senders keep topping up their streams on time.
	DepositAmountPeriodSecs = 8 * 60 * 60

	// LowTopupWarningPeriodSecs is the period before insolvency at which a
	// stream is marked as low topup so a warning can be shown to the user.
	LowTopupWarningPeriodSecs = 24 * 60 * 60
)

// FlowParams describes the payment shape of a stream that does not exist
// yet. It is used to size prepaid amounts and insolvency deposits before
// creation.
type FlowParams struct {
	StartsAt      uint64
	EndsAt        uint64
	InitialAmount uint64
	FlowInterval  uint64
	FlowRate      uint64
}

func (p FlowParams) hasFlowPayments(startsAt uint64) bool {
	return p.FlowRate > 0 && p.FlowInterval > 0 && (p.EndsAt == 0 || p.EndsAt > startsAt)
}

// PrepaidAmountNeeded returns the full amount that must be deposited when
// creating a prepaid stream with the given payment shape at the given ledger
// time.
func PrepaidAmountNeeded(at uint64, params FlowParams) (uint64, error) {
	if params.EndsAt == 0 {
		return 0, nil
	}

	startsAt := params.StartsAt
	if at > startsAt {
		startsAt = at
	}
	if params.FlowRate == 0 || params.FlowInterval == 0 || params.EndsAt <= startsAt {
		return params.InitialAmount, nil
	}

	flow, err := util.CheckedMul(params.EndsAt-startsAt, params.FlowRate)
	if err != nil {
		return 0, errors.Wrap(err, "prepaid amount needed")
	}
	return util.CheckedAdd(params.InitialAmount, flow/params.FlowInterval)
}

// NonPrepaidDepositNeeded returns the insolvency-protection deposit for a
// non-prepaid stream with the given payment shape at the given ledger time.
// The deposit covers one deposit amount period of flow payments (or the
// whole stream lifetime if shorter) and is handed to whoever cancels the
// stream once it goes insolvent.
func NonPrepaidDepositNeeded(at uint64, params FlowParams) (uint64, error) {
	startsAt := params.StartsAt
	if at > startsAt {
		startsAt = at
	}
	if !params.hasFlowPayments(startsAt) {
		return 0, nil
	}

	period := uint64(DepositAmountPeriodSecs)
	if params.EndsAt > 0 {
		period = util.MinU64(period, params.EndsAt-startsAt)
	}
	depositNeeded, err := util.CheckedMul(period, params.FlowRate)
	if err != nil {
		return 0, errors.Wrap(err, "deposit amount needed")
	}
	depositNeeded /= params.FlowInterval

	// Tiny deposits are bumped by one base unit so truncating division can
	// never make the reserve zero.
	if depositNeeded < 10 {
		depositNeeded++
	}
	return depositNeeded, nil
}

// MinimumTopupAmount returns the smallest acceptable initial topup for a
// non-prepaid stream: the initial amount plus two deposit periods of buffer.
// With only one period of buffer the stream would become insolvent the
// moment it starts.
func MinimumTopupAmount(at uint64, params FlowParams) (uint64, error) {
	depositNeeded, err := NonPrepaidDepositNeeded(at, params)
	if err != nil {
		return 0, err
	}
	doubled, err := util.CheckedMul(depositNeeded, 2)
	if err != nil {
		return 0, errors.Wrap(err, "minimum topup amount")
	}
	return util.CheckedAdd(params.InitialAmount, doubled)
}
