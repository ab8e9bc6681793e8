// Package streamapi implements the wire-level view of the streaming
// program: the binary account layout, filter construction and the
// pre-submission validation of every mutating operation.
package streamapi

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
)

// LayoutVersion tags the binary layout of a stream account. Two incompatible
// generations of the program exist; this package targets V2, the layout the
// currently deployed program writes. V1 accounts (shorter record, no
// anyone-can-withdraw permission) are rejected rather than guessed at.
type LayoutVersion uint8

const (
	// LayoutV2 is the current stream account layout.
	LayoutV2 LayoutVersion = 2
)

// Byte offsets of the fields used in filter construction, from the start of
// the account data (after the 8-byte account discriminator).
const (
	offsetIsPrepaid              = 8
	offsetMint                   = 9
	offsetSender                 = 41
	offsetRecipient              = 73
	offsetCreatedAt              = 105
	offsetStartsAt               = 113
	offsetEndsAt                 = 121
	offsetInitialAmount          = 129
	offsetFlowInterval           = 137
	offsetFlowRate               = 145
	offsetIsCancelled            = 153
	offsetIsCancelledBeforeStart = 154
	offsetIsCancelledBySender    = 155
	offsetCancelledAt            = 156
	offsetSenderCanCancel        = 164
	offsetSenderCanCancelAt      = 165
	offsetSenderCanChangeSender  = 173
	offsetSenderCanChangeSenderAt = 174
	offsetIsPaused               = 182
	offsetIsPausedBySender       = 183
	offsetSenderCanPause         = 184
	offsetSenderCanPauseAt       = 185
	offsetRecipientCanResume     = 193
	offsetRecipientCanResumeAt   = 194
	offsetAnyoneCanWithdraw      = 202
	offsetAnyoneCanWithdrawAt    = 203
	offsetLastResumedAt          = 211
	offsetAccumulatedActiveTime  = 219
	offsetTotalWithdrawnAmount   = 227
	offsetLastWithdrawnAt        = 235
	offsetLastWithdrawnAmount    = 243
	offsetTotalTopupAmount       = 251
	offsetLastTopupAt            = 259
	offsetLastTopupAmount        = 267
	offsetDepositNeeded          = 275
	offsetReserved               = 283
	offsetSeed                   = 411
	offsetBump                   = 419
	offsetNameLen                = 420
	offsetName                   = 424
)

// minAccountSize is the size of a stream account with an empty name.
const minAccountSize = offsetName

// ErrNotStreamAccount is returned when an account buffer is too short or
// self-inconsistent to be a V2 stream account.
var ErrNotStreamAccount = errors.New("account data is not a stream account")

type decoder struct {
	data []byte
}

func (d *decoder) boolAt(off int) bool {
	return d.data[off] != 0
}

func (d *decoder) u64At(off int) uint64 {
	return binary.LittleEndian.Uint64(d.data[off : off+8])
}

func (d *decoder) addressAt(off int) util.Address {
	var a util.Address
	copy(a[:], d.data[off:off+util.AddressLength])
	return a
}

// DecodeStream decodes a raw V2 stream account buffer into a Stream
// snapshot and checks its structural invariants.
func DecodeStream(publicKey util.Address, data []byte) (*types.Stream, error) {
	if len(data) < minAccountSize {
		return nil, errors.Wrapf(ErrNotStreamAccount, "account %s: %d bytes", publicKey, len(data))
	}

	d := decoder{data: data}
	nameLen := binary.LittleEndian.Uint32(data[offsetNameLen:offsetName])
	if int(nameLen) != len(data)-minAccountSize {
		return nil, errors.Wrapf(ErrNotStreamAccount, "account %s: name length %d does not match account size %d",
			publicKey, nameLen, len(data))
	}

	s := &types.Stream{
		PublicKey: publicKey,

		IsPrepaid: d.boolAt(offsetIsPrepaid),
		Mint:      d.addressAt(offsetMint),
		Sender:    d.addressAt(offsetSender),
		Recipient: d.addressAt(offsetRecipient),

		CreatedAt: d.u64At(offsetCreatedAt),
		StartsAt:  d.u64At(offsetStartsAt),
		EndsAt:    d.u64At(offsetEndsAt),

		InitialAmount: d.u64At(offsetInitialAmount),
		FlowInterval:  d.u64At(offsetFlowInterval),
		FlowRate:      d.u64At(offsetFlowRate),

		IsCancelled:            d.boolAt(offsetIsCancelled),
		IsCancelledBeforeStart: d.boolAt(offsetIsCancelledBeforeStart),
		IsCancelledBySender:    d.boolAt(offsetIsCancelledBySender),
		CancelledAt:            d.u64At(offsetCancelledAt),

		SenderCanCancel:   d.boolAt(offsetSenderCanCancel),
		SenderCanCancelAt: d.u64At(offsetSenderCanCancelAt),

		SenderCanChangeSender:   d.boolAt(offsetSenderCanChangeSender),
		SenderCanChangeSenderAt: d.u64At(offsetSenderCanChangeSenderAt),

		IsPaused:         d.boolAt(offsetIsPaused),
		IsPausedBySender: d.boolAt(offsetIsPausedBySender),

		SenderCanPause:   d.boolAt(offsetSenderCanPause),
		SenderCanPauseAt: d.u64At(offsetSenderCanPauseAt),

		RecipientCanResumePauseBySender:   d.boolAt(offsetRecipientCanResume),
		RecipientCanResumePauseBySenderAt: d.u64At(offsetRecipientCanResumeAt),

		AnyoneCanWithdrawForRecipient:   d.boolAt(offsetAnyoneCanWithdraw),
		AnyoneCanWithdrawForRecipientAt: d.u64At(offsetAnyoneCanWithdrawAt),

		LastResumedAt:         d.u64At(offsetLastResumedAt),
		AccumulatedActiveTime: d.u64At(offsetAccumulatedActiveTime),

		TotalWithdrawnAmount: d.u64At(offsetTotalWithdrawnAmount),
		LastWithdrawnAt:      d.u64At(offsetLastWithdrawnAt),
		LastWithdrawnAmount:  d.u64At(offsetLastWithdrawnAmount),

		TotalTopupAmount: d.u64At(offsetTotalTopupAmount),
		LastTopupAt:      d.u64At(offsetLastTopupAt),
		LastTopupAmount:  d.u64At(offsetLastTopupAmount),

		DepositNeeded: d.u64At(offsetDepositNeeded),

		Seed: d.u64At(offsetSeed),
		Bump: data[offsetBump],
		Name: string(data[offsetName : offsetName+int(nameLen)]),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// EncodeStream serializes a Stream into the V2 account layout. It is the
// inverse of DecodeStream and exists for tests and local fixtures; real
// account buffers are produced by the on-chain program.
func EncodeStream(s *types.Stream) []byte {
	data := make([]byte, minAccountSize+len(s.Name))

	putBool := func(off int, v bool) {
		if v {
			data[off] = 1
		}
	}
	putU64 := func(off int, v uint64) {
		binary.LittleEndian.PutUint64(data[off:off+8], v)
	}

	putBool(offsetIsPrepaid, s.IsPrepaid)
	copy(data[offsetMint:], s.Mint.Bytes())
	copy(data[offsetSender:], s.Sender.Bytes())
	copy(data[offsetRecipient:], s.Recipient.Bytes())
	putU64(offsetCreatedAt, s.CreatedAt)
	putU64(offsetStartsAt, s.StartsAt)
	putU64(offsetEndsAt, s.EndsAt)
	putU64(offsetInitialAmount, s.InitialAmount)
	putU64(offsetFlowInterval, s.FlowInterval)
	putU64(offsetFlowRate, s.FlowRate)
	putBool(offsetIsCancelled, s.IsCancelled)
	putBool(offsetIsCancelledBeforeStart, s.IsCancelledBeforeStart)
	putBool(offsetIsCancelledBySender, s.IsCancelledBySender)
	putU64(offsetCancelledAt, s.CancelledAt)
	putBool(offsetSenderCanCancel, s.SenderCanCancel)
	putU64(offsetSenderCanCancelAt, s.SenderCanCancelAt)
	putBool(offsetSenderCanChangeSender, s.SenderCanChangeSender)
	putU64(offsetSenderCanChangeSenderAt, s.SenderCanChangeSenderAt)
	putBool(offsetIsPaused, s.IsPaused)
	putBool(offsetIsPausedBySender, s.IsPausedBySender)
	putBool(offsetSenderCanPause, s.SenderCanPause)
	putU64(offsetSenderCanPauseAt, s.SenderCanPauseAt)
	putBool(offsetRecipientCanResume, s.RecipientCanResumePauseBySender)
	putU64(offsetRecipientCanResumeAt, s.RecipientCanResumePauseBySenderAt)
	putBool(offsetAnyoneCanWithdraw, s.AnyoneCanWithdrawForRecipient)
	putU64(offsetAnyoneCanWithdrawAt, s.AnyoneCanWithdrawForRecipientAt)
	putU64(offsetLastResumedAt, s.LastResumedAt)
	putU64(offsetAccumulatedActiveTime, s.AccumulatedActiveTime)
	putU64(offsetTotalWithdrawnAmount, s.TotalWithdrawnAmount)
	putU64(offsetLastWithdrawnAt, s.LastWithdrawnAt)
	putU64(offsetLastWithdrawnAmount, s.LastWithdrawnAmount)
	putU64(offsetTotalTopupAmount, s.TotalTopupAmount)
	putU64(offsetLastTopupAt, s.LastTopupAt)
	putU64(offsetLastTopupAmount, s.LastTopupAmount)
	putU64(offsetDepositNeeded, s.DepositNeeded)
	putU64(offsetSeed, s.Seed)
	data[offsetBump] = s.Bump
	binary.LittleEndian.PutUint32(data[offsetNameLen:offsetName], uint32(len(s.Name)))
	copy(data[offsetName:], s.Name)

	return data
}
