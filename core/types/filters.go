package types

import "github.com/superstream/sdk-go/core/util"

// StreamFilters narrows the set of streams returned when fetching all
// streams. Nil fields are not filtered on.
type StreamFilters struct {
	// IsPrepaid filters by stream variant - prepaid or unbounded.
	IsPrepaid *bool
	// Mint filters by the stream mint.
	Mint *util.Address
	// Sender filters by the stream sender.
	Sender *util.Address
	// Recipient filters by the stream recipient.
	Recipient *util.Address
	// IsCancelled filters by the stream cancellation status.
	IsCancelled *bool
	// IsCancelledBeforeStart filters by the cancellation before start status.
	IsCancelledBeforeStart *bool
	// IsCancelledBySender filters by the cancellation by sender status.
	IsCancelledBySender *bool
	// IsPaused filters by the stream paused status.
	IsPaused *bool
	// IsPausedBySender filters by the paused by sender status.
	IsPausedBySender *bool
	// Name filters by the stream name.
	Name *string
}

// MemcmpFilter is a byte-equality predicate over raw account data, matched
// by the ledger at the given offset.
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}
