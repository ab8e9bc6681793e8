package streamapi

import (
	"github.com/superstream/sdk-go/core/types"
)

func boolFilter(offset uint64, v bool) types.MemcmpFilter {
	b := byte(0)
	if v {
		b = 1
	}
	return types.MemcmpFilter{Offset: offset, Bytes: []byte{b}}
}

// FiltersToMemcmp converts StreamFilters into the byte-equality predicates
// the ledger matches against the V2 account layout.
func FiltersToMemcmp(filters *types.StreamFilters) []types.MemcmpFilter {
	if filters == nil {
		return nil
	}

	var out []types.MemcmpFilter
	if filters.IsPrepaid != nil {
		out = append(out, boolFilter(offsetIsPrepaid, *filters.IsPrepaid))
	}
	if filters.Mint != nil {
		out = append(out, types.MemcmpFilter{Offset: offsetMint, Bytes: filters.Mint.Bytes()})
	}
	if filters.Sender != nil {
		out = append(out, types.MemcmpFilter{Offset: offsetSender, Bytes: filters.Sender.Bytes()})
	}
	if filters.Recipient != nil {
		out = append(out, types.MemcmpFilter{Offset: offsetRecipient, Bytes: filters.Recipient.Bytes()})
	}
	if filters.IsCancelled != nil {
		out = append(out, boolFilter(offsetIsCancelled, *filters.IsCancelled))
	}
	if filters.IsCancelledBeforeStart != nil {
		out = append(out, boolFilter(offsetIsCancelledBeforeStart, *filters.IsCancelledBeforeStart))
	}
	if filters.IsCancelledBySender != nil {
		out = append(out, boolFilter(offsetIsCancelledBySender, *filters.IsCancelledBySender))
	}
	if filters.IsPaused != nil {
		out = append(out, boolFilter(offsetIsPaused, *filters.IsPaused))
	}
	if filters.IsPausedBySender != nil {
		out = append(out, boolFilter(offsetIsPausedBySender, *filters.IsPausedBySender))
	}
	if filters.Name != nil {
		out = append(out, types.MemcmpFilter{Offset: offsetName, Bytes: []byte(*filters.Name)})
	}
	return out
}
