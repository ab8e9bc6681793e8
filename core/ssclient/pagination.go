package ssclient

import (
	"context"

	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
)

// ErrPaginationNotInitialized is returned by GetPage and TotalStreams before
// the first Initialize.
var ErrPaginationNotInitialized = errors.New("the pagination has not been initialized")

// StreamPagination walks a large set of streams in two phases: Initialize
// snapshots the matching addresses once, then GetPage fetches account data
// for one window at a time. The snapshot is immutable, so pages are stable
// against streams created after initialization; streams cancelled and
// reclaimed in the meantime simply drop out of their page.
type StreamPagination struct {
	client  *Client
	filters *types.StreamFilters

	initialized bool
	addresses   []util.Address
}

// NewStreamPagination prepares a pagination over the streams matching the
// given filters. Pass nil filters to paginate over all streams.
func (c *Client) NewStreamPagination(filters *types.StreamFilters) *StreamPagination {
	return &StreamPagination{
		client:  c,
		filters: filters,
	}
}

// Initialize snapshots the addresses of the matching streams. Calling it
// again replaces the snapshot with a fresh one.
func (p *StreamPagination) Initialize(ctx context.Context) error {
	addresses, err := p.client.GetAllStreamAddresses(ctx, p.filters)
	if err != nil {
		return err
	}

	p.addresses = addresses
	p.initialized = true
	return nil
}

// Refresh re-snapshots the addresses, picking up streams created since the
// last Initialize.
func (p *StreamPagination) Refresh(ctx context.Context) error {
	return p.Initialize(ctx)
}

// TotalStreams returns the number of streams in the current snapshot.
func (p *StreamPagination) TotalStreams() (int, error) {
	if !p.initialized {
		return 0, ErrPaginationNotInitialized
	}
	return len(p.addresses), nil
}

// GetPage fetches and decodes the streams at snapshot positions
// [offset, offset+limit). A window past the end of the snapshot yields a
// short or empty page; accounts deleted since the snapshot are omitted.
func (p *StreamPagination) GetPage(ctx context.Context, offset, limit int) ([]*types.Stream, error) {
	if !p.initialized {
		return nil, ErrPaginationNotInitialized
	}
	if offset < 0 {
		return nil, errors.Errorf("invalid page offset %d, should be >= 0", offset)
	}
	if limit <= 0 {
		return nil, errors.Errorf("invalid page limit %d, should be > 0", limit)
	}

	if offset >= len(p.addresses) {
		return nil, nil
	}
	end := offset + limit
	if end > len(p.addresses) {
		end = len(p.addresses)
	}

	streams, err := p.client.GetMultipleStreams(ctx, p.addresses[offset:end])
	if err != nil {
		return nil, err
	}

	page := make([]*types.Stream, 0, len(streams))
	for _, s := range streams {
		if s != nil {
			page = append(page, s)
		}
	}
	return page, nil
}
