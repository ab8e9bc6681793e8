package ssclient

import (
	"context"

	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/streamapi"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
)

// ErrStreamNotFound is returned by GetStream when the account does not exist
// on the ledger.
var ErrStreamNotFound = errors.New("no stream exists at the given address")

// GetStream fetches and decodes the stream at the given address. A missing
// account is an error; use MaybeGetStream when absence is expected.
func (c *Client) GetStream(ctx context.Context, address util.Address) (*types.Stream, error) {
	s, err := c.MaybeGetStream(ctx, address)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.Wrapf(ErrStreamNotFound, "address %s", address)
	}
	return s, nil
}

// MaybeGetStream fetches and decodes the stream at the given address,
// returning (nil, nil) when the account does not exist.
func (c *Client) MaybeGetStream(ctx context.Context, address util.Address) (*types.Stream, error) {
	data, err := c.ledger.GetAccount(ctx, address)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if data == nil {
		return nil, nil
	}
	return streamapi.DecodeStream(address, data)
}

// GetMultipleStreams fetches and decodes a batch of streams. The result has
// the same length and order as addresses; missing accounts are nil entries.
// A decode failure of any present account fails the whole batch.
func (c *Client) GetMultipleStreams(ctx context.Context, addresses []util.Address) ([]*types.Stream, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	batch, err := c.ledger.GetMultipleAccounts(ctx, addresses)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(batch) != len(addresses) {
		return nil, errors.Errorf("ledger returned %d accounts for %d addresses", len(batch), len(addresses))
	}

	streams := make([]*types.Stream, len(addresses))
	for i, data := range batch {
		if data == nil {
			continue
		}
		s, err := streamapi.DecodeStream(addresses[i], data)
		if err != nil {
			return nil, err
		}
		streams[i] = s
	}
	return streams, nil
}

// GetAllStreams fetches every stream matching the given filters. Pass nil to
// fetch all streams of the program.
func (c *Client) GetAllStreams(ctx context.Context, filters *types.StreamFilters) ([]*types.Stream, error) {
	addresses, batch, err := c.ledger.GetProgramAccounts(ctx, streamapi.FiltersToMemcmp(filters))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(batch) != len(addresses) {
		return nil, errors.Errorf("ledger returned %d accounts for %d addresses", len(batch), len(addresses))
	}

	streams := make([]*types.Stream, 0, len(addresses))
	for i, data := range batch {
		s, err := streamapi.DecodeStream(addresses[i], data)
		if err != nil {
			return nil, err
		}
		streams = append(streams, s)
	}
	return streams, nil
}

// GetAllStreamAddresses fetches the addresses of every stream matching the
// given filters, without the account data.
func (c *Client) GetAllStreamAddresses(ctx context.Context, filters *types.StreamFilters) ([]util.Address, error) {
	addresses, err := c.ledger.GetProgramAccountAddresses(ctx, streamapi.FiltersToMemcmp(filters))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return addresses, nil
}
