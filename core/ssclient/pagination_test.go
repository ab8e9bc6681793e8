package ssclient

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superstream/sdk-go/core/streamapi"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
)

// fakeLedger is an in-memory LedgerQuery over encoded stream accounts.
type fakeLedger struct {
	order    []util.Address
	accounts map[util.Address][]byte
	now      uint64

	failNext error
}

func newFakeLedger(now uint64) *fakeLedger {
	return &fakeLedger{
		accounts: make(map[util.Address][]byte),
		now:      now,
	}
}

func (l *fakeLedger) addStream(s *types.Stream) {
	if _, ok := l.accounts[s.PublicKey]; !ok {
		l.order = append(l.order, s.PublicKey)
	}
	l.accounts[s.PublicKey] = streamapi.EncodeStream(s)
}

func (l *fakeLedger) removeAccount(address util.Address) {
	delete(l.accounts, address)
}

func (l *fakeLedger) takeFailure() error {
	err := l.failNext
	l.failNext = nil
	return err
}

func (l *fakeLedger) GetAccount(_ context.Context, address util.Address) ([]byte, error) {
	if err := l.takeFailure(); err != nil {
		return nil, err
	}
	return l.accounts[address], nil
}

func (l *fakeLedger) GetMultipleAccounts(_ context.Context, addresses []util.Address) ([][]byte, error) {
	if err := l.takeFailure(); err != nil {
		return nil, err
	}
	batch := make([][]byte, len(addresses))
	for i, address := range addresses {
		batch[i] = l.accounts[address]
	}
	return batch, nil
}

func (l *fakeLedger) matches(data []byte, filters []types.MemcmpFilter) bool {
	for _, f := range filters {
		end := int(f.Offset) + len(f.Bytes)
		if end > len(data) || !bytes.Equal(data[f.Offset:end], f.Bytes) {
			return false
		}
	}
	return true
}

func (l *fakeLedger) GetProgramAccounts(_ context.Context, filters []types.MemcmpFilter) ([]util.Address, [][]byte, error) {
	if err := l.takeFailure(); err != nil {
		return nil, nil, err
	}
	var addresses []util.Address
	var batch [][]byte
	for _, address := range l.order {
		data, ok := l.accounts[address]
		if ok && l.matches(data, filters) {
			addresses = append(addresses, address)
			batch = append(batch, data)
		}
	}
	return addresses, batch, nil
}

func (l *fakeLedger) GetProgramAccountAddresses(ctx context.Context, filters []types.MemcmpFilter) ([]util.Address, error) {
	addresses, _, err := l.GetProgramAccounts(ctx, filters)
	return addresses, err
}

func (l *fakeLedger) CurrentTime(_ context.Context) (uint64, error) {
	if err := l.takeFailure(); err != nil {
		return 0, err
	}
	return l.now, nil
}

func testStream(key byte, isPrepaid bool) *types.Stream {
	s := &types.Stream{
		PublicKey: util.Address{key},
		Mint:      util.Address{0xbb},
		Sender:    util.Address{0x01},
		Recipient: util.Address{0x02},

		CreatedAt: 500,
		StartsAt:  1000,

		InitialAmount: 100,
		FlowInterval:  1,
		FlowRate:      10,

		TotalTopupAmount: 576100,
		DepositNeeded:    288000,
	}
	if isPrepaid {
		s.EndsAt = 2000
		s.IsPrepaid = true
		s.DepositNeeded = 0
		s.TotalTopupAmount = 10100
	}
	return s
}

func TestGetStream(t *testing.T) {
	ledger := newFakeLedger(1100)
	want := testStream(0x10, false)
	ledger.addStream(want)

	client, err := NewClient(ledger)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("existing stream", func(t *testing.T) {
		got, err := client.GetStream(ctx, want.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing stream is an error", func(t *testing.T) {
		_, err := client.GetStream(ctx, util.Address{0x99})
		assert.ErrorIs(t, err, ErrStreamNotFound)
	})

	t.Run("maybe get returns nil for missing", func(t *testing.T) {
		got, err := client.MaybeGetStream(ctx, util.Address{0x99})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("batch keeps order and marks missing as nil", func(t *testing.T) {
		streams, err := client.GetMultipleStreams(ctx, []util.Address{
			{0x99}, want.PublicKey,
		})
		require.NoError(t, err)
		require.Len(t, streams, 2)
		assert.Nil(t, streams[0])
		assert.Equal(t, want, streams[1])
	})
}

func TestGetAllStreams(t *testing.T) {
	ledger := newFakeLedger(1100)
	prepaid := testStream(0x10, true)
	unbounded := testStream(0x11, false)
	ledger.addStream(prepaid)
	ledger.addStream(unbounded)

	client, err := NewClient(ledger)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("no filters fetches everything", func(t *testing.T) {
		streams, err := client.GetAllStreams(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, streams, 2)
	})

	t.Run("prepaid filter", func(t *testing.T) {
		isPrepaid := true
		streams, err := client.GetAllStreams(ctx, &types.StreamFilters{IsPrepaid: &isPrepaid})
		require.NoError(t, err)
		require.Len(t, streams, 1)
		assert.Equal(t, prepaid.PublicKey, streams[0].PublicKey)
	})
}

func TestStreamPagination(t *testing.T) {
	ledger := newFakeLedger(1100)
	var all []*types.Stream
	for key := byte(0x10); key < 0x10+7; key++ {
		s := testStream(key, false)
		ledger.addStream(s)
		all = append(all, s)
	}

	client, err := NewClient(ledger)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("must be initialized first", func(t *testing.T) {
		p := client.NewStreamPagination(nil)
		_, err := p.GetPage(ctx, 0, 3)
		assert.ErrorIs(t, err, ErrPaginationNotInitialized)
		_, err = p.TotalStreams()
		assert.ErrorIs(t, err, ErrPaginationNotInitialized)
	})

	t.Run("pages cover the snapshot exactly once", func(t *testing.T) {
		p := client.NewStreamPagination(nil)
		require.NoError(t, p.Initialize(ctx))

		total, err := p.TotalStreams()
		require.NoError(t, err)
		assert.Equal(t, len(all), total)

		var got []*types.Stream
		for offset := 0; ; offset += 3 {
			page, err := p.GetPage(ctx, offset, 3)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			got = append(got, page...)
		}
		assert.Equal(t, all, got)
	})

	t.Run("adjacent windows equal one big window", func(t *testing.T) {
		p := client.NewStreamPagination(nil)
		require.NoError(t, p.Initialize(ctx))

		first, err := p.GetPage(ctx, 0, 2)
		require.NoError(t, err)
		second, err := p.GetPage(ctx, 2, 3)
		require.NoError(t, err)
		combined, err := p.GetPage(ctx, 0, 5)
		require.NoError(t, err)
		assert.Equal(t, combined, append(first, second...))
	})

	t.Run("pages are stable against new streams", func(t *testing.T) {
		p := client.NewStreamPagination(nil)
		require.NoError(t, p.Initialize(ctx))

		ledger.addStream(testStream(0x80, false))

		total, err := p.TotalStreams()
		require.NoError(t, err)
		assert.Equal(t, len(all), total)

		page, err := p.GetPage(ctx, 6, 3)
		require.NoError(t, err)
		assert.Len(t, page, 1)

		require.NoError(t, p.Refresh(ctx))
		total, err = p.TotalStreams()
		require.NoError(t, err)
		assert.Equal(t, len(all)+1, total)
	})

	t.Run("deleted accounts drop out of their page", func(t *testing.T) {
		p := client.NewStreamPagination(nil)
		require.NoError(t, p.Initialize(ctx))

		ledger.removeAccount(all[1].PublicKey)
		defer ledger.addStream(all[1])

		page, err := p.GetPage(ctx, 0, 3)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, all[0].PublicKey, page[0].PublicKey)
		assert.Equal(t, all[2].PublicKey, page[1].PublicKey)
	})

	t.Run("window past the end is empty", func(t *testing.T) {
		p := client.NewStreamPagination(nil)
		require.NoError(t, p.Initialize(ctx))

		page, err := p.GetPage(ctx, 100, 3)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("invalid windows", func(t *testing.T) {
		p := client.NewStreamPagination(nil)
		require.NoError(t, p.Initialize(ctx))

		_, err := p.GetPage(ctx, -1, 3)
		assert.Error(t, err)
		_, err = p.GetPage(ctx, 0, 0)
		assert.Error(t, err)
	})
}

func TestCurrentTimeFallback(t *testing.T) {
	ledger := newFakeLedger(1100)
	client, err := NewClient(ledger)
	require.NoError(t, err)
	ctx := context.Background()

	at, err := client.CurrentTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1100), at)

	// An unreachable ledger falls back to the local clock.
	ledger.failNext = errors.New("connection refused")
	at, err = client.CurrentTime(ctx)
	require.NoError(t, err)
	assert.NotZero(t, at)
}
