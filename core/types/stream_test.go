package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superstream/sdk-go/core/util"
)

var (
	testSender    = util.Address{0x01}
	testRecipient = util.Address{0x02}
	testOutsider  = util.Address{0x03}
)

// unboundedStream is a running non-prepaid stream: started at 1000, no end
// time, 100 upfront and then 10 tokens per second.
func unboundedStream() *Stream {
	return &Stream{
		PublicKey: util.Address{0xaa},
		Mint:      util.Address{0xbb},
		Sender:    testSender,
		Recipient: testRecipient,

		CreatedAt: 500,
		StartsAt:  1000,
		EndsAt:    0,

		InitialAmount: 100,
		FlowInterval:  1,
		FlowRate:      10,

		TotalTopupAmount: 576100,
		DepositNeeded:    288000,
	}
}

func TestAmountOwed(t *testing.T) {
	t.Run("before start nothing is owed", func(t *testing.T) {
		s := unboundedStream()
		owed, err := s.AmountOwed(999)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), owed)
	})

	t.Run("initial amount is owed at start", func(t *testing.T) {
		s := unboundedStream()
		owed, err := s.AmountOwed(1000)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), owed)
	})

	t.Run("flow accrues per second", func(t *testing.T) {
		s := unboundedStream()
		owed, err := s.AmountOwed(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+100*10), owed)
	})

	t.Run("flow interval divides with truncation", func(t *testing.T) {
		s := unboundedStream()
		s.FlowInterval = 60

		// 59 seconds into a 60 second interval releases nothing yet.
		owed, err := s.AmountOwed(1059)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+59*10/60), owed)

		owed, err = s.AmountOwed(1060)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+10), owed)
	})

	t.Run("no flow payments owes only the initial amount", func(t *testing.T) {
		s := unboundedStream()
		s.FlowRate = 0
		owed, err := s.AmountOwed(5000)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), owed)
	})

	t.Run("zero flow interval never divides", func(t *testing.T) {
		s := unboundedStream()
		s.FlowInterval = 0
		require.False(t, s.HasFlowPayments())

		owed, err := s.AmountOwed(5000)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), owed)

		solvent, err := s.IsSolvent(5000)
		require.NoError(t, err)
		assert.True(t, solvent)
	})

	t.Run("monotonically non-decreasing", func(t *testing.T) {
		s := unboundedStream()
		var prev uint64
		for at := uint64(900); at <= 1300; at += 7 {
			owed, err := s.AmountOwed(at)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, owed, prev, "at %d", at)
			prev = owed
		}
	})

	t.Run("cancellation freezes the owed amount", func(t *testing.T) {
		s := unboundedStream()
		s.IsCancelled = true
		s.CancelledAt = 1100

		atCancel, err := s.AmountOwed(1100)
		require.NoError(t, err)
		muchLater, err := s.AmountOwed(999999)
		require.NoError(t, err)
		assert.Equal(t, atCancel, muchLater)
	})

	t.Run("end time freezes the owed amount", func(t *testing.T) {
		s := unboundedStream()
		s.EndsAt = 1200

		atEnd, err := s.AmountOwed(1200)
		require.NoError(t, err)
		require.Equal(t, uint64(100+200*10), atEnd)

		muchLater, err := s.AmountOwed(999999)
		require.NoError(t, err)
		assert.Equal(t, atEnd, muchLater)
	})

	t.Run("cancelled before start owes nothing", func(t *testing.T) {
		s := unboundedStream()
		s.IsCancelled = true
		s.IsCancelledBeforeStart = true
		s.CancelledAt = 800

		owed, err := s.AmountOwed(2000)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), owed)
	})
}

func TestAmountOwedPrepaid(t *testing.T) {
	// 1000 upfront, then 20 tokens per 2 seconds for a year.
	s := &Stream{
		PublicKey: util.Address{0xaa},
		IsPrepaid: true,
		Mint:      util.Address{0xbb},
		Sender:    testSender,
		Recipient: testRecipient,

		CreatedAt: 500,
		StartsAt:  1000,
		EndsAt:    1000 + 31536000,

		InitialAmount: 1000,
		FlowInterval:  2,
		FlowRate:      20,

		TotalTopupAmount: 1000 + 31536000*10,
	}

	for _, d := range []uint64{0, 2, 100, 86400, 31536000} {
		owed, err := s.AmountOwed(1000 + d)
		require.NoError(t, err)
		assert.Equal(t, 1000+d*10, owed, "after %d seconds", d)
	}

	// The whole prepaid amount is owed once the stream ends.
	owed, err := s.AmountOwed(s.EndsAt + 999999)
	require.NoError(t, err)
	assert.Equal(t, s.TotalTopupAmount, owed)
}

func TestAmountOwedPauseResume(t *testing.T) {
	// Paused at 1100 after 100 seconds of activity, resumed at 1500.
	pausedThenResumed := func() *Stream {
		s := unboundedStream()
		s.AccumulatedActiveTime = 100
		s.LastResumedAt = 1500
		return s
	}

	t.Run("paused stream owes the accumulated time only", func(t *testing.T) {
		s := unboundedStream()
		s.IsPaused = true
		s.AccumulatedActiveTime = 100

		owed, err := s.AmountOwed(5000)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+100*10), owed)
	})

	t.Run("resumed stream accrues from the resume point", func(t *testing.T) {
		s := pausedThenResumed()

		owed, err := s.AmountOwed(1500)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+100*10), owed)

		owed, err = s.AmountOwed(1550)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+150*10), owed)
	})

	t.Run("pause gap never counts", func(t *testing.T) {
		s := pausedThenResumed()
		neverPaused := unboundedStream()

		owedResumed, err := s.AmountOwed(2000)
		require.NoError(t, err)
		owedContinuous, err := neverPaused.AmountOwed(2000)
		require.NoError(t, err)
		assert.Equal(t, uint64(400*10), owedContinuous-owedResumed)
	})
}

func TestAmountAvailableToWithdraw(t *testing.T) {
	t.Run("owed minus already withdrawn", func(t *testing.T) {
		s := unboundedStream()
		s.TotalWithdrawnAmount = 500

		available, err := s.AmountAvailableToWithdraw(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(1100-500), available)
	})

	t.Run("never exceeds the remaining escrow", func(t *testing.T) {
		s := unboundedStream()
		s.TotalTopupAmount = 600
		s.DepositNeeded = 100
		s.TotalWithdrawnAmount = 200

		// Owed is 1100, but only 700 was ever escrowed and 200 of that is
		// already gone.
		available, err := s.AmountAvailableToWithdraw(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(500), available)
	})

	t.Run("zero when everything owed is withdrawn", func(t *testing.T) {
		s := unboundedStream()
		s.TotalWithdrawnAmount = 1100

		available, err := s.AmountAvailableToWithdraw(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), available)
	})
}

func TestIsSolvent(t *testing.T) {
	s := unboundedStream()
	s.TotalTopupAmount = 1100

	// Owed reaches 1100 exactly at 1100.
	solvent, err := s.IsSolvent(1100)
	require.NoError(t, err)
	assert.True(t, solvent)

	solvent, err = s.IsSolvent(1101)
	require.NoError(t, err)
	assert.False(t, solvent)
}

func TestSolvencyMatchesWithdrawals(t *testing.T) {
	// Whenever the stream is solvent, the recipient can withdraw the full
	// owed amount.
	s := unboundedStream()
	for at := uint64(1000); at <= 60000; at += 997 {
		solvent, err := s.IsSolvent(at)
		require.NoError(t, err)
		if !solvent {
			continue
		}
		owed, err := s.AmountOwed(at)
		require.NoError(t, err)
		available, err := s.AmountAvailableToWithdraw(at)
		require.NoError(t, err)
		assert.Equal(t, owed, available, "at %d", at)
	}
}

func TestDistributionOnCancel(t *testing.T) {
	t.Run("solvent stream refunds the sender", func(t *testing.T) {
		s := unboundedStream()
		dist, err := s.DistributionOnCancel(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(1100), dist.Recipient)
		assert.Equal(t, s.TotalTopupAmount-1100+s.DepositNeeded, dist.Sender)
		assert.Equal(t, uint64(0), dist.Canceller)
	})

	t.Run("withdrawals only reduce the recipient leg", func(t *testing.T) {
		s := unboundedStream()
		s.TotalWithdrawnAmount = 700

		dist, err := s.DistributionOnCancel(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(1100-700), dist.Recipient)
		assert.Equal(t, s.TotalTopupAmount-1100+s.DepositNeeded, dist.Sender)
	})

	t.Run("insolvent stream rewards the canceller", func(t *testing.T) {
		s := unboundedStream()
		s.TotalTopupAmount = 1000

		dist, err := s.DistributionOnCancel(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), dist.Recipient)
		assert.Equal(t, uint64(0), dist.Sender)
		assert.Equal(t, s.DepositNeeded, dist.Canceller)
	})

	t.Run("the split never exceeds the escrow", func(t *testing.T) {
		s := unboundedStream()
		s.TotalWithdrawnAmount = 500
		for at := uint64(1100); at <= 90000; at += 917 {
			dist, err := s.DistributionOnCancel(at)
			require.NoError(t, err)
			total := dist.Recipient + dist.Sender + dist.Canceller
			assert.LessOrEqual(t, total, s.TotalTopupAmount+s.DepositNeeded-s.TotalWithdrawnAmount, "at %d", at)
		}
	})
}

func TestStopsAt(t *testing.T) {
	tests := []struct {
		name        string
		endsAt      uint64
		cancelledAt uint64
		want        uint64
	}{
		{"unbounded and not cancelled", 0, 0, 0},
		{"bounded", 2000, 0, 2000},
		{"unbounded and cancelled", 0, 1500, 1500},
		{"cancelled before the end", 2000, 1500, 1500},
		{"cancelled exactly at the end", 2000, 2000, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := unboundedStream()
			s.EndsAt = tt.endsAt
			if tt.cancelledAt > 0 {
				s.IsCancelled = true
				s.CancelledAt = tt.cancelledAt
			}
			assert.Equal(t, tt.want, s.StopsAt())
		})
	}

	t.Run("has stopped is inclusive of the stop time", func(t *testing.T) {
		s := unboundedStream()
		s.EndsAt = 2000
		assert.False(t, s.HasStopped(1999))
		assert.True(t, s.HasStopped(2000))
		assert.True(t, s.HasStopped(2001))
	})
}

func TestMaxAcceptableTopupAmount(t *testing.T) {
	t.Run("unbounded stream has no limit", func(t *testing.T) {
		s := unboundedStream()
		limit, err := s.MaxAcceptableTopupAmount(1100)
		require.NoError(t, err)
		assert.True(t, limit.NoLimit)
	})

	t.Run("prepaid stream accepts nothing", func(t *testing.T) {
		s := unboundedStream()
		s.IsPrepaid = true
		s.EndsAt = 2000
		s.DepositNeeded = 0
		limit, err := s.MaxAcceptableTopupAmount(1100)
		require.NoError(t, err)
		assert.False(t, limit.NoLimit)
		assert.Equal(t, uint64(0), limit.Amount)
	})

	t.Run("bounded stream accepts up to its lifetime amount", func(t *testing.T) {
		s := unboundedStream()
		s.EndsAt = 2000
		s.TotalTopupAmount = 4000

		// Lifetime amount is 100 + 1000*10 = 10100.
		limit, err := s.MaxAcceptableTopupAmount(500)
		require.NoError(t, err)
		assert.False(t, limit.NoLimit)
		assert.Equal(t, uint64(10100-4000), limit.Amount)
	})

	t.Run("fully topped up stream accepts nothing more", func(t *testing.T) {
		s := unboundedStream()
		s.EndsAt = 2000
		s.TotalTopupAmount = 10100

		limit, err := s.MaxAcceptableTopupAmount(1100)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), limit.Amount)
	})
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Stream)
		at     uint64
		want   StreamStatus
	}{
		{"not started", func(s *Stream) {}, 999, StreamStatusNotStarted},
		{"streaming", func(s *Stream) {}, 1000, StreamStatusStreaming},
		{"paused", func(s *Stream) { s.IsPaused = true; s.AccumulatedActiveTime = 50 }, 1100, StreamStatusPaused},
		{"cancelled", func(s *Stream) { s.IsCancelled = true; s.CancelledAt = 1100 }, 1200, StreamStatusCancelled},
		{"ended", func(s *Stream) { s.EndsAt = 1100 }, 1100, StreamStatusEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := unboundedStream()
			tt.mutate(s)
			assert.Equal(t, tt.want, s.Status(tt.at))
		})
	}
}

func TestPaymentStatus(t *testing.T) {
	t.Run("far from insolvency", func(t *testing.T) {
		s := unboundedStream()
		// Owed 1100 at t=1100; topups cover 87000 more seconds, past the
		// 24 hour warning period.
		s.TotalTopupAmount = 100 + 100*10 + 87000*10

		status, err := s.PaymentStatus(1100)
		require.NoError(t, err)
		assert.Equal(t, StreamPaymentStatusStreaming, status)
	})

	t.Run("low topup inside the warning period", func(t *testing.T) {
		s := unboundedStream()
		s.TotalTopupAmount = 100 + 100*10 + 86400*10

		status, err := s.PaymentStatus(1100)
		require.NoError(t, err)
		assert.Equal(t, StreamPaymentStatusLowTopup, status)
	})

	t.Run("needs topup once insolvent", func(t *testing.T) {
		s := unboundedStream()
		s.TotalTopupAmount = 1000

		status, err := s.PaymentStatus(1100)
		require.NoError(t, err)
		assert.Equal(t, StreamPaymentStatusNeedsTopup, status)
	})

	t.Run("bounded and fully topped up", func(t *testing.T) {
		s := unboundedStream()
		s.EndsAt = 2000
		s.TotalTopupAmount = 10100

		status, err := s.PaymentStatus(1100)
		require.NoError(t, err)
		assert.Equal(t, StreamPaymentStatusFullyPaid, status)
	})
}

func TestParticipants(t *testing.T) {
	s := unboundedStream()
	assert.True(t, s.IsSender(testSender))
	assert.False(t, s.IsSender(testRecipient))
	assert.True(t, s.IsRecipient(testRecipient))
	assert.False(t, s.IsRecipient(testOutsider))
}
