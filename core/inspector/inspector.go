// Package inspector implements the insolvency monitor: a daemon that
// continuously scans every non-prepaid stream and cancels the ones that have
// gone insolvent, earning the insolvency deposit as its reward.
package inspector

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/logging"
	"github.com/superstream/sdk-go/core/ssclient"
	"github.com/superstream/sdk-go/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPageSize is the number of streams checked per page.
	DefaultPageSize = 25
	// DefaultScanInterval is the delay between two full scans.
	DefaultScanInterval = 2500 * time.Millisecond
	// DefaultRetryDelay is the delay before retrying a failed ledger call.
	DefaultRetryDelay = 10 * time.Second
)

type Inspector struct {
	client *ssclient.Client

	pageSize     int
	scanInterval time.Duration
	retryDelay   time.Duration
	clock        clock.Clock
	logger       *zap.Logger
}

type Option func(*Inspector)

// New builds an inspector over the given client. The client needs a signer
// and a submitter for cancellations to go through; without them the
// inspector still detects and logs insolvent streams.
func New(client *ssclient.Client, options ...Option) *Inspector {
	in := &Inspector{
		client:       client,
		pageSize:     DefaultPageSize,
		scanInterval: DefaultScanInterval,
		retryDelay:   DefaultRetryDelay,
		clock:        clock.NewDefaultClock(),
		logger:       logging.Logger,
	}
	for _, option := range options {
		option(in)
	}
	return in
}

// WithPageSize overrides the number of streams checked per page.
func WithPageSize(pageSize int) Option {
	return func(in *Inspector) {
		in.pageSize = pageSize
	}
}

// WithScanInterval overrides the delay between two full scans.
func WithScanInterval(interval time.Duration) Option {
	return func(in *Inspector) {
		in.scanInterval = interval
	}
}

// WithRetryDelay overrides the delay before retrying a failed ledger call.
func WithRetryDelay(delay time.Duration) Option {
	return func(in *Inspector) {
		in.retryDelay = delay
	}
}

// WithClock overrides the clock used for scan and retry delays. Tests
// inject a mock clock here.
func WithClock(clk clock.Clock) Option {
	return func(in *Inspector) {
		in.clock = clk
	}
}

// WithLogger overrides the inspector's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(in *Inspector) {
		in.logger = logger
	}
}

// Run scans the ledger until ctx is cancelled. Ledger failures are retried
// indefinitely; a failed cancellation of one stream never stops the scan.
func (in *Inspector) Run(ctx context.Context) error {
	in.logger.Info("inspector started",
		zap.Int("pageSize", in.pageSize),
		zap.Duration("scanInterval", in.scanInterval))

	for {
		if err := in.Scan(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-in.clock.TickAfter(in.scanInterval):
		}
	}
}

// Scan walks every non-cancelled non-prepaid stream once, page by page, and
// attempts to cancel each insolvent one. It only fails when ctx is
// cancelled.
func (in *Inspector) Scan(ctx context.Context) error {
	isPrepaid := false
	isCancelled := false
	pagination := in.client.NewStreamPagination(&types.StreamFilters{
		IsPrepaid:   &isPrepaid,
		IsCancelled: &isCancelled,
	})

	if err := in.retry(ctx, "snapshot stream addresses", func() error {
		return pagination.Initialize(ctx)
	}); err != nil {
		return err
	}

	total, err := pagination.TotalStreams()
	if err != nil {
		return err
	}
	in.logger.Debug("scan started", zap.Int("totalStreams", total))

	for offset := 0; ; offset += in.pageSize {
		var page []*types.Stream
		if err := in.retry(ctx, "fetch stream page", func() error {
			var err error
			page, err = pagination.GetPage(ctx, offset, in.pageSize)
			return err
		}); err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		// The amount owed grows with time, so every page is judged against a
		// ledger time fetched after the page itself.
		var at uint64
		if err := in.retry(ctx, "fetch ledger time", func() error {
			var err error
			at, err = in.client.CurrentTime(ctx)
			return err
		}); err != nil {
			return err
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, s := range page {
			s := s
			group.Go(func() error {
				in.checkStream(groupCtx, s, at)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}
}

// checkStream cancels the stream if it is insolvent and still running.
// Failures are logged, never propagated; the stream is seen again on the
// next scan.
func (in *Inspector) checkStream(ctx context.Context, s *types.Stream, at uint64) {
	if s.HasStopped(at) {
		return
	}

	solvent, err := s.IsSolvent(at)
	if err != nil {
		in.logger.Warn("failed to judge stream solvency",
			zap.Stringer("stream", s.PublicKey), zap.Error(err))
		return
	}
	if solvent {
		return
	}

	in.logger.Info("insolvent stream detected",
		zap.Stringer("stream", s.PublicKey),
		zap.Uint64("totalTopupAmount", s.TotalTopupAmount),
		zap.Uint64("at", at))

	if err := in.client.Cancel(ctx, s); err != nil {
		switch {
		case errors.Is(err, ssclient.ErrNoSigner), errors.Is(err, ssclient.ErrNoSubmitter):
			in.logger.Info("skipping cancellation, no signing credentials",
				zap.Stringer("stream", s.PublicKey))
		default:
			in.logger.Warn("failed to cancel insolvent stream",
				zap.Stringer("stream", s.PublicKey), zap.Error(err))
		}
		return
	}

	in.logger.Info("insolvent stream cancelled", zap.Stringer("stream", s.PublicKey))
}

// retry runs fn until it succeeds or ctx is cancelled, waiting retryDelay
// between attempts.
func (in *Inspector) retry(ctx context.Context, desc string, fn func() error) error {
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		in.logger.Warn("ledger call failed, retrying",
			zap.String("call", desc),
			zap.Duration("retryDelay", in.retryDelay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-in.clock.TickAfter(in.retryDelay):
		}
	}
}
