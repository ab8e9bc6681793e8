// Command superstream-inspector works the insolvency side of a live ledger.
// Its run command scans every non-prepaid stream in a loop and cancels (or,
// when run without signing credentials, reports) the ones that have gone
// insolvent; its stats command prints a one-shot summary of all streams.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/superstream/sdk-go/core/inspector"
	"github.com/superstream/sdk-go/core/ledgerrpc"
	"github.com/superstream/sdk-go/core/logging"
	"github.com/superstream/sdk-go/core/ssclient"
	"github.com/superstream/sdk-go/core/util"
	"go.uber.org/zap"
)

type runCommand struct {
	PageSize     int           `long:"page-size" description:"Streams checked per page" default:"25"`
	ScanInterval time.Duration `long:"scan-interval" description:"Delay between two full scans" default:"2.5s"`
	RetryDelay   time.Duration `long:"retry-delay" description:"Delay before retrying a failed ledger call" default:"10s"`
}

type statsCommand struct{}

type options struct {
	Endpoint  string `short:"e" long:"endpoint" description:"JSON-RPC endpoint of the ledger" required:"true"`
	ProgramID string `short:"p" long:"program-id" description:"Address of the streaming program" required:"true"`
	Signer    string `short:"s" long:"signer" description:"Address to cancel insolvent streams as; omit to only detect and log"`

	Run   runCommand   `command:"run" description:"Scan for and cancel insolvent streams until killed"`
	Stats statsCommand `command:"stats" description:"Print a summary of all streams and exit"`
}

func newClient(opts *options) (*ssclient.Client, error) {
	programID, err := util.NewAddressFromBase58(opts.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}

	clientOpts := []ssclient.Option{}
	if opts.Signer != "" {
		signer, err := util.NewAddressFromBase58(opts.Signer)
		if err != nil {
			return nil, fmt.Errorf("invalid signer address: %w", err)
		}
		clientOpts = append(clientOpts, ssclient.WithSigner(signer))
	}

	return ssclient.NewClient(ledgerrpc.NewClient(opts.Endpoint, programID), clientOpts...)
}

func runInspector(ctx context.Context, client *ssclient.Client, opts *options) error {
	logging.Logger.Info("starting inspector",
		zap.String("endpoint", opts.Endpoint),
		zap.String("program", opts.ProgramID))

	in := inspector.New(client,
		inspector.WithPageSize(opts.Run.PageSize),
		inspector.WithScanInterval(opts.Run.ScanInterval),
		inspector.WithRetryDelay(opts.Run.RetryDelay),
	)
	if err := in.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	logging.Logger.Info("inspector stopped")
	return nil
}

func printStats(ctx context.Context, client *ssclient.Client) error {
	stats, err := inspector.CollectStats(ctx, client, client.MustCurrentTime(ctx))
	if err != nil {
		return err
	}

	logging.Logger.Info("stream stats",
		zap.Uint64("at", stats.At),
		zap.Int("total", stats.Total),
		zap.Int("prepaid", stats.Prepaid),
		zap.Int("active", stats.Active),
		zap.Int("paused", stats.Paused),
		zap.Int("stopped", stats.Stopped),
		zap.Int("insolvent", stats.Insolvent))
	return nil
}

func run() error {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	client, err := newClient(&opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch parser.Active.Name {
	case "stats":
		return printStats(ctx, client)
	default:
		return runInspector(ctx, client, &opts)
	}
}

func main() {
	defer func() {
		_ = logging.Logger.Sync()
	}()

	if err := run(); err != nil {
		logging.Logger.Error("inspector failed", zap.Error(err))
		os.Exit(1)
	}
}
