// Package ssclient is the high-level client of the streaming program. It
// combines a ledger connection with optional signing credentials and exposes
// the read API, the paginated repository and every mutating operation.
package ssclient

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
)

// Credential errors returned by operations that need more than the read-only
// ledger connection.
var (
	ErrNoSigner    = errors.New("the client has no signer address configured")
	ErrNoSubmitter = errors.New("the client has no transaction submitter configured")
)

type Client struct {
	ledger    types.LedgerQuery `validate:"required"`
	deriver   types.AddressDeriver
	resolver  types.TokenAccountResolver
	submitter types.TransactionSubmitter
	signer    util.Address
	hasSigner bool
	clock     clock.Clock
}

type Option func(*Client)

// NewClient builds a client around a ledger connection. A read-only client
// needs nothing else; signing, submission and token account resolution are
// supplied through options when mutating operations are wanted.
func NewClient(ledger types.LedgerQuery, options ...Option) (*Client, error) {
	c := &Client{
		ledger: ledger,
		clock:  clock.NewDefaultClock(),
	}
	for _, option := range options {
		option(c)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	return c, nil
}

func (c *Client) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// WithSigner sets the address whose authority mutating operations are
// validated and submitted under.
func WithSigner(signer util.Address) Option {
	return func(c *Client) {
		c.signer = signer
		c.hasSigner = true
	}
}

// WithSubmitter sets the transaction submitter used by mutating operations.
func WithSubmitter(submitter types.TransactionSubmitter) Option {
	return func(c *Client) {
		c.submitter = submitter
	}
}

// WithTokenAccountResolver sets the resolver used to locate the token
// accounts a transaction touches.
func WithTokenAccountResolver(resolver types.TokenAccountResolver) Option {
	return func(c *Client) {
		c.resolver = resolver
	}
}

// WithAddressDeriver sets the deriver used to compute stream account
// addresses for create operations.
func WithAddressDeriver(deriver types.AddressDeriver) Option {
	return func(c *Client) {
		c.deriver = deriver
	}
}

// WithClock overrides the wall clock, used as a fallback for ledger time and
// as the source of create seeds. Tests inject a mock clock here.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// Signer returns the configured signer address.
func (c *Client) Signer() (util.Address, error) {
	if !c.hasSigner {
		return util.ZeroAddress, ErrNoSigner
	}
	return c.signer, nil
}

// Ledger exposes the underlying ledger connection.
func (c *Client) Ledger() types.LedgerQuery {
	return c.ledger
}

func (c *Client) requireSubmitter() (types.TransactionSubmitter, error) {
	if c.submitter == nil {
		return nil, ErrNoSubmitter
	}
	return c.submitter, nil
}

// CurrentTime returns the ledger time in unix seconds, falling back to the
// local clock when the ledger cannot report it.
func (c *Client) CurrentTime(ctx context.Context) (uint64, error) {
	at, err := c.ledger.CurrentTime(ctx)
	if err == nil {
		return at, nil
	}

	now := c.clock.Now().Unix()
	if now < 0 {
		return 0, errors.WithStack(err)
	}
	return uint64(now), nil
}

// MustCurrentTime is CurrentTime for callers that treat an unreachable
// ledger as fatal.
func (c *Client) MustCurrentTime(ctx context.Context) uint64 {
	at, err := c.CurrentTime(ctx)
	if err != nil {
		panic(err)
	}
	return at
}
