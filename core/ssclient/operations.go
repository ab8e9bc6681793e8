package ssclient

import (
	"context"

	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/logging"
	"github.com/superstream/sdk-go/core/streamapi"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
	"go.uber.org/zap"
)

// ErrNoResolver is returned by operations that move tokens when no token
// account resolver is configured.
var ErrNoResolver = errors.New("the client has no token account resolver configured")

// ErrNoDeriver is returned by create operations when no address deriver is
// configured.
var ErrNoDeriver = errors.New("the client has no address deriver configured")

func (c *Client) requireMutable() (util.Address, types.TransactionSubmitter, error) {
	signer, err := c.Signer()
	if err != nil {
		return util.ZeroAddress, nil, err
	}
	submitter, err := c.requireSubmitter()
	if err != nil {
		return util.ZeroAddress, nil, err
	}
	return signer, submitter, nil
}

func (c *Client) requireResolver() (types.TokenAccountResolver, error) {
	if c.resolver == nil {
		return nil, ErrNoResolver
	}
	return c.resolver, nil
}

// newSeed picks a fresh seed for a create operation. Wall-clock milliseconds
// make concurrent creates by the same sender land on distinct addresses.
func (c *Client) newSeed() uint64 {
	return uint64(c.clock.Now().UnixMilli())
}

func (c *Client) deriveStream(seed uint64, mint util.Address, name string) (util.Address, error) {
	if c.deriver == nil {
		return util.ZeroAddress, ErrNoDeriver
	}
	address, _, err := c.deriver.StreamAddress(seed, mint, name)
	if err != nil {
		return util.ZeroAddress, errors.WithStack(err)
	}
	return address, nil
}

func (c *Client) create(
	ctx context.Context,
	op types.Operation,
	mint util.Address,
	params streamapi.CreateStreamParams,
	args []any,
) (util.Address, error) {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return util.ZeroAddress, err
	}
	resolver, err := c.requireResolver()
	if err != nil {
		return util.ZeroAddress, err
	}

	seed := c.newSeed()
	streamAddress, err := c.deriveStream(seed, mint, params.Name)
	if err != nil {
		return util.ZeroAddress, err
	}

	signerToken, err := resolver.GetTokenAccount(ctx, mint, signer)
	if err != nil {
		return util.ZeroAddress, errors.WithStack(err)
	}
	escrowToken, err := resolver.AssociatedTokenAddress(mint, streamAddress)
	if err != nil {
		return util.ZeroAddress, errors.WithStack(err)
	}

	err = submitter.Submit(ctx, types.SubmitRequest{
		Operation: op,
		Seed:      seed,
		Name:      params.Name,
		Args:      args,
		Accounts: map[string]util.Address{
			types.AccountStream:      streamAddress,
			types.AccountMint:        mint,
			types.AccountSigner:      signer,
			types.AccountSignerToken: signerToken,
			types.AccountEscrowToken: escrowToken,
		},
	})
	if err != nil {
		return util.ZeroAddress, err
	}

	logging.Logger.Info("stream created",
		zap.String("operation", string(op)),
		zap.Stringer("stream", streamAddress),
		zap.Uint64("seed", seed))
	return streamAddress, nil
}

// CreatePrepaid creates a prepaid stream and transfers its whole lifetime
// amount into escrow up front. It returns the new stream's address.
func (c *Client) CreatePrepaid(
	ctx context.Context,
	mint util.Address,
	params streamapi.CreateStreamParams,
	perms streamapi.PrepaidPermissions,
) (util.Address, error) {
	signer, err := c.Signer()
	if err != nil {
		return util.ZeroAddress, err
	}
	at, err := c.CurrentTime(ctx)
	if err != nil {
		return util.ZeroAddress, err
	}
	if err := streamapi.ValidateCreatePrepaid(at, signer, params); err != nil {
		return util.ZeroAddress, err
	}

	perms = perms.Normalized()
	return c.create(ctx, types.OperationCreatePrepaid, mint, params, []any{
		params.Recipient,
		params.StartsAt,
		params.EndsAt,
		params.InitialAmount,
		params.FlowInterval,
		params.FlowRate,
		perms.SenderCanCancel,
		perms.SenderCanCancelAt,
		perms.AnyoneCanWithdrawForRecipient,
		perms.AnyoneCanWithdrawForRecipientAt,
	})
}

// CreateNonPrepaid creates an unbounded stream funded by topupAmount, which
// must cover the initial amount plus twice the insolvency deposit. It
// returns the new stream's address.
func (c *Client) CreateNonPrepaid(
	ctx context.Context,
	mint util.Address,
	params streamapi.CreateStreamParams,
	perms streamapi.StreamPermissions,
	topupAmount uint64,
) (util.Address, error) {
	signer, err := c.Signer()
	if err != nil {
		return util.ZeroAddress, err
	}
	at, err := c.CurrentTime(ctx)
	if err != nil {
		return util.ZeroAddress, err
	}
	if err := streamapi.ValidateCreateNonPrepaid(at, signer, params, topupAmount); err != nil {
		return util.ZeroAddress, err
	}

	perms = perms.Normalized()
	return c.create(ctx, types.OperationCreateNonPrepaid, mint, params, []any{
		params.Recipient,
		params.StartsAt,
		params.EndsAt,
		params.InitialAmount,
		params.FlowInterval,
		params.FlowRate,
		perms.SenderCanCancel,
		perms.SenderCanCancelAt,
		perms.SenderCanChangeSender,
		perms.SenderCanChangeSenderAt,
		perms.SenderCanPause,
		perms.SenderCanPauseAt,
		perms.RecipientCanResumePauseBySender,
		perms.RecipientCanResumePauseBySenderAt,
		perms.AnyoneCanWithdrawForRecipient,
		perms.AnyoneCanWithdrawForRecipientAt,
		topupAmount,
	})
}

// Cancel cancels the stream, splitting the escrow between the recipient
// (what is owed) and the sender (the rest).
func (c *Client) Cancel(ctx context.Context, s *types.Stream) error {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return err
	}
	resolver, err := c.requireResolver()
	if err != nil {
		return err
	}

	at, err := c.CurrentTime(ctx)
	if err != nil {
		return err
	}
	if err := streamapi.ValidateCancel(s, signer, at); err != nil {
		return err
	}

	senderToken, err := resolver.GetOrCreateTokenAccount(ctx, s.Mint, s.Sender)
	if err != nil {
		return errors.WithStack(err)
	}
	recipientToken, err := resolver.GetOrCreateTokenAccount(ctx, s.Mint, s.Recipient)
	if err != nil {
		return errors.WithStack(err)
	}
	signerToken, err := resolver.GetOrCreateTokenAccount(ctx, s.Mint, signer)
	if err != nil {
		return errors.WithStack(err)
	}
	escrowToken, err := resolver.AssociatedTokenAddress(s.Mint, s.PublicKey)
	if err != nil {
		return errors.WithStack(err)
	}

	return submitter.Submit(ctx, types.SubmitRequest{
		Operation: types.OperationCancel,
		Seed:      s.Seed,
		Name:      s.Name,
		Accounts: map[string]util.Address{
			types.AccountStream:         s.PublicKey,
			types.AccountMint:           s.Mint,
			types.AccountSigner:         signer,
			types.AccountSender:         s.Sender,
			types.AccountSenderToken:    senderToken,
			types.AccountRecipientToken: recipientToken,
			types.AccountSignerToken:    signerToken,
			types.AccountEscrowToken:    escrowToken,
		},
	})
}

// Withdraw moves the withdrawable part of the amount owed from escrow to the
// recipient's token account.
func (c *Client) Withdraw(ctx context.Context, s *types.Stream) error {
	return c.withdraw(ctx, s, nil)
}

// WithdrawAndChangeRecipient withdraws like Withdraw and then hands the
// stream over to newRecipient. Only the current recipient can do this.
func (c *Client) WithdrawAndChangeRecipient(ctx context.Context, s *types.Stream, newRecipient util.Address) error {
	return c.withdraw(ctx, s, &newRecipient)
}

func (c *Client) withdraw(ctx context.Context, s *types.Stream, newRecipient *util.Address) error {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return err
	}
	resolver, err := c.requireResolver()
	if err != nil {
		return err
	}

	at, err := c.CurrentTime(ctx)
	if err != nil {
		return err
	}

	op := types.OperationWithdraw
	var args []any
	if newRecipient != nil {
		op = types.OperationWithdrawAndChangeRecipient
		args = []any{*newRecipient}
		err = streamapi.ValidateWithdrawAndChangeRecipient(s, signer, at, *newRecipient)
	} else {
		err = streamapi.ValidateWithdraw(s, signer, at)
	}
	if err != nil {
		return err
	}

	recipientToken, err := resolver.GetOrCreateTokenAccount(ctx, s.Mint, s.Recipient)
	if err != nil {
		return errors.WithStack(err)
	}
	escrowToken, err := resolver.AssociatedTokenAddress(s.Mint, s.PublicKey)
	if err != nil {
		return errors.WithStack(err)
	}

	return submitter.Submit(ctx, types.SubmitRequest{
		Operation: op,
		Seed:      s.Seed,
		Name:      s.Name,
		Args:      args,
		Accounts: map[string]util.Address{
			types.AccountStream:         s.PublicKey,
			types.AccountMint:           s.Mint,
			types.AccountSigner:         signer,
			types.AccountRecipientToken: recipientToken,
			types.AccountEscrowToken:    escrowToken,
		},
	})
}

// TopupNonPrepaid transfers topupAmount from the signer's token account into
// the stream's escrow.
func (c *Client) TopupNonPrepaid(ctx context.Context, s *types.Stream, topupAmount uint64) error {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return err
	}
	resolver, err := c.requireResolver()
	if err != nil {
		return err
	}

	at, err := c.CurrentTime(ctx)
	if err != nil {
		return err
	}
	if err := streamapi.ValidateTopupNonPrepaid(s, at, topupAmount); err != nil {
		return err
	}

	signerToken, err := resolver.GetTokenAccount(ctx, s.Mint, signer)
	if err != nil {
		return errors.WithStack(err)
	}
	escrowToken, err := resolver.AssociatedTokenAddress(s.Mint, s.PublicKey)
	if err != nil {
		return errors.WithStack(err)
	}

	return submitter.Submit(ctx, types.SubmitRequest{
		Operation: types.OperationTopupNonPrepaid,
		Seed:      s.Seed,
		Name:      s.Name,
		Args:      []any{topupAmount},
		Accounts: map[string]util.Address{
			types.AccountStream:      s.PublicKey,
			types.AccountMint:        s.Mint,
			types.AccountSigner:      signer,
			types.AccountSignerToken: signerToken,
			types.AccountEscrowToken: escrowToken,
		},
	})
}

// ChangeSenderNonPrepaid hands the stream's topup obligation over to
// newSender.
func (c *Client) ChangeSenderNonPrepaid(ctx context.Context, s *types.Stream, newSender util.Address) error {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return err
	}

	at, err := c.CurrentTime(ctx)
	if err != nil {
		return err
	}
	if err := streamapi.ValidateChangeSenderNonPrepaid(s, signer, at, newSender); err != nil {
		return err
	}

	return submitter.Submit(ctx, types.SubmitRequest{
		Operation: types.OperationChangeSenderNonPrepaid,
		Seed:      s.Seed,
		Name:      s.Name,
		Args:      []any{newSender},
		Accounts: map[string]util.Address{
			types.AccountStream: s.PublicKey,
			types.AccountSigner: signer,
		},
	})
}

// PauseNonPrepaid pauses flow payment accrual.
func (c *Client) PauseNonPrepaid(ctx context.Context, s *types.Stream) error {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return err
	}

	at, err := c.CurrentTime(ctx)
	if err != nil {
		return err
	}
	if err := streamapi.ValidatePauseNonPrepaid(s, signer, at); err != nil {
		return err
	}

	return submitter.Submit(ctx, types.SubmitRequest{
		Operation: types.OperationPauseNonPrepaid,
		Seed:      s.Seed,
		Name:      s.Name,
		Accounts: map[string]util.Address{
			types.AccountStream: s.PublicKey,
			types.AccountSigner: signer,
		},
	})
}

// ResumeNonPrepaid resumes flow payment accrual on a paused stream.
func (c *Client) ResumeNonPrepaid(ctx context.Context, s *types.Stream) error {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return err
	}

	at, err := c.CurrentTime(ctx)
	if err != nil {
		return err
	}
	if err := streamapi.ValidateResumeNonPrepaid(s, signer, at); err != nil {
		return err
	}

	return submitter.Submit(ctx, types.SubmitRequest{
		Operation: types.OperationResumeNonPrepaid,
		Seed:      s.Seed,
		Name:      s.Name,
		Accounts: map[string]util.Address{
			types.AccountStream: s.PublicKey,
			types.AccountSigner: signer,
		},
	})
}

// WithdrawExcessTopupNonPrepaidEnded returns the unowed part of the escrow
// and the deposit to the sender after the stream has ended.
func (c *Client) WithdrawExcessTopupNonPrepaidEnded(ctx context.Context, s *types.Stream) error {
	signer, submitter, err := c.requireMutable()
	if err != nil {
		return err
	}
	resolver, err := c.requireResolver()
	if err != nil {
		return err
	}

	at, err := c.CurrentTime(ctx)
	if err != nil {
		return err
	}
	if err := streamapi.ValidateWithdrawExcessTopupNonPrepaidEnded(s, at); err != nil {
		return err
	}

	senderToken, err := resolver.GetOrCreateTokenAccount(ctx, s.Mint, s.Sender)
	if err != nil {
		return errors.WithStack(err)
	}
	escrowToken, err := resolver.AssociatedTokenAddress(s.Mint, s.PublicKey)
	if err != nil {
		return errors.WithStack(err)
	}

	return submitter.Submit(ctx, types.SubmitRequest{
		Operation: types.OperationWithdrawExcessTopup,
		Seed:      s.Seed,
		Name:      s.Name,
		Accounts: map[string]util.Address{
			types.AccountStream:      s.PublicKey,
			types.AccountMint:        s.Mint,
			types.AccountSigner:      signer,
			types.AccountSender:      s.Sender,
			types.AccountSenderToken: senderToken,
			types.AccountEscrowToken: escrowToken,
		},
	})
}
