package types

import (
	"context"

	"github.com/superstream/sdk-go/core/util"
)

// LedgerQuery is the read side of the remote ledger. Implementations wrap an
// RPC connection; the SDK itself never opens sockets.
type LedgerQuery interface {
	// GetAccount fetches the raw data of one account. A missing account is
	// reported as (nil, nil).
	GetAccount(ctx context.Context, address util.Address) ([]byte, error)
	// GetMultipleAccounts fetches raw data for a batch of accounts. The
	// result has the same length and order as addresses; missing accounts
	// are nil entries.
	GetMultipleAccounts(ctx context.Context, addresses []util.Address) ([][]byte, error)
	// GetProgramAccounts fetches the addresses and raw data of all program
	// accounts matching every given byte-equality filter.
	GetProgramAccounts(ctx context.Context, filters []MemcmpFilter) ([]util.Address, [][]byte, error)
	// GetProgramAccountAddresses is GetProgramAccounts without the account
	// data, for cheap snapshotting of large sets.
	GetProgramAccountAddresses(ctx context.Context, filters []MemcmpFilter) ([]util.Address, error)
	// CurrentTime returns the current ledger time in unix seconds. The value
	// is monotonically non-decreasing across calls.
	CurrentTime(ctx context.Context) (uint64, error)
}

// Operation names a state-changing instruction of the streaming program.
type Operation string

const (
	OperationCreatePrepaid              Operation = "create_prepaid"
	OperationCreateNonPrepaid           Operation = "create_non_prepaid"
	OperationCancel                     Operation = "cancel"
	OperationWithdrawExcessTopup        Operation = "withdraw_excess_topup_non_prepaid_ended"
	OperationTopupNonPrepaid            Operation = "topup_non_prepaid"
	OperationChangeSenderNonPrepaid     Operation = "change_sender_non_prepaid"
	OperationWithdraw                   Operation = "withdraw"
	OperationWithdrawAndChangeRecipient Operation = "withdraw_and_change_recipient"
	OperationPauseNonPrepaid            Operation = "pause_non_prepaid"
	OperationResumeNonPrepaid           Operation = "resume_non_prepaid"
)

// Account roles named in a SubmitRequest.
const (
	AccountStream         = "stream"
	AccountSender         = "sender"
	AccountMint           = "mint"
	AccountSigner         = "signer"
	AccountSignerToken    = "signer_token"
	AccountSenderToken    = "sender_token"
	AccountRecipientToken = "recipient_token"
	AccountEscrowToken    = "escrow_token"
)

// SubmitRequest is one transaction to be signed, submitted and confirmed by
// a TransactionSubmitter. Seed and Name identify the stream; Args carries
// the operation-specific argument tuple in instruction order.
type SubmitRequest struct {
	Operation Operation
	Seed      uint64
	Name      string
	Args      []any
	Accounts  map[string]util.Address
}

// TransactionSubmitter signs, submits and confirms transactions against the
// streaming program. On-chain rejections are surfaced as *ProtocolError;
// anything else is a transport error.
type TransactionSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) error
}

// TokenAccountResolver derives and materializes the deterministic
// token-holding account for a (mint, owner) pair.
type TokenAccountResolver interface {
	// AssociatedTokenAddress derives the token account address without any
	// network access.
	AssociatedTokenAddress(mint, owner util.Address) (util.Address, error)
	// GetTokenAccount returns the token account address, failing if the
	// account does not exist on the ledger.
	GetTokenAccount(ctx context.Context, mint, owner util.Address) (util.Address, error)
	// GetOrCreateTokenAccount returns the token account address, creating
	// the account if it does not exist yet.
	GetOrCreateTokenAccount(ctx context.Context, mint, owner util.Address) (util.Address, error)
}

// AddressDeriver derives the deterministic stream account address for a
// (seed, mint, name) tuple.
type AddressDeriver interface {
	StreamAddress(seed uint64, mint util.Address, name string) (util.Address, uint8, error)
}
