package services

import (
	"context"

	"github.com/google/logger"
	"github.com/pkg/errors"

	"suilotto/internal/sui"
	"suilotto/internal/sui/txn"
	"suilotto/internal/wallet"
)

// ErrTransactionRejected means the ledger executed the transaction and
// refused it; the wrapped message carries the ledger's reason verbatim.
var ErrTransactionRejected = errors.New("transaction rejected by ledger")

// lotteryModule is the move module every entry function lives in.
const lotteryModule = "lottery"

// Contract identifies the deployed lottery package and the objects its
// entry functions take.
type Contract struct {
	PackageID  string
	AdminCapID string
	ClockID    string
	RandomID   string
}

// ActionOrchestrator builds and submits the four state-mutating
// transactions. Each call is fire-once: no retries, no local suppression
// of races the ledger arbitrates (two admins drawing the same lottery both
// get submitted; the ledger rejects one).
type ActionOrchestrator struct {
	wallet   wallet.Wallet
	client   *sui.Client
	contract Contract
}

// NewActionOrchestrator wires the orchestrator. A nil wallet is allowed
// and turns every operation into ErrWalletUnavailable.
func NewActionOrchestrator(w wallet.Wallet, client *sui.Client, contract Contract) *ActionOrchestrator {
	return &ActionOrchestrator{wallet: w, client: client, contract: contract}
}

// CreateResult reports a lottery creation. LotteryID is empty when the
// transaction went through but the new object could not be identified from
// its effects; funds were committed regardless, so callers must offer
// manual id entry instead of treating that as failure.
type CreateResult struct {
	Digest    string
	LotteryID string
}

// CreateLottery submits create_lottery and then resolves the new shared
// object's id. Submission success does not make the transaction queryable,
// so this is a two-step protocol: submit, wait for indexing, inspect
// effects.
func (a *ActionOrchestrator) CreateLottery(ctx context.Context, ticketPrice uint64, deadline int64) (*CreateResult, error) {
	if a.wallet == nil {
		return nil, wallet.ErrWalletUnavailable
	}
	tx := txn.New()
	tx.MoveCall(a.contract.PackageID, lotteryModule, "create_lottery",
		tx.Object(a.contract.AdminCapID),
		tx.PureU64(ticketPrice),
		tx.PureU64(uint64(deadline)),
		tx.ReadObject(a.contract.ClockID),
	)
	resp, err := a.submit(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Digest: resp.Digest}
	indexed, err := a.client.WaitForTransaction(ctx, resp.Digest)
	if err != nil {
		// The lottery exists; only its id is unknown. Degrade, don't fail.
		logger.Warningf("create %s: effects not readable: %v", resp.Digest, err)
		return result, nil
	}
	result.LotteryID = sharedCreatedObject(indexed.Effects)
	if result.LotteryID == "" {
		logger.Warningf("create %s: no shared object in effects", resp.Digest)
	}
	return result, nil
}

// BuyTickets submits one transaction holding quantity purchase calls, each
// paid with exactly ticketPrice split off the gas coin. The ledger's
// transaction atomicity makes the batch all-or-nothing; bounds and
// affordability beyond quantity > 0 are the ledger's to enforce.
func (a *ActionOrchestrator) BuyTickets(ctx context.Context, lotteryID string, ticketPrice uint64, quantity int) (string, error) {
	if a.wallet == nil {
		return "", wallet.ErrWalletUnavailable
	}
	if quantity <= 0 {
		return "", errors.Errorf("quantity must be positive, got %d", quantity)
	}
	tx := txn.New()
	for i := 0; i < quantity; i++ {
		payment := tx.SplitGas(tx.PureU64(ticketPrice))
		tx.MoveCall(a.contract.PackageID, lotteryModule, "buy_ticket",
			tx.Object(lotteryID),
			payment,
			tx.ReadObject(a.contract.ClockID),
		)
	}
	resp, err := a.submit(ctx, tx)
	if err != nil {
		return "", err
	}
	return resp.Digest, nil
}

// DrawWinner submits draw_winner. Pure dispatch: the randomness and the
// outcome live on chain, and a losing race against another admin surfaces
// as the ledger's rejection.
func (a *ActionOrchestrator) DrawWinner(ctx context.Context, lotteryID string) (string, error) {
	if a.wallet == nil {
		return "", wallet.ErrWalletUnavailable
	}
	tx := txn.New()
	tx.MoveCall(a.contract.PackageID, lotteryModule, "draw_winner",
		tx.Object(lotteryID),
		tx.Object(a.contract.AdminCapID),
		tx.ReadObject(a.contract.RandomID),
		tx.ReadObject(a.contract.ClockID),
	)
	resp, err := a.submit(ctx, tx)
	if err != nil {
		return "", err
	}
	return resp.Digest, nil
}

// ClaimRefund submits claim_refund. Eligibility was only a UI gate; the
// ledger re-checks and may refuse.
func (a *ActionOrchestrator) ClaimRefund(ctx context.Context, lotteryID string) (string, error) {
	if a.wallet == nil {
		return "", wallet.ErrWalletUnavailable
	}
	tx := txn.New()
	tx.MoveCall(a.contract.PackageID, lotteryModule, "claim_refund",
		tx.Object(lotteryID),
		tx.ReadObject(a.contract.ClockID),
	)
	resp, err := a.submit(ctx, tx)
	if err != nil {
		return "", err
	}
	return resp.Digest, nil
}

func (a *ActionOrchestrator) submit(ctx context.Context, tx *txn.Transaction) (*sui.TransactionBlockResponse, error) {
	resp, err := a.wallet.SignAndExecute(ctx, tx)
	if err != nil {
		return nil, err
	}
	if resp.Effects != nil && resp.Effects.Status.Status == "failure" {
		return nil, errors.Wrap(ErrTransactionRejected, resp.Effects.Status.Error)
	}
	return resp, nil
}

// sharedCreatedObject finds the id of the shared-ownership object a
// transaction created, or "" when there is none.
func sharedCreatedObject(effects *sui.TransactionEffects) string {
	if effects == nil {
		return ""
	}
	for _, created := range effects.Created {
		if created.Owner != nil && created.Owner.Shared != nil {
			return created.Reference.ObjectID
		}
	}
	return ""
}
