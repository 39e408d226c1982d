package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/goldenreel/backend/internal/common"
	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/internal/model"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/goldenreel/backend/pkg/pubsub"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Failure taxonomy of Apply. InsufficientFunds and
// UnknownReferenceTransaction are business declines and never worth
// retrying. StoreUnavailable is transient; the provider retry with the
// same tid is the recovery protocol. InvariantViolation means the
// stored state itself is wrong and a human has to look.
var (
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrUnknownReferenceTransaction = errors.New("unknown reference transaction")
	ErrStoreUnavailable            = errors.New("store unavailable")
	ErrInvariantViolation          = errors.New("invariant violation")
)

// maxApplyAttempts bounds optimistic retries when the account version
// moved under us between the read and the guarded write.
const maxApplyAttempts = 3

// applySavePoint marks the state of a joined transaction before this
// apply's writes, so losing the unique-tid insert race can shed them
// without poisoning the caller's transaction.
const applySavePoint = "ledger_apply"

// Op is one balance mutation. Amount is the positive magnitude; Type
// decides the direction. For rollbacks the referenced transaction
// decides both and Amount is ignored.
type Op struct {
	TID         string
	UserID      string
	Currency    string
	Type        entity.TransactionType
	Subtype     entity.TransactionSubtype
	Amount      decimal.Decimal
	GameID      string
	ActionID    string
	GameRoundID string
	RollbackTID string
}

// Receipt reports the committed outcome. For a replayed tid, Balance
// is the balance right after the original commit, not the current one.
type Receipt struct {
	TransactionID string
	Balance       decimal.Decimal
	WasDuplicate  bool
}

type Engine struct {
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	publisher       pubsub.Publisher
}

func NewEngine(
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	publisher pubsub.Publisher,
) *Engine {
	return &Engine{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		publisher:       publisher,
	}
}

// Apply commits op exactly once. The account update and the
// transaction insert share one store transaction; a replayed tid
// returns the original receipt without touching anything. Apply joins
// an already-open store transaction on ctx, otherwise it owns one.
func (e *Engine) Apply(ctx context.Context, op Op) (*Receipt, error) {
	if op.TID == "" || op.UserID == "" || op.Currency == "" {
		return nil, ErrInvariantViolation
	}

	if op.Type != entity.TransactionRollback && !op.Amount.IsPositive() {
		return nil, ErrInvariantViolation
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		receipt, retryable, err := e.applyOnce(ctx, op)
		if err != nil {
			if retryable {
				continue
			}

			return nil, err
		}

		if !receipt.WasDuplicate {
			common.PromCounters[common.LedgerTransactionTotal].
				WithLabelValues(string(op.Type), "false").Inc()
		} else {
			common.PromCounters[common.LedgerTransactionTotal].
				WithLabelValues(string(op.Type), "true").Inc()
		}

		return receipt, nil
	}

	xcontext.Logger(ctx).Warnf("Gave up applying %s after %d attempts", op.TID, maxApplyAttempts)
	return nil, ErrStoreUnavailable
}

func (e *Engine) applyOnce(ctx context.Context, op Op) (*Receipt, bool, error) {
	ownTx := !xcontext.HasDBTransaction(ctx)
	txCtx := ctx
	if ownTx {
		txCtx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(txCtx)
	}

	existing, err := e.transactionRepo.GetByTID(txCtx, op.TID)
	if err == nil {
		return &Receipt{
			TransactionID: existing.ID,
			Balance:       existing.BalanceAfter,
			WasDuplicate:  true,
		}, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot check tid %s: %v", op.TID, err)
		return nil, false, ErrStoreUnavailable
	}

	if !ownTx {
		if err := xcontext.DB(txCtx).SavePoint(applySavePoint).Error; err != nil {
			xcontext.Logger(ctx).Errorf("Cannot set savepoint for %s: %v", op.TID, err)
			return nil, false, ErrStoreUnavailable
		}
	}

	account, err := e.lockAccount(txCtx, op.UserID, op.Currency)
	if err != nil {
		return nil, false, err
	}

	if account.Balance.IsNegative() {
		xcontext.Logger(ctx).Errorf(
			"Account %s holds a negative balance %s", account.ID, account.Balance)
		return nil, false, ErrInvariantViolation
	}

	amount, balanceAfter, err := e.settle(txCtx, op, account)
	if err != nil {
		return nil, false, err
	}

	err = e.accountRepo.CheckAndSetBalance(txCtx, account.ID, account.Version, balanceAfter)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Version moved, somebody else committed first. Start over
			// with a fresh read.
			if ownTx {
				xcontext.WithRollbackDBTransaction(txCtx)
			}
			return nil, true, ErrStoreUnavailable
		}

		xcontext.Logger(ctx).Errorf("Cannot update balance of account %s: %v", account.ID, err)
		return nil, false, ErrStoreUnavailable
	}

	record := &entity.Transaction{
		Base:          entity.Base{ID: uuid.NewString()},
		TID:           op.TID,
		UserID:        op.UserID,
		Currency:      op.Currency,
		Type:          op.Type,
		Subtype:       op.Subtype,
		Amount:        amount,
		BalanceBefore: account.Balance,
		BalanceAfter:  balanceAfter,
		GameID:        op.GameID,
		ActionID:      op.ActionID,
	}
	if op.GameRoundID != "" {
		record.GameRoundID = sql.NullString{Valid: true, String: op.GameRoundID}
	}
	if op.RollbackTID != "" {
		record.RollbackTID = sql.NullString{Valid: true, String: op.RollbackTID}
	}

	if err := e.transactionRepo.Create(txCtx, record); err != nil {
		// Likely lost the unique-tid insert race: a twin committed
		// after the duplicate pre-check. Drop this attempt's writes,
		// then re-read past our snapshot; a committed twin turns this
		// into the duplicate path.
		var committed *entity.Transaction
		var readErr error
		if ownTx {
			xcontext.WithRollbackDBTransaction(txCtx)
			committed, readErr = e.transactionRepo.GetByTID(ctx, op.TID)
		} else {
			rollbackErr := xcontext.DB(txCtx).RollbackTo(applySavePoint).Error
			if rollbackErr != nil {
				xcontext.Logger(ctx).Errorf(
					"Cannot roll back to savepoint for %s: %v", op.TID, rollbackErr)
				return nil, false, ErrStoreUnavailable
			}

			committed, readErr = e.transactionRepo.GetByTIDForUpdate(txCtx, op.TID)
		}

		if readErr == nil {
			return &Receipt{
				TransactionID: committed.ID,
				Balance:       committed.BalanceAfter,
				WasDuplicate:  true,
			}, false, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot insert transaction %s: %v", op.TID, err)
		return nil, false, ErrStoreUnavailable
	}

	if ownTx {
		if err := xcontext.CommitDBTransaction(txCtx); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot commit transaction %s: %v", op.TID, err)
			return nil, false, ErrStoreUnavailable
		}
	}

	e.publishEvent(ctx, record)

	return &Receipt{
		TransactionID: record.ID,
		Balance:       balanceAfter,
		WasDuplicate:  false,
	}, false, nil
}

func (e *Engine) lockAccount(ctx context.Context, userID, currency string) (*entity.Account, error) {
	account, err := e.accountRepo.GetByUserCurrencyForUpdate(ctx, userID, currency)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot lock account of user %s: %v", userID, err)
		return nil, ErrStoreUnavailable
	}

	err = e.accountRepo.Upsert(ctx, &entity.Account{
		Base:     entity.Base{ID: uuid.NewString()},
		UserID:   userID,
		Currency: currency,
		Balance:  decimal.Zero,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create account of user %s: %v", userID, err)
		return nil, ErrStoreUnavailable
	}

	account, err = e.accountRepo.GetByUserCurrencyForUpdate(ctx, userID, currency)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot lock account of user %s: %v", userID, err)
		return nil, ErrStoreUnavailable
	}

	return account, nil
}

// settle resolves the signed transaction amount and the resulting
// balance, so that BalanceAfter = BalanceBefore + Amount holds for
// every committed row.
func (e *Engine) settle(
	ctx context.Context, op Op, account *entity.Account,
) (decimal.Decimal, decimal.Decimal, error) {
	switch op.Type {
	case entity.TransactionDebit:
		if account.Balance.LessThan(op.Amount) {
			xcontext.Logger(ctx).Warnf(
				"Declined debit %s: balance %s, requested %s",
				op.TID, account.Balance, op.Amount)
			return decimal.Zero, decimal.Zero, ErrInsufficientFunds
		}

		return op.Amount.Neg(), account.Balance.Sub(op.Amount), nil

	case entity.TransactionCredit, entity.TransactionPromotionWin:
		return op.Amount, account.Balance.Add(op.Amount), nil

	case entity.TransactionRollback:
		ref, err := e.transactionRepo.GetByTID(ctx, op.RollbackTID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Debugf("Unknown rollback reference %s", op.RollbackTID)
				return decimal.Zero, decimal.Zero, ErrUnknownReferenceTransaction
			}

			xcontext.Logger(ctx).Errorf("Cannot read rollback reference %s: %v", op.RollbackTID, err)
			return decimal.Zero, decimal.Zero, ErrStoreUnavailable
		}

		if ref.UserID != op.UserID || ref.Currency != op.Currency {
			xcontext.Logger(ctx).Errorf(
				"Rollback %s references transaction %s of another account", op.TID, ref.TID)
			return decimal.Zero, decimal.Zero, ErrInvariantViolation
		}

		// The inverse of whatever the referenced transaction did to the
		// balance, regardless of its type.
		effect := ref.Amount.Neg()
		balanceAfter := account.Balance.Add(effect)
		if balanceAfter.IsNegative() {
			xcontext.Logger(ctx).Errorf(
				"Rollback %s of %s would drive balance to %s", op.TID, ref.TID, balanceAfter)
			return decimal.Zero, decimal.Zero, ErrInvariantViolation
		}

		return effect, balanceAfter, nil

	default:
		xcontext.Logger(ctx).Errorf("Unsupported transaction type %s", op.Type)
		return decimal.Zero, decimal.Zero, ErrInvariantViolation
	}
}

// publishEvent emits the committed transaction. Best effort, the
// ledger result never depends on the broker.
func (e *Engine) publishEvent(ctx context.Context, record *entity.Transaction) {
	event := model.TransactionEvent{
		TID:      record.TID,
		UserID:   record.UserID,
		Currency: record.Currency,
		Type:     string(record.Type),
		Amount:   record.Amount.String(),
		Balance:  record.BalanceAfter.String(),
	}

	b, err := json.Marshal(event)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot marshal transaction event %s: %v", record.TID, err)
		return
	}

	err = e.publisher.Publish(ctx, model.TransactionTopic, &pubsub.Pack{
		Key: []byte(record.UserID),
		Msg: b,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish transaction event %s: %v", record.TID, err)
	}
}
