package domain

import (
	"context"
	"errors"
	"strconv"

	"github.com/goldenreel/backend/internal/common"
	"github.com/goldenreel/backend/internal/domain/ledger"
	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/internal/model"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/goldenreel/backend/pkg/errorx"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletDomain interface {
	Callback(context.Context, *model.WalletCallbackRequest) (*model.WalletCallbackResponse, error)
	GetBalance(context.Context, *model.GetBalanceRequest) (*model.GetBalanceResponse, error)
	GetTransactions(context.Context, *model.GetTransactionsRequest) (*model.GetTransactionsResponse, error)
}

type walletDomain struct {
	userRepo        repository.UserRepository
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	gameRoundRepo   repository.GameRoundRepository
	ledgerEngine    *ledger.Engine
	jackpotDomain   JackpotDomain
}

func NewWalletDomain(
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	gameRoundRepo repository.GameRoundRepository,
	ledgerEngine *ledger.Engine,
	jackpotDomain JackpotDomain,
) *walletDomain {
	return &walletDomain{
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		gameRoundRepo:   gameRoundRepo,
		ledgerEngine:    ledgerEngine,
		jackpotDomain:   jackpotDomain,
	}
}

// WalletErrorResponse converts router level failures of the callback
// endpoint into the provider wire shape.
func WalletErrorResponse(err error) *model.WalletCallbackResponse {
	result := model.WalletResultInternalError
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		switch errx.Code {
		case errorx.Unauthenticated, errorx.PermissionDenied:
			result = model.WalletResultUnauthorized
		case errorx.BadRequest:
			result = model.WalletResultInvalidRequest
		}
	}

	return &model.WalletCallbackResponse{Result: result}
}

// Callback is the single provider entry point; the action field selects
// the operation. Every outcome is reported through the result code, the
// returned error is always nil.
func (d *walletDomain) Callback(
	ctx context.Context, req *model.WalletCallbackRequest,
) (*model.WalletCallbackResponse, error) {
	switch req.Action {
	case model.WalletActionBalance:
		return d.balance(ctx, req), nil
	case model.WalletActionDebit:
		return d.debit(ctx, req), nil
	case model.WalletActionCredit:
		return d.credit(ctx, req), nil
	default:
		xcontext.Logger(ctx).Debugf("Unknown wallet action %q", req.Action)
		return d.respond(req, model.WalletResultInvalidRequest, decimal.Zero), nil
	}
}

func (d *walletDomain) balance(
	ctx context.Context, req *model.WalletCallbackRequest,
) *model.WalletCallbackResponse {
	if req.Login == "" || len(req.Currency) != 3 {
		return d.respond(req, model.WalletResultInvalidRequest, decimal.Zero)
	}

	user, err := d.resolveUser(ctx, req.Login)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve user %s: %v", req.Login, err)
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}

	account, err := d.accountRepo.GetByUserCurrency(ctx, user.ID, req.Currency)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get account of %s: %v", req.Login, err)
			return d.respond(req, model.WalletResultInternalError, decimal.Zero)
		}

		err = d.accountRepo.Upsert(ctx, &entity.Account{
			Base:     entity.Base{ID: uuid.NewString()},
			UserID:   user.ID,
			Currency: req.Currency,
			Balance:  decimal.Zero,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create account of %s: %v", req.Login, err)
			return d.respond(req, model.WalletResultInternalError, decimal.Zero)
		}

		return d.respond(req, model.WalletResultOK, decimal.Zero)
	}

	return d.respond(req, model.WalletResultOK, account.Balance)
}

func (d *walletDomain) debit(
	ctx context.Context, req *model.WalletCallbackRequest,
) *model.WalletCallbackResponse {
	amount, ok := d.validateMutation(ctx, req, false)
	if !ok {
		return d.respond(req, model.WalletResultInvalidRequest, decimal.Zero)
	}

	user, err := d.resolveUser(ctx, req.Login)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve user %s: %v", req.Login, err)
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}

	round, err := d.resolveRound(ctx, user.ID, req)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve round %s: %v", req.GameRoundID, err)
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}

	op := ledger.Op{
		TID:      req.TID,
		UserID:   user.ID,
		Currency: req.Currency,
		Type:     entity.TransactionDebit,
		Subtype:  entity.SubtypeBet,
		Amount:   amount,
		GameID:   req.GameID,
		ActionID: req.ActionID,
	}
	if round != nil {
		op.GameRoundID = round.ID
	}

	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	receipt, err := d.ledgerEngine.Apply(txCtx, op)
	if err != nil {
		return d.respondLedgerError(ctx, req, user.ID, err)
	}

	var accruedPool string
	var accruedTickets int64
	if !receipt.WasDuplicate {
		if err := d.recordRoundAction(txCtx, round, receipt.TransactionID, req, amount, true); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot record round action of %s: %v", req.TID, err)
			return d.respond(req, model.WalletResultInternalError, decimal.Zero)
		}

		accruedPool, accruedTickets, err = d.jackpotDomain.AccrueWager(
			txCtx, user.ID, req.Currency, amount)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot accrue wager of %s: %v", req.TID, err)
			return d.respond(req, model.WalletResultInternalError, decimal.Zero)
		}
	}

	if err := xcontext.CommitDBTransaction(txCtx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit debit %s: %v", req.TID, err)
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}

	if accruedTickets > 0 {
		d.jackpotDomain.CacheIssuedTickets(ctx, accruedPool, user.ID, accruedTickets)
	}

	return d.respond(req, model.WalletResultOK, receipt.Balance)
}

func (d *walletDomain) credit(
	ctx context.Context, req *model.WalletCallbackRequest,
) *model.WalletCallbackResponse {
	isRollback := req.Rollback != ""
	amount, ok := d.validateMutation(ctx, req, isRollback)
	if !ok {
		return d.respond(req, model.WalletResultInvalidRequest, decimal.Zero)
	}

	user, err := d.resolveUser(ctx, req.Login)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve user %s: %v", req.Login, err)
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}

	round, err := d.resolveRound(ctx, user.ID, req)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve round %s: %v", req.GameRoundID, err)
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}

	op := ledger.Op{
		TID:      req.TID,
		UserID:   user.ID,
		Currency: req.Currency,
		Type:     entity.TransactionCredit,
		Subtype:  entity.SubtypeWin,
		Amount:   amount,
		GameID:   req.GameID,
		ActionID: req.ActionID,
	}
	if isRollback {
		op.Type = entity.TransactionRollback
		op.Subtype = entity.SubtypeRefund
		op.RollbackTID = req.Rollback
	}
	if round != nil {
		op.GameRoundID = round.ID
	}

	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	receipt, err := d.ledgerEngine.Apply(txCtx, op)
	if err != nil {
		return d.respondLedgerError(ctx, req, user.ID, err)
	}

	if !receipt.WasDuplicate {
		if err := d.recordRoundAction(txCtx, round, receipt.TransactionID, req, amount, false); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot record round action of %s: %v", req.TID, err)
			return d.respond(req, model.WalletResultInternalError, decimal.Zero)
		}

		if round != nil {
			status := entity.GameRoundCompleted
			if isRollback {
				status = entity.GameRoundRolledBack
			}

			if err := d.gameRoundRepo.SetStatus(txCtx, round.ID, status); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot update round %s: %v", round.ID, err)
				return d.respond(req, model.WalletResultInternalError, decimal.Zero)
			}
		}
	}

	if err := xcontext.CommitDBTransaction(txCtx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit credit %s: %v", req.TID, err)
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}

	return d.respond(req, model.WalletResultOK, receipt.Balance)
}

func (d *walletDomain) GetBalance(
	ctx context.Context, req *model.GetBalanceRequest,
) (*model.GetBalanceResponse, error) {
	if req.Login == "" || len(req.Currency) != 3 {
		return nil, errorx.New(errorx.BadRequest, "Require a login and a currency")
	}

	user, err := d.userRepo.GetByWalletLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user %s: %v", req.Login, err)
		return nil, errorx.Unknown
	}

	account, err := d.accountRepo.GetByUserCurrency(ctx, user.ID, req.Currency)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.GetBalanceResponse{
				Balance:  decimal.Zero.String(),
				Currency: req.Currency,
			}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get account of %s: %v", req.Login, err)
		return nil, errorx.Unknown
	}

	return &model.GetBalanceResponse{
		Balance:  account.Balance.String(),
		Currency: req.Currency,
	}, nil
}

func (d *walletDomain) GetTransactions(
	ctx context.Context, req *model.GetTransactionsRequest,
) (*model.GetTransactionsResponse, error) {
	if req.Login == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a login")
	}

	if req.Limit == 0 {
		req.Limit = 50
	}

	if req.Limit < 0 || req.Limit > 100 {
		return nil, errorx.New(errorx.BadRequest, "Invalid limit")
	}

	user, err := d.userRepo.GetByWalletLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user %s: %v", req.Login, err)
		return nil, errorx.Unknown
	}

	transactions, err := d.transactionRepo.GetByUserID(ctx, user.ID, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get transactions of %s: %v", req.Login, err)
		return nil, errorx.Unknown
	}

	resp := &model.GetTransactionsResponse{Transactions: []model.Transaction{}}
	for i := range transactions {
		resp.Transactions = append(resp.Transactions, model.ConvertTransaction(&transactions[i]))
	}

	return resp, nil
}

func (d *walletDomain) validateMutation(
	ctx context.Context, req *model.WalletCallbackRequest, isRollback bool,
) (decimal.Decimal, bool) {
	if req.Login == "" || len(req.Currency) != 3 || req.TID == "" {
		xcontext.Logger(ctx).Debugf("Malformed wallet callback for tid %q", req.TID)
		return decimal.Zero, false
	}

	// The referenced transaction decides the rollback amount, whatever
	// the provider echoed in the request.
	if isRollback {
		return decimal.Zero, true
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		xcontext.Logger(ctx).Debugf("Invalid amount %q for tid %s", req.Amount, req.TID)
		return decimal.Zero, false
	}

	return amount, true
}

func (d *walletDomain) resolveUser(ctx context.Context, login string) (*entity.User, error) {
	user, err := d.userRepo.GetByWalletLogin(ctx, login)
	if err == nil {
		return user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = d.userRepo.Upsert(ctx, &entity.User{
		Base:        entity.Base{ID: uuid.NewString()},
		WalletLogin: login,
		Name:        login,
	})
	if err != nil {
		return nil, err
	}

	return d.userRepo.GetByWalletLogin(ctx, login)
}

func (d *walletDomain) resolveRound(
	ctx context.Context, userID string, req *model.WalletCallbackRequest,
) (*entity.GameRound, error) {
	if req.GameRoundID == "" {
		return nil, nil
	}

	round, err := d.gameRoundRepo.GetByUserRound(ctx, userID, req.GameRoundID)
	if err == nil {
		return round, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = d.gameRoundRepo.Upsert(ctx, &entity.GameRound{
		Base:           entity.Base{ID: uuid.NewString()},
		UserID:         userID,
		RoundReference: req.GameRoundID,
		GameID:         req.GameID,
		Status:         entity.GameRoundActive,
	})
	if err != nil {
		return nil, err
	}

	return d.gameRoundRepo.GetByUserRound(ctx, userID, req.GameRoundID)
}

func (d *walletDomain) recordRoundAction(
	ctx context.Context,
	round *entity.GameRound,
	transactionID string,
	req *model.WalletCallbackRequest,
	amount decimal.Decimal,
	isBet bool,
) error {
	if round == nil {
		return nil
	}

	actionType := entity.TransactionCredit
	if isBet {
		actionType = entity.TransactionDebit
	}
	if req.Rollback != "" {
		actionType = entity.TransactionRollback
	}

	err := d.gameRoundRepo.CreateAction(ctx, &entity.RoundAction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: xcontext.SnowFlake(ctx).Generate().Int64()},
		GameRoundID:   round.ID,
		TransactionID: transactionID,
		ActionID:      req.ActionID,
		ActionType:    actionType,
	})
	if err != nil {
		return err
	}

	switch actionType {
	case entity.TransactionDebit:
		return d.gameRoundRepo.AddBet(ctx, round.ID, amount)
	case entity.TransactionCredit:
		return d.gameRoundRepo.AddWin(ctx, round.ID, amount)
	}

	return nil
}

func (d *walletDomain) respondLedgerError(
	ctx context.Context, req *model.WalletCallbackRequest, userID string, err error,
) *model.WalletCallbackResponse {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return d.respond(req, model.WalletResultInsufficientFunds, d.currentBalance(ctx, userID, req.Currency))
	case errors.Is(err, ledger.ErrUnknownReferenceTransaction):
		return d.respond(req, model.WalletResultUnknownTransaction, d.currentBalance(ctx, userID, req.Currency))
	default:
		return d.respond(req, model.WalletResultInternalError, decimal.Zero)
	}
}

// currentBalance reads the balance for a declined response, best effort.
func (d *walletDomain) currentBalance(ctx context.Context, userID, currency string) decimal.Decimal {
	account, err := d.accountRepo.GetByUserCurrency(ctx, userID, currency)
	if err != nil {
		return decimal.Zero
	}

	return account.Balance
}

func (d *walletDomain) respond(
	req *model.WalletCallbackRequest, result int, balance decimal.Decimal,
) *model.WalletCallbackResponse {
	common.PromCounters[common.WalletCallbackTotal].
		WithLabelValues(req.Action, strconv.Itoa(result)).Inc()

	return &model.WalletCallbackResponse{
		Result:   result,
		Balance:  balance.String(),
		TID:      req.TID,
		Currency: req.Currency,
	}
}
