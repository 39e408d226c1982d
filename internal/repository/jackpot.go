package repository

import (
	"context"
	"time"

	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JackpotRepository interface {
	CreatePool(ctx context.Context, pool *entity.JackpotPool) error
	GetPoolByID(ctx context.Context, id string) (*entity.JackpotPool, error)
	GetPoolByName(ctx context.Context, name string) (*entity.JackpotPool, error)
	GetPools(ctx context.Context) ([]entity.JackpotPool, error)
	GetActivePoolByCurrency(ctx context.Context, currency string) (*entity.JackpotPool, error)
	GetActivePoolByCurrencyForUpdate(ctx context.Context, currency string) (*entity.JackpotPool, error)
	GetDuePools(ctx context.Context, now time.Time) ([]entity.JackpotPool, error)
	GetDrawingPools(ctx context.Context) ([]entity.JackpotPool, error)
	CheckAndStartDrawing(ctx context.Context, poolID string) error
	CheckAndFinishDrawing(ctx context.Context, poolID string, nextDrawAt time.Time) error
	SetNextDrawAt(ctx context.Context, poolID string, nextDrawAt time.Time) error
	AddContribution(ctx context.Context, poolID string, amount decimal.Decimal) error
	CheckAndAdvanceTicketSequence(ctx context.Context, poolID string, fromIssued, count int64) error

	CreatePrizeTier(ctx context.Context, tier *entity.PrizeTier) error
	GetPrizeTiers(ctx context.Context, poolID string) ([]entity.PrizeTier, error)

	CreateTickets(ctx context.Context, tickets []entity.JackpotTicket) error
	GetEligibleTickets(ctx context.Context, poolID string) ([]entity.JackpotTicket, error)
	CountEligibleTickets(ctx context.Context, poolID string) (int64, error)
	MarkTicketsConsumed(ctx context.Context, poolID string) error

	CreateDraw(ctx context.Context, draw *entity.JackpotDraw) error
	GetDrawByID(ctx context.Context, id string) (*entity.JackpotDraw, error)
	GetLastDrawByPool(ctx context.Context, poolID string) (*entity.JackpotDraw, error)
	GetDrawsByPool(ctx context.Context, poolID string, offset, limit int) ([]entity.JackpotDraw, error)

	CreateWinners(ctx context.Context, winners []entity.JackpotWinner) error
	GetWinnersByDrawID(ctx context.Context, drawID string) ([]entity.JackpotWinner, error)
	GetUncreditedWinners(ctx context.Context, drawID string) ([]entity.JackpotWinner, error)
	CountUncreditedWinners(ctx context.Context, drawID string) (int64, error)
	CheckAndMarkCredited(ctx context.Context, winnerID, transactionID string) error
}

type jackpotRepository struct{}

func NewJackpotRepository() *jackpotRepository {
	return &jackpotRepository{}
}

func (r *jackpotRepository) CreatePool(ctx context.Context, pool *entity.JackpotPool) error {
	return xcontext.DB(ctx).Create(pool).Error
}

func (r *jackpotRepository) GetPoolByID(ctx context.Context, id string) (*entity.JackpotPool, error) {
	var result entity.JackpotPool
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *jackpotRepository) GetPoolByName(ctx context.Context, name string) (*entity.JackpotPool, error) {
	var result entity.JackpotPool
	if err := xcontext.DB(ctx).Take(&result, "name=?", name).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *jackpotRepository) GetPools(ctx context.Context) ([]entity.JackpotPool, error) {
	var result []entity.JackpotPool
	if err := xcontext.DB(ctx).Order("name ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jackpotRepository) GetActivePoolByCurrency(
	ctx context.Context, currency string,
) (*entity.JackpotPool, error) {
	var result entity.JackpotPool
	err := xcontext.DB(ctx).
		Take(&result, "currency=? AND status=?", currency, entity.JackpotPoolActive).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetActivePoolByCurrencyForUpdate locks the pool row until the
// enclosing transaction commits, serializing ticket issuance.
func (r *jackpotRepository) GetActivePoolByCurrencyForUpdate(
	ctx context.Context, currency string,
) (*entity.JackpotPool, error) {
	var result entity.JackpotPool
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&result, "currency=? AND status=?", currency, entity.JackpotPoolActive).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *jackpotRepository) GetDuePools(
	ctx context.Context, now time.Time,
) ([]entity.JackpotPool, error) {
	var result []entity.JackpotPool
	err := xcontext.DB(ctx).
		Where("status=? AND next_draw_at<=?", entity.JackpotPoolActive, now).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jackpotRepository) GetDrawingPools(ctx context.Context) ([]entity.JackpotPool, error) {
	var result []entity.JackpotPool
	err := xcontext.DB(ctx).
		Where("status=?", entity.JackpotPoolDrawing).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CheckAndStartDrawing flips the pool from active to drawing. Exactly
// one caller wins; the rest get gorm.ErrRecordNotFound.
func (r *jackpotRepository) CheckAndStartDrawing(ctx context.Context, poolID string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.JackpotPool{}).
		Where("id=? AND status=?", poolID, entity.JackpotPoolActive).
		Update("status", entity.JackpotPoolDrawing)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// CheckAndFinishDrawing rolls the pool forward after a completed draw:
// back to the seed amount, next draw number, next schedule, active
// again. Guarded on the drawing status so a stale worker cannot reset
// a pool twice.
func (r *jackpotRepository) CheckAndFinishDrawing(
	ctx context.Context, poolID string, nextDrawAt time.Time,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.JackpotPool{}).
		Where("id=? AND status=?", poolID, entity.JackpotPoolDrawing).
		Updates(map[string]interface{}{
			"current_amount": gorm.Expr("seed_amount"),
			"draw_number":    gorm.Expr("draw_number+?", 1),
			"next_draw_at":   nextDrawAt,
			"status":         entity.JackpotPoolActive,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// SetNextDrawAt reschedules a pool without touching its funds, used
// when a due pool has no tickets to draw from.
func (r *jackpotRepository) SetNextDrawAt(
	ctx context.Context, poolID string, nextDrawAt time.Time,
) error {
	return xcontext.DB(ctx).
		Model(&entity.JackpotPool{}).
		Where("id=?", poolID).
		Update("next_draw_at", nextDrawAt).Error
}

func (r *jackpotRepository) AddContribution(
	ctx context.Context, poolID string, amount decimal.Decimal,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.JackpotPool{}).
		Where("id=?", poolID).
		Update("current_amount", gorm.Expr("current_amount+?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// CheckAndAdvanceTicketSequence reserves the ticket number range
// (fromIssued, fromIssued+count] by advancing the issued counter only
// if no one else advanced it first. On gorm.ErrRecordNotFound the
// caller re-reads the pool and retries with the fresh counter.
func (r *jackpotRepository) CheckAndAdvanceTicketSequence(
	ctx context.Context, poolID string, fromIssued, count int64,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.JackpotPool{}).
		Where("id=? AND issued_tickets=?", poolID, fromIssued).
		Update("issued_tickets", gorm.Expr("issued_tickets+?", count))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *jackpotRepository) CreatePrizeTier(ctx context.Context, tier *entity.PrizeTier) error {
	return xcontext.DB(ctx).Create(tier).Error
}

func (r *jackpotRepository) GetPrizeTiers(
	ctx context.Context, poolID string,
) ([]entity.PrizeTier, error) {
	var result []entity.PrizeTier
	err := xcontext.DB(ctx).
		Where("jackpot_pool_id=?", poolID).
		Order("tier_rank ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jackpotRepository) CreateTickets(ctx context.Context, tickets []entity.JackpotTicket) error {
	if len(tickets) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(tickets).Error
}

func (r *jackpotRepository) GetEligibleTickets(
	ctx context.Context, poolID string,
) ([]entity.JackpotTicket, error) {
	var result []entity.JackpotTicket
	err := xcontext.DB(ctx).
		Where("jackpot_pool_id=? AND draw_eligible=?", poolID, true).
		Order("ticket_number ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jackpotRepository) CountEligibleTickets(ctx context.Context, poolID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.JackpotTicket{}).
		Where("jackpot_pool_id=? AND draw_eligible=?", poolID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *jackpotRepository) MarkTicketsConsumed(ctx context.Context, poolID string) error {
	return xcontext.DB(ctx).
		Model(&entity.JackpotTicket{}).
		Where("jackpot_pool_id=? AND draw_eligible=?", poolID, true).
		Update("draw_eligible", false).Error
}

func (r *jackpotRepository) CreateDraw(ctx context.Context, draw *entity.JackpotDraw) error {
	return xcontext.DB(ctx).Create(draw).Error
}

func (r *jackpotRepository) GetDrawByID(ctx context.Context, id string) (*entity.JackpotDraw, error) {
	var result entity.JackpotDraw
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *jackpotRepository) GetLastDrawByPool(
	ctx context.Context, poolID string,
) (*entity.JackpotDraw, error) {
	var result entity.JackpotDraw
	err := xcontext.DB(ctx).
		Where("jackpot_pool_id=?", poolID).
		Order("draw_number DESC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *jackpotRepository) GetDrawsByPool(
	ctx context.Context, poolID string, offset, limit int,
) ([]entity.JackpotDraw, error) {
	var result []entity.JackpotDraw
	err := xcontext.DB(ctx).
		Where("jackpot_pool_id=?", poolID).
		Order("draw_number DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jackpotRepository) CreateWinners(ctx context.Context, winners []entity.JackpotWinner) error {
	if len(winners) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(winners).Error
}

func (r *jackpotRepository) GetWinnersByDrawID(
	ctx context.Context, drawID string,
) ([]entity.JackpotWinner, error) {
	var result []entity.JackpotWinner
	err := xcontext.DB(ctx).
		Where("jackpot_draw_id=?", drawID).
		Order("tier ASC, tier_order ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jackpotRepository) GetUncreditedWinners(
	ctx context.Context, drawID string,
) ([]entity.JackpotWinner, error) {
	var result []entity.JackpotWinner
	err := xcontext.DB(ctx).
		Where("jackpot_draw_id=? AND prize_credited=?", drawID, false).
		Order("tier ASC, tier_order ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jackpotRepository) CountUncreditedWinners(ctx context.Context, drawID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.JackpotWinner{}).
		Where("jackpot_draw_id=? AND prize_credited=?", drawID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CheckAndMarkCredited records the ledger transaction that paid the
// prize. Guarded on prize_credited so a resumed draw cannot double
// count a winner already handled.
func (r *jackpotRepository) CheckAndMarkCredited(
	ctx context.Context, winnerID, transactionID string,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.JackpotWinner{}).
		Where("id=? AND prize_credited=?", winnerID, false).
		Updates(map[string]interface{}{
			"prize_credited":          true,
			"credited_transaction_id": transactionID,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
