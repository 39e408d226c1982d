package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/goldenreel/backend/internal/common"
	"github.com/goldenreel/backend/internal/domain/ledger"
	"github.com/goldenreel/backend/internal/entity"
	"github.com/goldenreel/backend/internal/model"
	"github.com/goldenreel/backend/internal/repository"
	"github.com/goldenreel/backend/pkg/crypto"
	"github.com/goldenreel/backend/pkg/errorx"
	"github.com/goldenreel/backend/pkg/pubsub"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/goldenreel/backend/pkg/xredis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type JackpotDomain interface {
	AccrueWager(ctx context.Context, userID, currency string, wager decimal.Decimal) (string, int64, error)
	CacheIssuedTickets(ctx context.Context, poolID, userID string, count int64)
	ExecuteDueDraws(ctx context.Context)

	GetPool(context.Context, *model.GetJackpotPoolRequest) (*model.GetJackpotPoolResponse, error)
	GetPools(context.Context, *model.GetJackpotPoolsRequest) (*model.GetJackpotPoolsResponse, error)
	GetDraws(context.Context, *model.GetJackpotDrawsRequest) (*model.GetJackpotDrawsResponse, error)
	GetWinners(context.Context, *model.GetJackpotWinnersRequest) (*model.GetJackpotWinnersResponse, error)
	GetTicketLeaderboard(context.Context, *model.GetTicketLeaderboardRequest) (*model.GetTicketLeaderboardResponse, error)
	TriggerDraw(context.Context, *model.TriggerJackpotDrawRequest) (*model.TriggerJackpotDrawResponse, error)
	ResumeDraw(context.Context, *model.ResumeJackpotDrawRequest) (*model.ResumeJackpotDrawResponse, error)
}

type jackpotDomain struct {
	jackpotRepo  repository.JackpotRepository
	ledgerEngine *ledger.Engine
	redisClient  xredis.Client
	publisher    pubsub.Publisher
}

func NewJackpotDomain(
	jackpotRepo repository.JackpotRepository,
	ledgerEngine *ledger.Engine,
	redisClient xredis.Client,
	publisher pubsub.Publisher,
) *jackpotDomain {
	return &jackpotDomain{
		jackpotRepo:  jackpotRepo,
		ledgerEngine: ledgerEngine,
		redisClient:  redisClient,
		publisher:    publisher,
	}
}

// AccrueWager rakes a bet into the active pool of its currency and
// issues one ticket per full wager unit. It must run inside the wallet
// callback's store transaction so accrual commits together with the
// debit. Returns the pool id and the number of issued tickets.
func (d *jackpotDomain) AccrueWager(
	ctx context.Context, userID, currency string, wager decimal.Decimal,
) (string, int64, error) {
	pool, err := d.jackpotRepo.GetActivePoolByCurrencyForUpdate(ctx, currency)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, nil
		}

		return "", 0, err
	}

	contribution := wager.Mul(pool.ContributionRate)
	if contribution.IsPositive() {
		if err := d.jackpotRepo.AddContribution(ctx, pool.ID, contribution); err != nil {
			return "", 0, err
		}
	}

	if !pool.WagerPerTicket.IsPositive() {
		return pool.ID, 0, nil
	}

	count := wager.Div(pool.WagerPerTicket).IntPart()
	if count <= 0 {
		return pool.ID, 0, nil
	}

	// The pool row is locked, so the sequence cannot move under us.
	err = d.jackpotRepo.CheckAndAdvanceTicketSequence(ctx, pool.ID, pool.IssuedTickets, count)
	if err != nil {
		return "", 0, err
	}

	tickets := make([]entity.JackpotTicket, 0, count)
	for i := int64(1); i <= count; i++ {
		tickets = append(tickets, entity.JackpotTicket{
			Base:          entity.Base{ID: uuid.NewString()},
			JackpotPoolID: pool.ID,
			UserID:        userID,
			TicketNumber:  pool.IssuedTickets + i,
			DrawEligible:  true,
		})
	}

	if err := d.jackpotRepo.CreateTickets(ctx, tickets); err != nil {
		return "", 0, err
	}

	return pool.ID, count, nil
}

// CacheIssuedTickets mirrors earned ticket counts into the pool
// leaderboard. Advisory only; call it after the accrual committed.
func (d *jackpotDomain) CacheIssuedTickets(ctx context.Context, poolID, userID string, count int64) {
	err := d.redisClient.ZIncrBy(ctx, common.RedisKeyJackpotTickets(poolID), count, userID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache tickets of user %s: %v", userID, err)
	}
}

// ExecuteDueDraws is the scheduler entry point. It alerts on pools
// stuck in the drawing state, then runs a draw for every active pool
// whose next draw time has passed.
func (d *jackpotDomain) ExecuteDueDraws(ctx context.Context) {
	stuck, err := d.jackpotRepo.GetDrawingPools(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check for stuck pools: %v", err)
	}

	for _, pool := range stuck {
		xcontext.Logger(ctx).Errorf(
			"Pool %s is stuck in drawing state, resume or void its last draw manually", pool.Name)
	}

	pools, err := d.jackpotRepo.GetDuePools(ctx, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get due pools: %v", err)
		return
	}

	for i := range pools {
		if _, err := d.runDraw(ctx, &pools[i]); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot draw pool %s: %v", pools[i].Name, err)
		}
	}
}

// runDraw executes one full draw cycle for a pool. Every step leaves a
// durable marker, so a crash at any point is recoverable through
// ResumeDraw without double paying anyone.
func (d *jackpotDomain) runDraw(
	ctx context.Context, pool *entity.JackpotPool,
) (*entity.JackpotDraw, error) {
	startTime := time.Now()

	totalTickets, err := d.jackpotRepo.CountEligibleTickets(ctx, pool.ID)
	if err != nil {
		return nil, err
	}

	if totalTickets == 0 {
		xcontext.Logger(ctx).Infof("Pool %s has no eligible tickets, rescheduling", pool.Name)
		nextDrawAt := time.Now().Add(xcontext.Configs(ctx).Jackpot.DrawInterval)
		if err := d.jackpotRepo.SetNextDrawAt(ctx, pool.ID, nextDrawAt); err != nil {
			return nil, err
		}

		common.PromCounters[common.JackpotDrawTotal].WithLabelValues("no_tickets").Inc()
		return nil, errorx.New(errorx.NoEligibleTickets, "Pool has no eligible tickets")
	}

	// The status transition is the draw mutex: losing it means another
	// process is already drawing this pool.
	if err := d.jackpotRepo.CheckAndStartDrawing(ctx, pool.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Infof("Pool %s is already drawing elsewhere", pool.Name)
			common.PromCounters[common.JackpotDrawTotal].WithLabelValues("skipped").Inc()
			return nil, nil
		}

		return nil, err
	}

	// Re-read after the transition so the draw snapshots the amount no
	// later contribution can change anymore.
	pool, err = d.jackpotRepo.GetPoolByID(ctx, pool.ID)
	if err != nil {
		return nil, err
	}

	draw := &entity.JackpotDraw{
		Base:            entity.Base{ID: uuid.NewString()},
		JackpotPoolID:   pool.ID,
		DrawNumber:      pool.DrawNumber + 1,
		TotalPoolAmount: pool.CurrentAmount,
		RandomSeed:      crypto.RandInt64(),
		DrawnAt:         time.Now(),
	}

	if err := d.selectAndPersistWinners(ctx, pool, draw); err != nil {
		return nil, err
	}

	if err := d.settleDraw(ctx, pool, draw); err != nil {
		return nil, err
	}

	xcontext.Logger(ctx).Infof(
		"Settled draw %d of pool %s: %s over %d winners, %d tickets, took %s",
		draw.DrawNumber, pool.Name, draw.TotalPoolAmount, draw.TotalWinners,
		draw.TotalTickets, time.Since(startTime))

	return draw, nil
}

// selectAndPersistWinners creates the draw record and all its winner
// rows. The draw is committed before the winners so that a crash in
// between leaves a detectable winnerless draw, re-derivable from the
// recorded seed.
func (d *jackpotDomain) selectAndPersistWinners(
	ctx context.Context, pool *entity.JackpotPool, draw *entity.JackpotDraw,
) error {
	tiers, err := d.jackpotRepo.GetPrizeTiers(ctx, pool.ID)
	if err != nil {
		return err
	}

	if len(tiers) == 0 {
		return errorx.New(errorx.NotFound, "Pool has no prize tiers")
	}

	tickets, err := d.jackpotRepo.GetEligibleTickets(ctx, pool.ID)
	if err != nil {
		return err
	}

	// Snapshot taken after the status transition: no contribution or
	// ticket can change the pool anymore, so the recorded totals match
	// the selection set exactly. With fewer tickets than prize
	// positions the draw records the winners it actually has.
	winners := selectWinners(draw, tiers, tickets)
	draw.TotalTickets = int64(len(tickets))
	draw.TotalWinners = len(winners)

	if err := d.jackpotRepo.CreateDraw(ctx, draw); err != nil {
		return err
	}

	if err := d.jackpotRepo.CreateWinners(ctx, winners); err != nil {
		return err
	}

	return nil
}

// selectWinners draws one ticket per prize position uniformly from the
// tickets not yet selected in this draw. The generator is seeded from
// the draw record and the tickets arrive ordered by ticket number, so
// the same draw row always selects the same winners.
func selectWinners(
	draw *entity.JackpotDraw, tiers []entity.PrizeTier, tickets []entity.JackpotTicket,
) []entity.JackpotWinner {
	ticketsByUser := map[string]int64{}
	for _, t := range tickets {
		ticketsByUser[t.UserID]++
	}

	totalTickets := decimal.NewFromInt(int64(len(tickets)))
	hundred := decimal.NewFromInt(100)

	rng := rand.New(rand.NewSource(draw.RandomSeed))
	remaining := make([]entity.JackpotTicket, len(tickets))
	copy(remaining, tickets)

	var winners []entity.JackpotWinner
	for _, tier := range tiers {
		prize := draw.TotalPoolAmount.
			Mul(tier.PoolPercentage).
			Div(hundred).
			Div(decimal.NewFromInt(int64(tier.Positions))).
			Round(2)

		for order := 1; order <= tier.Positions; order++ {
			if len(remaining) == 0 {
				return winners
			}

			idx := rng.Intn(len(remaining))
			ticket := remaining[idx]
			remaining = append(remaining[:idx], remaining[idx+1:]...)

			held := ticketsByUser[ticket.UserID]
			winners = append(winners, entity.JackpotWinner{
				Base:                entity.Base{ID: uuid.NewString()},
				JackpotDrawID:       draw.ID,
				UserID:              ticket.UserID,
				Tier:                tier.Tier,
				TierOrder:           order,
				WinningTicketNumber: ticket.TicketNumber,
				TicketsHeld:         held,
				TotalTicketsInPool:  int64(len(tickets)),
				WinOddsPercentage:   decimal.NewFromInt(held).Mul(hundred).Div(totalTickets).Round(4),
				PrizeAmount:         prize,
			})
		}
	}

	return winners
}

// settleDraw credits every winner and, only once all of them are paid,
// rolls the pool forward. With any winner still unpaid the pool stays
// in drawing state for a later resume.
func (d *jackpotDomain) settleDraw(
	ctx context.Context, pool *entity.JackpotPool, draw *entity.JackpotDraw,
) error {
	d.creditWinners(ctx, pool, draw)

	uncredited, err := d.jackpotRepo.CountUncreditedWinners(ctx, draw.ID)
	if err != nil {
		return err
	}

	if uncredited > 0 {
		common.PromCounters[common.JackpotDrawTotal].WithLabelValues("partial").Inc()
		return errorx.New(errorx.Unavailable,
			"%d winners of draw %d are still unpaid", uncredited, draw.DrawNumber)
	}

	if err := d.rollPoolForward(ctx, pool, draw); err != nil {
		return err
	}

	common.PromCounters[common.JackpotDrawTotal].WithLabelValues("settled").Inc()
	d.publishDrawEvent(ctx, pool, draw)

	return nil
}

// creditWinners pays every unpaid winner of a draw through the ledger.
// The tid is derived from the winner position, so re-running after a
// crash replays as duplicates instead of paying twice. Per-winner
// failures are logged and skipped; the draw stays resumable.
func (d *jackpotDomain) creditWinners(
	ctx context.Context, pool *entity.JackpotPool, draw *entity.JackpotDraw,
) {
	winners, err := d.jackpotRepo.GetUncreditedWinners(ctx, draw.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get winners of draw %s: %v", draw.ID, err)
		return
	}

	for i := range winners {
		if err := d.creditWinner(ctx, pool, draw, &winners[i]); err != nil {
			xcontext.Logger(ctx).Errorf(
				"Cannot credit winner %s/%d of draw %s: %v",
				winners[i].Tier, winners[i].TierOrder, draw.ID, err)
			continue
		}

		common.PromCounters[common.JackpotPrizeCreditedTotal].
			WithLabelValues(string(winners[i].Tier)).Inc()
	}
}

func (d *jackpotDomain) creditWinner(
	ctx context.Context, pool *entity.JackpotPool, draw *entity.JackpotDraw,
	winner *entity.JackpotWinner,
) error {
	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	receipt, err := d.ledgerEngine.Apply(txCtx, ledger.Op{
		TID:      creditTID(draw.ID, winner),
		UserID:   winner.UserID,
		Currency: pool.Currency,
		Type:     entity.TransactionPromotionWin,
		Subtype:  tierSubtype(winner.Tier),
		Amount:   winner.PrizeAmount,
	})
	if err != nil {
		return err
	}

	// A duplicate receipt means the credit committed before a crash
	// that lost the winner update; marking it now closes the gap.
	err = d.jackpotRepo.CheckAndMarkCredited(txCtx, winner.ID, receipt.TransactionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return xcontext.CommitDBTransaction(txCtx)
}

// creditTID derives the idempotency key of a prize payment from the
// winner's position in the draw.
func creditTID(drawID string, winner *entity.JackpotWinner) string {
	return fmt.Sprintf("jackpot:%s:%s:%d", drawID, winner.Tier, winner.TierOrder)
}

func tierSubtype(tier entity.JackpotTier) entity.TransactionSubtype {
	switch tier {
	case entity.TierGrand:
		return entity.SubtypeJackpotGrand
	case entity.TierMajor:
		return entity.SubtypeJackpotMajor
	default:
		return entity.SubtypeJackpotMinor
	}
}

// rollPoolForward consumes the drawn tickets and resets the pool for
// the next cycle. Only called when every winner has been paid.
func (d *jackpotDomain) rollPoolForward(
	ctx context.Context, pool *entity.JackpotPool, draw *entity.JackpotDraw,
) error {
	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	if err := d.jackpotRepo.MarkTicketsConsumed(txCtx, pool.ID); err != nil {
		return err
	}

	nextDrawAt := time.Now().Add(xcontext.Configs(ctx).Jackpot.DrawInterval)
	if err := d.jackpotRepo.CheckAndFinishDrawing(txCtx, pool.ID, nextDrawAt); err != nil {
		return err
	}

	if err := xcontext.CommitDBTransaction(txCtx); err != nil {
		return err
	}

	err := d.redisClient.Del(ctx, common.RedisKeyJackpotTickets(pool.ID))
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot clear ticket cache of pool %s: %v", pool.ID, err)
	}

	return nil
}

func (d *jackpotDomain) publishDrawEvent(
	ctx context.Context, pool *entity.JackpotPool, draw *entity.JackpotDraw,
) {
	winners, err := d.jackpotRepo.GetWinnersByDrawID(ctx, draw.ID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get winners of draw %s: %v", draw.ID, err)
		return
	}

	event := model.JackpotDrawEvent{
		DrawID:          draw.ID,
		PoolID:          pool.ID,
		PoolName:        pool.Name,
		DrawNumber:      draw.DrawNumber,
		TotalPoolAmount: draw.TotalPoolAmount.String(),
		TotalTickets:    draw.TotalTickets,
	}
	for i := range winners {
		event.Winners = append(event.Winners, model.DrawWinnerSummary{
			UserID:      winners[i].UserID,
			Tier:        string(winners[i].Tier),
			TierOrder:   winners[i].TierOrder,
			PrizeAmount: winners[i].PrizeAmount.String(),
		})
	}

	b, err := json.Marshal(event)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot marshal draw event %s: %v", draw.ID, err)
		return
	}

	err = d.publisher.Publish(ctx, model.JackpotDrawTopic, &pubsub.Pack{
		Key: []byte(pool.ID),
		Msg: b,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish draw event %s: %v", draw.ID, err)
	}
}

func (d *jackpotDomain) GetPool(
	ctx context.Context, req *model.GetJackpotPoolRequest,
) (*model.GetJackpotPoolResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a pool name")
	}

	pool, err := d.jackpotRepo.GetPoolByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found pool")
		}

		xcontext.Logger(ctx).Errorf("Cannot get pool %s: %v", req.Name, err)
		return nil, errorx.Unknown
	}

	eligible, err := d.jackpotRepo.CountEligibleTickets(ctx, pool.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count tickets of pool %s: %v", req.Name, err)
		return nil, errorx.Unknown
	}

	return &model.GetJackpotPoolResponse{Pool: model.ConvertJackpotPool(pool, eligible)}, nil
}

func (d *jackpotDomain) GetPools(
	ctx context.Context, req *model.GetJackpotPoolsRequest,
) (*model.GetJackpotPoolsResponse, error) {
	pools, err := d.jackpotRepo.GetPools(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pools: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetJackpotPoolsResponse{Pools: []model.JackpotPool{}}
	for i := range pools {
		eligible, err := d.jackpotRepo.CountEligibleTickets(ctx, pools[i].ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot count tickets of pool %s: %v", pools[i].Name, err)
			return nil, errorx.Unknown
		}

		resp.Pools = append(resp.Pools, model.ConvertJackpotPool(&pools[i], eligible))
	}

	return resp, nil
}

func (d *jackpotDomain) GetDraws(
	ctx context.Context, req *model.GetJackpotDrawsRequest,
) (*model.GetJackpotDrawsResponse, error) {
	if req.PoolName == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a pool name")
	}

	if req.Limit == 0 {
		req.Limit = 20
	}

	if req.Limit < 0 || req.Limit > 100 {
		return nil, errorx.New(errorx.BadRequest, "Invalid limit")
	}

	pool, err := d.jackpotRepo.GetPoolByName(ctx, req.PoolName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found pool")
		}

		xcontext.Logger(ctx).Errorf("Cannot get pool %s: %v", req.PoolName, err)
		return nil, errorx.Unknown
	}

	draws, err := d.jackpotRepo.GetDrawsByPool(ctx, pool.ID, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get draws of pool %s: %v", req.PoolName, err)
		return nil, errorx.Unknown
	}

	resp := &model.GetJackpotDrawsResponse{Draws: []model.JackpotDraw{}}
	for i := range draws {
		resp.Draws = append(resp.Draws, model.ConvertJackpotDraw(&draws[i]))
	}

	return resp, nil
}

func (d *jackpotDomain) GetWinners(
	ctx context.Context, req *model.GetJackpotWinnersRequest,
) (*model.GetJackpotWinnersResponse, error) {
	if req.DrawID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a draw id")
	}

	if _, err := d.jackpotRepo.GetDrawByID(ctx, req.DrawID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found draw")
		}

		xcontext.Logger(ctx).Errorf("Cannot get draw %s: %v", req.DrawID, err)
		return nil, errorx.Unknown
	}

	winners, err := d.jackpotRepo.GetWinnersByDrawID(ctx, req.DrawID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get winners of draw %s: %v", req.DrawID, err)
		return nil, errorx.Unknown
	}

	resp := &model.GetJackpotWinnersResponse{Winners: []model.JackpotWinner{}}
	for i := range winners {
		resp.Winners = append(resp.Winners, model.ConvertJackpotWinner(&winners[i]))
	}

	return resp, nil
}

func (d *jackpotDomain) GetTicketLeaderboard(
	ctx context.Context, req *model.GetTicketLeaderboardRequest,
) (*model.GetTicketLeaderboardResponse, error) {
	if req.PoolName == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a pool name")
	}

	if req.Limit == 0 {
		req.Limit = 10
	}

	if req.Limit < 0 || req.Limit > 100 {
		return nil, errorx.New(errorx.BadRequest, "Invalid limit")
	}

	pool, err := d.jackpotRepo.GetPoolByName(ctx, req.PoolName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found pool")
		}

		xcontext.Logger(ctx).Errorf("Cannot get pool %s: %v", req.PoolName, err)
		return nil, errorx.Unknown
	}

	records, err := d.redisClient.ZRevRangeWithScores(
		ctx, common.RedisKeyJackpotTickets(pool.ID), 0, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get leaderboard of pool %s: %v", req.PoolName, err)
		return nil, errorx.Unknown
	}

	resp := &model.GetTicketLeaderboardResponse{Entries: []model.TicketLeaderboardEntry{}}
	for _, z := range records {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}

		resp.Entries = append(resp.Entries, model.TicketLeaderboardEntry{
			UserID:  member,
			Tickets: int64(z.Score),
		})
	}

	return resp, nil
}

// TriggerDraw runs a draw for a named pool immediately, regardless of
// its schedule. Operator remediation and testing surface.
func (d *jackpotDomain) TriggerDraw(
	ctx context.Context, req *model.TriggerJackpotDrawRequest,
) (*model.TriggerJackpotDrawResponse, error) {
	if req.PoolName == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a pool name")
	}

	pool, err := d.jackpotRepo.GetPoolByName(ctx, req.PoolName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NoActivePool, "Not found pool")
		}

		xcontext.Logger(ctx).Errorf("Cannot get pool %s: %v", req.PoolName, err)
		return nil, errorx.Unknown
	}

	if pool.Status == entity.JackpotPoolDrawing {
		return nil, errorx.New(errorx.DrawInProgress, "Pool is already drawing")
	}

	if pool.Status != entity.JackpotPoolActive {
		return nil, errorx.New(errorx.NoActivePool, "Pool is not active")
	}

	draw, err := d.runDraw(ctx, pool)
	if err != nil {
		errx := errorx.Error{}
		if errors.As(err, &errx) {
			return nil, errx
		}

		xcontext.Logger(ctx).Errorf("Cannot draw pool %s: %v", req.PoolName, err)
		return nil, errorx.Unknown
	}

	if draw == nil {
		return nil, errorx.New(errorx.DrawInProgress, "Pool is already drawing")
	}

	return &model.TriggerJackpotDrawResponse{DrawID: draw.ID}, nil
}

// ResumeDraw recovers a draw interrupted after its record was created:
// it re-derives winners from the recorded seed if none were persisted,
// re-runs crediting for unpaid winners, and rolls the pool forward once
// everyone is paid.
func (d *jackpotDomain) ResumeDraw(
	ctx context.Context, req *model.ResumeJackpotDrawRequest,
) (*model.ResumeJackpotDrawResponse, error) {
	if req.DrawID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a draw id")
	}

	draw, err := d.jackpotRepo.GetDrawByID(ctx, req.DrawID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found draw")
		}

		xcontext.Logger(ctx).Errorf("Cannot get draw %s: %v", req.DrawID, err)
		return nil, errorx.Unknown
	}

	pool, err := d.jackpotRepo.GetPoolByID(ctx, draw.JackpotPoolID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pool of draw %s: %v", req.DrawID, err)
		return nil, errorx.Unknown
	}

	winners, err := d.jackpotRepo.GetWinnersByDrawID(ctx, draw.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get winners of draw %s: %v", req.DrawID, err)
		return nil, errorx.Unknown
	}

	// A winnerless draw crashed between opening and persistence. The
	// tickets are still eligible, so the seeded selection reproduces
	// exactly the winners the original run would have chosen.
	if len(winners) == 0 {
		if pool.Status != entity.JackpotPoolDrawing {
			return nil, errorx.New(errorx.BadRequest, "Pool of this draw is not drawing")
		}

		tiers, err := d.jackpotRepo.GetPrizeTiers(ctx, pool.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get tiers of pool %s: %v", pool.Name, err)
			return nil, errorx.Unknown
		}

		tickets, err := d.jackpotRepo.GetEligibleTickets(ctx, pool.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get tickets of pool %s: %v", pool.Name, err)
			return nil, errorx.Unknown
		}

		if len(tickets) == 0 {
			return nil, errorx.New(errorx.NoEligibleTickets, "Pool has no eligible tickets")
		}

		if err := d.jackpotRepo.CreateWinners(ctx, selectWinners(draw, tiers, tickets)); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot persist winners of draw %s: %v", req.DrawID, err)
			return nil, errorx.Unknown
		}
	}

	before, err := d.jackpotRepo.CountUncreditedWinners(ctx, draw.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count unpaid winners of draw %s: %v", req.DrawID, err)
		return nil, errorx.Unknown
	}

	if before > 0 || pool.Status == entity.JackpotPoolDrawing {
		if err := d.settleDraw(ctx, pool, draw); err != nil {
			errx := errorx.Error{}
			if errors.As(err, &errx) {
				return nil, errx
			}

			xcontext.Logger(ctx).Errorf("Cannot settle draw %s: %v", req.DrawID, err)
			return nil, errorx.Unknown
		}
	}

	after, err := d.jackpotRepo.CountUncreditedWinners(ctx, draw.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count unpaid winners of draw %s: %v", req.DrawID, err)
		return nil, errorx.Unknown
	}

	return &model.ResumeJackpotDrawResponse{CreditedWinners: int(before - after)}, nil
}
