package entity

import (
	"database/sql"
	"time"

	"github.com/goldenreel/backend/pkg/enum"
	"github.com/shopspring/decimal"
)

type JackpotPoolStatus string

var (
	JackpotPoolActive  = enum.New(JackpotPoolStatus("active"))
	JackpotPoolDrawing = enum.New(JackpotPoolStatus("drawing"))
	JackpotPoolPaused  = enum.New(JackpotPoolStatus("paused"))
)

type JackpotTier string

var (
	TierGrand = enum.New(JackpotTier("grand"))
	TierMajor = enum.New(JackpotTier("major"))
	TierMinor = enum.New(JackpotTier("minor"))
)

// JackpotPool is a progressive prize fund. The status field doubles as
// the draw mutex: only the process which wins the active->drawing
// transition may run a draw.
type JackpotPool struct {
	Base

	Name     string `gorm:"uniqueIndex;not null"`
	Currency string `gorm:"not null;size:8"`

	CurrentAmount decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`
	SeedAmount    decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`

	// ContributionRate is the fraction of every bet raked into the pool.
	ContributionRate decimal.Decimal `gorm:"type:decimal(8,6);not null;default:0"`

	// WagerPerTicket is the bet volume which earns one ticket.
	WagerPerTicket decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`

	// IssuedTickets is the per-pool ticket sequence; advancing it
	// atomically reserves a numbering range for newly earned tickets.
	IssuedTickets int64 `gorm:"not null;default:0"`

	DrawNumber int64     `gorm:"not null;default:0"`
	NextDrawAt time.Time `gorm:"not null"`

	Status JackpotPoolStatus `gorm:"not null"`
}

// PrizeTier is the ordered prize structure of a pool. The tier total is
// PoolPercentage of the drawn pool amount, split evenly over Positions.
type PrizeTier struct {
	Base

	JackpotPoolID string      `gorm:"uniqueIndex:idx_prize_tiers_pool_rank;not null"`
	JackpotPool   JackpotPool `gorm:"foreignKey:JackpotPoolID"`

	Tier           JackpotTier     `gorm:"not null"`
	TierRank       int             `gorm:"uniqueIndex:idx_prize_tiers_pool_rank;not null"`
	Positions      int             `gorm:"not null"`
	PoolPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
}

type JackpotTicket struct {
	Base

	JackpotPoolID string      `gorm:"uniqueIndex:idx_jackpot_tickets_pool_number;index:idx_jackpot_tickets_pool_eligible;not null"`
	JackpotPool   JackpotPool `gorm:"foreignKey:JackpotPoolID"`

	UserID string `gorm:"index;not null"`
	User   User   `gorm:"foreignKey:UserID"`

	TicketNumber int64 `gorm:"uniqueIndex:idx_jackpot_tickets_pool_number;not null"`

	// DrawEligible flips to false for the whole pool after a draw
	// consumes it; tickets are kept as a historical record.
	DrawEligible bool `gorm:"index:idx_jackpot_tickets_pool_eligible;not null;default:true"`
}

// JackpotDraw is the durable marker of one draw execution. Its random
// seed makes the winner selection re-derivable for audit and recovery.
type JackpotDraw struct {
	Base

	JackpotPoolID string      `gorm:"index;not null"`
	JackpotPool   JackpotPool `gorm:"foreignKey:JackpotPoolID"`

	DrawNumber      int64           `gorm:"not null"`
	TotalPoolAmount decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	TotalTickets    int64           `gorm:"not null"`
	TotalWinners    int             `gorm:"not null"`
	RandomSeed      int64           `gorm:"not null"`
	DrawnAt         time.Time       `gorm:"not null"`
}

type JackpotWinner struct {
	Base

	JackpotDrawID string      `gorm:"uniqueIndex:idx_jackpot_winners_draw_tier_order;not null"`
	JackpotDraw   JackpotDraw `gorm:"foreignKey:JackpotDrawID"`

	UserID string `gorm:"index;not null"`
	User   User   `gorm:"foreignKey:UserID"`

	Tier      JackpotTier `gorm:"uniqueIndex:idx_jackpot_winners_draw_tier_order;not null"`
	TierOrder int         `gorm:"uniqueIndex:idx_jackpot_winners_draw_tier_order;not null"`

	WinningTicketNumber int64           `gorm:"not null"`
	TicketsHeld         int64           `gorm:"not null"`
	TotalTicketsInPool  int64           `gorm:"not null"`
	WinOddsPercentage   decimal.Decimal `gorm:"type:decimal(7,4);not null"`

	PrizeAmount decimal.Decimal `gorm:"type:decimal(24,6);not null"`

	PrizeCredited         bool `gorm:"not null;default:false"`
	CreditedTransactionID sql.NullString
}
