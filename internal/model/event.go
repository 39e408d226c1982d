package model

// TransactionEvent is published to the transactions topic after every
// non-duplicate ledger commit.
type TransactionEvent struct {
	TID      string `json:"tid"`
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Balance  string `json:"balance"`
}

// JackpotDrawEvent is published to the jackpot draws topic once a draw
// has been fully settled and the pool rolled forward.
type JackpotDrawEvent struct {
	DrawID          string              `json:"draw_id"`
	PoolID          string              `json:"pool_id"`
	PoolName        string              `json:"pool_name"`
	DrawNumber      int64               `json:"draw_number"`
	TotalPoolAmount string              `json:"total_pool_amount"`
	TotalTickets    int64               `json:"total_tickets"`
	Winners         []DrawWinnerSummary `json:"winners"`
}

type DrawWinnerSummary struct {
	UserID      string `json:"user_id"`
	Tier        string `json:"tier"`
	TierOrder   int    `json:"tier_order"`
	PrizeAmount string `json:"prize_amount"`
}
