package model

type Transaction struct {
	ID            string `json:"id"`
	TID           string `json:"tid"`
	UserID        string `json:"user_id"`
	Currency      string `json:"currency"`
	Type          string `json:"type"`
	Subtype       string `json:"subtype"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	GameID        string `json:"game_id"`
	ActionID      string `json:"action_id"`
	GameRoundID   string `json:"game_round_id"`
	RollbackTID   string `json:"rollback_tid"`
	CreatedAt     string `json:"created_at"`
}

type JackpotPool struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Currency         string `json:"currency"`
	CurrentAmount    string `json:"current_amount"`
	SeedAmount       string `json:"seed_amount"`
	ContributionRate string `json:"contribution_rate"`
	WagerPerTicket   string `json:"wager_per_ticket"`
	IssuedTickets    int64  `json:"issued_tickets"`
	EligibleTickets  int64  `json:"eligible_tickets"`
	DrawNumber       int64  `json:"draw_number"`
	NextDrawAt       string `json:"next_draw_at"`
	Status           string `json:"status"`
}

type JackpotDraw struct {
	ID              string `json:"id"`
	JackpotPoolID   string `json:"jackpot_pool_id"`
	DrawNumber      int64  `json:"draw_number"`
	TotalPoolAmount string `json:"total_pool_amount"`
	TotalTickets    int64  `json:"total_tickets"`
	TotalWinners    int    `json:"total_winners"`
	DrawnAt         string `json:"drawn_at"`
}

type JackpotWinner struct {
	ID                   string `json:"id"`
	JackpotDrawID        string `json:"jackpot_draw_id"`
	UserID               string `json:"user_id"`
	Tier                 string `json:"tier"`
	TierOrder            int    `json:"tier_order"`
	WinningTicketNumber  int64  `json:"winning_ticket_number"`
	TicketsHeld          int64  `json:"tickets_held"`
	TotalTicketsInPool   int64  `json:"total_tickets_in_pool"`
	WinOddsPercentage    string `json:"win_odds_percentage"`
	PrizeAmount          string `json:"prize_amount"`
	PrizeCredited        bool   `json:"prize_credited"`
	CreditedTransaction  string `json:"credited_transaction_id"`
}

type TicketLeaderboardEntry struct {
	UserID  string `json:"user_id"`
	Tickets int64  `json:"tickets"`
}
