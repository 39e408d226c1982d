package model

// Wallet result codes returned to the game provider. Economic failures
// are carried here, not as transport errors.
const (
	WalletResultOK                 = 0
	WalletResultInsufficientFunds  = 1
	WalletResultUnknownTransaction = 2
	WalletResultUnauthorized       = 3
	WalletResultInvalidRequest     = 4
	WalletResultInternalError      = 5
)

const (
	WalletActionBalance = "balance"
	WalletActionDebit   = "debit"
	WalletActionCredit  = "credit"
)

type WalletCallbackRequest struct {
	Action      string `json:"action"`
	Login       string `json:"login"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	TID         string `json:"tid"`
	GameID      string `json:"game_id"`
	ActionID    string `json:"action_id"`
	GameRoundID string `json:"game_round_id"`
	GameDesc    string `json:"game_desc"`
	Rollback    string `json:"rollback"`
}

type WalletCallbackResponse struct {
	Result   int    `json:"result"`
	Balance  string `json:"balance"`
	TID      string `json:"tid"`
	Currency string `json:"currency"`
}

type GetBalanceRequest struct {
	Login    string `json:"login"`
	Currency string `json:"currency"`
}

type GetBalanceResponse struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

type GetTransactionsRequest struct {
	Login  string `json:"login"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

type GetTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}
