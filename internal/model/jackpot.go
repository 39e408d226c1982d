package model

type GetJackpotPoolRequest struct {
	Name string `json:"name"`
}

type GetJackpotPoolResponse struct {
	Pool JackpotPool `json:"pool"`
}

type GetJackpotPoolsRequest struct{}

type GetJackpotPoolsResponse struct {
	Pools []JackpotPool `json:"pools"`
}

type GetJackpotDrawsRequest struct {
	PoolName string `json:"pool_name"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

type GetJackpotDrawsResponse struct {
	Draws []JackpotDraw `json:"draws"`
}

type GetJackpotWinnersRequest struct {
	DrawID string `json:"draw_id"`
}

type GetJackpotWinnersResponse struct {
	Winners []JackpotWinner `json:"winners"`
}

type GetTicketLeaderboardRequest struct {
	PoolName string `json:"pool_name"`
	Limit    int    `json:"limit"`
}

type GetTicketLeaderboardResponse struct {
	Entries []TicketLeaderboardEntry `json:"entries"`
}

type TriggerJackpotDrawRequest struct {
	PoolName string `json:"pool_name"`
}

type TriggerJackpotDrawResponse struct {
	DrawID string `json:"draw_id"`
}

type ResumeJackpotDrawRequest struct {
	DrawID string `json:"draw_id"`
}

type ResumeJackpotDrawResponse struct {
	CreditedWinners int `json:"credited_winners"`
}
