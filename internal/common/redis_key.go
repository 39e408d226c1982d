package common

import "fmt"

func RedisKeyJackpotTickets(poolID string) string {
	return fmt.Sprintf("jackpottickets:%s", poolID)
}
