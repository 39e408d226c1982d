package model

var (
	TransactionTopic = "transactions"
	JackpotDrawTopic = "jackpot-draws"
)
