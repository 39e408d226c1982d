package model

import (
	"time"

	"github.com/goldenreel/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func ConvertTransaction(tx *entity.Transaction) Transaction {
	if tx == nil {
		return Transaction{}
	}

	return Transaction{
		ID:            tx.ID,
		TID:           tx.TID,
		UserID:        tx.UserID,
		Currency:      tx.Currency,
		Type:          string(tx.Type),
		Subtype:       string(tx.Subtype),
		Amount:        tx.Amount.String(),
		BalanceBefore: tx.BalanceBefore.String(),
		BalanceAfter:  tx.BalanceAfter.String(),
		GameID:        tx.GameID,
		ActionID:      tx.ActionID,
		GameRoundID:   tx.GameRoundID.String,
		RollbackTID:   tx.RollbackTID.String,
		CreatedAt:     tx.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertJackpotPool(pool *entity.JackpotPool, eligibleTickets int64) JackpotPool {
	if pool == nil {
		return JackpotPool{}
	}

	return JackpotPool{
		ID:               pool.ID,
		Name:             pool.Name,
		Currency:         pool.Currency,
		CurrentAmount:    pool.CurrentAmount.String(),
		SeedAmount:       pool.SeedAmount.String(),
		ContributionRate: pool.ContributionRate.String(),
		WagerPerTicket:   pool.WagerPerTicket.String(),
		IssuedTickets:    pool.IssuedTickets,
		EligibleTickets:  eligibleTickets,
		DrawNumber:       pool.DrawNumber,
		NextDrawAt:       pool.NextDrawAt.Format(DefaultTimeLayout),
		Status:           string(pool.Status),
	}
}

func ConvertJackpotDraw(draw *entity.JackpotDraw) JackpotDraw {
	if draw == nil {
		return JackpotDraw{}
	}

	return JackpotDraw{
		ID:              draw.ID,
		JackpotPoolID:   draw.JackpotPoolID,
		DrawNumber:      draw.DrawNumber,
		TotalPoolAmount: draw.TotalPoolAmount.String(),
		TotalTickets:    draw.TotalTickets,
		TotalWinners:    draw.TotalWinners,
		DrawnAt:         draw.DrawnAt.Format(DefaultTimeLayout),
	}
}

func ConvertJackpotWinner(winner *entity.JackpotWinner) JackpotWinner {
	if winner == nil {
		return JackpotWinner{}
	}

	return JackpotWinner{
		ID:                  winner.ID,
		JackpotDrawID:       winner.JackpotDrawID,
		UserID:              winner.UserID,
		Tier:                string(winner.Tier),
		TierOrder:           winner.TierOrder,
		WinningTicketNumber: winner.WinningTicketNumber,
		TicketsHeld:         winner.TicketsHeld,
		TotalTicketsInPool:  winner.TotalTicketsInPool,
		WinOddsPercentage:   winner.WinOddsPercentage.String(),
		PrizeAmount:         winner.PrizeAmount.String(),
		PrizeCredited:       winner.PrizeCredited,
		CreditedTransaction: winner.CreditedTransactionID.String,
	}
}
