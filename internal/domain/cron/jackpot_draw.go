package cron

import (
	"context"
	"time"

	"github.com/goldenreel/backend/internal/domain"
)

// JackpotDrawCronJob periodically looks for jackpot pools whose draw
// time has passed and runs their draws. The pool status transition
// keeps concurrent instances from racing, so running this job on more
// than one process is safe.
type JackpotDrawCronJob struct {
	jackpotDomain domain.JackpotDomain
	checkInterval time.Duration
}

func NewJackpotDrawCronJob(
	jackpotDomain domain.JackpotDomain, checkInterval time.Duration,
) *JackpotDrawCronJob {
	return &JackpotDrawCronJob{
		jackpotDomain: jackpotDomain,
		checkInterval: checkInterval,
	}
}

func (job *JackpotDrawCronJob) Do(ctx context.Context) {
	job.jackpotDomain.ExecuteDueDraws(ctx)
}

func (job *JackpotDrawCronJob) RunNow() bool {
	return true
}

func (job *JackpotDrawCronJob) Next() time.Time {
	return time.Now().Add(job.checkInterval)
}
