package scheduler

import (
	"context"
	"time"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// RoundCloser 关闭到期投票轮所需的引擎能力
type RoundCloser interface {
	ExpiredRounds(ctx context.Context) ([]int64, error)
	CloseRound(ctx context.Context, projectId int64) error
}

// ProjectStatusJob 投票期结束后强制结束投票轮，推动项目状态
type ProjectStatusJob struct {
	closer   RoundCloser
	interval time.Duration
}

// NewProjectStatusJob 创建项目状态更新任务
func NewProjectStatusJob(closer RoundCloser, interval time.Duration) *ProjectStatusJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProjectStatusJob{
		closer:   closer,
		interval: interval,
	}
}

// GetName 获取任务名称
func (j *ProjectStatusJob) GetName() string {
	return "voting_deadline_closer"
}

// GetSchedule 获取调度配置
func (j *ProjectStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *ProjectStatusJob) Execute(ctx context.Context) {
	ids, err := j.closer.ExpiredRounds(ctx)
	if err != nil {
		logger.Error("Failed to fetch expired voting rounds: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	logger.Info("Closing %d expired voting rounds", len(ids))

	closedCount := 0
	for _, id := range ids {
		if err := j.closer.CloseRound(ctx, id); err != nil {
			// 与最后一票并发时本轮可能已由计票关闭
			if apperr.KindOf(err) == apperr.KindInvalidStateTransition {
				logger.Debug("Skip closing round of project %d: %v", id, err)
				continue
			}
			logger.Error("Failed to close voting round of project %d: %v", id, err)
			continue
		}
		closedCount++
	}

	logger.Info("Voting deadline task completed, closed %d rounds", closedCount)
}
