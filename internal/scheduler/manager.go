package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// engineCloser 把 logic.Engine 适配为 RoundCloser
type engineCloser struct {
	engine *logic.Engine
}

func (c engineCloser) ExpiredRounds(ctx context.Context) ([]int64, error) {
	return c.engine.ExpiredRounds(ctx)
}

func (c engineCloser) CloseRound(ctx context.Context, projectId int64) error {
	_, err := c.engine.CloseRound(ctx, projectId)
	return err
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	closer    RoundCloser
	config    config.TaskConfig
	ctx       context.Context
}

// NewManager 创建新的任务管理器，ctx 取消后正在执行的任务随之停止
func NewManager(ctx context.Context, engine *logic.Engine, cfg config.TaskConfig) (*Manager, error) {
	return newManager(ctx, engineCloser{engine: engine}, cfg)
}

func newManager(ctx context.Context, closer RoundCloser, cfg config.TaskConfig) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		closer:    closer,
		config:    cfg,
		ctx:       ctx,
	}, nil
}

// Start 注册任务并启动调度器
func (m *Manager) Start() error {
	if err := m.RegisterJobs(); err != nil {
		return err
	}
	m.scheduler.Start()

	logger.Info("Task manager started successfully")
	return nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() error {
	// 注册投票期到期任务
	return m.RegisterProjectStatusJob()
}

// RegisterProjectStatusJob 注册项目状态更新任务
func (m *Manager) RegisterProjectStatusJob() error {
	job := NewProjectStatusJob(m.closer, time.Duration(m.config.Interval)*time.Second)

	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute, m.ctx),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.GetName(), err)
	}
	return nil
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
