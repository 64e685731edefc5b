package engine

import (
	"context"

	"github.com/ali-shihab/marketreplay/internal/model"

	"go.uber.org/zap"
)

// BuildJob asks for the schedule of one (symbol, date) source file to be
// built and cached ahead of a simulation run.
type BuildJob struct {
	Symbol     string
	Date       string
	SourcePath string
	Window     model.SessionWindow
}

// BuildPool warms the schedule cache with bounded concurrency.
type BuildPool struct {
	jobQueue    chan BuildJob
	workerCount int
	loader      *ScheduleLoader
	logger      *zap.Logger
}

func NewBuildPool(workerCount int, bufferSize int, loader *ScheduleLoader, logger *zap.Logger) *BuildPool {
	return &BuildPool{
		jobQueue:    make(chan BuildJob, bufferSize),
		workerCount: workerCount,
		loader:      loader,
		logger:      logger,
	}
}

func (p *BuildPool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(ctx, i)
	}
	p.logger.Info("started schedule build pool", zap.Int("workers", p.workerCount))
}

// Submit enqueues a build job, dropping it when the queue is full.
func (p *BuildPool) Submit(job BuildJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		p.logger.Warn("build pool queue full, dropping job",
			zap.String("symbol", job.Symbol), zap.String("date", job.Date))
		return false
	}
}

func (p *BuildPool) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.process(id, job)
		}
	}
}

func (p *BuildPool) process(workerID int, job BuildJob) {
	schedule, err := p.loader.LoadSchedule(job.Symbol, job.Date, job.SourcePath, job.Window)
	if err != nil {
		p.logger.Error("failed to warm schedule cache",
			zap.Int("worker_id", workerID),
			zap.String("symbol", job.Symbol),
			zap.String("date", job.Date),
			zap.Error(err))
		return
	}
	p.logger.Debug("schedule cache warmed",
		zap.Int("worker_id", workerID),
		zap.String("symbol", job.Symbol),
		zap.String("date", job.Date),
		zap.Int("wakeups", schedule.Len()))
}
