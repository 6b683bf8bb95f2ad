package camunda

import (
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"ats-scoring/internal/common/config"
	"ats-scoring/internal/common/logger"
)

// JobHandler is implemented by every scoring worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Pool opens one job worker per task type and closes them together.
type Pool struct {
	client  zbc.Client
	logger  logger.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewPool(client zbc.Client, log logger.Logger) *Pool {
	return &Pool{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled in cfg. It reports whether a worker was opened.
func (p *Pool) Start(taskType string, cfg config.WorkerConfig, handler JobHandler) bool {
	if !cfg.Enabled {
		p.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.workers[taskType]; exists {
		return false
	}

	w := p.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(cfg.MaxJobsActive).
		Timeout(config.GetDuration(cfg.Timeout)).
		Open()
	p.workers[taskType] = w

	p.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": cfg.MaxJobsActive,
		"timeoutMs":     cfg.Timeout,
	})
	return true
}

func (p *Pool) TaskTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.workers))
	for t := range p.workers {
		out = append(out, t)
	}
	return out
}

// Close stops polling and waits for in-flight jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for taskType, w := range p.workers {
		w.Close()
		w.AwaitClose()
		p.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	p.workers = make(map[string]worker.JobWorker)
}
