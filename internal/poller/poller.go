package poller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"newsdesk/internal/aggregator"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Trigger sources recorded on each run
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
)

// RunStatus is the lifecycle state of an ingestion run
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Runner performs one ingestion pass
type Runner interface {
	Run(ctx context.Context, classify bool) (*aggregator.RunStats, error)
}

// Run is the handle of one background ingestion pass
type Run struct {
	ID         string               `json:"id"`
	Trigger    string               `json:"trigger"`
	Classify   bool                 `json:"classify"`
	Status     RunStatus            `json:"status"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
	Stats      *aggregator.RunStats `json:"stats,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Options controls when the poller launches runs on its own
type Options struct {
	// Schedule is a cron spec such as "@every 30m"; empty disables
	// scheduled runs.
	Schedule     string
	RunOnStartup bool
	Classify     bool
}

// Poller owns every background ingestion run. At most one run is in
// flight; triggers arriving meanwhile get the in-flight handle back.
type Poller struct {
	runner    Runner
	opts      Options
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	current   *Run
	last      *Run
	isPolling bool
}

func New(runner Runner, opts Options) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		runner: runner,
		opts:   opts,
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the schedule and optionally launches the startup run
func (p *Poller) Start() error {
	p.mu.Lock()
	if p.isPolling {
		p.mu.Unlock()
		return nil
	}

	if p.opts.Schedule != "" {
		_, err := p.cron.AddFunc(p.opts.Schedule, func() {
			log.Println("Cron triggered: starting scheduled scrape")
			p.Trigger(TriggerSchedule, p.opts.Classify)
		})
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to add cron job: %w", err)
		}
		log.Printf("Starting scrape scheduler with schedule: %s", p.opts.Schedule)
	} else {
		log.Println("Scheduled scraping disabled")
	}

	p.cron.Start()
	p.isPolling = true
	p.mu.Unlock()

	if p.opts.RunOnStartup {
		p.Trigger(TriggerStartup, p.opts.Classify)
	}
	return nil
}

// Stop halts the schedule, cancels the in-flight run and waits for it
func (p *Poller) Stop() {
	// cancel under the lock so no Trigger can pass its ctx check and
	// reach wg.Add once Wait has begun
	p.mu.Lock()
	wasPolling := p.isPolling
	p.isPolling = false
	p.cancel()
	p.mu.Unlock()

	log.Println("Stopping scrape scheduler...")
	if wasPolling {
		<-p.cron.Stop().Done()
	}
	p.wg.Wait()
	log.Println("Scrape scheduler stopped")
}

// Trigger launches a background run and returns its handle. When a run is
// already in flight that run's handle is returned with started false.
func (p *Poller) Trigger(trigger string, classify bool) (run Run, started bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		log.Printf("Scrape %s already in progress, %s trigger ignored", p.current.ID, trigger)
		return *p.current, false
	}
	if p.ctx.Err() != nil {
		log.Printf("Scrape scheduler stopped, %s trigger ignored", trigger)
		return Run{}, false
	}

	r := &Run{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Classify:  classify,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	p.current = r

	log.Printf("Triggering background scrape %s (%s)", r.ID, trigger)
	p.wg.Add(1)
	go p.execute(r)

	return *r, true
}

func (p *Poller) execute(r *Run) {
	defer p.wg.Done()

	stats, err := p.runner.Run(p.ctx, r.Classify)

	p.mu.Lock()
	defer p.mu.Unlock()

	finished := time.Now().UTC()
	r.FinishedAt = &finished
	r.Stats = stats
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		log.Printf("An error occurred during scrape %s: %v", r.ID, err)
	} else {
		r.Status = StatusCompleted
		log.Printf("Scrape %s finished in %v", r.ID, finished.Sub(r.StartedAt).Round(time.Millisecond))
	}

	p.last = r
	p.current = nil
}

// Status returns copies of the in-flight run and the last finished run
func (p *Poller) Status() (current *Run, last *Run) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current != nil {
		c := *p.current
		current = &c
	}
	if p.last != nil {
		l := *p.last
		last = &l
	}
	return current, last
}

// IsPolling reports whether the scheduler is active
func (p *Poller) IsPolling() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isPolling
}

// IsRunning reports whether an ingestion run is in flight
func (p *Poller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current != nil
}
