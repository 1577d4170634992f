package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/repository"
	"github.com/pkarbowski/streambill/internal/pkg/billing"
	"github.com/pkarbowski/streambill/internal/pkg/ledger"
	"github.com/pkarbowski/streambill/internal/pkg/metrics/counter"
	"github.com/pkarbowski/streambill/internal/pkg/report"
)

// Manager runs the daily billing sweep: lifecycle transitions for all
// subscriptions, then settlement plus report mail for every verified user
// whose billing day is today. One in-process timer, no distributed
// coordination; the (user, period) unique key keeps a concurrent manual
// settle harmless.
type Manager struct {
	billing *billing.Service
	ledger  *ledger.Service
	users   repository.UserRepository
	reports *report.Sender

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewManager wires a scheduler from a DB handle and a report sender.
func NewManager(db *gorm.DB, reports *report.Sender) *Manager {
	return &Manager{
		billing: billing.NewServiceFromDB(db),
		ledger:  ledger.NewServiceFromDB(db),
		users:   repository.NewUserRepository(db),
		reports: reports,
	}
}

// Start launches the daily worker. Safe to call while running.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.stopCh = make(chan struct{})
	m.running = true

	m.wg.Add(1)
	go m.dailyWorker()

	log.Info("[Scheduler] Started daily billing sweep")
}

// Stop signals the worker and waits for it to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	log.Info("[Scheduler] Stopped")
}

func (m *Manager) dailyWorker() {
	defer m.wg.Done()

	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-m.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			m.RunOnce(time.Now().UTC())
		}
	}
}

// RunOnce executes one full sweep for the given time. Exposed for the
// admin batch endpoint, which shares this code path with the timer.
func (m *Manager) RunOnce(now time.Time) {
	if res, err := m.ledger.Sweep(now); err != nil {
		log.Errorf("[Scheduler] lifecycle sweep failed: %v", err)
	} else if res.Expired > 0 || res.ChangesApplied > 0 {
		log.Infof("[Scheduler] lifecycle sweep: %d cancellations expired, %d plan changes applied",
			res.Expired, res.ChangesApplied)
		if err := counter.AddExpiredCancellations(res.Expired); err != nil {
			log.Warnf("[Scheduler] counter update failed: %v", err)
		}
		if err := counter.AddPlanChanges(res.ChangesApplied); err != nil {
			log.Warnf("[Scheduler] counter update failed: %v", err)
		}
	}

	users, err := m.users.ListBillableByDay(now.Day())
	if err != nil {
		log.Errorf("[Scheduler] listing billable users failed: %v", err)
		return
	}

	for _, user := range users {
		cycle, err := m.billing.Settle(user.ID, now)
		switch {
		case err == nil:
			log.Infof("[Scheduler] settled user %d period %s total %s",
				user.ID, cycle.Period, cycle.TotalPLN.StringFixed(2))
			if err := counter.AddSettledCycle(cycle.Period); err != nil {
				log.Warnf("[Scheduler] counter update failed: %v", err)
			}
			if m.reports != nil {
				// Best effort only; the cycle is already committed.
				if err := m.reports.SendCycleReport(&user, cycle); err != nil {
					log.Warnf("[Scheduler] report mail for user %d failed: %v", user.ID, err)
				}
			}
		case errors.Is(err, billing.ErrAlreadySettled),
			errors.Is(err, billing.ErrNothingToBill),
			errors.Is(err, billing.ErrSetupRequired):
			// Nothing to do for this user today.
		default:
			log.Errorf("[Scheduler] settlement for user %d failed: %v", user.ID, err)
		}
	}
}
