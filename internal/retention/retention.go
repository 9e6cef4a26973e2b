package retention

import (
	"context"
	"log"
	"time"

	"github.com/beacon-dev/beacon/db"
	"github.com/beacon-dev/beacon/internal/models"
	"github.com/beacon-dev/beacon/internal/types"
)

const (
	sweepInterval = time.Hour
	maxAge        = 90 * 24 * time.Hour
)

// Sweeper prunes resolved incidents and status-change rows past the retention
// window. It only touches the store and never emits status events, so it can
// never reorder or drop a transition relative to its mutation.
type Sweeper struct {
	ctx    context.Context
	cancel context.CancelFunc
	ticker *time.Ticker
}

func NewSweeper() *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{ctx: ctx, cancel: cancel}
}

// Start runs an immediate sweep and then one per interval until Stop.
func (s *Sweeper) Start() {
	s.ticker = time.NewTicker(sweepInterval)

	go func() {
		s.sweep()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-s.ticker.C:
				s.sweep()
			}
		}
	}()

	log.Println("Retention sweeper started")
}

// Stop cancels the sweep loop.
func (s *Sweeper) Stop() {
	s.cancel()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	log.Println("Retention sweeper stopped")
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().UTC().Add(-maxAge)

	incidents := db.DB.Where("status = ? AND resolved_at < ?", types.IncidentResolved, cutoff).
		Delete(&models.Incident{})
	if incidents.Error != nil {
		log.Printf("Retention sweep of incidents failed: %v", incidents.Error)
	}

	changes := db.DB.Where("changed_at < ?", cutoff).Delete(&models.StatusChange{})
	if changes.Error != nil {
		log.Printf("Retention sweep of status changes failed: %v", changes.Error)
	}

	if incidents.RowsAffected > 0 || changes.RowsAffected > 0 {
		log.Printf("Retention sweep removed %d incidents and %d status changes",
			incidents.RowsAffected, changes.RowsAffected)
	}
}

// Global sweeper instance
var globalSweeper *Sweeper

// Initialize creates and starts the global sweeper.
func Initialize() {
	globalSweeper = NewSweeper()
	globalSweeper.Start()
}

// Shutdown stops the global sweeper.
func Shutdown() {
	if globalSweeper != nil {
		globalSweeper.Stop()
	}
}
