// Package fleet applies trip and truck mutations: it authorizes the caller,
// applies the input, recomputes derived profit fields, keeps truck status in
// step with trip status and persists everything in one transaction.
package fleet

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/db"
	"github.com/ukydev/transportpro/internal/events"
	"github.com/ukydev/transportpro/internal/models"
	"github.com/ukydev/transportpro/internal/profit"
)

// maxAttempts bounds optimistic-concurrency retries of one mutation.
const maxAttempts = 3

// DefaultListLimit caps list results when the caller gives no limit.
const DefaultListLimit = 50

// Service handles trips and trucks.
type Service struct {
	trips  db.TripCollection
	trucks db.TruckCollection
	tx     db.Transactor
	events events.Publisher
}

// NewService creates a fleet service. A nil publisher drops events.
func NewService(trips db.TripCollection, trucks db.TruckCollection, tx db.Transactor, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{trips: trips, trucks: trucks, tx: tx, events: publisher}
}

// mutation is one transactional attempt. It records the truck status
// changes it made so they can be published once the attempt commits.
type mutation func(ctx context.Context, changes *[]events.StatusChange) error

// run executes m in a transaction, retrying on stale writes so derived
// fields are always computed from the latest committed state.
func (s *Service) run(ctx context.Context, m mutation) error {
	var changes []events.StatusChange
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			changes = changes[:0]
			return m(ctx, &changes)
		})
		if errors.Is(err, db.ErrVersionConflict) {
			log.WithField("attempt", attempt).Debug("Stale write, retrying")
			continue
		}
		if err != nil {
			return err
		}
		s.publish(ctx, changes)
		return nil
	}
	return apperr.Conflict(0, "record was modified concurrently, please retry")
}

func (s *Service) publish(ctx context.Context, changes []events.StatusChange) {
	for _, change := range changes {
		if err := s.events.PublishStatusChange(ctx, change); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"registration": change.RegistrationNumber,
				"to":           change.To,
			}).Warn("Failed to publish truck status change")
		}
	}
}

// newCode returns a short human reference like TRP-1A2B3C4D.
func newCode(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}

func recomputeTrip(t *models.Trip) {
	t.NetProfit = profit.TripNetProfit(t.CustomerPayment, t.Expenses)
}

func recomputeTruck(t *models.Truck) {
	t.ResaleProfit = profit.TruckResaleProfit(t.PurchasePrice, t.Expenses, t.SalePrice(), t.SaleCommission())
}

func listLimit(limit int64) int64 {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func checkExpenses(e models.ExpenseSet) error {
	for category, amount := range e {
		if amount < 0 {
			return apperr.Validation("expense %s must not be negative", category)
		}
	}
	return nil
}
