package fleet

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/events"
	"github.com/ukydev/transportpro/internal/models"
	"github.com/ukydev/transportpro/internal/profit"
)

// ListTrucks returns trucks matching filter, newest first.
func (s *Service) ListTrucks(ctx context.Context, caller authz.Caller, filter models.TruckFilter) ([]models.Truck, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.ViewInventory); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperr.Validation("invalid truck status %q", filter.Status)
	}
	filter.Limit = listLimit(filter.Limit)
	return s.trucks.FindTrucks(ctx, filter)
}

// AvailableTrucks returns the trucks that can take a trip.
func (s *Service) AvailableTrucks(ctx context.Context, caller authz.Caller) ([]models.Truck, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.ViewInventory); err != nil {
		return nil, err
	}
	return s.trucks.FindTrucks(ctx, models.TruckFilter{Status: models.TruckAvailable})
}

// GetTruck returns one truck.
func (s *Service) GetTruck(ctx context.Context, caller authz.Caller, id string) (*models.Truck, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.ViewInventory); err != nil {
		return nil, err
	}
	return s.trucks.FindTruckByID(ctx, id)
}

// CreateTruck stores a new truck. Registration numbers are unique.
func (s *Service) CreateTruck(ctx context.Context, caller authz.Caller, in models.TruckInput) (*models.Truck, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.AddTrucks); err != nil {
		return nil, err
	}
	if in.RegistrationNumber == nil || strings.TrimSpace(*in.RegistrationNumber) == "" {
		return nil, apperr.Validation("registration number is required")
	}
	if in.Model == nil || strings.TrimSpace(*in.Model) == "" {
		return nil, apperr.Validation("model is required")
	}

	truck := &models.Truck{
		TruckID:   newCode("TRK"),
		Status:    models.TruckAvailable,
		Expenses:  models.ExpenseSet{},
		CreatedBy: caller.UserID,
	}
	if err := applyTruckInput(truck, in); err != nil {
		return nil, err
	}
	if truck.PurchaseDate.IsZero() {
		truck.PurchaseDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	recomputeTruck(truck)

	err := s.run(ctx, func(ctx context.Context, _ *[]events.StatusChange) error {
		if err := s.checkRegistrationFree(ctx, truck); err != nil {
			return err
		}
		return s.trucks.InsertTruck(ctx, truck)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"truck_id":      truck.TruckID,
		"registration":  truck.RegistrationNumber,
		"resale_profit": truck.ResaleProfit,
	}).Info("Truck created")
	return truck, nil
}

// UpdateTruck applies a partial update and recomputes resale profit from
// the stored truck. Moving into maintenance is refused while the truck has
// active trips.
func (s *Service) UpdateTruck(ctx context.Context, caller authz.Caller, id string, in models.TruckInput) (*models.Truck, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.EditTrucks); err != nil {
		return nil, err
	}
	return s.mutateTruck(ctx, id, func(truck *models.Truck) error {
		return applyTruckInput(truck, in)
	})
}

// UpdateTruckStatus changes only the status of a truck.
func (s *Service) UpdateTruckStatus(ctx context.Context, caller authz.Caller, id string, status models.TruckStatus) (*models.Truck, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.EditTrucks); err != nil {
		return nil, err
	}
	return s.mutateTruck(ctx, id, func(truck *models.Truck) error {
		return applyTruckInput(truck, models.TruckInput{Status: &status})
	})
}

func (s *Service) mutateTruck(ctx context.Context, id string, apply func(*models.Truck) error) (*models.Truck, error) {
	var updated *models.Truck
	err := s.run(ctx, func(ctx context.Context, changes *[]events.StatusChange) error {
		truck, err := s.trucks.FindTruckByID(ctx, id)
		if err != nil {
			return err
		}
		prevStatus, prevRegistration := truck.Status, truck.RegistrationNumber

		if err := apply(truck); err != nil {
			return err
		}
		if truck.RegistrationNumber != prevRegistration {
			if err := s.guardActiveTrips(ctx, prevRegistration, "change registration number"); err != nil {
				return err
			}
			if err := s.checkRegistrationFree(ctx, truck); err != nil {
				return err
			}
		}
		if truck.Status == models.TruckMaintenance && prevStatus != models.TruckMaintenance {
			if err := s.guardActiveTrips(ctx, prevRegistration, "move truck to maintenance"); err != nil {
				return err
			}
		}
		recomputeTruck(truck)

		if err := s.trucks.UpdateTruck(ctx, truck); err != nil {
			return err
		}
		if truck.Status != prevStatus {
			*changes = append(*changes, events.StatusChange{
				RegistrationNumber: truck.RegistrationNumber,
				From:               prevStatus,
				To:                 truck.Status,
				Reason:             events.ReasonManual,
				At:                 time.Now(),
			})
		}
		updated = truck
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"truck_id":     updated.TruckID,
		"registration": updated.RegistrationNumber,
		"status":       updated.Status,
	}).Info("Truck updated")
	return updated, nil
}

// DeleteTruck removes a truck that has no active trips.
func (s *Service) DeleteTruck(ctx context.Context, caller authz.Caller, id string) error {
	if err := authz.Require(caller, authz.ModuleInventory, authz.DeleteTrucks); err != nil {
		return err
	}
	return s.run(ctx, func(ctx context.Context, _ *[]events.StatusChange) error {
		truck, err := s.trucks.FindTruckByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.guardActiveTrips(ctx, truck.RegistrationNumber, "delete truck"); err != nil {
			return err
		}
		if err := s.trucks.DeleteTruck(ctx, truck.ID); err != nil {
			return err
		}
		log.WithField("registration", truck.RegistrationNumber).Info("Truck deleted")
		return nil
	})
}

// CalculateTruckProfit is the what-if resale calculator; nothing is stored.
func (s *Service) CalculateTruckProfit(caller authz.Caller, req models.TruckProfitRequest) (profit.Breakdown, error) {
	if err := authz.Require(caller, authz.ModuleInventory, authz.ViewInventory); err != nil {
		return profit.Breakdown{}, err
	}
	return profit.AdHocTruck(req.PurchasePrice, req.Expenses, req.SalePrice, req.Commission)
}

func (s *Service) checkRegistrationFree(ctx context.Context, truck *models.Truck) error {
	existing, err := s.trucks.FindTruckByRegistration(ctx, truck.RegistrationNumber)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != truck.ID {
		return apperr.Conflict(1, "truck with registration number %s already exists", truck.RegistrationNumber)
	}
	return nil
}

// applyTruckInput copies caller-supplied fields onto truck.
func applyTruckInput(truck *models.Truck, in models.TruckInput) error {
	if in.RegistrationNumber != nil {
		reg := models.NormalizeRegistration(*in.RegistrationNumber)
		if !models.ValidRegistration(reg) {
			return apperr.Validation("invalid registration number %q, expected a format like MH12AB1234", reg)
		}
		truck.RegistrationNumber = reg
	}
	if in.Model != nil {
		model := strings.TrimSpace(*in.Model)
		if model == "" {
			return apperr.Validation("model must not be empty")
		}
		truck.Model = model
	}
	if in.ModelYear != nil {
		truck.ModelYear = *in.ModelYear
	}
	if in.Seller != nil {
		truck.Seller = *in.Seller
	}
	if in.PurchaseDate != nil {
		truck.PurchaseDate = in.PurchaseDate.Time
	}
	if price := in.PurchasePrice.Float(); price != nil {
		if *price < 0 {
			return apperr.Validation("purchase price must not be negative")
		}
		truck.PurchasePrice = price
	}
	if in.PurchasePayments != nil {
		truck.PurchasePayments = in.PurchasePayments
	}
	if in.Documents != nil {
		truck.Documents = *in.Documents
	}
	if in.Expenses != nil {
		expenses := in.Expenses.Restrict(models.TruckExpenseCategories)
		if err := checkExpenses(expenses); err != nil {
			return err
		}
		truck.Expenses = expenses
	}
	if in.Sale != nil {
		if p := in.Sale.Price; p != nil && *p < 0 {
			return apperr.Validation("sale price must not be negative")
		}
		if c := in.Sale.Commission; c != nil && *c < 0 {
			return apperr.Validation("commission must not be negative")
		}
		truck.Sale = in.Sale.ToSale()
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return apperr.Validation("invalid truck status %q", *in.Status)
		}
		truck.Status = *in.Status
	}
	return nil
}
