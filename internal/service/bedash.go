package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
)

const dateLayout = "2006-01-02"

// ListBedash returns the bedash messages of every account the caller can see
func (s *DefaultService) ListBedash(ctx context.Context, caller models.Identity) ([]models.BedashItem, error) {
	users, err := s.ListUsers(ctx, caller)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	var ownerID int64
	if !caller.Role.IsStaff() {
		ownerID = caller.ID
	}
	all, err := s.repo.ListBedash(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing bedash: %w", err)
	}

	items := make([]models.BedashItem, 0, len(all))
	for _, b := range all {
		name, ok := names[b.UserID]
		if !ok {
			continue
		}
		b.UserName = name
		items = append(items, b)
	}
	return items, nil
}

func (s *DefaultService) AddBedash(ctx context.Context, caller models.Identity, req models.AddBedashRequest) (*models.BedashItem, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	form := rules.BedashForm{
		UserID:       req.UserID,
		MaterialType: req.MaterialType,
		Amount:       req.Amount,
		CustomDate:   req.CustomDate,
		TargetDate:   req.TargetDate,
	}
	if err := validationError(rules.ValidateBedashForm(form)); err != nil {
		return nil, err
	}
	user, err := s.visibleUser(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}

	// the validator already checked both layouts
	customDate, _ := time.Parse(dateLayout, req.CustomDate)
	targetDate, _ := time.Parse(dateLayout, req.TargetDate)

	normalized := form.Request()
	item := &models.BedashItem{
		UserID:        user.ID,
		MaterialType:  normalized.MaterialType,
		Amount:        req.Amount,
		RemainingTons: rules.Tons(req.Amount),
		Status:        models.BedashPending,
		CustomDate:    &customDate,
		TargetDate:    targetDate,
	}
	if err := s.repo.CreateBedash(ctx, item); err != nil {
		return nil, fmt.Errorf("error creating bedash: %w", err)
	}
	item.UserName = user.Name
	return item, nil
}

// ConfirmBedash completes a pending message and stamps the confirmation time.
// The owner or any staff member who can see the owner may confirm.
func (s *DefaultService) ConfirmBedash(ctx context.Context, caller models.Identity, id int64) (*models.BedashItem, error) {
	item, err := s.repo.GetBedash(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting bedash: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("bedash %d: %w", id, ErrNotFound)
	}
	if item.UserID != caller.ID {
		if err := requireStaff(caller); err != nil {
			return nil, err
		}
	}
	owner, err := s.visibleUser(ctx, caller, item.UserID)
	if err != nil {
		return nil, err
	}
	if !item.Status.CanAdvanceTo(models.BedashCompleted) {
		return nil, fmt.Errorf("bedash %d is %s: %w", item.ID, item.Status, ErrInvalidTransition)
	}

	from := item.Status
	now := s.now()
	item.Status = models.BedashCompleted
	item.ConfirmedAt = &now
	if err := s.repo.UpdateBedash(ctx, item, from); err != nil {
		return nil, writeError("confirming", "bedash", item.ID, err)
	}
	item.UserName = owner.Name
	return item, nil
}
