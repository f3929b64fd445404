package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	labserrors "labbook/internal/labs/errors"
	"labbook/internal/labs/repository"
	"labbook/internal/labs/validator"
	"labbook/pkg/config"
	apperrors "labbook/pkg/errors"
	"labbook/pkg/model"
	"labbook/pkg/sanitizer"
)

// Lab registry writes are an administrator concern. Reads are open to any
// authenticated actor so instructors can browse what they may book.
type LabService interface {
	Create(ctx context.Context, actor model.Actor, lab *model.Lab) error
	GetByID(ctx context.Context, id string) (*model.Lab, error)
	List(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Lab, int64, error)
	Update(ctx context.Context, actor model.Actor, id string, update *model.LabUpdate) (*model.Lab, error)
	SetActive(ctx context.Context, actor model.Actor, id string, active bool) (*model.Lab, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type labService struct {
	repo      repository.LabRepository
	validator *validator.LabValidator
	cfg       *config.Config
}

func NewLabService(repo repository.LabRepository, v *validator.LabValidator, cfg *config.Config) LabService {
	return &labService{
		repo:      repo,
		validator: v,
		cfg:       cfg,
	}
}

func (s *labService) Create(ctx context.Context, actor model.Actor, lab *model.Lab) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	lab.Name = sanitizer.NormalizeName(lab.Name)
	lab.Active = true

	if err := s.validator.Validate(lab); err != nil {
		return apperrors.Validation("Lab validation failed", map[string]any{"errors": err.Error()})
	}

	exists, err := s.repo.ExistsByName(ctx, lab.Name)
	if err != nil {
		return apperrors.Internal("Failed to check lab name", err)
	}
	if exists {
		return apperrors.Conflict(fmt.Sprintf("A lab named %q already exists", lab.Name))
	}

	if err := s.repo.Create(ctx, lab); err != nil {
		if errors.Is(err, labserrors.ErrDuplicateName) {
			return apperrors.Conflict(fmt.Sprintf("A lab named %q already exists", lab.Name))
		}
		return apperrors.Internal("Failed to create lab", err)
	}

	s.cfg.Log.Info("Lab created", "lab_id", lab.ID, "name", lab.Name, "created_by", actor.ID)
	return nil
}

func (s *labService) GetByID(ctx context.Context, id string) (*model.Lab, error) {
	return s.findByID(ctx, id)
}

func (s *labService) List(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Lab, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	labs, err := s.repo.FindAll(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list labs", err)
	}
	total, err := s.repo.CountAll(ctx, activeOnly)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count labs", err)
	}
	return labs, total, nil
}

func (s *labService) Update(ctx context.Context, actor model.Actor, id string, update *model.LabUpdate) (*model.Lab, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, apperrors.Validation("Lab update validation failed", map[string]any{"errors": err.Error()})
	}

	existing, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if update.Name != "" {
		merged.Name = sanitizer.NormalizeName(update.Name)
	}
	if update.Capacity != nil {
		merged.Capacity = *update.Capacity
	}
	if update.EquipmentCount != nil {
		merged.EquipmentCount = *update.EquipmentCount
	}

	if merged.Name != existing.Name {
		exists, err := s.repo.ExistsByName(ctx, merged.Name)
		if err != nil {
			return nil, apperrors.Internal("Failed to check lab name", err)
		}
		if exists {
			return nil, apperrors.Conflict(fmt.Sprintf("A lab named %q already exists", merged.Name))
		}
	}

	if err := s.validator.Validate(&merged); err != nil {
		return nil, apperrors.Validation("Lab validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.repo.Update(ctx, id, &merged); err != nil {
		return nil, s.translateLabError(err, id)
	}

	s.cfg.Log.Info("Lab updated", "lab_id", id, "updated_by", actor.ID)
	return &merged, nil
}

// SetActive toggles whether new reservations are accepted. Deactivation
// leaves existing reservations untouched.
func (s *labService) SetActive(ctx context.Context, actor model.Actor, id string, active bool) (*model.Lab, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	lab, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lab.Active == active {
		return lab, nil
	}

	lab.Active = active
	if err := s.repo.Update(ctx, id, lab); err != nil {
		return nil, s.translateLabError(err, id)
	}

	s.cfg.Log.Info("Lab activation changed", "lab_id", id, "active", active, "changed_by", actor.ID)
	return lab, nil
}

func (s *labService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.findByID(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountReservations(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to count lab reservations", err)
	}
	if count > 0 {
		return apperrors.Conflict("Lab has active reservations; deactivate it instead")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateLabError(err, id)
	}

	s.cfg.Log.Info("Lab deleted", "lab_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *labService) findByID(ctx context.Context, id string) (*model.Lab, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Lab ID cannot be empty")
	}

	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLabError(err, id)
	}
	return lab, nil
}

func (s *labService) translateLabError(err error, id string) error {
	switch {
	case errors.Is(err, labserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Lab", id)
	case errors.Is(err, labserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid lab ID format")
	case errors.Is(err, labserrors.ErrDuplicateName):
		return apperrors.Conflict("A lab with that name already exists")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal("Lab operation failed", err)
	}
}

func requireAdmin(actor model.Actor) error {
	if actor.Role != model.RoleAdmin {
		return apperrors.Forbidden("Only administrators can manage labs")
	}
	return nil
}
