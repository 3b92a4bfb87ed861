package fishermen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/config"
	"github.com/quaidirect/quaidirect-backend/pkg/db"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	"github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/security"
)

// Service defines fisherman account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Fisherman, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Fisherman, error)
	FindByEmail(ctx context.Context, email string) (*models.Fisherman, error)
	ChangePlan(ctx context.Context, id uuid.UUID, plan enums.Plan) error
	MonthlyAllocation(ctx context.Context, fishermanID uuid.UUID) (int, error)
}

// RegisterInput captures a new fisherman account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BoatName  string
	Port      string
	Phone     string
	Plan      enums.Plan
}

type service struct {
	repo     Repository
	password config.PasswordConfig
}

// NewService wires a fisherman service.
func NewService(repo Repository, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fisherman repository required")
	}
	return &service{repo: repo, password: password}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Fisherman, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New(errors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, errors.New(errors.CodeValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, errors.New(errors.CodeValidation, "first and last name are required")
	}
	plan := input.Plan
	if plan == "" {
		plan = enums.PlanDecouverte
	}
	if !plan.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid plan")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "hash password")
	}

	fisherman := &models.Fisherman{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		BoatName:     strings.TrimSpace(input.BoatName),
		Port:         strings.TrimSpace(input.Port),
		Plan:         plan,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		fisherman.Phone = &phone
	}

	if err := s.repo.Create(ctx, fisherman); err != nil {
		if db.IsUniqueViolation(err, "fishermen_email_key") {
			return nil, errors.New(errors.CodeConflict, "an account already exists for this email")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "create fisherman")
	}
	return fisherman, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Fisherman, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "fisherman id is required")
	}
	fisherman, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load fisherman")
	}
	if fisherman == nil {
		return nil, errors.New(errors.CodeNotFound, "fisherman not found")
	}
	return fisherman, nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (*models.Fisherman, error) {
	fisherman, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load fisherman by email")
	}
	return fisherman, nil
}

func (s *service) ChangePlan(ctx context.Context, id uuid.UUID, plan enums.Plan) error {
	if !plan.IsValid() {
		return errors.New(errors.CodeValidation, "invalid plan")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdatePlan(ctx, id, plan); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "update plan")
	}
	return nil
}

// MonthlyAllocation resolves the free message grant for the fisherman's
// current plan. The quota evaluator depends on this.
func (s *service) MonthlyAllocation(ctx context.Context, fishermanID uuid.UUID) (int, error) {
	fisherman, err := s.Get(ctx, fishermanID)
	if err != nil {
		return 0, err
	}
	return fisherman.Plan.MonthlyAllocation(), nil
}
