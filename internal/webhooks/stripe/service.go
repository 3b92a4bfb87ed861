package stripewebhook

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	pkgerrors "github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

// crediter is the slice of the messaging service the webhook needs.
type crediter interface {
	AddCredits(ctx context.Context, fishermanID uuid.UUID, credits int) error
}

// ServiceParams bundles the webhook service dependencies.
type ServiceParams struct {
	Purchases Repository
	Messaging crediter
	Logger    *logger.Logger
}

// Service turns completed Stripe checkout sessions into paid message credits.
type Service struct {
	purchases Repository
	messaging crediter
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Purchases == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase repo required")
	}
	if params.Messaging == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "messaging service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		purchases: params.Purchases,
		messaging: params.Messaging,
		logg:      params.Logger,
	}, nil
}

// HandleEvent processes one verified Stripe event. Event types other than
// checkout.session.completed are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}

	fishermanID, credits, err := purchaseFromMetadata(session.Metadata)
	if err != nil {
		return err
	}

	purchase := &models.CreditPurchase{
		FishermanID:   fishermanID,
		StripeEventID: event.ID,
		StripeSession: session.ID,
		Credits:       credits,
		AmountCents:   int(session.AmountTotal),
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		if db.IsUniqueViolation(err, "credit_purchases_stripe_event_id_key") {
			s.logg.Warn(ctx, "stripe event "+event.ID+" already credited, skipping")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record credit purchase")
	}

	if err := s.messaging.AddCredits(ctx, fishermanID, credits); err != nil {
		return err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"fisherman_id": fishermanID.String(),
		"credits":      credits,
	}), "credited paid message balance")
	return nil
}

// purchaseFromMetadata reads the checkout metadata our purchase page sets:
// fisherman_id and credits.
func purchaseFromMetadata(metadata map[string]string) (uuid.UUID, int, error) {
	rawID, ok := metadata["fisherman_id"]
	if !ok || rawID == "" {
		return uuid.Nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "fisherman_id metadata missing")
	}
	fishermanID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid fisherman_id metadata")
	}

	rawCredits, ok := metadata["credits"]
	if !ok || rawCredits == "" {
		return uuid.Nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "credits metadata missing")
	}
	credits, err := strconv.Atoi(rawCredits)
	if err != nil || credits <= 0 {
		return uuid.Nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid credits metadata")
	}
	return fishermanID, credits, nil
}
