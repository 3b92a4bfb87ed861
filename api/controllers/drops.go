package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quaidirect/quaidirect-backend/api/responses"
	"github.com/quaidirect/quaidirect-backend/api/validators"
	dropsvc "github.com/quaidirect/quaidirect-backend/internal/drops"
	pkgerrors "github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
)

type createDropRequest struct {
	Title      string    `json:"title"`
	Species    string    `json:"species" validate:"required"`
	Port       string    `json:"port" validate:"required"`
	PricePerKg string    `json:"price_per_kg" validate:"required"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required"`
}

func (req createDropRequest) toCreateInput(fishermanID uuid.UUID) (dropsvc.CreateDropInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.PricePerKg))
	if err != nil {
		return dropsvc.CreateDropInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return dropsvc.CreateDropInput{
		FishermanID: fishermanID,
		Title:       req.Title,
		Species:     req.Species,
		Port:        req.Port,
		PricePerKg:  price,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}, nil
}

// DropCreate registers a new catch announcement as a draft.
func DropCreate(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createDropRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toCreateInput(fishermanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		drop, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, drop)
	}
}

// DropDetail fetches one drop owned by the fisherman.
func DropDetail(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := uuid.Parse(chi.URLParam(r, "dropId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid drop id"))
			return
		}

		drop, err := svc.Get(r.Context(), fishermanID, dropID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drop)
	}
}

// DropList pages through the fisherman's drops, newest first.
func DropList(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), fishermanID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// DropPublish makes a draft drop visible and stamps the publication time.
func DropPublish(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := uuid.Parse(chi.URLParam(r, "dropId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid drop id"))
			return
		}

		drop, err := svc.Publish(r.Context(), fishermanID, dropID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drop)
	}
}

// DropClose ends the sale window for a published drop.
func DropClose(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := uuid.Parse(chi.URLParam(r, "dropId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid drop id"))
			return
		}

		if err := svc.Close(r.Context(), fishermanID, dropID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"closed": true})
	}
}
