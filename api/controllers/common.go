package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/quaidirect/quaidirect-backend/api/middleware"
	pkgerrors "github.com/quaidirect/quaidirect-backend/pkg/errors"
)

// fishermanIDFromRequest resolves the authenticated fisherman from the request
// context seeded by the auth middleware.
func fishermanIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.FishermanIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "fisherman context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fisherman id")
	}
	return id, nil
}
