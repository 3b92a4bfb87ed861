package controllers

import (
	"net/http"

	"github.com/quaidirect/quaidirect-backend/api/middleware"
	"github.com/quaidirect/quaidirect-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if fisherman := middleware.FishermanIDFromContext(r.Context()); fisherman != "" {
			payload["fisherman_id"] = fisherman
		}
		responses.WriteSuccess(w, payload)
	}
}
