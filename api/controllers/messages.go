package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/quaidirect/quaidirect-backend/api/responses"
	"github.com/quaidirect/quaidirect-backend/api/validators"
	"github.com/quaidirect/quaidirect-backend/internal/messaging"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
	pkgerrors "github.com/quaidirect/quaidirect-backend/pkg/errors"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
	"github.com/quaidirect/quaidirect-backend/pkg/pagination"
)

type sendBatchRequest struct {
	ContactIDs  []string `json:"contact_ids" validate:"required,min=1,dive,required"`
	MessageType string   `json:"message_type" validate:"required"`
	Channel     string   `json:"channel"`
	Body        string   `json:"body"`
}

type sendInvitationsRequest struct {
	ContactIDs []string `json:"contact_ids"`
	TemplateID string   `json:"template_id"`
	Message    string   `json:"message"`
}

func parseContactIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contact id").WithDetails(map[string]any{"contact_id": value})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MessageSend dispatches a batch over email, SMS or both.
func MessageSend(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendBatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messageType, err := enums.ParseMessageType(body.MessageType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid message type"))
			return
		}

		contactIDs, err := parseContactIDs(body.ContactIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SendBatch(r.Context(), messaging.SendBatchInput{
			FishermanID: fishermanID,
			ContactIDs:  contactIDs,
			MessageType: messageType,
			Channel:     body.Channel,
			Body:        body.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// MessageSendInvitations sends the SMS signup invitation to the selected
// contacts, or to every contact with a phone number when none are named.
func MessageSendInvitations(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendInvitationsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contactIDs, err := parseContactIDs(body.ContactIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SendInvitations(r.Context(), messaging.SendInvitationsInput{
			FishermanID: fishermanID,
			ContactIDs:  contactIDs,
			TemplateID:  body.TemplateID,
			Message:     body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// MessageQuota reports the current period's SMS quota without consuming it.
func MessageQuota(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		fishermanID, err := fishermanIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Quota(r.Context(), fishermanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

// MessageList pages through the fisherman's dispatch history.
func MessageList(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
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

		page, err := svc.ListMessages(r.Context(), fishermanID, pagination.Params{
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
