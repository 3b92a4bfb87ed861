package fishermen

import (
	"time"

	"github.com/google/uuid"
	"github.com/quaidirect/quaidirect-backend/pkg/db/models"
	"github.com/quaidirect/quaidirect-backend/pkg/enums"
)

// FishermanDTO is the API projection of a fisherman account.
type FishermanDTO struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BoatName  string     `json:"boat_name,omitempty"`
	Port      string     `json:"port,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Plan      enums.Plan `json:"plan"`
	CreatedAt time.Time  `json:"created_at"`
}

// FromModel converts the persistence model into its API projection.
func FromModel(fisherman *models.Fisherman) *FishermanDTO {
	if fisherman == nil {
		return nil
	}
	return &FishermanDTO{
		ID:        fisherman.ID,
		Email:     fisherman.Email,
		FirstName: fisherman.FirstName,
		LastName:  fisherman.LastName,
		BoatName:  fisherman.BoatName,
		Port:      fisherman.Port,
		Phone:     fisherman.Phone,
		Plan:      fisherman.Plan,
		CreatedAt: fisherman.CreatedAt,
	}
}
