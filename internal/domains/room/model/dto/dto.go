package dto

import (
	"github.com/google/uuid"

	"kbox/internal/domains/room/model"
	"kbox/shared"
	gDto "kbox/shared/dto"
	gModel "kbox/shared/model"
	"kbox/shared/timezone"
)

type CreateRoomRequest struct {
	RoomNumber   string `json:"room_number"    validate:"required,max=20"`
	Name         string `json:"name"           validate:"required,max=100"`
	Category     string `json:"category"       validate:"required"`
	Capacity     int    `json:"capacity"       validate:"required,min=1"`
	PricePerSlot int64  `json:"price_per_slot" validate:"required,min=0"`
	Status       string `json:"status"         validate:"omitempty"`
	Description  string `json:"description"    validate:"omitempty,max=500"`
}

func (c *CreateRoomRequest) ToModel(user, category, status string) model.Room {
	return model.Room{
		ID:           uuid.NewString(),
		RoomNumber:   model.NormalizeRoomNumber(c.RoomNumber),
		Name:         c.Name,
		Category:     category,
		Capacity:     c.Capacity,
		PricePerSlot: c.PricePerSlot,
		Status:       status,
		Description:  c.Description,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateRoomRequest struct {
	Name         *string `db:"name"           json:"name"           validate:"omitempty,max=100"`
	Category     *string `db:"category"       json:"category"       validate:"omitempty"`
	Capacity     *int    `db:"capacity"       json:"capacity"       validate:"omitempty,min=1"`
	PricePerSlot *int64  `db:"price_per_slot" json:"price_per_slot" validate:"omitempty,min=0"`
	Status       *string `db:"status"         json:"status"         validate:"omitempty"`
	Description  *string `db:"description"    json:"description"    validate:"omitempty,max=500"`
}

type RoomResponse struct {
	ID           string `json:"id"`
	RoomNumber   string `json:"room_number"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Capacity     int    `json:"capacity"`
	PricePerSlot int64  `json:"price_per_slot"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.RoomNumber = model.RoomNumber
	r.Name = model.Name
	r.Category = model.Category
	r.Capacity = model.Capacity
	r.PricePerSlot = model.PricePerSlot
	r.Status = model.Status
	r.Description = model.Description
	r.Metadata.FromModel(model.Metadata)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}
