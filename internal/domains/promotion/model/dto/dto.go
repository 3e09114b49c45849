package dto

import (
	"time"

	"github.com/google/uuid"

	"kbox/internal/domains/promotion/model"
	"kbox/shared"
	gDto "kbox/shared/dto"
	gModel "kbox/shared/model"
	"kbox/shared/timezone"
)

type CreatePromotionRequest struct {
	Code     string  `json:"code"           validate:"required,max=30"`
	Name     string  `json:"name"           validate:"required,max=100"`
	Type     string  `json:"discount_type"  validate:"required"`
	Value    float64 `json:"discount_value" validate:"required,gt=0"`
	StartsAt string  `json:"starts_at"      validate:"required"`
	EndsAt   string  `json:"ends_at"        validate:"omitempty"`
	Active   *bool   `json:"active"         validate:"omitempty"`
}

func (c *CreatePromotionRequest) ToModel(user, discountType string, startsAt, endsAt time.Time) model.Promotion {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Promotion{
		ID:       uuid.NewString(),
		Code:     model.NormalizeCode(c.Code),
		Name:     c.Name,
		Type:     discountType,
		Value:    c.Value,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Active:   active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdatePromotionRequest struct {
	Name   *string  `db:"name"           json:"name"           validate:"omitempty,max=100"`
	Value  *float64 `db:"discount_value" json:"discount_value" validate:"omitempty,gt=0"`
	Active *bool    `db:"active"         json:"active"         validate:"omitempty"`
}

type PromotionResponse struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Type     string  `json:"discount_type"`
	Value    float64 `json:"discount_value"`
	StartsAt string  `json:"starts_at"`
	EndsAt   string  `json:"ends_at,omitempty"`
	Active   bool    `json:"active"`
	gDto.Metadata
}

func (r *PromotionResponse) FromModel(model model.Promotion) {
	r.ID = model.ID
	r.Code = model.Code
	r.Name = model.Name
	r.Type = model.Type
	r.Value = model.Value
	r.StartsAt = timezone.FormatBusinessDateInput(model.StartsAt)
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)

	if !model.EndsAt.IsZero() {
		r.EndsAt = timezone.FormatBusinessDateInput(model.EndsAt)
	}
}

type GetPromotionsResponse struct {
	Promotions []PromotionResponse `json:"promotions"`
	TotalPage  int                 `json:"total_page"`
	TotalData  int                 `json:"total_data"`
}

func (r *GetPromotionsResponse) FromModels(models []model.Promotion, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Promotions = make([]PromotionResponse, len(models))
	for i, mod := range models {
		r.Promotions[i].FromModel(mod)
	}
}
