package dto

import (
	"time"

	"github.com/google/uuid"

	"kbox/internal/domains/booking/model"
	roomModel "kbox/internal/domains/room/model"
	"kbox/shared"
	gDto "kbox/shared/dto"
	gModel "kbox/shared/model"
	"kbox/shared/timezone"
)

type CreateBookingRequest struct {
	RoomNumber    string  `json:"room_number"    validate:"required,max=20"`
	BookingDate   string  `json:"booking_date"   validate:"required"`
	TimeSlot      string  `json:"time_slot"      validate:"required,timeslot"`
	People        int     `json:"people"         validate:"required,min=1"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	PromoCode     *string `json:"promo_code,omitempty"`
	CustomerName  string  `json:"customer_name"  validate:"required,max=100"`
	CustomerEmail string  `json:"customer_email" validate:"required,email"`
	CustomerPhone string  `json:"customer_phone" validate:"required,max=20"`
}

func (c *CreateBookingRequest) ToModel(user string, userID *string, room roomModel.Room, date time.Time, method string, promoCode *string, totalPrice int64) model.Booking {
	return model.Booking{
		ID:            uuid.NewString(),
		Code:          model.NewCode(),
		RoomID:        room.ID,
		RoomNumber:    room.RoomNumber,
		RoomName:      room.Name,
		RoomCategory:  room.Category,
		RoomPrice:     room.PricePerSlot,
		UserID:        userID,
		CustomerName:  c.CustomerName,
		CustomerEmail: c.CustomerEmail,
		CustomerPhone: c.CustomerPhone,
		BookingDate:   date,
		TimeSlot:      c.TimeSlot,
		People:        c.People,
		PaymentMethod: method,
		PromoCode:     promoCode,
		TotalPrice:    totalPrice,
		Status:        model.StatusPending,
		MonthKey:      timezone.Format(date, "2006-01"),
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RescheduleRequest struct {
	BookingDate string `json:"booking_date" validate:"required"`
	TimeSlot    string `json:"time_slot"    validate:"required,timeslot"`
}

type AvailabilityResponse struct {
	RoomNumber string   `json:"room_number"`
	Date       string   `json:"date"`
	Free       []string `json:"free"`
	Occupied   []string `json:"occupied"`
}

type BookingResponse struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	RoomNumber    string  `json:"room_number"`
	RoomName      string  `json:"room_name"`
	RoomCategory  string  `json:"room_category"`
	RoomPrice     int64   `json:"room_price"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	BookingDate   string  `json:"booking_date"`
	TimeSlot      string  `json:"time_slot"`
	People        int     `json:"people"`
	PaymentMethod string  `json:"payment_method"`
	PromoCode     *string `json:"promo_code,omitempty"`
	TotalPrice    int64   `json:"total_price"`
	PaymentRef    *string `json:"payment_ref,omitempty"`
	Status        string  `json:"status"`
	MonthKey      string  `json:"month_key"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.Code = model.Code
	r.RoomNumber = model.RoomNumber
	r.RoomName = model.RoomName
	r.RoomCategory = model.RoomCategory
	r.RoomPrice = model.RoomPrice
	r.CustomerName = model.CustomerName
	r.CustomerEmail = model.CustomerEmail
	r.CustomerPhone = model.CustomerPhone
	r.BookingDate = timezone.FormatBusinessDateInput(model.BookingDate)
	r.TimeSlot = model.TimeSlot
	r.People = model.People
	r.PaymentMethod = model.PaymentMethod
	r.PromoCode = model.PromoCode
	r.TotalPrice = model.TotalPrice
	r.PaymentRef = model.PaymentRef
	r.Status = model.Status
	r.MonthKey = model.MonthKey
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
