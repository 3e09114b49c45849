package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kbox/config"
	"kbox/infras/otel/mocks"
	bookingMocks "kbox/internal/domains/booking/mocks"
	"kbox/internal/domains/booking/model"
	"kbox/internal/domains/booking/model/dto"
	"kbox/internal/domains/booking/service"
	promoMocks "kbox/internal/domains/promotion/mocks"
	promoModel "kbox/internal/domains/promotion/model"
	roomMocks "kbox/internal/domains/room/mocks"
	roomModel "kbox/internal/domains/room/model"
	"kbox/internal/notifier"
	notifMocks "kbox/internal/notifier/mocks"
	"kbox/shared/constant"
	"kbox/shared/failure"
	"kbox/shared/slot"
	"kbox/shared/timezone"
)

var testSlots = []string{"10:00-12:00", "12:00-14:00", "14:00-16:00", "16:00-18:00"}

type fixture struct {
	repo     *bookingMocks.MockBooking
	rooms    *roomMocks.MockRoom
	promos   *promoMocks.MockPromotion
	notifier *notifMocks.MockNotifier
	biz      *timezone.Business
	svc      service.Booking
}

func newFixture(t *testing.T, slots []string) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	biz, ok := timezone.FromOffset("+07:00")
	require.True(t, ok)

	cfg := &config.Config{}
	cfg.App.HoldExpiryMinutes = 15

	f := &fixture{
		repo:     bookingMocks.NewMockBooking(ctrl),
		rooms:    roomMocks.NewMockRoom(ctrl),
		promos:   promoMocks.NewMockPromotion(ctrl),
		notifier: notifMocks.NewMockNotifier(ctrl),
		biz:      biz,
	}

	f.svc = service.New(f.repo, f.rooms, f.promos, f.notifier, slot.FromSlots(slots, biz), biz, cfg, mocks.NewOtel())

	return f
}

// expectNoStaleHolds satisfies the sweep Create and Reschedule run before
// checking the slot.
func (f *fixture) expectNoStaleHolds() {
	f.repo.EXPECT().ExpireStale(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
}

func ctxWithUser(id, email, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)
	ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, email)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func activeRoom() roomModel.Room {
	return roomModel.Room{
		ID:           "room-1",
		RoomNumber:   "KR-01",
		Name:         "Siam",
		Category:     roomModel.CategoryStandard,
		Capacity:     6,
		PricePerSlot: 50000,
		Status:       roomModel.StatusActive,
	}
}

func pendingBooking() model.Booking {
	biz, _ := timezone.FromOffset("+07:00")
	day := biz.StartOfBusinessDay(biz.AddBusinessDays(biz.Now(), 2))

	return model.Booking{
		ID:            "booking-1",
		Code:          "KB-A1B2C3D4",
		RoomID:        "room-1",
		RoomNumber:    "KR-01",
		RoomName:      "Siam",
		RoomCategory:  roomModel.CategoryStandard,
		RoomPrice:     50000,
		CustomerName:  "Somchai",
		CustomerEmail: "somchai@example.com",
		CustomerPhone: "+66811111111",
		BookingDate:   day,
		TimeSlot:      "12:00-14:00",
		People:        4,
		PaymentMethod: model.PaymentMethodPromptPay,
		TotalPrice:    50000,
		Status:        model.StatusPending,
	}
}

func TestBookingService_Create(t *testing.T) {
	biz, _ := timezone.FromOffset("+07:00")
	futureDate := biz.FormatBusinessDateInput(biz.AddBusinessDays(biz.Now(), 2))

	baseReq := dto.CreateBookingRequest{
		RoomNumber:    "kr-01",
		BookingDate:   futureDate,
		TimeSlot:      "12:00-14:00",
		People:        4,
		PaymentMethod: "PROMPTPAY",
		CustomerName:  "Somchai",
		CustomerEmail: "somchai@example.com",
		CustomerPhone: "+66811111111",
	}

	t.Run("guest booking at full price", func(t *testing.T) {
		f := newFixture(t, testSlots)

		var inserted model.Booking

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.expectNoStaleHolds()
		f.repo.EXPECT().
			FindConflict(gomock.Any(), "KR-01", gomock.Any(), "12:00-14:00", gomock.Any(), "").
			Return(model.Booking{}, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, booking model.Booking) error {
				inserted = booking
				return nil
			})
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCreated, gomock.Any()).Return(nil)

		res, err := f.svc.Create(context.Background(), baseReq)

		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, inserted.Status)
		assert.Equal(t, int64(50000), inserted.TotalPrice)
		assert.Equal(t, "KR-01", inserted.RoomNumber)
		assert.Equal(t, model.PaymentMethodPromptPay, inserted.PaymentMethod)
		assert.Nil(t, inserted.PromoCode)
		assert.Nil(t, inserted.UserID)
		assert.True(t, strings.HasPrefix(inserted.Code, "KB-"))
		assert.Equal(t, inserted.Code, res.Code)
		assert.Equal(t, futureDate, res.BookingDate)
	})

	t.Run("stripe is accepted as promptpay", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.expectNoStaleHolds()
		f.repo.EXPECT().
			FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, model.PaymentMethodPromptPay, booking.PaymentMethod)
				return nil
			})
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCreated, gomock.Any()).Return(nil)

		req := baseReq
		req.PaymentMethod = "stripe"

		_, err := f.svc.Create(context.Background(), req)
		require.NoError(t, err)
	})

	t.Run("percent promotion discounts the price", func(t *testing.T) {
		f := newFixture(t, testSlots)

		promo := promoModel.Promotion{
			ID:     "promo-1",
			Code:   "SONGKRAN20",
			Type:   promoModel.TypePercent,
			Value:  20,
			Active: true,
		}

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.promos.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promo, nil)
		f.expectNoStaleHolds()
		f.repo.EXPECT().
			FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, int64(40000), booking.TotalPrice)
				require.NotNil(t, booking.PromoCode)
				assert.Equal(t, "SONGKRAN20", *booking.PromoCode)
				return nil
			})
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCreated, gomock.Any()).Return(nil)

		code := "songkran20"
		req := baseReq
		req.PromoCode = &code

		_, err := f.svc.Create(context.Background(), req)
		require.NoError(t, err)
	})

	t.Run("unknown promo code falls back to full price", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.promos.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promoModel.Promotion{}, nil)
		f.expectNoStaleHolds()
		f.repo.EXPECT().
			FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, int64(50000), booking.TotalPrice)
				assert.Nil(t, booking.PromoCode)
				return nil
			})
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCreated, gomock.Any()).Return(nil)

		code := "NOPE"
		req := baseReq
		req.PromoCode = &code

		_, err := f.svc.Create(context.Background(), req)
		require.NoError(t, err)
	})

	t.Run("notification failure does not fail the booking", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.expectNoStaleHolds()
		f.repo.EXPECT().
			FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
		f.notifier.EXPECT().
			Notify(gomock.Any(), notifier.KindCreated, gomock.Any()).
			Return(errors.New("broker down"))

		_, err := f.svc.Create(context.Background(), baseReq)
		require.NoError(t, err)
	})

	t.Run("abandoned hold is reaped instead of blocking the slot", func(t *testing.T) {
		f := newFixture(t, testSlots)

		stale := pendingBooking()
		stale.ID = "booking-stale"
		stale.Status = model.StatusCancelled

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.repo.EXPECT().
			ExpireStale(gomock.Any(), gomock.Any()).
			Return([]model.Booking{stale}, nil)
		f.repo.EXPECT().
			FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCancelled, gomock.Any()).Return(nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCreated, gomock.Any()).Return(nil)

		_, err := f.svc.Create(context.Background(), baseReq)
		require.NoError(t, err)
	})

	t.Run("sweep failure blocks the write", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.repo.EXPECT().
			ExpireStale(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset"))

		_, err := f.svc.Create(context.Background(), baseReq)
		require.Error(t, err)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name      string
			mutate    func(req *dto.CreateBookingRequest)
			setupMock func(f *fixture)
			wantKind  string
		}{
			{
				name:     "unknown payment method",
				mutate:   func(req *dto.CreateBookingRequest) { req.PaymentMethod = "CHEQUE" },
				wantKind: failure.KindValidation,
			},
			{
				name:     "slot outside the catalog",
				mutate:   func(req *dto.CreateBookingRequest) { req.TimeSlot = "20:00-22:00" },
				wantKind: failure.KindValidation,
			},
			{
				name:     "impossible calendar date",
				mutate:   func(req *dto.CreateBookingRequest) { req.BookingDate = "2024-02-30" },
				wantKind: failure.KindValidation,
			},
			{
				name:   "room does not exist",
				mutate: func(req *dto.CreateBookingRequest) {},
				setupMock: func(f *fixture) {
					f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(roomModel.Room{}, nil)
				},
				wantKind: failure.KindNotFound,
			},
			{
				name:   "room closed for booking",
				mutate: func(req *dto.CreateBookingRequest) {},
				setupMock: func(f *fixture) {
					room := activeRoom()
					room.Status = roomModel.StatusInactive
					f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room, nil)
				},
				wantKind: failure.KindValidation,
			},
			{
				name:   "party larger than the room",
				mutate: func(req *dto.CreateBookingRequest) { req.People = 12 },
				setupMock: func(f *fixture) {
					f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
				},
				wantKind: failure.KindValidation,
			},
			{
				name:   "booking date in the past",
				mutate: func(req *dto.CreateBookingRequest) { req.BookingDate = "2020-01-01" },
				setupMock: func(f *fixture) {
					f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
				},
				wantKind: failure.KindPastTime,
			},
			{
				name:   "slot already held",
				mutate: func(req *dto.CreateBookingRequest) {},
				setupMock: func(f *fixture) {
					f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
					f.expectNoStaleHolds()
					f.repo.EXPECT().
						FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Return(pendingBooking(), nil)
				},
				wantKind: failure.KindConflict,
			},
			{
				name:   "storage catches the race",
				mutate: func(req *dto.CreateBookingRequest) {},
				setupMock: func(f *fixture) {
					f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
					f.expectNoStaleHolds()
					f.repo.EXPECT().
						FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Return(model.Booking{}, nil)
					f.repo.EXPECT().
						Insert(gomock.Any(), gomock.Any()).
						Return(failure.Conflict("time slot is already booked for this room"))
				},
				wantKind: failure.KindConflict,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t, testSlots)

				if tt.setupMock != nil {
					tt.setupMock(f)
				}

				req := baseReq
				tt.mutate(&req)

				_, err := f.svc.Create(context.Background(), req)

				require.Error(t, err)
				assert.True(t, failure.IsKind(err, tt.wantKind), "want kind %s, got %v", tt.wantKind, err)
			})
		}
	})

	t.Run("slot that already ended today", func(t *testing.T) {
		biz, _ := timezone.FromOffset("+07:00")
		now := biz.Now()
		minute := biz.MinuteOfDay(now)
		endedSlot := fmt.Sprintf("00:00-%02d:%02d", minute/60, minute%60)

		f := newFixture(t, []string{endedSlot})

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)

		req := baseReq
		req.BookingDate = biz.FormatBusinessDateInput(now)
		req.TimeSlot = endedSlot

		_, err := f.svc.Create(context.Background(), req)

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindPastTime))
	})
}

func TestBookingService_Availability(t *testing.T) {
	biz, _ := timezone.FromOffset("+07:00")
	futureDate := biz.FormatBusinessDateInput(biz.AddBusinessDays(biz.Now(), 2))

	t.Run("splits slots into free and occupied", func(t *testing.T) {
		f := newFixture(t, testSlots)

		occupied := pendingBooking()
		occupied.TimeSlot = "12:00-14:00"

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.repo.EXPECT().
			ListForDay(gomock.Any(), "KR-01", gomock.Any(), gomock.Any()).
			Return([]model.Booking{occupied}, nil)

		res, err := f.svc.Availability(context.Background(), "kr-01", futureDate)

		require.NoError(t, err)
		assert.Equal(t, "KR-01", res.RoomNumber)
		assert.Equal(t, futureDate, res.Date)
		assert.Equal(t, []string{"12:00-14:00"}, res.Occupied)
		assert.Equal(t, []string{"10:00-12:00", "14:00-16:00", "16:00-18:00"}, res.Free)
	})

	t.Run("slots already over today are neither free nor occupied", func(t *testing.T) {
		now := biz.Now()
		minute := biz.MinuteOfDay(now)
		endedSlot := fmt.Sprintf("00:00-%02d:%02d", minute/60, minute%60)

		f := newFixture(t, []string{endedSlot})

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeRoom(), nil)
		f.repo.EXPECT().
			ListForDay(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Booking{}, nil)

		res, err := f.svc.Availability(context.Background(), "KR-01", biz.FormatBusinessDateInput(now))

		require.NoError(t, err)
		assert.Empty(t, res.Free)
		assert.Empty(t, res.Occupied)
	})

	t.Run("unknown room", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(roomModel.Room{}, nil)

		_, err := f.svc.Availability(context.Background(), "KR-99", futureDate)

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})
}

func TestBookingService_UpdateStatus(t *testing.T) {
	staffCtx := ctxWithUser("staff-1", "staff@example.com", constant.RoleStaff)

	t.Run("customers cannot update status", func(t *testing.T) {
		f := newFixture(t, testSlots)

		ctx := ctxWithUser("user-1", "somchai@example.com", constant.RoleCustomer)
		err := f.svc.UpdateStatus(ctx, "booking-1", dto.UpdateStatusRequest{Status: "PAID"})

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindForbidden))
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t, testSlots)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "LOST"})

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindValidation))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "pending"})

		require.NoError(t, err)
	})

	t.Run("legacy CONFIRMED maps onto CHECKED_IN", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", []string{model.StatusPending}, model.StatusCheckedIn, "staff-1").
			Return(true, nil)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "CONFIRMED"})

		require.NoError(t, err)
	})

	t.Run("checking in stays silent", func(t *testing.T) {
		f := newFixture(t, testSlots)

		// no Notify expectation: an intermediate transition must not
		// publish an event
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", []string{model.StatusPending}, model.StatusCheckedIn, "staff-1").
			Return(true, nil)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "CHECKED_IN"})

		require.NoError(t, err)
	})

	t.Run("cancelling announces it", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", []string{model.StatusPending}, model.StatusCancelled, "staff-1").
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCancelled, gomock.Any()).Return(nil)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "CANCELLED"})

		require.NoError(t, err)
	})

	t.Run("paying a booking announces it", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", []string{model.StatusPending}, model.StatusPaid, "staff-1").
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindPaid, gomock.Any()).Return(nil)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "PAID"})

		require.NoError(t, err)
	})

	t.Run("illegal transition", func(t *testing.T) {
		f := newFixture(t, testSlots)

		booking := pendingBooking()
		booking.Status = model.StatusCompleted

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "PAID"})

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindInvalidTransition))
	})

	t.Run("losing the race is a conflict", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().
			UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := f.svc.UpdateStatus(staffCtx, "booking-1", dto.UpdateStatusRequest{Status: "PAID"})

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindConflict))
	})

	t.Run("missing booking", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		err := f.svc.UpdateStatus(staffCtx, "nope", dto.UpdateStatusRequest{Status: "PAID"})

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})
}

func TestBookingService_Cancel(t *testing.T) {
	ownerCtx := ctxWithUser("user-1", "somchai@example.com", constant.RoleCustomer)

	t.Run("owner cancels a pending booking", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", []string{model.StatusPending}, model.StatusCancelled, "user-1").
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCancelled, gomock.Any()).Return(nil)

		err := f.svc.Cancel(ownerCtx, "booking-1")

		require.NoError(t, err)
	})

	t.Run("staff can cancel anyone's booking", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.repo.EXPECT().
			UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "staff-1").
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCancelled, gomock.Any()).Return(nil)

		err := f.svc.Cancel(ctxWithUser("staff-1", "staff@example.com", constant.RoleStaff), "booking-1")

		require.NoError(t, err)
	})

	t.Run("someone else's booking is off limits", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)

		err := f.svc.Cancel(ctxWithUser("user-2", "other@example.com", constant.RoleCustomer), "booking-1")

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindForbidden))
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		f := newFixture(t, testSlots)

		booking := pendingBooking()
		booking.Status = model.StatusCancelled

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		err := f.svc.Cancel(ownerCtx, "booking-1")

		require.NoError(t, err)
	})

	t.Run("completed bookings stay completed", func(t *testing.T) {
		f := newFixture(t, testSlots)

		booking := pendingBooking()
		booking.Status = model.StatusCompleted

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		err := f.svc.Cancel(ownerCtx, "booking-1")

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindInvalidTransition))
	})
}

func TestBookingService_Reschedule(t *testing.T) {
	biz, _ := timezone.FromOffset("+07:00")
	ownerCtx := ctxWithUser("user-1", "somchai@example.com", constant.RoleCustomer)

	t.Run("moves to a free slot", func(t *testing.T) {
		f := newFixture(t, testSlots)

		booking := pendingBooking()
		newDate := biz.FormatBusinessDateInput(biz.AddBusinessDays(biz.Now(), 3))

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		f.expectNoStaleHolds()
		f.repo.EXPECT().
			FindConflict(gomock.Any(), "KR-01", gomock.Any(), "14:00-16:00", gomock.Any(), "booking-1").
			Return(model.Booking{}, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindUpdated, gomock.Any()).Return(nil)

		err := f.svc.Reschedule(ownerCtx, "booking-1", dto.RescheduleRequest{
			BookingDate: newDate,
			TimeSlot:    "14:00-16:00",
		})

		require.NoError(t, err)
	})

	t.Run("same date and slot succeeds without touching storage", func(t *testing.T) {
		f := newFixture(t, testSlots)

		booking := pendingBooking()

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		err := f.svc.Reschedule(ownerCtx, "booking-1", dto.RescheduleRequest{
			BookingDate: biz.FormatBusinessDateInput(booking.BookingDate),
			TimeSlot:    booking.TimeSlot,
		})

		require.NoError(t, err)
	})

	t.Run("target slot is taken", func(t *testing.T) {
		f := newFixture(t, testSlots)

		other := pendingBooking()
		other.ID = "booking-2"

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingBooking(), nil)
		f.expectNoStaleHolds()
		f.repo.EXPECT().
			FindConflict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "booking-1").
			Return(other, nil)

		err := f.svc.Reschedule(ownerCtx, "booking-1", dto.RescheduleRequest{
			BookingDate: biz.FormatBusinessDateInput(biz.AddBusinessDays(biz.Now(), 3)),
			TimeSlot:    "14:00-16:00",
		})

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindConflict))
	})

	t.Run("finished bookings cannot move", func(t *testing.T) {
		f := newFixture(t, testSlots)

		booking := pendingBooking()
		booking.Status = model.StatusRefunded

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		err := f.svc.Reschedule(ownerCtx, "booking-1", dto.RescheduleRequest{
			BookingDate: biz.FormatBusinessDateInput(biz.AddBusinessDays(biz.Now(), 3)),
			TimeSlot:    "14:00-16:00",
		})

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindInvalidTransition))
	})
}

func TestBookingService_ExpireStale(t *testing.T) {
	t.Run("reaps and announces stale holds", func(t *testing.T) {
		f := newFixture(t, testSlots)

		first := pendingBooking()
		first.Status = model.StatusCancelled
		second := pendingBooking()
		second.ID = "booking-2"
		second.Status = model.StatusCancelled

		f.repo.EXPECT().ExpireStale(gomock.Any(), gomock.Any()).Return([]model.Booking{first, second}, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindCancelled, gomock.Any()).Return(nil).Times(2)

		count, err := f.svc.ExpireStale(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		f := newFixture(t, testSlots)

		f.repo.EXPECT().ExpireStale(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

		_, err := f.svc.ExpireStale(context.Background())

		require.Error(t, err)
	})
}
