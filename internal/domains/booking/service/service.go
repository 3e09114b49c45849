package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"kbox/config"
	"kbox/infras/otel"
	"kbox/internal/domains/booking/model"
	"kbox/internal/domains/booking/model/dto"
	"kbox/internal/domains/booking/repository"
	promoModel "kbox/internal/domains/promotion/model"
	promoRepo "kbox/internal/domains/promotion/repository"
	roomModel "kbox/internal/domains/room/model"
	roomRepo "kbox/internal/domains/room/repository"
	"kbox/internal/metrics"
	"kbox/internal/notifier"
	"kbox/shared"
	"kbox/shared/constant"
	gDto "kbox/shared/dto"
	"kbox/shared/failure"
	"kbox/shared/slot"
	"kbox/shared/timezone"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Availability(ctx context.Context, roomNumber, date string) (dto.AvailabilityResponse, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) error
	Reschedule(ctx context.Context, id string, req dto.RescheduleRequest) error
	Cancel(ctx context.Context, id string) error
	ExpireStale(ctx context.Context) (int, error)
}

type serviceImpl struct {
	repo     repository.Booking
	rooms    roomRepo.Room
	promos   promoRepo.Promotion
	notifier notifier.Notifier
	catalog  *slot.Catalog
	biz      *timezone.Business
	cfg      *config.Config
	otel     otel.Otel
}

func New(
	repo repository.Booking,
	rooms roomRepo.Room,
	promos promoRepo.Promotion,
	notif notifier.Notifier,
	catalog *slot.Catalog,
	biz *timezone.Business,
	cfg *config.Config,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:     repo,
		rooms:    rooms,
		promos:   promos,
		notifier: notif,
		catalog:  catalog,
		biz:      biz,
		cfg:      cfg,
		otel:     otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == "" {
		user = constant.ContextGuest
	}

	method, ok := model.NormalizePaymentMethod(req.PaymentMethod)
	if !ok {
		return res, failure.BadRequestFromString("unknown payment method") // nolint:wrapcheck
	}

	if !s.catalog.Contains(req.TimeSlot) {
		return res, failure.BadRequestFromString("unknown time slot") // nolint:wrapcheck
	}

	date, ok := s.biz.ParseBusinessDate(req.BookingDate)
	if !ok {
		return res, failure.BadRequestFromString("invalid booking date") // nolint:wrapcheck
	}

	room, err := s.rooms.Get(ctx, shared.FilterByID(roomModel.NormalizeRoomNumber(req.RoomNumber), roomModel.FieldRoomNumber, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == "" {
		return res, failure.NotFound(roomModel.EntityName) // nolint:wrapcheck
	}

	if !room.Bookable() {
		return res, failure.BadRequestFromString("room is not open for booking") // nolint:wrapcheck
	}

	if req.People > room.Capacity {
		return res, failure.BadRequestFromString("party size exceeds room capacity") // nolint:wrapcheck
	}

	now := s.biz.Now()

	if err = s.guardNotPast(date, req.TimeSlot, now); err != nil {
		return res, err
	}

	totalPrice := room.PricePerSlot

	var appliedCode *string

	if req.PromoCode != nil && *req.PromoCode != "" {
		var promo *promoModel.Promotion

		promo, err = s.applicablePromo(ctx, *req.PromoCode, now)
		if err != nil {
			return res, err
		}

		if promo != nil {
			totalPrice = promo.Discount(totalPrice, now)
			appliedCode = &promo.Code
		}
	}

	cutoff := s.holdCutoff(now)

	// Reap abandoned holds first so the slot-exclusivity index never
	// rejects a live customer over a hold availability already reads as
	// free.
	if _, err = s.releaseExpiredHolds(ctx, cutoff); err != nil {
		return res, err
	}

	if err = s.ensureSlotFree(ctx, room.RoomNumber, date, req.TimeSlot, cutoff, ""); err != nil {
		return res, err
	}

	booking := req.ToModel(user, s.actorID(ctx), room, date, method, appliedCode, totalPrice)

	if err = s.repo.Insert(ctx, booking); err != nil {
		if failure.IsKind(err, failure.KindConflict) {
			metrics.IncSlotConflict()
		}

		return res, err // nolint:wrapcheck
	}

	metrics.IncBookingCreated()
	s.notify(ctx, notifier.KindCreated, booking)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	bookings, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	res.FromModels(bookings, total, params.Limit)

	return res, nil
}

// Availability reports the free and occupied slots of a room on one
// business day. Expired PENDING holds are treated as free even before the
// reaper has cancelled them.
func (s *serviceImpl) Availability(ctx context.Context, roomNumber, date string) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Availability")
	defer scope.End()
	defer scope.TraceIfError(err)

	number := roomModel.NormalizeRoomNumber(roomNumber)

	room, err := s.rooms.Get(ctx, shared.FilterByID(number, roomModel.FieldRoomNumber, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == "" {
		return res, failure.NotFound(roomModel.EntityName) // nolint:wrapcheck
	}

	day, ok := s.biz.ParseBusinessDate(date)
	if !ok {
		return res, failure.BadRequestFromString("invalid booking date") // nolint:wrapcheck
	}

	now := s.biz.Now()

	bookings, err := s.repo.ListForDay(ctx, number, day, s.holdCutoff(now))
	if err != nil {
		log.Error().Err(err).Msg("failed to list bookings for day")

		return res, fmt.Errorf("failed to list bookings for day: %w", err)
	}

	occupied := map[string]bool{}
	for _, booking := range bookings {
		occupied[booking.TimeSlot] = true
	}

	res.RoomNumber = number
	res.Date = s.biz.FormatBusinessDateInput(day)
	res.Free = []string{}
	res.Occupied = []string{}

	sameDay := s.biz.IsSameBusinessDay(day, now)
	minute := s.biz.MinuteOfDay(now)

	for _, sl := range s.catalog.Slots() {
		switch {
		case occupied[sl]:
			res.Occupied = append(res.Occupied, sl)
		case sameDay && slotEnded(sl, minute):
			// already over today, neither bookable nor occupied
		default:
			res.Free = append(res.Free, sl)
		}
	}

	return res, nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role != constant.RoleStaff {
		return failure.Forbidden("only staff can update booking status") // nolint:wrapcheck
	}

	to, ok := model.NormalizeStatus(req.Status)
	if !ok {
		return failure.BadRequestFromString("unknown booking status") // nolint:wrapcheck
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status == to {
		return nil
	}

	if !model.CanTransition(booking.Status, to) {
		return failure.InvalidTransition(fmt.Sprintf("cannot move booking from %s to %s", booking.Status, to)) // nolint:wrapcheck
	}

	applied, err := s.repo.UpdateStatusIf(ctx, booking.ID, []string{booking.Status}, to, s.actor(ctx))
	if err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if !applied {
		return failure.Conflict("booking was updated concurrently") // nolint:wrapcheck
	}

	booking.Status = to

	if kind, notifiable := transitionNotification(to); notifiable {
		s.notify(ctx, kind, booking)
	}

	return nil
}

func (s *serviceImpl) Reschedule(ctx context.Context, id string, req dto.RescheduleRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reschedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}

	if err = s.guardActor(ctx, booking); err != nil {
		return err
	}

	if model.IsTerminal(booking.Status) {
		return failure.InvalidTransition("cannot reschedule a finished booking") // nolint:wrapcheck
	}

	if !s.catalog.Contains(req.TimeSlot) {
		return failure.BadRequestFromString("unknown time slot") // nolint:wrapcheck
	}

	date, ok := s.biz.ParseBusinessDate(req.BookingDate)
	if !ok {
		return failure.BadRequestFromString("invalid booking date") // nolint:wrapcheck
	}

	// moving to the same date and slot is a no-op, not a conflict
	if s.biz.IsSameBusinessDay(date, booking.BookingDate) && req.TimeSlot == booking.TimeSlot {
		return nil
	}

	now := s.biz.Now()

	if err = s.guardNotPast(date, req.TimeSlot, now); err != nil {
		return err
	}

	cutoff := s.holdCutoff(now)

	if _, err = s.releaseExpiredHolds(ctx, cutoff); err != nil {
		return err
	}

	if err = s.ensureSlotFree(ctx, booking.RoomNumber, date, req.TimeSlot, cutoff, booking.ID); err != nil {
		return err
	}

	err = s.repo.Update(ctx, map[string]any{
		model.FieldBookingDate:   date,
		model.FieldTimeSlot:      req.TimeSlot,
		model.FieldMonthKey:      timezone.Format(date, constant.MonthKeyFormat),
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: s.actor(ctx),
	}, shared.FilterByID(booking.ID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to reschedule booking")

		return fmt.Errorf("failed to reschedule booking: %w", err)
	}

	booking.BookingDate = date
	booking.TimeSlot = req.TimeSlot
	s.notify(ctx, notifier.KindUpdated, booking)

	return nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}

	if err = s.guardActor(ctx, booking); err != nil {
		return err
	}

	if booking.Status == model.StatusCancelled {
		return nil
	}

	if model.IsTerminal(booking.Status) {
		return failure.InvalidTransition("cannot cancel a finished booking") // nolint:wrapcheck
	}

	applied, err := s.repo.UpdateStatusIf(ctx, booking.ID, []string{booking.Status}, model.StatusCancelled, s.actor(ctx))
	if err != nil {
		log.Error().Err(err).Msg("failed to cancel booking")

		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	if !applied {
		return failure.Conflict("booking was updated concurrently") // nolint:wrapcheck
	}

	booking.Status = model.StatusCancelled
	s.notify(ctx, notifier.KindCancelled, booking)

	return nil
}

// ExpireStale cancels PENDING holds older than the expiry window and
// returns how many were reaped.
func (s *serviceImpl) ExpireStale(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExpireStale")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.releaseExpiredHolds(ctx, s.holdCutoff(s.biz.Now()))
}

// releaseExpiredHolds runs the reaper's sweep inline. Besides the periodic
// worker it is invoked ahead of every conflict-checked write, so an
// abandoned hold can never outlive its window long enough to block a real
// customer.
func (s *serviceImpl) releaseExpiredHolds(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := s.repo.ExpireStale(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to expire stale bookings")

		return 0, fmt.Errorf("failed to expire stale bookings: %w", err)
	}

	metrics.AddBookingsReaped(len(expired))

	for _, booking := range expired {
		s.notify(ctx, notifier.KindCancelled, booking)
	}

	return len(expired), nil
}

func (s *serviceImpl) loadBooking(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == "" {
		return booking, failure.NotFound(model.EntityName) // nolint:wrapcheck
	}

	return booking, nil
}

// guardActor allows staff, the customer the booking belongs to, and
// anonymous callers. Guests hold no identity to match on; for them the
// unguessable booking id is the capability.
func (s *serviceImpl) guardActor(ctx context.Context, booking model.Booking) error {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role == constant.RoleStaff {
		return nil
	}

	email, _ := ctx.Value(constant.ContextKeyUserEmail).(string)
	if email == "" || booking.OwnedBy(email) {
		return nil
	}

	return failure.Forbidden("booking belongs to another customer") // nolint:wrapcheck
}

// guardNotPast rejects dates before today and, for today, slots that
// already ended.
func (s *serviceImpl) guardNotPast(date time.Time, timeSlot string, now time.Time) error {
	today := s.biz.StartOfBusinessDay(now)

	if date.Before(today) {
		return failure.PastTime("booking date is in the past") // nolint:wrapcheck
	}

	if s.biz.IsSameBusinessDay(date, now) && slotEnded(timeSlot, s.biz.MinuteOfDay(now)) {
		return failure.PastTime("time slot has already ended") // nolint:wrapcheck
	}

	return nil
}

func (s *serviceImpl) ensureSlotFree(ctx context.Context, roomNumber string, date time.Time, timeSlot string, cutoff time.Time, excludeID string) error {
	conflict, err := s.repo.FindConflict(ctx, roomNumber, date, timeSlot, cutoff, excludeID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check slot conflict")

		return fmt.Errorf("failed to check slot conflict: %w", err)
	}

	if conflict.ID != "" {
		metrics.IncSlotConflict()

		return failure.Conflict("time slot is already booked for this room") // nolint:wrapcheck
	}

	return nil
}

// applicablePromo resolves a promo code; a missing, inactive, or
// out-of-window code is silently ignored so the booking still succeeds at
// full price.
func (s *serviceImpl) applicablePromo(ctx context.Context, code string, now time.Time) (*promoModel.Promotion, error) {
	promo, err := s.promos.Get(ctx, shared.FilterByID(promoModel.NormalizeCode(code), promoModel.FieldCode, promoModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get promotion")

		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}

	if promo.ID == "" || !promo.Applicable(now) {
		return nil, nil
	}

	return &promo, nil
}

func (s *serviceImpl) holdCutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(s.cfg.App.HoldExpiryMinutes) * time.Minute)
}

func (s *serviceImpl) actor(ctx context.Context) string {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == "" {
		return constant.ContextGuest
	}

	return user
}

// actorID returns the authenticated user id or nil for guests, for the
// nullable owner column.
func (s *serviceImpl) actorID(ctx context.Context) *string {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == "" {
		return nil
	}

	return &user
}

// notify is best effort. A failed notification never fails the booking
// operation that triggered it.
func (s *serviceImpl) notify(ctx context.Context, kind notifier.Kind, booking model.Booking) {
	snapshot := notifier.Snapshot{
		BookingID:    booking.ID,
		Code:         booking.Code,
		RoomNumber:   booking.RoomNumber,
		BookingDate:  s.biz.FormatBusinessDateInput(booking.BookingDate),
		TimeSlot:     booking.TimeSlot,
		Status:       booking.Status,
		CustomerName: booking.CustomerName,
		Phone:        booking.CustomerPhone,
		TotalPrice:   booking.TotalPrice,
	}

	if err := s.notifier.Notify(ctx, kind, snapshot); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to send booking notification")
	}
}

// transitionNotification maps a staff status override to the event it
// announces. Only landing on PAID or CANCELLED notifies; intermediate
// transitions stay silent.
func transitionNotification(status string) (notifier.Kind, bool) {
	switch status {
	case model.StatusPaid:
		return notifier.KindPaid, true
	case model.StatusCancelled:
		return notifier.KindCancelled, true
	default:
		return "", false
	}
}

func slotEnded(s string, minuteOfDay int) bool {
	end, ok := slot.EndMinutes(s)

	return ok && end <= minuteOfDay
}
