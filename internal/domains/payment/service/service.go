package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"kbox/config"
	"kbox/infras/otel"
	"kbox/infras/payment"
	bookingModel "kbox/internal/domains/booking/model"
	bookingRepo "kbox/internal/domains/booking/repository"
	"kbox/internal/domains/payment/model/dto"
	"kbox/internal/metrics"
	"kbox/internal/notifier"
	"kbox/shared"
	"kbox/shared/constant"
	gDto "kbox/shared/dto"
	"kbox/shared/failure"
	"kbox/shared/timezone"
)

const (
	ReconcileOutcomePaid = "paid"
	ReconcileOutcomeNoop = "noop"
)

// payableStatuses are the booking states a successful payment may land on.
var payableStatuses = []string{bookingModel.StatusPending, bookingModel.StatusCheckedIn}

type Payment interface {
	Initiate(ctx context.Context, bookingID string) (dto.InitiatePaymentResponse, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	Poll(ctx context.Context, bookingID string) (dto.PaymentStatusResponse, error)
}

type serviceImpl struct {
	bookings bookingRepo.Booking
	provider payment.Provider
	notifier notifier.Notifier
	biz      *timezone.Business
	cfg      *config.Config
	otel     otel.Otel
}

func New(
	bookings bookingRepo.Booking,
	provider payment.Provider,
	notif notifier.Notifier,
	biz *timezone.Business,
	cfg *config.Config,
	otel otel.Otel,
) Payment {
	return &serviceImpl{
		bookings: bookings,
		provider: provider,
		notifier: notif,
		biz:      biz,
		cfg:      cfg,
		otel:     otel,
	}
}

// Initiate opens a PromptPay charge for a booking. The payment reference
// is written to the booking before the gateway is called, so a crash
// between the two still leaves a trail to reconcile against.
func (s *serviceImpl) Initiate(ctx context.Context, bookingID string) (res dto.InitiatePaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Initiate")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if err = s.guardActor(ctx, booking); err != nil {
		return res, err
	}

	if booking.PaymentMethod != bookingModel.PaymentMethodPromptPay {
		return res, failure.BadRequestFromString("booking is settled at the counter") // nolint:wrapcheck
	}

	if !isPayable(booking.Status) {
		return res, failure.InvalidTransition("booking is not awaiting payment") // nolint:wrapcheck
	}

	reference := "pay_" + uuid.NewString()

	if err = s.attachReference(ctx, booking.ID, reference); err != nil {
		return res, err
	}

	intent, err := s.provider.CreatePromptPayIntent(ctx, payment.IntentRequest{
		AmountSubunits: booking.TotalPrice,
		Currency:       s.cfg.App.Currency,
		ReferenceID:    reference,
		BookingID:      booking.ID,
		Description:    fmt.Sprintf("Karaoke room %s on %s %s", booking.RoomNumber, s.biz.FormatBusinessDateInput(booking.BookingDate), booking.TimeSlot),
	})
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to create payment intent")

		return res, fmt.Errorf("failed to create payment intent: %w", err)
	}

	// Swap the minted reference for the gateway intent id so it can be
	// polled later. Webhooks carry both, either one reconciles.
	if err = s.attachReference(ctx, booking.ID, intent.ID); err != nil {
		return res, err
	}

	res = dto.InitiatePaymentResponse{
		BookingID:  booking.ID,
		PaymentRef: intent.ID,
		Status:     intent.Status,
		Amount:     intent.Amount,
		Currency:   intent.Currency,
		QRCodeURL:  intent.QRCodeURL,
	}

	return res, nil
}

// HandleWebhook verifies and applies a gateway notification. Unknown event
// kinds are acknowledged without effect.
func (s *serviceImpl) HandleWebhook(ctx context.Context, body []byte, signature string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".HandleWebhook")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = payment.VerifyWebhookSignature(body, signature, s.cfg.External.Payment.WebhookSecret, time.Now()); err != nil {
		log.Warn().Err(err).Msg("rejected webhook with bad signature")

		return failure.Unauthorized("invalid webhook signature") // nolint:wrapcheck
	}

	var event dto.WebhookEvent

	if err = json.Unmarshal(body, &event); err != nil {
		return failure.BadRequestFromString("malformed webhook payload") // nolint:wrapcheck
	}

	if event.Type != dto.EventIntentSucceeded {
		log.Debug().Str("type", event.Type).Msg("ignoring webhook event")

		return nil
	}

	booking, err := s.resolveBooking(ctx, &event)
	if err != nil {
		return err
	}

	_, err = s.applySuccess(ctx, booking)

	return err
}

// Poll asks the gateway for the intent state and reconciles a success,
// covering webhooks that never arrived.
func (s *serviceImpl) Poll(ctx context.Context, bookingID string) (res dto.PaymentStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Poll")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if err = s.guardActor(ctx, booking); err != nil {
		return res, err
	}

	if booking.PaymentRef == nil || *booking.PaymentRef == "" {
		return res, failure.BadRequestFromString("booking has no payment attached") // nolint:wrapcheck
	}

	intent, err := s.provider.GetIntent(ctx, *booking.PaymentRef)
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to get payment intent")

		return res, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if intent.Succeeded() {
		var applied bool

		applied, err = s.applySuccess(ctx, booking)
		if err != nil {
			return res, err
		}

		// A no-op means the booking already left the payable states
		// (completed, refunded, a concurrent reconcile); report what
		// storage holds, not what the gateway says.
		if applied {
			booking.Status = bookingModel.StatusPaid
		}
	}

	res = dto.PaymentStatusResponse{
		BookingID:     booking.ID,
		BookingStatus: booking.Status,
		IntentStatus:  intent.Status,
		QRCodeURL:     intent.QRCodeURL,
	}

	return res, nil
}

// applySuccess promotes a booking to PAID exactly once and reports whether
// this call made the transition. Replayed webhooks and poll/webhook races
// land on the no-op branch.
func (s *serviceImpl) applySuccess(ctx context.Context, booking bookingModel.Booking) (bool, error) {
	if booking.Status == bookingModel.StatusPaid {
		metrics.IncPaymentReconciled(ReconcileOutcomeNoop)

		return false, nil
	}

	applied, err := s.bookings.UpdateStatusIf(ctx, booking.ID, payableStatuses, bookingModel.StatusPaid, constant.SystemActor)
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to mark booking paid")

		return false, fmt.Errorf("failed to mark booking paid: %w", err)
	}

	if !applied {
		metrics.IncPaymentReconciled(ReconcileOutcomeNoop)

		return false, nil
	}

	metrics.IncPaymentReconciled(ReconcileOutcomePaid)

	booking.Status = bookingModel.StatusPaid
	s.notify(ctx, booking)

	return true, nil
}

// resolveBooking finds the booking a gateway event refers to: by the
// booking id carried on the metadata first, then by payment reference.
func (s *serviceImpl) resolveBooking(ctx context.Context, event *dto.WebhookEvent) (bookingModel.Booking, error) {
	if id := event.BookingID(); id != "" {
		booking, err := s.bookings.Get(ctx, shared.FilterByID(id, bookingModel.FieldID, bookingModel.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get booking for webhook")

			return booking, fmt.Errorf("failed to get booking for webhook: %w", err)
		}

		if booking.ID != "" {
			return booking, nil
		}
	}

	refs := []string{}
	if event.Data.Object.ID != "" {
		refs = append(refs, event.Data.Object.ID)
	}

	if ref := event.ReferenceID(); ref != "" {
		refs = append(refs, ref)
	}

	if len(refs) > 0 {
		booking, err := s.bookings.Get(ctx, gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorAnd,
			Filters: []any{
				gDto.Filter{
					Field:    bookingModel.FieldPaymentRef,
					Table:    bookingModel.TableName,
					Value:    refs,
					Operator: gDto.FilterOperatorIn,
				},
			},
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to get booking for webhook")

			return booking, fmt.Errorf("failed to get booking for webhook: %w", err)
		}

		if booking.ID != "" {
			return booking, nil
		}
	}

	return bookingModel.Booking{}, failure.NotFound(bookingModel.EntityName) // nolint:wrapcheck
}

func (s *serviceImpl) attachReference(ctx context.Context, bookingID, reference string) error {
	err := s.bookings.Update(ctx, map[string]any{
		bookingModel.FieldPaymentRef: reference,
		constant.FieldModifiedAt:     timezone.Now(),
		constant.FieldModifiedBy:     constant.SystemActor,
	}, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to attach payment reference")

		return fmt.Errorf("failed to attach payment reference: %w", err)
	}

	return nil
}

func (s *serviceImpl) loadBooking(ctx context.Context, id string) (bookingModel.Booking, error) {
	booking, err := s.bookings.Get(ctx, shared.FilterByID(id, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == "" {
		return booking, failure.NotFound(bookingModel.EntityName) // nolint:wrapcheck
	}

	return booking, nil
}

// guardActor allows staff, the owning customer, and anonymous guests,
// for whom the unguessable booking id is the capability.
func (s *serviceImpl) guardActor(ctx context.Context, booking bookingModel.Booking) error {
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

func (s *serviceImpl) notify(ctx context.Context, booking bookingModel.Booking) {
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

	if err := s.notifier.Notify(ctx, notifier.KindPaid, snapshot); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to send payment notification")
	}
}

func isPayable(status string) bool {
	for _, payable := range payableStatuses {
		if payable == status {
			return true
		}
	}

	return false
}
