package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kbox/config"
	"kbox/infras/otel/mocks"
	"kbox/infras/payment"
	paymentMocks "kbox/infras/payment/mocks"
	bookingMocks "kbox/internal/domains/booking/mocks"
	bookingModel "kbox/internal/domains/booking/model"
	"kbox/internal/domains/payment/service"
	"kbox/internal/notifier"
	notifMocks "kbox/internal/notifier/mocks"
	"kbox/shared/constant"
	"kbox/shared/failure"
	"kbox/shared/timezone"
)

const webhookSecret = "whsec_test"

type fixture struct {
	bookings *bookingMocks.MockBooking
	provider *paymentMocks.MockProvider
	notifier *notifMocks.MockNotifier
	svc      service.Payment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	biz, ok := timezone.FromOffset("+07:00")
	require.True(t, ok)

	cfg := &config.Config{}
	cfg.App.Currency = "thb"
	cfg.External.Payment.WebhookSecret = webhookSecret

	f := &fixture{
		bookings: bookingMocks.NewMockBooking(ctrl),
		provider: paymentMocks.NewMockProvider(ctrl),
		notifier: notifMocks.NewMockNotifier(ctrl),
	}

	f.svc = service.New(f.bookings, f.provider, f.notifier, biz, cfg, mocks.NewOtel())

	return f
}

func ownerCtx() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
	ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, "somchai@example.com")

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleCustomer)
}

func promptPayBooking() bookingModel.Booking {
	biz, _ := timezone.FromOffset("+07:00")

	return bookingModel.Booking{
		ID:            "booking-1",
		Code:          "KB-A1B2C3D4",
		RoomNumber:    "KR-01",
		CustomerName:  "Somchai",
		CustomerEmail: "somchai@example.com",
		CustomerPhone: "+66811111111",
		BookingDate:   biz.StartOfBusinessDay(biz.AddBusinessDays(biz.Now(), 2)),
		TimeSlot:      "12:00-14:00",
		PaymentMethod: bookingModel.PaymentMethodPromptPay,
		TotalPrice:    40000,
		Status:        bookingModel.StatusPending,
	}
}

func signedEvent(t *testing.T, body string) (payload []byte, signature string) {
	t.Helper()

	payload = []byte(body)

	return payload, payment.SignWebhookPayload(payload, webhookSecret, time.Now())
}

func TestPaymentService_Initiate(t *testing.T) {
	t.Run("creates an intent with the reference attached first", func(t *testing.T) {
		f := newFixture(t)

		var refs []string

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promptPayBooking(), nil)
		f.bookings.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req map[string]any, _ any) error {
				ref, _ := req[bookingModel.FieldPaymentRef].(string)
				refs = append(refs, ref)
				return nil
			}).Times(2)
		f.provider.EXPECT().CreatePromptPayIntent(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
				assert.Equal(t, int64(40000), req.AmountSubunits)
				assert.Equal(t, "thb", req.Currency)
				assert.Equal(t, "booking-1", req.BookingID)
				assert.True(t, strings.HasPrefix(req.ReferenceID, "pay_"))

				return &payment.Intent{
					ID:        "pi_123",
					Status:    payment.IntentStatusRequiresAction,
					Amount:    40000,
					Currency:  "thb",
					QRCodeURL: "https://gateway.test/qr/pi_123",
				}, nil
			})

		res, err := f.svc.Initiate(ownerCtx(), "booking-1")

		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.True(t, strings.HasPrefix(refs[0], "pay_"), "minted reference attached before the gateway call")
		assert.Equal(t, "pi_123", refs[1])
		assert.Equal(t, "pi_123", res.PaymentRef)
		assert.Equal(t, payment.IntentStatusRequiresAction, res.Status)
		assert.Equal(t, "https://gateway.test/qr/pi_123", res.QRCodeURL)
	})

	t.Run("cash bookings have nothing to initiate", func(t *testing.T) {
		f := newFixture(t)

		booking := promptPayBooking()
		booking.PaymentMethod = bookingModel.PaymentMethodCash

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := f.svc.Initiate(ownerCtx(), "booking-1")

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindValidation))
	})

	t.Run("paid booking is not awaiting payment", func(t *testing.T) {
		f := newFixture(t)

		booking := promptPayBooking()
		booking.Status = bookingModel.StatusPaid

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := f.svc.Initiate(ownerCtx(), "booking-1")

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindInvalidTransition))
	})

	t.Run("stranger cannot pay for someone else's booking", func(t *testing.T) {
		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promptPayBooking(), nil)

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserEmail, "other@example.com")
		_, err := f.svc.Initiate(ctx, "booking-1")

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindForbidden))
	})
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	succeededBody := fmt.Sprintf(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_123",
			"status": "succeeded",
			"amount": 40000,
			"currency": "thb",
			"metadata": {"booking_id": %q, "reference_id": "pay_abc"}
		}}
	}`, "booking-1")

	t.Run("marks the booking paid once", func(t *testing.T) {
		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promptPayBooking(), nil)
		f.bookings.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", gomock.Any(), bookingModel.StatusPaid, constant.SystemActor).
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindPaid, gomock.Any()).Return(nil)

		body, sig := signedEvent(t, succeededBody)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), body, sig))
	})

	t.Run("replayed webhook is a no-op", func(t *testing.T) {
		f := newFixture(t)

		booking := promptPayBooking()
		booking.Status = bookingModel.StatusPaid

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		body, sig := signedEvent(t, succeededBody)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), body, sig))
	})

	t.Run("concurrent reconciliation loses quietly", func(t *testing.T) {
		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promptPayBooking(), nil)
		f.bookings.EXPECT().
			UpdateStatusIf(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(false, nil)

		body, sig := signedEvent(t, succeededBody)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), body, sig))
	})

	t.Run("falls back to the payment reference", func(t *testing.T) {
		f := newFixture(t)

		noIDBody := `{
			"type": "payment_intent.succeeded",
			"data": {"object": {"id": "pi_123", "status": "succeeded", "metadata": {}}}
		}`

		ref := "pi_123"
		booking := promptPayBooking()
		booking.PaymentRef = &ref

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		f.bookings.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", gomock.Any(), bookingModel.StatusPaid, gomock.Any()).
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindPaid, gomock.Any()).Return(nil)

		body, sig := signedEvent(t, noIDBody)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), body, sig))
	})

	t.Run("unmatched event is not found", func(t *testing.T) {
		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(bookingModel.Booking{}, nil).Times(2)

		body, sig := signedEvent(t, succeededBody)
		err := f.svc.HandleWebhook(context.Background(), body, sig)

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})

	t.Run("other event kinds are acknowledged and dropped", func(t *testing.T) {
		f := newFixture(t)

		body, sig := signedEvent(t, `{"type": "payment_intent.created", "data": {"object": {"id": "pi_123"}}}`)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), body, sig))
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		f := newFixture(t)

		body, sig := signedEvent(t, succeededBody)
		tampered := append([]byte{}, body...)
		tampered[0] = '['

		err := f.svc.HandleWebhook(context.Background(), tampered, sig)

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindUnauthorized))
	})
}

func TestPaymentService_Poll(t *testing.T) {
	t.Run("reconciles a success the webhook missed", func(t *testing.T) {
		f := newFixture(t)

		ref := "pi_123"
		booking := promptPayBooking()
		booking.PaymentRef = &ref

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		f.provider.EXPECT().GetIntent(gomock.Any(), "pi_123").Return(&payment.Intent{
			ID:     "pi_123",
			Status: payment.IntentStatusSucceeded,
		}, nil)
		f.bookings.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", gomock.Any(), bookingModel.StatusPaid, gomock.Any()).
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), notifier.KindPaid, gomock.Any()).Return(nil)

		res, err := f.svc.Poll(ownerCtx(), "booking-1")

		require.NoError(t, err)
		assert.Equal(t, bookingModel.StatusPaid, res.BookingStatus)
		assert.Equal(t, payment.IntentStatusSucceeded, res.IntentStatus)
	})

	t.Run("stored status wins when nothing was applied", func(t *testing.T) {
		f := newFixture(t)

		ref := "pi_123"
		booking := promptPayBooking()
		booking.PaymentRef = &ref
		booking.Status = bookingModel.StatusCompleted

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		f.provider.EXPECT().GetIntent(gomock.Any(), "pi_123").Return(&payment.Intent{
			ID:     "pi_123",
			Status: payment.IntentStatusSucceeded,
		}, nil)
		f.bookings.EXPECT().
			UpdateStatusIf(gomock.Any(), "booking-1", gomock.Any(), bookingModel.StatusPaid, gomock.Any()).
			Return(false, nil)

		res, err := f.svc.Poll(ownerCtx(), "booking-1")

		require.NoError(t, err)
		assert.Equal(t, bookingModel.StatusCompleted, res.BookingStatus)
		assert.Equal(t, payment.IntentStatusSucceeded, res.IntentStatus)
	})

	t.Run("pending intent reports as-is", func(t *testing.T) {
		f := newFixture(t)

		ref := "pi_123"
		booking := promptPayBooking()
		booking.PaymentRef = &ref

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		f.provider.EXPECT().GetIntent(gomock.Any(), "pi_123").Return(&payment.Intent{
			ID:        "pi_123",
			Status:    payment.IntentStatusRequiresAction,
			QRCodeURL: "https://gateway.test/qr/pi_123",
		}, nil)

		res, err := f.svc.Poll(ownerCtx(), "booking-1")

		require.NoError(t, err)
		assert.Equal(t, bookingModel.StatusPending, res.BookingStatus)
		assert.Equal(t, payment.IntentStatusRequiresAction, res.IntentStatus)
		assert.Equal(t, "https://gateway.test/qr/pi_123", res.QRCodeURL)
	})

	t.Run("nothing attached to poll", func(t *testing.T) {
		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promptPayBooking(), nil)

		_, err := f.svc.Poll(ownerCtx(), "booking-1")

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindValidation))
	})
}
