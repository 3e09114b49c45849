package payment

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"kbox/infras/otel"
	"kbox/internal/domains/payment/service"
	"kbox/shared/constant"
	"kbox/shared/failure"
	"kbox/transport/http/response"
)

type Handler struct {
	service service.Payment
	otel    otel.Otel
}

func New(service service.Payment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Post("/webhook", handler.HandleWebhook)
		routerGroup.Post("/{id}", handler.InitiatePayment)
		routerGroup.Get("/{id}", handler.GetPaymentStatus)
	})
}

// InitiatePayment creates a PromptPay payment intent for a booking.
// @Summary Initiate payment
// @Description Create a PromptPay QR payment intent for a pending booking.
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.InitiatePaymentResponse] "Payment intent created"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id} [post]
func (handler *Handler) InitiatePayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".InitiatePayment")
	defer scope.End()

	bookingID := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Initiate(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to initiate payment")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// HandleWebhook ingests payment gateway events.
// @Summary Payment webhook
// @Description Receive signed payment events from the gateway and reconcile bookings.
// @Tags Payment
// @Accept json
// @Produce json
// @Param X-Payment-Signature header string true "Webhook signature"
// @Success 200 {object} response.Message "Webhook processed"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/webhook [post]
func (handler *Handler) HandleWebhook(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".HandleWebhook")
	defer scope.End()

	body, err := io.ReadAll(request.Body)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read webhook body")

		response.WithError(writer, failure.BadRequestFromString("unreadable request body"))

		return
	}

	signature := request.Header.Get(constant.RequestHeaderSignature)

	if err = handler.service.HandleWebhook(ctx, body, signature); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to process payment webhook")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Webhook processed")
}

// GetPaymentStatus polls the gateway for the booking's payment state.
// @Summary Get payment status
// @Description Poll the payment intent of a booking and reconcile if it succeeded.
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.PaymentStatusResponse] "Payment status"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id} [get]
func (handler *Handler) GetPaymentStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPaymentStatus")
	defer scope.End()

	bookingID := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Poll(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payment status")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
