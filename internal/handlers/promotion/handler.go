package promotion

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"kbox/infras/otel"
	"kbox/internal/domains/promotion/model"
	"kbox/internal/domains/promotion/model/dto"
	"kbox/internal/domains/promotion/service"
	"kbox/shared"
	"kbox/shared/constant"
	gDto "kbox/shared/dto"
	"kbox/shared/validator"
	"kbox/transport/http/response"
)

type Handler struct {
	service service.Promotion
	otel    otel.Otel
}

func New(service service.Promotion, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/promotions", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreatePromotion)
		routerGroup.Get("/", handler.GetPromotions)
		routerGroup.Get("/{id}", handler.GetPromotionByID)
		routerGroup.Patch("/{id}", handler.UpdatePromotion)
		routerGroup.Delete("/{id}", handler.DeletePromotion)
	})
}

// CreatePromotion handles the creation of a new promotion.
// @Summary Create a new promotion
// @Description Create a promo code with a discount and validity window.
// @Tags Promotion
// @Accept json
// @Produce json
// @Param request body dto.CreatePromotionRequest true "Create Promotion Request"
// @Success 201 {object} response.Message "Promotion created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promotions [post]
// @Security BearerAuth
func (handler *Handler) CreatePromotion(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreatePromotion")
	defer scope.End()

	req := dto.CreatePromotionRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create promotion")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Promotion created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Promotion created successfully")
}

// GetPromotions retrieves all promotions based on query parameters.
// @Summary Get all promotions
// @Description Retrieve all promotions with optional filtering and pagination.
// @Tags Promotion
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param code query string false "Filter by code"
// @Param active query boolean false "Filter by active status"
// @Success 200 {object} response.Data[dto.GetPromotionsResponse] "List of promotions"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promotions [get]
func (handler *Handler) GetPromotions(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPromotions")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldName,
				Operator: gDto.FilterOperatorLike,
				Value:    r.URL.Query().Get(model.FieldName),
				Table:    model.TableName,
			},
		},
	}

	if code := r.URL.Query().Get(model.FieldCode); code != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldCode,
			Operator: gDto.FilterOperatorEq,
			Value:    model.NormalizeCode(code),
			Table:    model.TableName,
		})
	}

	if active := shared.ConvertStringToBool(r.URL.Query().Get(model.FieldActive)); active != nil {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldActive,
			Operator: gDto.FilterOperatorEq,
			Value:    *active,
			Table:    model.TableName,
		})
	}

	promotions, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get promotions")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Promotions retrieved successfully")

	response.WithJSON(w, http.StatusOK, promotions)
}

// GetPromotionByID retrieves a promotion by its ID.
// @Summary Get a promotion by ID
// @Tags Promotion
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} response.Data[dto.PromotionResponse] "Promotion details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promotions/{id} [get]
func (handler *Handler) GetPromotionByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPromotionByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	promotion, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get promotion by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Promotion retrieved successfully")

	response.WithJSON(w, http.StatusOK, promotion)
}

// UpdatePromotion updates an existing promotion by its ID.
// @Summary Update a promotion by ID
// @Tags Promotion
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Param request body dto.UpdatePromotionRequest true "Update Promotion Request"
// @Success 200 {object} response.Message "Promotion updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promotions/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdatePromotion")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdatePromotionRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update promotion")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Promotion updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Promotion updated successfully")
}

// DeletePromotion deactivates a promotion by its ID.
// @Summary Delete a promotion by ID
// @Tags Promotion
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} response.Message "Promotion deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/promotions/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeletePromotion")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete promotion")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Promotion deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Promotion deleted successfully")
}
