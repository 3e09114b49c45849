package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"kbox/config"
	"kbox/infras/otel"
	"kbox/internal/domains/promotion/model"
	"kbox/internal/domains/promotion/model/dto"
	"kbox/internal/domains/promotion/repository"
	"kbox/shared"
	"kbox/shared/cache"
	"kbox/shared/constant"
	gDto "kbox/shared/dto"
	"kbox/shared/failure"
	"kbox/shared/timezone"
)

const (
	cacheGetPromotion    = "promotion:get"
	cacheGetAllPromotion = "promotion:gets"
	cacheCountPromotion  = "promotion:count"
)

type Promotion interface {
	Create(ctx context.Context, req dto.CreatePromotionRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetPromotionsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.PromotionResponse, error)
	Update(ctx context.Context, req dto.UpdatePromotionRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.Promotion
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	biz   *timezone.Business
}

func New(repo repository.Promotion, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, biz *timezone.Business) Promotion {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		biz:   biz,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreatePromotionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	discountType, ok := model.NormalizeType(req.Type)
	if !ok {
		return failure.BadRequestFromString("unknown discount type") // nolint:wrapcheck
	}

	if discountType == model.TypePercent && req.Value > 100 {
		return failure.BadRequestFromString("percent discount cannot exceed 100") // nolint:wrapcheck
	}

	startsAt, ok := s.biz.ParseBusinessDate(req.StartsAt)
	if !ok {
		return failure.BadRequestFromString("invalid starts_at date") // nolint:wrapcheck
	}

	endsAt := startsAt
	if req.EndsAt != "" {
		endsAt, ok = s.biz.ParseBusinessDate(req.EndsAt)
		if !ok {
			return failure.BadRequestFromString("invalid ends_at date") // nolint:wrapcheck
		}

		if endsAt.Before(startsAt) {
			return failure.BadRequestFromString("ends_at cannot precede starts_at") // nolint:wrapcheck
		}

		// The window closes at the end of the last business day.
		endsAt = s.biz.AddBusinessDays(endsAt, 1).Add(-1)
	} else {
		// Zero EndsAt means open-ended.
		endsAt = time.Time{}
	}

	code := model.NormalizeCode(req.Code)

	taken, err := s.repo.Exist(ctx, shared.FilterByID(code, model.FieldCode, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check promotion code")

		return fmt.Errorf("failed to check promotion code: %w", err)
	}

	if taken {
		return failure.Conflict("promotion code already in use") // nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, req.ToModel(user, discountType, startsAt, endsAt)); err != nil {
		log.Error().Err(err).Msg("failed to create promotion")

		return fmt.Errorf("failed to create promotion: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllPromotion)
		shared.InvalidateCaches(c, s.cache, cacheCountPromotion)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetPromotionsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllPromotion, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for promotions")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count promotions")

		return res, fmt.Errorf("failed to count promotions: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get promotions")

		return res, fmt.Errorf("failed to get promotions: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save promotions to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountPromotion, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for promotion count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count promotions")

		return res, fmt.Errorf("failed to count promotions: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save promotion count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.PromotionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(nil)

	cacheKey := shared.BuildCacheKey(cacheGetPromotion, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for promotion")

		return res, nil
	}

	promotion, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get promotion")

		return res, fmt.Errorf("failed to get promotion: %w", err)
	}

	if promotion.ID == constant.Empty {
		return res, failure.NotFound("promotion not found") // nolint:wrapcheck
	}

	res.FromModel(promotion)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save promotion to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdatePromotionRequest, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(nil)

	if req == (dto.UpdatePromotionRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if promotion exists")

		return fmt.Errorf("failed to check if promotion exists: %w", err)
	}

	if !exist {
		log.Error().Msg("promotion not found")

		return failure.NotFound("promotion not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)
	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update promotion")

		return fmt.Errorf("failed to update promotion: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetPromotion, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete promotion cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllPromotion)
		shared.InvalidateCaches(c, s.cache, cacheCountPromotion)
	}()

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(nil)

	exist, err := s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if promotion exists")

		return fmt.Errorf("failed to check if promotion exists: %w", err)
	}

	if !exist {
		log.Error().Msg("promotion not found")

		return failure.NotFound("promotion not found") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete promotion")

		return fmt.Errorf("failed to delete promotion: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetPromotion, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete promotion from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllPromotion)
		shared.InvalidateCaches(c, s.cache, cacheCountPromotion)
	}()

	return nil
}
