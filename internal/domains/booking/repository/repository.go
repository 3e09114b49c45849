package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"kbox/infras/otel"
	"kbox/infras/postgres"
	"kbox/internal/domains/booking/model"
	"kbox/shared/constant"
	gDto "kbox/shared/dto"
	"kbox/shared/failure"
	"kbox/shared/logger"
	gRepo "kbox/shared/repository"
	"kbox/shared/timezone"
)

type Booking interface {
	Insert(ctx context.Context, booking model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	FindConflict(ctx context.Context, roomNumber string, date time.Time, timeSlot string, pendingCutoff time.Time, excludeID string) (model.Booking, error)
	ListForDay(ctx context.Context, roomNumber string, date time.Time, pendingCutoff time.Time) ([]model.Booking, error)
	UpdateStatusIf(ctx context.Context, id string, from []string, to, modifiedBy string) (bool, error)
	ExpireStale(ctx context.Context, cutoff time.Time) ([]model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// Insert translates the slot unique-index violation into a conflict so
// two racing creates never both succeed.
func (repo *repositoryImpl) Insert(ctx context.Context, booking model.Booking) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Insert")
	defer scope.End()

	err := repo.Repository.Insert(ctx, booking)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation {
			scope.TraceError(err)

			// nolint:wrapcheck
			return failure.Conflict("time slot is already booked for this room")
		}

		return err //nolint:wrapcheck
	}

	return nil
}

// occupancyFilter matches bookings that hold a slot: confirmed statuses
// unconditionally, plus PENDING holds younger than the cutoff. A hold
// created exactly one expiry window ago is already expirable, so the
// comparison is strict.
func occupancyFilter(pendingCutoff time.Time) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorOr,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldStatus,
				ArgName:  "status_confirmed",
				Value:    model.ConfirmedOccupyingStatuses,
				Operator: gDto.FilterOperatorIn,
			},
			gDto.FilterGroup{
				Operator: gDto.FilterGroupOperatorAnd,
				Filters: []any{
					gDto.Filter{
						Field:    model.FieldStatus,
						ArgName:  "status_pending",
						Value:    model.StatusPending,
						Operator: gDto.FilterOperatorEq,
					},
					gDto.Filter{
						Field:    "created_at",
						ArgName:  "pending_cutoff",
						Value:    pendingCutoff,
						Operator: gDto.FilterOperatorGreater,
					},
				},
			},
		},
	}
}

func (repo *repositoryImpl) FindConflict(ctx context.Context, roomNumber string, date time.Time, timeSlot string, pendingCutoff time.Time, excludeID string) (model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".FindConflict")
	defer scope.End()

	filters := []any{
		gDto.Filter{Field: model.FieldRoomNumber, Value: roomNumber, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldBookingDate, Value: date, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldTimeSlot, Value: timeSlot, Operator: gDto.FilterOperatorEq},
		occupancyFilter(pendingCutoff),
	}

	if excludeID != "" {
		filters = append(filters, gDto.Filter{
			Field:    model.FieldID,
			Value:    excludeID,
			Operator: gDto.FilterOperatorNotEq,
		})
	}

	return repo.Get(ctx, gDto.FilterGroup{ //nolint:wrapcheck
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  filters,
	})
}

func (repo *repositoryImpl) ListForDay(ctx context.Context, roomNumber string, date time.Time, pendingCutoff time.Time) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ListForDay")
	defer scope.End()

	return repo.GetAll(ctx, gDto.QueryParams{SortBy: model.FieldTimeSlot, SortDir: "ASC"}, gDto.FilterGroup{ //nolint:wrapcheck
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldRoomNumber, Value: roomNumber, Operator: gDto.FilterOperatorEq},
			gDto.Filter{Field: model.FieldBookingDate, Value: date, Operator: gDto.FilterOperatorEq},
			occupancyFilter(pendingCutoff),
		},
	})
}

// UpdateStatusIf flips the status only when the current one is still in
// the expected set. The guard and the write happen in one statement so
// concurrent updates cannot double-apply a transition.
func (repo *repositoryImpl) UpdateStatusIf(ctx context.Context, id string, from []string, to, modifiedBy string) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".UpdateStatusIf")
	defer scope.End()

	named := make([]string, len(from))
	args := map[string]any{
		"id":          id,
		"status":      to,
		"modified_at": timezone.Now(),
		"modified_by": modifiedBy,
	}

	for idx, status := range from {
		named[idx] = fmt.Sprintf(":from_%d", idx)
		args[fmt.Sprintf("from_%d", idx)] = status
	}

	query := fmt.Sprintf(
		"UPDATE %s SET status = :status, modified_at = :modified_at, modified_by = :modified_by WHERE id = :id AND status IN (%s)",
		model.TableName, strings.Join(named, ", "),
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.NamedExecContext(ctx, query, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to update status (%s): %w", model.EntityName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to update status (%s): %w", model.EntityName, err)
	}

	return affected > 0, nil
}

// ExpireStale cancels PENDING holds on expirable payment methods created
// at or before the cutoff and returns the affected bookings.
func (repo *repositoryImpl) ExpireStale(ctx context.Context, cutoff time.Time) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ExpireStale")
	defer scope.End()

	named := make([]string, len(model.ExpirableMethods))
	args := map[string]any{
		"status_pending":   model.StatusPending,
		"status_cancelled": model.StatusCancelled,
		"cutoff":           cutoff,
		"modified_at":      timezone.Now(),
		"modified_by":      constant.SystemActor,
	}

	for idx, method := range model.ExpirableMethods {
		named[idx] = fmt.Sprintf(":method_%d", idx)
		args[fmt.Sprintf("method_%d", idx)] = method
	}

	query := fmt.Sprintf(
		"UPDATE %s SET status = :status_cancelled, modified_at = :modified_at, modified_by = :modified_by "+
			"WHERE status = :status_pending AND payment_method IN (%s) AND created_at <= :cutoff RETURNING *",
		model.TableName, strings.Join(named, ", "),
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	rows, err := repo.db.Write.NamedQueryContext(ctx, query, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to expire stale bookings: %w", err)
	}
	defer rows.Close()

	expired := []model.Booking{}

	for rows.Next() {
		var booking model.Booking
		if err := rows.StructScan(&booking); err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)

			return nil, fmt.Errorf("failed to expire stale bookings: %w", err)
		}

		expired = append(expired, booking)
	}

	if err := rows.Err(); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to expire stale bookings: %w", err)
	}

	return expired, nil
}
