package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/paygate/internal/adapter/storage"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var orderColumns = []string{
	"id", "provider", "provider_order_id", "idempotency_key",
	"amount", "currency", "status", "metadata", "created_at", "updated_at",
}

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, provider domain.Provider, key string) (*domain.Order, error) {
	return r.findOne(ctx, sq.Eq{"provider": provider, "idempotency_key": key})
}

func (r *Repository) FindByProviderOrderID(ctx context.Context, provider domain.Provider, providerOrderID string) (*domain.Order, error) {
	return r.findOne(ctx, sq.Eq{"provider": provider, "provider_order_id": providerOrderID})
}

func (r *Repository) findOne(ctx context.Context, where sq.Eq) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(where).
		Limit(1)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return order, nil
}

// InsertIfAbsent relies on the unique indexes of the orders table; a unique
// violation is the signal that a concurrent request already stored the order.
func (r *Repository) InsertIfAbsent(ctx context.Context, order *domain.Order) (domain.InsertOutcome, error) {
	metadata, err := json.Marshal(metadataOrEmpty(order.Metadata))
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}

	statement := r.db.QueryBuilder.Insert("orders").
		Columns(orderColumns...).
		Values(order.ID, order.Provider, nullable(order.ProviderOrderID), nullable(order.IdempotencyKey),
			order.Amount, order.Currency, order.Status, metadata, order.CreatedAt, order.UpdatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return 0, err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.InsertConflict, nil
		}
		return 0, err
	}
	return domain.InsertInserted, nil
}

// UpdateStatusIfAdvancing moves the status forward in one conditional update,
// so two concurrent deliveries cannot both advance from the same status.
func (r *Repository) UpdateStatusIfAdvancing(ctx context.Context, provider domain.Provider, providerOrderID string,
	status domain.OrderStatus) (domain.UpdateOutcome, error) {
	predecessors := status.Predecessors()
	if len(predecessors) > 0 {
		from := make([]string, 0, len(predecessors))
		for _, p := range predecessors {
			from = append(from, string(p))
		}

		statement := r.db.QueryBuilder.Update("orders").
			Set("status", status).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"provider": provider, "provider_order_id": providerOrderID, "status": from})

		sql, args, err := statement.ToSql()
		if err != nil {
			return 0, err
		}

		tag, err := r.db.Exec(ctx, sql, args...)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() > 0 {
			return domain.UpdateAdvanced, nil
		}
	}

	_, err := r.FindByProviderOrderID(ctx, provider, providerOrderID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.UpdateNotFound, nil
		}
		return 0, err
	}
	return domain.UpdateUnchanged, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := domain.Order{}
	var providerOrderID, idempotencyKey *string
	var metadata []byte

	err := row.Scan(
		&order.ID,
		&order.Provider,
		&providerOrderID,
		&idempotencyKey,
		&order.Amount,
		&order.Currency,
		&order.Status,
		&metadata,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if providerOrderID != nil {
		order.ProviderOrderID = *providerOrderID
	}
	if idempotencyKey != nil {
		order.IdempotencyKey = *idempotencyKey
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &order.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return &order, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func metadataOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
