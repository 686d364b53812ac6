package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/listing"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/returns/dto"
)

var returnSortColumns = map[string]string{
	"id":         "r.id",
	"status":     "r.status",
	"created_at": "r.created_at",
	"updated_at": "r.updated_at",
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) q(ext sqlx.ExtContext) sqlx.ExtContext {
	if ext == nil {
		return r.DB
	}
	return ext
}

func (r *PGRepository) Get(ctx context.Context, ext sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error) {
	return r.get(ctx, ext, returnID, false)
}

func (r *PGRepository) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error) {
	return r.get(ctx, ext, returnID, true)
}

func (r *PGRepository) get(ctx context.Context, ext sqlx.ExtContext, returnID int64, forUpdate bool) (*model.ReturnRequest, error) {
	query := `SELECT * FROM return_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var ret model.ReturnRequest
	if err := sqlx.GetContext(ctx, r.q(ext), &ret, query, returnID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load return %d: %w", returnID, err)
	}
	return &ret, nil
}

func (r *PGRepository) Create(ctx context.Context, ext sqlx.ExtContext, ret *model.ReturnRequest) (*model.ReturnRequest, error) {
	var out model.ReturnRequest
	query := `
        INSERT INTO return_requests (order_id, status, reason)
        VALUES ($1, $2, $3)
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query, ret.OrderID, ret.Status, ret.Reason)
	if err != nil {
		return nil, fmt.Errorf("failed to create return for order %d: %w", ret.OrderID, err)
	}
	return &out, nil
}

func (r *PGRepository) Save(ctx context.Context, ext sqlx.ExtContext, ret *model.ReturnRequest) error {
	_, err := r.q(ext).ExecContext(ctx, `
        UPDATE return_requests
        SET status = $1, reason = $2, updated_at = now()
        WHERE id = $3`,
		ret.Status, ret.Reason, ret.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save return %d: %w", ret.ID, err)
	}
	return nil
}

func (r *PGRepository) ListItems(ctx context.Context, ext sqlx.ExtContext, returnID int64) ([]model.ReturnItem, error) {
	var items []model.ReturnItem
	query := `SELECT * FROM return_items WHERE return_id = $1 ORDER BY id ASC`
	if err := sqlx.SelectContext(ctx, r.q(ext), &items, query, returnID); err != nil {
		return nil, fmt.Errorf("failed to list items for return %d: %w", returnID, err)
	}
	return items, nil
}

func (r *PGRepository) GetItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) (*model.ReturnItem, error) {
	var it model.ReturnItem
	query := `SELECT * FROM return_items WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q(ext), &it, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load return item %d: %w", itemID, err)
	}
	return &it, nil
}

func (r *PGRepository) AddItem(ctx context.Context, ext sqlx.ExtContext, it *model.ReturnItem) (*model.ReturnItem, error) {
	var out model.ReturnItem
	query := `
        INSERT INTO return_items (return_id, order_item_id, qty)
        VALUES ($1, $2, $3)
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query, it.ReturnID, it.OrderItemID, it.Qty)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to return %d: %w", it.ReturnID, err)
	}
	return &out, nil
}

func (r *PGRepository) SaveItem(ctx context.Context, ext sqlx.ExtContext, it *model.ReturnItem) (*model.ReturnItem, error) {
	var out model.ReturnItem
	query := `
        UPDATE return_items
        SET qty = $1, updated_at = now()
        WHERE id = $2
        RETURNING *`
	if err := sqlx.GetContext(ctx, r.q(ext), &out, query, it.Qty, it.ID); err != nil {
		return nil, fmt.Errorf("failed to save return item %d: %w", it.ID, err)
	}
	return &out, nil
}

func (r *PGRepository) DeleteItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) error {
	_, err := r.q(ext).ExecContext(ctx, `DELETE FROM return_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete return item %d: %w", itemID, err)
	}
	return nil
}

func (r *PGRepository) ReturnedQtyForOrderItem(ctx context.Context, ext sqlx.ExtContext, orderItemID int64, excludeReturnID int64) (int, error) {
	var total int
	query := `
        SELECT coalesce(sum(ri.qty), 0)
        FROM return_items ri
        JOIN return_requests rr ON rr.id = ri.return_id
        WHERE ri.order_item_id = $1
          AND rr.status NOT IN ('rejected', 'closed')
          AND rr.id <> $2`
	if err := sqlx.GetContext(ctx, r.q(ext), &total, query, orderItemID, excludeReturnID); err != nil {
		return 0, fmt.Errorf("failed to sum returned qty for order item %d: %w", orderItemID, err)
	}
	return total, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.ReturnFilters) ([]model.ReturnRequest, int, error) {
	conditions := []string{"1 = 1"}
	args := map[string]interface{}{}

	if f.OrderID != nil {
		conditions = append(conditions, "r.order_id = :order_id")
		args["order_id"] = *f.OrderID
	}
	if f.UserID != nil {
		// Ownership goes through the order; returns carry no user column.
		conditions = append(conditions, "o.user_id = :user_id")
		args["user_id"] = *f.UserID
	}
	if len(f.Status) > 0 {
		conditions = append(conditions, "r.status IN (:status)")
		args["status"] = f.Status
	}

	from := " FROM return_requests r JOIN orders o ON o.id = r.order_id"
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*)"+from+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	countQuery, countArgs, err = sqlx.In(countQuery, countArgs...)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	orderBy := listing.SafeOrderBy(f.Sort, returnSortColumns, "r.created_at DESC")
	query := "SELECT r.*" + from + whereClause + " ORDER BY " + orderBy + ", r.id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	query, qargs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	query, qargs, err = sqlx.In(query, qargs...)
	if err != nil {
		return nil, 0, err
	}

	var items []model.ReturnRequest
	err = r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), qargs...)
	return items, count, err
}
