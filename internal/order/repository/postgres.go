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
	"github.com/tuanvm/fashionstore-backend/internal/order/dto"
)

var orderSortColumns = map[string]string{
	"id":           "id",
	"order_number": "order_number",
	"status":       "status",
	"total":        "total_cents",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"paid_at":      "paid_at",
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

func (r *PGRepository) Get(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Order, error) {
	return r.get(ctx, ext, orderID, false)
}

func (r *PGRepository) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Order, error) {
	return r.get(ctx, ext, orderID, true)
}

func (r *PGRepository) get(ctx context.Context, ext sqlx.ExtContext, orderID int64, forUpdate bool) (*model.Order, error) {
	query := `SELECT * FROM orders WHERE id = $1 AND deleted_at IS NULL`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var o model.Order
	if err := sqlx.GetContext(ctx, r.q(ext), &o, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &o, nil
}

func (r *PGRepository) GetByNumber(ctx context.Context, ext sqlx.ExtContext, orderNumber string) (*model.Order, error) {
	var o model.Order
	query := `SELECT * FROM orders WHERE order_number = $1 AND deleted_at IS NULL`
	if err := sqlx.GetContext(ctx, r.q(ext), &o, query, orderNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load order %q: %w", orderNumber, err)
	}
	return &o, nil
}

func (r *PGRepository) Create(ctx context.Context, ext sqlx.ExtContext, o *model.Order) (*model.Order, error) {
	var out model.Order
	query := `
        INSERT INTO orders (
            order_number, user_id, status,
            subtotal_cents, shipping_fee_cents, discount_cents, total_cents, currency,
            paid_at, cancelled_at, fulfilled_at,
            ship_full_name, ship_mobile_num, ship_detail_address,
            ship_province_name, ship_district_name, ship_ward_name, ship_zip_code
        )
        VALUES (
            :order_number, :user_id, :status,
            :subtotal_cents, :shipping_fee_cents, :discount_cents, :total_cents, :currency,
            :paid_at, :cancelled_at, :fulfilled_at,
            :ship_full_name, :ship_mobile_num, :ship_detail_address,
            :ship_province_name, :ship_district_name, :ship_ward_name, :ship_zip_code
        )
        RETURNING *`

	rows, err := sqlx.NamedQueryContext(ctx, r.q(ext), query, o)
	if err != nil {
		return nil, fmt.Errorf("failed to create order %q: %w", o.OrderNumber, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, fmt.Errorf("failed to create order %q: no row returned", o.OrderNumber)
	}
	if err := rows.StructScan(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PGRepository) Save(ctx context.Context, ext sqlx.ExtContext, o *model.Order) error {
	_, err := r.q(ext).ExecContext(ctx, `
        UPDATE orders
        SET status = $1, paid_at = $2, cancelled_at = $3, fulfilled_at = $4, updated_at = now()
        WHERE id = $5`,
		o.Status, o.PaidAt, o.CancelledAt, o.FulfilledAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save order %d: %w", o.ID, err)
	}
	return nil
}

func (r *PGRepository) AddItem(ctx context.Context, ext sqlx.ExtContext, it *model.OrderItem) (*model.OrderItem, error) {
	var out model.OrderItem
	query := `
        INSERT INTO order_items (
            order_id, product_id, variant_id, name, sku, color, size,
            qty, unit_price_cents, line_total_cents
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query,
		it.OrderID, it.ProductID, it.VariantID, it.Name, it.SKU, it.Color, it.Size,
		it.Qty, it.UnitPriceCents, it.LineTotalCents)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to order %d: %w", it.OrderID, err)
	}
	return &out, nil
}

func (r *PGRepository) ListItems(ctx context.Context, ext sqlx.ExtContext, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	query := `SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at ASC, id ASC`
	if err := sqlx.SelectContext(ctx, r.q(ext), &items, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to list items for order %d: %w", orderID, err)
	}
	return items, nil
}

func (r *PGRepository) GetItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) (*model.OrderItem, error) {
	var it model.OrderItem
	query := `SELECT * FROM order_items WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q(ext), &it, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load order item %d: %w", itemID, err)
	}
	return &it, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := map[string]interface{}{}

	if f.UserID != nil {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = *f.UserID
	}
	if len(f.Status) > 0 {
		conditions = append(conditions, "status IN (:status)")
		args["status"] = f.Status
	}
	if f.CreatedFrom != nil {
		conditions = append(conditions, "created_at >= :created_from")
		args["created_from"] = *f.CreatedFrom
	}
	if f.CreatedTo != nil {
		conditions = append(conditions, "created_at <= :created_to")
		args["created_to"] = *f.CreatedTo
	}
	if f.MinTotal != nil {
		conditions = append(conditions, "total_cents >= :min_total")
		args["min_total"] = *f.MinTotal
	}
	if f.MaxTotal != nil {
		conditions = append(conditions, "total_cents <= :max_total")
		args["max_total"] = *f.MaxTotal
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM orders"+whereClause, args)
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

	orderBy := listing.SafeOrderBy(f.Sort, orderSortColumns, "created_at DESC")
	query := "SELECT * FROM orders" + whereClause + " ORDER BY " + orderBy + ", id DESC"
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

	var items []model.Order
	err = r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), qargs...)
	return items, count, err
}
