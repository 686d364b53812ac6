package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/listing"
	"github.com/tuanvm/fashionstore-backend/internal/model"
)

var movementSortColumns = map[string]string{
	"id":         "id",
	"created_at": "created_at",
	"variant_id": "variant_id",
	"order_id":   "order_id",
	"reason":     "reason",
	"qty_delta":  "qty_delta",
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

func (r *PGRepository) GetVariant(ctx context.Context, ext sqlx.ExtContext, variantID int64) (*model.ProductVariant, error) {
	return r.getVariant(ctx, ext, variantID, false)
}

func (r *PGRepository) GetVariantForUpdate(ctx context.Context, ext sqlx.ExtContext, variantID int64) (*model.ProductVariant, error) {
	return r.getVariant(ctx, ext, variantID, true)
}

func (r *PGRepository) getVariant(ctx context.Context, ext sqlx.ExtContext, variantID int64, forUpdate bool) (*model.ProductVariant, error) {
	query := `SELECT * FROM product_variants WHERE id = $1 AND deleted_at IS NULL`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var v model.ProductVariant
	if err := sqlx.GetContext(ctx, r.q(ext), &v, query, variantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load variant %d: %w", variantID, err)
	}
	return &v, nil
}

func (r *PGRepository) GetProduct(ctx context.Context, ext sqlx.ExtContext, productID int64) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 AND deleted_at IS NULL`
	if err := sqlx.GetContext(ctx, r.q(ext), &p, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	return &p, nil
}

func (r *PGRepository) ChangeStock(ctx context.Context, ext sqlx.ExtContext, in *dto.ChangeStockInput) (*model.InventoryMovement, error) {
	q := r.q(ext)

	res, err := q.ExecContext(ctx,
		`UPDATE product_variants SET stock_qty = stock_qty + $1, updated_at = now() WHERE id = $2`,
		in.QtyDelta, in.VariantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock for variant %d: %w", in.VariantID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("variant %d not found for stock change", in.VariantID)
	}

	var m model.InventoryMovement
	err = sqlx.GetContext(ctx, q, &m, `
        INSERT INTO inventory_movements (variant_id, order_id, qty_delta, reason, note)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING *`,
		in.VariantID, in.OrderID, in.QtyDelta, in.Reason, in.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append movement: %w", err)
	}
	return &m, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.VariantID != nil {
		conditions = append(conditions, "variant_id = :variant_id")
		args["variant_id"] = *f.VariantID
	}
	if f.OrderID != nil {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = *f.OrderID
	}
	if f.Reason != "" {
		conditions = append(conditions, "reason = :reason")
		args["reason"] = string(f.Reason)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery := "SELECT count(*) FROM inventory_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	orderBy := listing.SafeOrderBy(f.Sort, movementSortColumns, "created_at DESC")
	// id tiebreak keeps the ledger order deterministic.
	query := "SELECT * FROM inventory_movements" + whereClause +
		" ORDER BY " + orderBy + ", id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.InventoryMovement
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}
