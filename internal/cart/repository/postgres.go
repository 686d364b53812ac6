package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/cart"
	"github.com/tuanvm/fashionstore-backend/internal/model"
)

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

func (r *PGRepository) GetOpenForUser(ctx context.Context, ext sqlx.ExtContext, userID int64) (*model.Cart, error) {
	var c model.Cart
	query := `SELECT * FROM carts WHERE user_id = $1 AND status = $2 AND deleted_at IS NULL`
	if err := sqlx.GetContext(ctx, r.q(ext), &c, query, userID, model.CartOpen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load open cart for user %d: %w", userID, err)
	}
	return &c, nil
}

func (r *PGRepository) CreateForUser(ctx context.Context, ext sqlx.ExtContext, userID int64) (*model.Cart, error) {
	var c model.Cart
	query := `INSERT INTO carts (user_id, status) VALUES ($1, $2) RETURNING *`
	if err := sqlx.GetContext(ctx, r.q(ext), &c, query, userID, model.CartOpen); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) SetCheckedOut(ctx context.Context, ext sqlx.ExtContext, cartID int64) error {
	res, err := r.q(ext).ExecContext(ctx,
		`UPDATE carts SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		model.CartCheckedOut, cartID, model.CartOpen,
	)
	if err != nil {
		return fmt.Errorf("failed to mark cart %d checked out: %w", cartID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cart.ErrNotOpen
	}
	return nil
}

func (r *PGRepository) ListItems(ctx context.Context, ext sqlx.ExtContext, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	query := `SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC, id ASC`
	if err := sqlx.SelectContext(ctx, r.q(ext), &items, query, cartID); err != nil {
		return nil, fmt.Errorf("failed to list items for cart %d: %w", cartID, err)
	}
	return items, nil
}

func (r *PGRepository) GetItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) (*model.CartItem, error) {
	var it model.CartItem
	query := `SELECT * FROM cart_items WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q(ext), &it, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cart item %d: %w", itemID, err)
	}
	return &it, nil
}

func (r *PGRepository) InsertItem(ctx context.Context, ext sqlx.ExtContext, item *model.CartItem) (*model.CartItem, error) {
	var out model.CartItem
	query := `
        INSERT INTO cart_items (cart_id, variant_id, qty, unit_price_cents, line_total_cents)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query,
		item.CartID, item.VariantID, item.Qty, item.UnitPriceCents, item.LineTotalCents)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PGRepository) SaveItem(ctx context.Context, ext sqlx.ExtContext, item *model.CartItem) (*model.CartItem, error) {
	var out model.CartItem
	query := `
        UPDATE cart_items
        SET qty = $1, unit_price_cents = $2, line_total_cents = $3, updated_at = now()
        WHERE id = $4
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query,
		item.Qty, item.UnitPriceCents, item.LineTotalCents, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save cart item %d: %w", item.ID, err)
	}
	return &out, nil
}

func (r *PGRepository) DeleteItem(ctx context.Context, ext sqlx.ExtContext, itemID int64) error {
	_, err := r.q(ext).ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item %d: %w", itemID, err)
	}
	return nil
}
