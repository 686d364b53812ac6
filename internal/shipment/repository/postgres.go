package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
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

func (r *PGRepository) GetByOrder(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Shipment, error) {
	var s model.Shipment
	query := `SELECT * FROM shipments WHERE order_id = $1`
	if err := sqlx.GetContext(ctx, r.q(ext), &s, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load shipment for order %d: %w", orderID, err)
	}
	return &s, nil
}

func (r *PGRepository) Create(ctx context.Context, ext sqlx.ExtContext, s *model.Shipment) (*model.Shipment, error) {
	var out model.Shipment
	query := `
        INSERT INTO shipments (order_id, carrier, tracking_number, status, shipped_at, delivered_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query,
		s.OrderID, s.Carrier, s.TrackingNumber, s.Status, s.ShippedAt, s.DeliveredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create shipment for order %d: %w", s.OrderID, err)
	}
	return &out, nil
}

func (r *PGRepository) Save(ctx context.Context, ext sqlx.ExtContext, s *model.Shipment) (*model.Shipment, error) {
	var out model.Shipment
	query := `
        UPDATE shipments
        SET carrier = $1, tracking_number = $2, status = $3,
            shipped_at = $4, delivered_at = $5, updated_at = now()
        WHERE id = $6
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query,
		s.Carrier, s.TrackingNumber, s.Status, s.ShippedAt, s.DeliveredAt, s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save shipment %d: %w", s.ID, err)
	}
	return &out, nil
}
