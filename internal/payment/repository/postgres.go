package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/listing"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/internal/payment/dto"
)

var paymentSortColumns = map[string]string{
	"id":         "id",
	"created_at": "created_at",
	"amount":     "amount_cents",
	"status":     "status",
	"method":     "method",
	"order_id":   "order_id",
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

func (r *PGRepository) Create(ctx context.Context, ext sqlx.ExtContext, p *model.Payment) (*model.Payment, error) {
	var out model.Payment
	query := `
        INSERT INTO payments (order_id, amount_cents, status, method, transaction_ref)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING *`
	err := sqlx.GetContext(ctx, r.q(ext), &out, query,
		p.OrderID, p.AmountCents, p.Status, p.Method, p.TransactionRef)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment for order %d: %w", p.OrderID, err)
	}
	return &out, nil
}

func (r *PGRepository) ListForOrder(ctx context.Context, ext sqlx.ExtContext, orderID int64) ([]model.Payment, error) {
	var items []model.Payment
	query := `SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at ASC, id ASC`
	if err := sqlx.SelectContext(ctx, r.q(ext), &items, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to list payments for order %d: %w", orderID, err)
	}
	return items, nil
}

func (r *PGRepository) TotalPaidForOrder(ctx context.Context, ext sqlx.ExtContext, orderID int64) (int64, error) {
	var total int64
	query := `SELECT coalesce(sum(amount_cents), 0) FROM payments WHERE order_id = $1 AND status = $2`
	if err := sqlx.GetContext(ctx, r.q(ext), &total, query, orderID, model.PaymentPaid); err != nil {
		return 0, fmt.Errorf("failed to sum paid amount for order %d: %w", orderID, err)
	}
	return total, nil
}

func (r *PGRepository) ListPaged(ctx context.Context, f *dto.PaymentFilters) ([]model.Payment, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.OrderID != nil {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = *f.OrderID
	}
	if len(f.Status) > 0 {
		// sqlx named queries expand slices via IN.
		conditions = append(conditions, "status IN (:status)")
		args["status"] = f.Status
	}
	if len(f.Method) > 0 {
		conditions = append(conditions, "method IN (:method)")
		args["method"] = f.Method
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM payments"+whereClause, args)
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

	orderBy := listing.SafeOrderBy(f.Sort, paymentSortColumns, "created_at DESC")
	query := "SELECT * FROM payments" + whereClause + " ORDER BY " + orderBy + ", id DESC"
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

	var items []model.Payment
	err = r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), qargs...)
	return items, count, err
}
