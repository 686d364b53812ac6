package usecase

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/cart"
	"github.com/tuanvm/fashionstore-backend/internal/inventory"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
	"github.com/tuanvm/fashionstore-backend/pkg/postgres"
	"go.uber.org/zap"
)

type cartUseCase struct {
	repo   cart.Repository
	inv    inventory.Repository
	tm     postgres.Transactor
	logger logger.ZapLogger
}

func NewCartUseCase(repo cart.Repository, inv inventory.Repository, tm postgres.Transactor, log logger.ZapLogger) cart.UseCase {
	return &cartUseCase{
		repo:   repo,
		inv:    inv,
		tm:     tm,
		logger: log,
	}
}

// getOrCreateOpen resolves the get-or-create race via the partial unique
// index on (user_id) WHERE status='open': the loser of a concurrent create
// re-reads the winner's cart.
func (uc *cartUseCase) getOrCreateOpen(ctx context.Context, userID int64) (*model.Cart, error) {
	c, err := uc.repo.GetOpenForUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	c, err = uc.repo.CreateForUser(ctx, nil, userID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return uc.repo.GetOpenForUser(ctx, nil, userID)
		}
		return nil, err
	}
	return c, nil
}

func (uc *cartUseCase) GetCart(ctx context.Context, userID int64) (*model.Cart, error) {
	c, err := uc.getOrCreateOpen(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := uc.repo.ListItems(ctx, nil, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	c.SubtotalCents = 0
	for _, it := range items {
		c.SubtotalCents += it.LineTotalCents
	}
	return c, nil
}

// loadAvailableVariant returns the variant and its product, or NotFound when
// either is missing, soft-deleted, or the product is inactive.
func (uc *cartUseCase) loadAvailableVariant(ctx context.Context, ext sqlx.ExtContext, variantID int64) (*model.ProductVariant, *model.Product, error) {
	v, err := uc.inv.GetVariant(ctx, ext, variantID)
	if err != nil {
		return nil, nil, err
	}
	if v == nil {
		return nil, nil, apperr.NotFound("Variant not available")
	}
	p, err := uc.inv.GetProduct(ctx, ext, v.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil || !p.IsActive {
		return nil, nil, apperr.NotFound("Variant not available")
	}
	return v, p, nil
}

func (uc *cartUseCase) AddItem(ctx context.Context, userID, variantID int64, qty int) (*model.CartItem, error) {
	if qty <= 0 {
		return nil, apperr.BadRequest("Quantity must be > 0")
	}

	c, err := uc.getOrCreateOpen(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out *model.CartItem
	err = uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		v, p, err := uc.loadAvailableVariant(ctx, tx, variantID)
		if err != nil {
			return err
		}
		if qty > v.StockQty {
			return apperr.BadRequest("Insufficient stock")
		}

		price := v.UnitPriceCents(p)

		// Merge when the variant is already in the cart: quantities add up
		// and the price snapshot is refreshed, not summed.
		items, err := uc.repo.ListItems(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].VariantID == variantID {
				it := items[i]
				it.Qty += qty
				it.UnitPriceCents = price
				it.LineTotalCents = int64(it.Qty) * price
				out, err = uc.repo.SaveItem(ctx, tx, &it)
				return err
			}
		}

		out, err = uc.repo.InsertItem(ctx, tx, &model.CartItem{
			CartID:         c.ID,
			VariantID:      variantID,
			Qty:            qty,
			UnitPriceCents: price,
			LineTotalCents: int64(qty) * price,
		})
		return err
	})
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Item was added concurrently, retry")
		}
		return nil, err
	}

	uc.logger.Debug("cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("variant_id", variantID),
		zap.Int("qty", qty),
	)
	return out, nil
}

func (uc *cartUseCase) UpdateItem(ctx context.Context, userID, itemID int64, qty int) (*model.CartItem, error) {
	if qty <= 0 {
		return nil, apperr.BadRequest("Quantity must be > 0")
	}

	c, err := uc.getOrCreateOpen(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out *model.CartItem
	err = uc.tm.WithinTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		it, err := uc.repo.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if it == nil || it.CartID != c.ID {
			return apperr.NotFound("Cart item not found")
		}

		v, err := uc.inv.GetVariant(ctx, tx, it.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			return apperr.NotFound("Variant not found")
		}
		if qty > v.StockQty {
			return apperr.BadRequest("Insufficient stock")
		}

		// Quantity updates keep the original price snapshot.
		it.Qty = qty
		it.LineTotalCents = int64(qty) * it.UnitPriceCents
		out, err = uc.repo.SaveItem(ctx, tx, it)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, userID, itemID int64) error {
	c, err := uc.getOrCreateOpen(ctx, userID)
	if err != nil {
		return err
	}

	it, err := uc.repo.GetItem(ctx, nil, itemID)
	if err != nil {
		return err
	}
	if it == nil || it.CartID != c.ID {
		return nil
	}
	return uc.repo.DeleteItem(ctx, nil, itemID)
}
