// Package testutil provides in-memory repository fakes shared by the usecase
// tests. Fakes mirror the persistence contracts, including nil-on-absent
// lookups and unique violations surfaced as pg errors.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	cartdomain "github.com/tuanvm/fashionstore-backend/internal/cart"
	invdomain "github.com/tuanvm/fashionstore-backend/internal/inventory"
	invdto "github.com/tuanvm/fashionstore-backend/internal/inventory/dto"
	"github.com/tuanvm/fashionstore-backend/internal/model"
	orderdomain "github.com/tuanvm/fashionstore-backend/internal/order"
	orderdto "github.com/tuanvm/fashionstore-backend/internal/order/dto"
	paydomain "github.com/tuanvm/fashionstore-backend/internal/payment"
	paydto "github.com/tuanvm/fashionstore-backend/internal/payment/dto"
	retdomain "github.com/tuanvm/fashionstore-backend/internal/returns"
	retdto "github.com/tuanvm/fashionstore-backend/internal/returns/dto"
	shipdomain "github.com/tuanvm/fashionstore-backend/internal/shipment"
)

var (
	_ invdomain.Repository   = (*InventoryRepo)(nil)
	_ orderdomain.Repository = (*OrderRepo)(nil)
	_ paydomain.Repository   = (*PaymentRepo)(nil)
	_ shipdomain.Repository  = (*ShipmentRepo)(nil)
	_ retdomain.Repository   = (*ReturnsRepo)(nil)
)

// UniqueViolation mimics the database error produced by duplicate keys.
func UniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// StubTx satisfies postgres.Transactor without a database; fn runs against
// the nil ext that every fake ignores.
type StubTx struct{}

func (StubTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx sqlx.ExtContext) error) error {
	return fn(ctx, nil)
}

// ---- inventory ----

type InventoryRepo struct {
	Variants  map[int64]*model.ProductVariant
	Products  map[int64]*model.Product
	Movements []model.InventoryMovement
	nextID    int64
}

func NewInventoryRepo() *InventoryRepo {
	return &InventoryRepo{
		Variants: map[int64]*model.ProductVariant{},
		Products: map[int64]*model.Product{},
	}
}

func (r *InventoryRepo) AddProduct(id int64, name string, basePriceCents int64, active bool) *model.Product {
	p := &model.Product{
		BaseModel:      model.BaseModel{ID: id},
		Name:           name,
		BasePriceCents: basePriceCents,
		IsActive:       active,
	}
	r.Products[id] = p
	return p
}

func (r *InventoryRepo) AddVariant(id, productID int64, sku string, stock int, priceCents *int64) *model.ProductVariant {
	v := &model.ProductVariant{
		BaseModel:  model.BaseModel{ID: id},
		ProductID:  productID,
		SKU:        sku,
		StockQty:   stock,
		PriceCents: priceCents,
	}
	r.Variants[id] = v
	return v
}

func (r *InventoryRepo) GetVariant(_ context.Context, _ sqlx.ExtContext, variantID int64) (*model.ProductVariant, error) {
	v, ok := r.Variants[variantID]
	if !ok || v.IsDeleted() {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *InventoryRepo) GetVariantForUpdate(ctx context.Context, ext sqlx.ExtContext, variantID int64) (*model.ProductVariant, error) {
	return r.GetVariant(ctx, ext, variantID)
}

func (r *InventoryRepo) GetProduct(_ context.Context, _ sqlx.ExtContext, productID int64) (*model.Product, error) {
	p, ok := r.Products[productID]
	if !ok || p.IsDeleted() {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *InventoryRepo) ChangeStock(_ context.Context, _ sqlx.ExtContext, in *invdto.ChangeStockInput) (*model.InventoryMovement, error) {
	v, ok := r.Variants[in.VariantID]
	if !ok {
		return nil, fmt.Errorf("variant %d not found", in.VariantID)
	}
	v.StockQty += in.QtyDelta
	r.nextID++
	mv := model.InventoryMovement{
		BaseModel: model.BaseModel{ID: r.nextID, CreatedAt: time.Now()},
		VariantID: in.VariantID,
		OrderID:   in.OrderID,
		QtyDelta:  in.QtyDelta,
		Reason:    in.Reason,
		Note:      in.Note,
	}
	r.Movements = append(r.Movements, mv)
	return &mv, nil
}

func (r *InventoryRepo) ListMovements(_ context.Context, f *invdto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var out []model.InventoryMovement
	for _, m := range r.Movements {
		if f.VariantID != nil && m.VariantID != *f.VariantID {
			continue
		}
		if f.OrderID != nil && (m.OrderID == nil || *m.OrderID != *f.OrderID) {
			continue
		}
		if f.Reason != "" && m.Reason != f.Reason {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

// MovementsFor filters the recorded ledger by variant and reason.
func (r *InventoryRepo) MovementsFor(variantID int64, reason model.MovementReason) []model.InventoryMovement {
	var out []model.InventoryMovement
	for _, m := range r.Movements {
		if m.VariantID == variantID && m.Reason == reason {
			out = append(out, m)
		}
	}
	return out
}

// ---- cart ----

type CartRepo struct {
	Carts  map[int64]*model.Cart
	Items  map[int64]*model.CartItem
	nextID int64
}

func NewCartRepo() *CartRepo {
	return &CartRepo{Carts: map[int64]*model.Cart{}, Items: map[int64]*model.CartItem{}}
}

var _ cartdomain.Repository = (*CartRepo)(nil)

func (r *CartRepo) GetOpenForUser(_ context.Context, _ sqlx.ExtContext, userID int64) (*model.Cart, error) {
	for _, c := range r.Carts {
		if c.UserID == userID && c.Status == model.CartOpen && !c.IsDeleted() {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *CartRepo) CreateForUser(_ context.Context, _ sqlx.ExtContext, userID int64) (*model.Cart, error) {
	for _, c := range r.Carts {
		if c.UserID == userID && c.Status == model.CartOpen && !c.IsDeleted() {
			return nil, UniqueViolation("uq_cart_user_open")
		}
	}
	r.nextID++
	c := &model.Cart{
		BaseModel: model.BaseModel{ID: r.nextID, CreatedAt: time.Now()},
		UserID:    userID,
		Status:    model.CartOpen,
	}
	r.Carts[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *CartRepo) SetCheckedOut(_ context.Context, _ sqlx.ExtContext, cartID int64) error {
	c, ok := r.Carts[cartID]
	if !ok || c.Status != model.CartOpen {
		return cartdomain.ErrNotOpen
	}
	c.Status = model.CartCheckedOut
	return nil
}

func (r *CartRepo) ListItems(_ context.Context, _ sqlx.ExtContext, cartID int64) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range r.Items {
		if it.CartID == cartID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *CartRepo) GetItem(_ context.Context, _ sqlx.ExtContext, itemID int64) (*model.CartItem, error) {
	it, ok := r.Items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *CartRepo) InsertItem(_ context.Context, _ sqlx.ExtContext, item *model.CartItem) (*model.CartItem, error) {
	for _, it := range r.Items {
		if it.CartID == item.CartID && it.VariantID == item.VariantID {
			return nil, UniqueViolation("uq_cart_item_variant")
		}
	}
	r.nextID++
	cp := *item
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.Items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *CartRepo) SaveItem(_ context.Context, _ sqlx.ExtContext, item *model.CartItem) (*model.CartItem, error) {
	cp := *item
	r.Items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *CartRepo) DeleteItem(_ context.Context, _ sqlx.ExtContext, itemID int64) error {
	delete(r.Items, itemID)
	return nil
}

// ---- order ----

type OrderRepo struct {
	Orders map[int64]*model.Order
	Items  map[int64]*model.OrderItem
	nextID int64
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{Orders: map[int64]*model.Order{}, Items: map[int64]*model.OrderItem{}}
}

func (r *OrderRepo) Get(_ context.Context, _ sqlx.ExtContext, orderID int64) (*model.Order, error) {
	o, ok := r.Orders[orderID]
	if !ok || o.IsDeleted() {
		return nil, nil
	}
	cp := *o
	cp.Items = nil
	return &cp, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, orderID int64) (*model.Order, error) {
	return r.Get(ctx, ext, orderID)
}

func (r *OrderRepo) GetByNumber(_ context.Context, _ sqlx.ExtContext, orderNumber string) (*model.Order, error) {
	for _, o := range r.Orders {
		if o.OrderNumber == orderNumber && !o.IsDeleted() {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *OrderRepo) Create(_ context.Context, _ sqlx.ExtContext, o *model.Order) (*model.Order, error) {
	for _, e := range r.Orders {
		if e.OrderNumber == o.OrderNumber {
			return nil, UniqueViolation("uq_order_number")
		}
	}
	r.nextID++
	cp := *o
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.Orders[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *OrderRepo) Save(_ context.Context, _ sqlx.ExtContext, o *model.Order) error {
	stored, ok := r.Orders[o.ID]
	if !ok {
		return nil
	}
	stored.Status = o.Status
	stored.PaidAt = o.PaidAt
	stored.CancelledAt = o.CancelledAt
	stored.FulfilledAt = o.FulfilledAt
	return nil
}

func (r *OrderRepo) AddItem(_ context.Context, _ sqlx.ExtContext, it *model.OrderItem) (*model.OrderItem, error) {
	r.nextID++
	cp := *it
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.Items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *OrderRepo) ListItems(_ context.Context, _ sqlx.ExtContext, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, it := range r.Items {
		if it.OrderID == orderID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *OrderRepo) GetItem(_ context.Context, _ sqlx.ExtContext, itemID int64) (*model.OrderItem, error) {
	it, ok := r.Items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *OrderRepo) List(_ context.Context, f *orderdto.OrderFilters) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range r.Orders {
		if o.IsDeleted() {
			continue
		}
		if f.UserID != nil && (o.UserID == nil || *o.UserID != *f.UserID) {
			continue
		}
		if len(f.Status) > 0 && !containsString(f.Status, string(o.Status)) {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

// ---- payment ----

type PaymentRepo struct {
	Payments []model.Payment
	nextID   int64
}

func NewPaymentRepo() *PaymentRepo { return &PaymentRepo{} }

func (r *PaymentRepo) Create(_ context.Context, _ sqlx.ExtContext, p *model.Payment) (*model.Payment, error) {
	r.nextID++
	cp := *p
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.Payments = append(r.Payments, cp)
	out := cp
	return &out, nil
}

func (r *PaymentRepo) ListForOrder(_ context.Context, _ sqlx.ExtContext, orderID int64) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.Payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PaymentRepo) TotalPaidForOrder(_ context.Context, _ sqlx.ExtContext, orderID int64) (int64, error) {
	var total int64
	for _, p := range r.Payments {
		if p.OrderID == orderID && p.Status == model.PaymentPaid {
			total += p.AmountCents
		}
	}
	return total, nil
}

func (r *PaymentRepo) ListPaged(_ context.Context, f *paydto.PaymentFilters) ([]model.Payment, int, error) {
	var out []model.Payment
	for _, p := range r.Payments {
		if f.OrderID != nil && p.OrderID != *f.OrderID {
			continue
		}
		if len(f.Status) > 0 && !containsString(f.Status, string(p.Status)) {
			continue
		}
		if len(f.Method) > 0 && !containsString(f.Method, string(p.Method)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

// ---- shipment ----

type ShipmentRepo struct {
	ByOrder map[int64]*model.Shipment
	nextID  int64
}

func NewShipmentRepo() *ShipmentRepo { return &ShipmentRepo{ByOrder: map[int64]*model.Shipment{}} }

func (r *ShipmentRepo) GetByOrder(_ context.Context, _ sqlx.ExtContext, orderID int64) (*model.Shipment, error) {
	s, ok := r.ByOrder[orderID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *ShipmentRepo) Create(_ context.Context, _ sqlx.ExtContext, s *model.Shipment) (*model.Shipment, error) {
	if _, ok := r.ByOrder[s.OrderID]; ok {
		return nil, UniqueViolation("shipments_order_id_key")
	}
	r.nextID++
	cp := *s
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.ByOrder[cp.OrderID] = &cp
	out := cp
	return &out, nil
}

func (r *ShipmentRepo) Save(_ context.Context, _ sqlx.ExtContext, s *model.Shipment) (*model.Shipment, error) {
	cp := *s
	r.ByOrder[cp.OrderID] = &cp
	out := cp
	return &out, nil
}

// ---- returns ----

type ReturnsRepo struct {
	Returns map[int64]*model.ReturnRequest
	Items   map[int64]*model.ReturnItem
	// Orders resolves user filters the way the store joins through orders.
	Orders *OrderRepo
	nextID int64
}

func NewReturnsRepo(orders *OrderRepo) *ReturnsRepo {
	return &ReturnsRepo{
		Returns: map[int64]*model.ReturnRequest{},
		Items:   map[int64]*model.ReturnItem{},
		Orders:  orders,
	}
}

func (r *ReturnsRepo) Get(_ context.Context, _ sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error) {
	ret, ok := r.Returns[returnID]
	if !ok {
		return nil, nil
	}
	cp := *ret
	cp.Items = nil
	return &cp, nil
}

func (r *ReturnsRepo) GetForUpdate(ctx context.Context, ext sqlx.ExtContext, returnID int64) (*model.ReturnRequest, error) {
	return r.Get(ctx, ext, returnID)
}

func (r *ReturnsRepo) Create(_ context.Context, _ sqlx.ExtContext, ret *model.ReturnRequest) (*model.ReturnRequest, error) {
	r.nextID++
	cp := *ret
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.Returns[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *ReturnsRepo) Save(_ context.Context, _ sqlx.ExtContext, ret *model.ReturnRequest) error {
	stored, ok := r.Returns[ret.ID]
	if !ok {
		return nil
	}
	stored.Status = ret.Status
	stored.Reason = ret.Reason
	return nil
}

func (r *ReturnsRepo) ListItems(_ context.Context, _ sqlx.ExtContext, returnID int64) ([]model.ReturnItem, error) {
	var out []model.ReturnItem
	for _, it := range r.Items {
		if it.ReturnID == returnID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *ReturnsRepo) GetItem(_ context.Context, _ sqlx.ExtContext, itemID int64) (*model.ReturnItem, error) {
	it, ok := r.Items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *ReturnsRepo) AddItem(_ context.Context, _ sqlx.ExtContext, it *model.ReturnItem) (*model.ReturnItem, error) {
	for _, e := range r.Items {
		if e.ReturnID == it.ReturnID && e.OrderItemID == it.OrderItemID {
			return nil, UniqueViolation("uq_return_item")
		}
	}
	r.nextID++
	cp := *it
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.Items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *ReturnsRepo) SaveItem(_ context.Context, _ sqlx.ExtContext, it *model.ReturnItem) (*model.ReturnItem, error) {
	cp := *it
	r.Items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *ReturnsRepo) DeleteItem(_ context.Context, _ sqlx.ExtContext, itemID int64) error {
	delete(r.Items, itemID)
	return nil
}

func (r *ReturnsRepo) ReturnedQtyForOrderItem(_ context.Context, _ sqlx.ExtContext, orderItemID int64, excludeReturnID int64) (int, error) {
	total := 0
	for _, it := range r.Items {
		if it.OrderItemID != orderItemID || it.ReturnID == excludeReturnID {
			continue
		}
		ret, ok := r.Returns[it.ReturnID]
		if !ok || ret.Status == model.ReturnRejected || ret.Status == model.ReturnClosed {
			continue
		}
		total += it.Qty
	}
	return total, nil
}

func (r *ReturnsRepo) List(_ context.Context, f *retdto.ReturnFilters) ([]model.ReturnRequest, int, error) {
	var out []model.ReturnRequest
	for _, ret := range r.Returns {
		if f.OrderID != nil && ret.OrderID != *f.OrderID {
			continue
		}
		if f.UserID != nil {
			o := r.Orders.Orders[ret.OrderID]
			if o == nil || o.UserID == nil || *o.UserID != *f.UserID {
				continue
			}
		}
		if len(f.Status) > 0 && !containsString(f.Status, string(ret.Status)) {
			continue
		}
		out = append(out, *ret)
	}
	return out, len(out), nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
