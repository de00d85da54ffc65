package trade

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/minegocio/backend/internal/application/inventory"
	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
)

// PurchaseService handles goods received from suppliers
type PurchaseService struct {
	runner    *appinv.Runner
	engine    *appinv.Engine
	lineItems *appinv.LineItemService
	purchases trade.PurchaseRepository
	items     trade.PurchaseItemRepository
	policy    *identity.Policy
	now       func() time.Time
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	runner *appinv.Runner,
	engine *appinv.Engine,
	lineItems *appinv.LineItemService,
	purchases trade.PurchaseRepository,
	items trade.PurchaseItemRepository,
	policy *identity.Policy,
) *PurchaseService {
	return &PurchaseService{
		runner:    runner,
		engine:    engine,
		lineItems: lineItems,
		purchases: purchases,
		items:     items,
		policy:    policy,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for date checks
func (s *PurchaseService) WithClock(now func() time.Time) *PurchaseService {
	s.now = now
	return s
}

// Create records a purchase received by actor, applying any initial lines
// in the same transaction.
func (s *PurchaseService) Create(ctx context.Context, actor identity.Actor, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	purchaseDate, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	var created *trade.Purchase
	err = s.runner.Run(ctx, "create purchase", func(repos appinv.TransactionalRepositories) error {
		purchase, err := trade.NewPurchase(actor.UserID, purchaseDate, req.SupplierName, req.Notes, now)
		if err != nil {
			return err
		}

		productIDs := make([]int64, 0, len(req.Items))
		for _, in := range req.Items {
			productIDs = append(productIDs, in.ProductID)
		}
		if err := s.engine.LockProducts(ctx, repos, productIDs); err != nil {
			return err
		}
		if err := repos.PurchaseRepo().Create(ctx, purchase); err != nil {
			return err
		}
		for _, in := range req.Items {
			if _, err := s.engine.InsertPurchaseItem(ctx, repos, purchase.ID, in.ProductID, in.Quantity, in.UnitCost); err != nil {
				return err
			}
		}

		created, err = repos.PurchaseRepo().FindByID(ctx, purchase.ID)
		if err != nil {
			return err
		}
		created.Items, err = repos.PurchaseItemRepo().FindByPurchase(ctx, purchase.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := ToPurchaseResponse(created, s.now())
	return &resp, nil
}

// GetByID returns a purchase with its live lines
func (s *PurchaseService) GetByID(ctx context.Context, id int64) (*PurchaseResponse, error) {
	purchase, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	purchase.Items, err = s.items.FindByPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(purchase, s.now())
	return &resp, nil
}

// List lists purchases
func (s *PurchaseService) List(ctx context.Context, filter PurchaseListFilter) ([]PurchaseResponse, int64, error) {
	from, to, err := parseRange(filter.From, filter.To)
	if err != nil {
		return nil, 0, err
	}
	purchases, total, err := s.purchases.FindAll(ctx, trade.PurchaseFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			From:     from,
			To:       to,
		},
		ReceivedBy: filter.ReceivedBy,
	})
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	out := make([]PurchaseResponse, len(purchases))
	for i := range purchases {
		out[i] = ToPurchaseResponse(&purchases[i], now)
	}
	return out, total, nil
}

// statsMonths is how many calendar months the monthly purchase series covers
const statsMonths = 6

// topSupplierCount bounds the supplier ranking in purchase statistics
const topSupplierCount = 5

// deletedProductName labels lines whose product row no longer exists
const deletedProductName = "Producto eliminado"

// Update changes the header of a purchase. Editing follows the same rule as
// its lines; only the owner may change the receiver.
func (s *PurchaseService) Update(ctx context.Context, actor identity.Actor, id int64, req UpdatePurchaseRequest) (*PurchaseResponse, error) {
	purchaseDate, err := parseOptionalDate("purchase_date", req.PurchaseDate)
	if err != nil {
		return nil, err
	}
	header := trade.PurchaseHeader{
		SupplierName: req.SupplierName,
		Notes:        req.Notes,
		PurchaseDate: purchaseDate,
		ReceivedBy:   req.ReceivedBy,
	}
	now := s.now().UTC()

	var updated *trade.Purchase
	err = s.runner.Run(ctx, "update purchase", func(repos appinv.TransactionalRepositories) error {
		purchase, err := repos.PurchaseRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := identity.Authorize(s.policy.CanEditPurchase(actor, purchase), "change this purchase"); err != nil {
			return err
		}
		if req.ReceivedBy != nil && *req.ReceivedBy != purchase.ReceivedBy && !actor.IsOwner() {
			return identity.Authorize(false, "change who received this purchase")
		}
		if req.Version != nil && *req.Version != purchase.Version {
			return shared.NewConcurrencyError("update purchase", nil)
		}
		if err := purchase.ChangeHeader(header, now); err != nil {
			return err
		}
		if err := repos.PurchaseRepo().SaveHeader(ctx, purchase); err != nil {
			return err
		}
		purchase.Items, err = repos.PurchaseItemRepo().FindByPurchase(ctx, id)
		updated = purchase
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(updated, s.now())
	return &resp, nil
}

// Stats aggregates the purchases matching filter and ranks their suppliers.
// The monthly series ignores the filter and always covers the last six
// calendar months, the current one included.
func (s *PurchaseService) Stats(ctx context.Context, filter PurchaseStatsFilter) (*PurchaseStatsResponse, error) {
	from, err := parseDate("date_from", filter.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("date_to", filter.To)
	if err != nil {
		return nil, err
	}
	domainFilter := trade.PurchaseFilter{
		Filter:     shared.Filter{Search: filter.SupplierName},
		ReceivedBy: filter.ReceivedBy,
	}
	if !from.IsZero() {
		domainFilter.From = &from
	}
	if !to.IsZero() {
		if !from.IsZero() && to.Before(from) {
			return nil, shared.NewValidationError("date_to", "must not be before date_from")
		}
		domainFilter.To = &to
	}

	matching, err := s.purchases.FindMatching(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	stats := &PurchaseStatsResponse{
		TotalPurchases: len(matching),
		TotalAmount:    decimal.Zero,
		AverageAmount:  decimal.Zero,
		MinAmount:      decimal.Zero,
		MaxAmount:      decimal.Zero,
		TopSuppliers:   topSuppliers(matching, topSupplierCount),
	}
	for i, p := range matching {
		stats.TotalAmount = stats.TotalAmount.Add(p.Total)
		if i == 0 || p.Total.LessThan(stats.MinAmount) {
			stats.MinAmount = p.Total
		}
		if i == 0 || p.Total.GreaterThan(stats.MaxAmount) {
			stats.MaxAmount = p.Total
		}
	}
	if len(matching) > 0 {
		stats.AverageAmount = stats.TotalAmount.Div(decimal.NewFromInt(int64(len(matching)))).Round(2)
	}

	now := s.now().UTC()
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(statsMonths - 1), 0)
	recent, err := s.purchases.FindMatching(ctx, trade.PurchaseFilter{Filter: shared.Filter{From: &firstMonth}})
	if err != nil {
		return nil, err
	}
	stats.MonthlyPurchases = monthlyPurchases(recent, firstMonth, statsMonths)
	return stats, nil
}

// Summary returns a purchase with its named lines and totals
func (s *PurchaseService) Summary(ctx context.Context, id int64) (*PurchaseSummaryResponse, error) {
	purchase, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.items.FindLinesByPurchase(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &PurchaseSummaryResponse{
		PurchaseID:   purchase.ID,
		SupplierName: purchase.SupplierName,
		PurchaseDate: purchase.PurchaseDate.Format(time.DateOnly),
		ReceivedBy:   purchase.ReceivedBy,
		TotalAmount:  decimal.Zero,
		Items:        make([]PurchaseSummaryLine, len(lines)),
	}
	for i, line := range lines {
		name := line.ProductName
		if name == "" {
			name = deletedProductName
		}
		summary.Items[i] = PurchaseSummaryLine{
			ProductID:   line.ProductID,
			ProductName: name,
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost,
			LineTotal:   line.LineTotal,
		}
		summary.TotalItems++
		summary.TotalQuantity += line.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(line.LineTotal)
	}
	return summary, nil
}

// Recent returns the latest recorded purchases. limit defaults to 10 and is
// capped at 50.
func (s *PurchaseService) Recent(ctx context.Context, limit int) ([]PurchaseResponse, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	purchases, err := s.purchases.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]PurchaseResponse, len(purchases))
	for i := range purchases {
		out[i] = ToPurchaseResponse(&purchases[i], now)
	}
	return out, nil
}

// ProductHistory lists the purchase lines of a product, latest purchase
// first. limit defaults to 20 and is capped at 100.
func (s *PurchaseService) ProductHistory(ctx context.Context, productID int64, limit int) ([]ProductPurchaseResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	lines, err := s.items.FindLinesByProduct(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ProductPurchaseResponse, len(lines))
	for i, line := range lines {
		out[i] = ProductPurchaseResponse{
			PurchaseItemID: line.ID,
			PurchaseID:     line.PurchaseID,
			SupplierName:   line.SupplierName,
			PurchaseDate:   line.PurchaseDate.Format(time.DateOnly),
			ReceivedBy:     line.ReceivedBy,
			Quantity:       line.Quantity,
			UnitCost:       line.UnitCost,
			LineTotal:      line.LineTotal,
			CreatedAt:      line.CreatedAt,
		}
	}
	return out, nil
}

// Delete removes the stock every live line brought in and soft deletes the
// purchase. Only owners may delete, and only within the deletion window.
func (s *PurchaseService) Delete(ctx context.Context, actor identity.Actor, id int64) error {
	if err := identity.Authorize(s.policy.Can(actor, identity.ActionDeletePurchase), "delete purchases"); err != nil {
		return err
	}
	return s.runner.Run(ctx, "delete purchase", func(repos appinv.TransactionalRepositories) error {
		return s.engine.DeletePurchase(ctx, repos, id)
	})
}

// AddItem adds a received line to a purchase
func (s *PurchaseService) AddItem(ctx context.Context, actor identity.Actor, purchaseID int64, req CreatePurchaseItemInput) (*PurchaseItemResponse, error) {
	purchase, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if err := identity.Authorize(s.policy.CanEditPurchase(actor, purchase), "change this purchase"); err != nil {
		return nil, err
	}
	item, err := s.lineItems.CreatePurchaseItem(ctx, purchaseID, req.ProductID, req.Quantity, req.UnitCost)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseItemResponse(item)
	return &resp, nil
}

// UpdateItem changes quantity and unit cost of a purchase line
func (s *PurchaseService) UpdateItem(ctx context.Context, actor identity.Actor, id int64, req UpdatePurchaseItemRequest) (*PurchaseItemResponse, error) {
	if err := s.authorizeItem(ctx, actor, id); err != nil {
		return nil, err
	}
	item, err := s.lineItems.UpdatePurchaseItem(ctx, id, req.Quantity, req.UnitCost)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseItemResponse(item)
	return &resp, nil
}

// DeleteItem removes a purchase line and its units from stock
func (s *PurchaseService) DeleteItem(ctx context.Context, actor identity.Actor, id int64) error {
	if err := s.authorizeItem(ctx, actor, id); err != nil {
		return err
	}
	return s.lineItems.DeletePurchaseItem(ctx, id)
}

func (s *PurchaseService) authorizeItem(ctx context.Context, actor identity.Actor, itemID int64) error {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	purchase, err := s.purchases.FindByID(ctx, item.PurchaseID)
	if err != nil {
		return err
	}
	return identity.Authorize(s.policy.CanEditPurchase(actor, purchase), "change this purchase")
}

// monthlyPurchases buckets purchases into count consecutive months starting
// at first. Months without purchases are present with zero values.
func monthlyPurchases(purchases []trade.Purchase, first time.Time, count int) []MonthlyPurchaseStat {
	months := make([]MonthlyPurchaseStat, count)
	index := make(map[string]int, count)
	for i := range months {
		key := first.AddDate(0, i, 0).Format("2006-01")
		months[i] = MonthlyPurchaseStat{Month: key, TotalAmount: decimal.Zero}
		index[key] = i
	}
	for _, p := range purchases {
		i, ok := index[p.PurchaseDate.Format("2006-01")]
		if !ok {
			continue
		}
		months[i].Count++
		months[i].TotalAmount = months[i].TotalAmount.Add(p.Total)
	}
	return months
}

// topSuppliers ranks named suppliers by purchased amount, then by name
func topSuppliers(purchases []trade.Purchase, limit int) []SupplierPurchaseStat {
	bySupplier := make(map[string]*SupplierPurchaseStat)
	for _, p := range purchases {
		if p.SupplierName == "" {
			continue
		}
		stat, ok := bySupplier[p.SupplierName]
		if !ok {
			stat = &SupplierPurchaseStat{SupplierName: p.SupplierName, TotalAmount: decimal.Zero}
			bySupplier[p.SupplierName] = stat
		}
		stat.Count++
		stat.TotalAmount = stat.TotalAmount.Add(p.Total)
	}

	ranked := make([]SupplierPurchaseStat, 0, len(bySupplier))
	for _, stat := range bySupplier {
		ranked = append(ranked, *stat)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].TotalAmount.Cmp(ranked[j].TotalAmount); c != 0 {
			return c > 0
		}
		return ranked[i].SupplierName < ranked[j].SupplierName
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
