package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/minegocio/backend/internal/application/inventory"
	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
)

// maxNumberAttempts bounds how many counter values Create skips when they
// collide with manually numbered sales.
const maxNumberAttempts = 10

// SaleService handles sale workflows: numbering, listing, deletion and the
// capability checks around sale lines.
type SaleService struct {
	runner    *appinv.Runner
	engine    *appinv.Engine
	lineItems *appinv.LineItemService
	sales     trade.SaleRepository
	items     trade.SaleItemRepository
	policy    *identity.Policy
	now       func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	runner *appinv.Runner,
	engine *appinv.Engine,
	lineItems *appinv.LineItemService,
	sales trade.SaleRepository,
	items trade.SaleItemRepository,
	policy *identity.Policy,
) *SaleService {
	return &SaleService{
		runner:    runner,
		engine:    engine,
		lineItems: lineItems,
		sales:     sales,
		items:     items,
		policy:    policy,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for date validation
func (s *SaleService) WithClock(now func() time.Time) *SaleService {
	s.now = now
	return s
}

// Create creates a sale, assigns its number and applies any initial lines,
// all in one transaction.
func (s *SaleService) Create(ctx context.Context, actor identity.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	method, err := trade.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	saleDate, err := parseDate("sale_date", req.SaleDate)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	var created *trade.Sale
	err = s.runner.Run(ctx, "create sale", func(repos appinv.TransactionalRepositories) error {
		sale, err := trade.NewSale(actor.UserID, method, saleDate, req.CustomerName, req.Notes, now)
		if err != nil {
			return err
		}
		if err := assignSaleNumber(ctx, repos, sale, req.SaleNumber); err != nil {
			return err
		}

		productIDs := make([]int64, 0, len(req.Items))
		for _, in := range req.Items {
			productIDs = append(productIDs, in.ProductID)
		}
		if err := s.engine.LockProducts(ctx, repos, productIDs); err != nil {
			return err
		}
		if err := repos.SaleRepo().Create(ctx, sale); err != nil {
			return err
		}
		for _, in := range req.Items {
			if _, err := s.engine.InsertSaleItem(ctx, repos, sale.ID, in.ProductID, in.Quantity, in.UnitPrice); err != nil {
				return err
			}
		}

		created, err = repos.SaleRepo().FindByID(ctx, sale.ID)
		if err != nil {
			return err
		}
		created.Items, err = repos.SaleItemRepo().FindBySale(ctx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := ToSaleResponse(created)
	return &resp, nil
}

// GetByID returns a sale with its live lines
func (s *SaleService) GetByID(ctx context.Context, actor identity.Actor, id int64) (*SaleResponse, error) {
	sale, err := s.viewable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	sale.Items, err = s.items.FindBySale(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// List lists sales. Employees only see their own.
func (s *SaleService) List(ctx context.Context, actor identity.Actor, filter SaleListFilter) ([]SaleResponse, int64, error) {
	domainFilter := trade.SaleFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		SoldBy: filter.SoldBy,
	}
	if filter.PaymentMethod != "" {
		method, err := trade.ParsePaymentMethod(filter.PaymentMethod)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.PaymentMethod = method
	}
	from, to, err := parseRange(filter.From, filter.To)
	if err != nil {
		return nil, 0, err
	}
	domainFilter.From, domainFilter.To = from, to

	if !actor.IsOwner() {
		self := actor.UserID
		domainFilter.SoldBy = &self
	}

	sales, total, err := s.sales.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSaleResponses(sales), total, nil
}

// Update changes the header of a sale. Employees may only edit their own
// sales while the sale date is today. Lines and total are not touched.
func (s *SaleService) Update(ctx context.Context, actor identity.Actor, id int64, req UpdateSaleRequest) (*SaleResponse, error) {
	header := trade.SaleHeader{CustomerName: req.CustomerName, Notes: req.Notes}
	if req.PaymentMethod != nil {
		method, err := trade.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			return nil, err
		}
		header.PaymentMethod = &method
	}
	saleDate, err := parseOptionalDate("sale_date", req.SaleDate)
	if err != nil {
		return nil, err
	}
	header.SaleDate = saleDate
	now := s.now().UTC()

	var updated *trade.Sale
	err = s.runner.Run(ctx, "update sale", func(repos appinv.TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !s.policy.CanViewSale(actor, sale) {
			return shared.NewNotFoundError("sale", id)
		}
		if err := identity.Authorize(s.policy.CanUpdateSale(actor, sale), "edit this sale"); err != nil {
			return err
		}
		if req.Version != nil && *req.Version != sale.Version {
			return shared.NewConcurrencyError("update sale", nil)
		}
		if err := sale.ChangeHeader(header, now); err != nil {
			return err
		}
		if err := repos.SaleRepo().SaveHeader(ctx, sale); err != nil {
			return err
		}
		sale.Items, err = repos.SaleItemRepo().FindBySale(ctx, id)
		updated = sale
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(updated)
	return &resp, nil
}

// Stats sums today's, this week's and this month's sales. Weeks start on
// Monday. Employees only see their own sales.
func (s *SaleService) Stats(ctx context.Context, actor identity.Actor) (*SaleStatsResponse, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	week := startOfWeek(today)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := month
	if week.Before(from) {
		from = week
	}

	sales, err := s.sales.FindBetween(ctx, from, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	stats := &SaleStatsResponse{
		TodayTotal:     decimal.Zero,
		WeekTotal:      decimal.Zero,
		MonthTotal:     decimal.Zero,
		PaymentMethods: make(map[string]decimal.Decimal, len(trade.PaymentMethods)),
	}
	for _, method := range trade.PaymentMethods {
		stats.PaymentMethods[method.String()] = decimal.Zero
	}
	for i := range sales {
		sale := &sales[i]
		if !s.policy.CanViewSale(actor, sale) {
			continue
		}
		day := time.Date(sale.SaleDate.Year(), sale.SaleDate.Month(), sale.SaleDate.Day(), 0, 0, 0, 0, time.UTC)
		if day.Equal(today) {
			stats.TodayTotal = stats.TodayTotal.Add(sale.Total)
			stats.TodayCount++
		}
		if !day.Before(week) {
			stats.WeekTotal = stats.WeekTotal.Add(sale.Total)
		}
		if !day.Before(month) {
			stats.MonthTotal = stats.MonthTotal.Add(sale.Total)
			key := sale.PaymentMethod.String()
			stats.PaymentMethods[key] = stats.PaymentMethods[key].Add(sale.Total)
		}
	}
	return stats, nil
}

// Delete restores stock for every live line and soft deletes the sale
func (s *SaleService) Delete(ctx context.Context, actor identity.Actor, id int64) error {
	if err := identity.Authorize(s.policy.Can(actor, identity.ActionDeleteSale), "delete sales"); err != nil {
		return err
	}
	return s.runner.Run(ctx, "delete sale", func(repos appinv.TransactionalRepositories) error {
		return s.engine.DeleteSale(ctx, repos, id)
	})
}

// ListItems returns the live lines of a sale and their summary
func (s *SaleService) ListItems(ctx context.Context, actor identity.Actor, saleID int64) (*SaleItemsResponse, error) {
	sale, err := s.viewable(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items, err = s.items.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleItemsResponse{
		SaleID:  saleID,
		Items:   ToSaleItemResponses(sale.Items),
		Summary: sale.Summary(),
	}, nil
}

// AddItem adds a line to a sale
func (s *SaleService) AddItem(ctx context.Context, actor identity.Actor, saleID int64, req CreateSaleItemInput) (*SaleItemResponse, error) {
	if _, err := s.sales.FindByID(ctx, saleID); err != nil {
		return nil, err
	}
	item, err := s.lineItems.CreateSaleItem(ctx, saleID, req.ProductID, req.Quantity, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	resp := ToSaleItemResponse(item)
	return &resp, nil
}

// UpdateItem changes quantity and unit price of a line. Employees may only
// change lines of their own sales.
func (s *SaleService) UpdateItem(ctx context.Context, actor identity.Actor, id int64, req UpdateSaleItemRequest) (*SaleItemResponse, error) {
	sale, err := s.saleOfItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := identity.Authorize(s.policy.CanUpdateSaleItem(actor, sale), "change lines of this sale"); err != nil {
		return nil, err
	}
	item, err := s.lineItems.UpdateSaleItem(ctx, id, req.Quantity, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	resp := ToSaleItemResponse(item)
	return &resp, nil
}

// DeleteItem removes a line and returns its units to stock. Employees may
// only remove lines of their own sales dated today.
func (s *SaleService) DeleteItem(ctx context.Context, actor identity.Actor, id int64) error {
	sale, err := s.saleOfItem(ctx, id)
	if err != nil {
		return err
	}
	if err := identity.Authorize(s.policy.CanDeleteSaleItem(actor, sale), "remove lines of this sale"); err != nil {
		return err
	}
	return s.lineItems.DeleteSaleItem(ctx, id)
}

func (s *SaleService) viewable(ctx context.Context, actor identity.Actor, id int64) (*trade.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewSale(actor, sale) {
		// hide other sellers' sales instead of confirming they exist
		return nil, shared.NewNotFoundError("sale", id)
	}
	return sale, nil
}

func (s *SaleService) saleOfItem(ctx context.Context, itemID int64) (*trade.Sale, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.sales.FindByID(ctx, item.SaleID)
}

// assignSaleNumber gives sale either the supplied number or the next free
// counter value. A supplied number raises the counter past it, so automatic
// numbers keep increasing; the skip loop only matters for rows written
// without going through the counter.
func assignSaleNumber(ctx context.Context, repos appinv.TransactionalRepositories, sale *trade.Sale, supplied string) error {
	if supplied != "" {
		n, err := trade.ParseSaleNumber(supplied)
		if err != nil {
			return shared.NewValidationError("sale_number", "must look like V000001")
		}
		taken, err := repos.SaleRepo().ExistsByNumber(ctx, supplied)
		if err != nil {
			return err
		}
		if taken {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, fmt.Sprintf("Sale number %s is already taken", supplied))
		}
		if err := repos.Sequences().Advance(ctx, trade.SaleNumberSequence, n); err != nil {
			return err
		}
		return sale.AssignNumber(supplied)
	}

	for i := 0; i < maxNumberAttempts; i++ {
		n, err := repos.Sequences().Next(ctx, trade.SaleNumberSequence)
		if err != nil {
			return err
		}
		number := trade.FormatSaleNumber(n)
		taken, err := repos.SaleRepo().ExistsByNumber(ctx, number)
		if err != nil {
			return err
		}
		if !taken {
			return sale.AssignNumber(number)
		}
	}
	return shared.NewConcurrencyError("assign sale number",
		fmt.Errorf("%d consecutive numbers were already taken", maxNumberAttempts))
}
