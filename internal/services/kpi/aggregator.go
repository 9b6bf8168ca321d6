package kpi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"sierre/internal/logger"
	"sierre/internal/models"
	"sierre/internal/store"
)

const summaryCacheTTL = 60 * time.Second

// Summary is the headline KPI block for a shop over a range.
type Summary struct {
	Range   string  `json:"range"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
	AOV     float64 `json:"aov"`
}

// DailyPoint is one day of the sales series.
type DailyPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// TopProduct is one row of the top-products ranking.
type TopProduct struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Revenue   float64 `json:"revenue"`
	Quantity  int     `json:"quantity"`
}

// Aggregator computes KPIs from mirrored order data. When a Redis client is
// configured, summaries are served through a short-lived read-through cache.
type Aggregator struct {
	store  *store.Store
	redis  *redis.Client
	logger *logger.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewAggregator(st *store.Store, rdb *redis.Client, log *logger.Logger) *Aggregator {
	return &Aggregator{
		store:  st,
		redis:  rdb,
		logger: log,
		now:    time.Now,
	}
}

// RangeToDates maps "7d"/"30d"/"90d" to a [from, to) window ending now.
// Unknown values silently fall back to 30 days.
func RangeToDates(rangeStr string, now time.Time) (time.Time, time.Time, string) {
	days := 30
	normalized := "30d"
	switch rangeStr {
	case "7d":
		days, normalized = 7, "7d"
	case "30d":
		days, normalized = 30, "30d"
	case "90d":
		days, normalized = 90, "90d"
	}
	to := now.UTC()
	from := to.AddDate(0, 0, -days)
	return from, to, normalized
}

// GetSummary returns revenue, order count, and average order value over the
// range. AOV is zero when there are no orders.
func (a *Aggregator) GetSummary(ctx context.Context, shop, rangeStr string) (*Summary, error) {
	from, to, normalized := RangeToDates(rangeStr, a.now())

	cacheKey := fmt.Sprintf("kpi:summary:%s:%s", shop, normalized)
	if a.redis != nil {
		if raw, err := a.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached Summary
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	orders, err := a.store.OrdersInRange(shop, from, to)
	if err != nil {
		return nil, err
	}

	var revenue float64
	for _, o := range orders {
		revenue += o.TotalPrice
	}
	summary := &Summary{
		Range:   normalized,
		Revenue: round2(revenue),
		Orders:  len(orders),
	}
	if summary.Orders > 0 {
		summary.AOV = round2(revenue / float64(summary.Orders))
	}

	if a.redis != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := a.redis.Set(ctx, cacheKey, raw, summaryCacheTTL).Err(); err != nil && a.logger != nil {
				a.logger.Debug("KPI summary cache write failed: %v", err)
			}
		}
	}
	return summary, nil
}

// GetSalesDaily returns a per-day revenue/order series covering every day of
// the range, zero-filled where no orders exist.
func (a *Aggregator) GetSalesDaily(ctx context.Context, shop, rangeStr string) ([]DailyPoint, error) {
	from, to, _ := RangeToDates(rangeStr, a.now())

	orders, err := a.store.OrdersInRange(shop, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DailyPoint)
	for _, o := range orders {
		if o.CreatedAt == nil {
			continue
		}
		day := o.CreatedAt.UTC().Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &DailyPoint{Date: day}
			byDay[day] = point
		}
		point.Revenue = round2(point.Revenue + o.TotalPrice)
		point.Orders++
	}

	var series []DailyPoint
	for d := from.Truncate(24 * time.Hour); d.Before(to); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		if point, ok := byDay[day]; ok {
			series = append(series, *point)
		} else {
			series = append(series, DailyPoint{Date: day})
		}
	}
	return series, nil
}

// GetTopProducts ranks products by revenue over the range, best ten first.
// Line items without a product id group under their title, or "unknown".
func (a *Aggregator) GetTopProducts(ctx context.Context, shop, rangeStr string) ([]TopProduct, error) {
	from, to, _ := RangeToDates(rangeStr, a.now())

	orders, err := a.store.OrdersInRange(shop, from, to)
	if err != nil {
		return nil, err
	}
	orderIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}

	items, err := a.store.ItemsForOrders(orderIDs)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*TopProduct)
	for _, item := range items {
		key := item.ProductID
		if key == "" {
			key = item.Title
		}
		if key == "" {
			key = "unknown"
		}
		p, ok := byKey[key]
		if !ok {
			title := item.Title
			if title == "" {
				title = "unknown"
			}
			p = &TopProduct{ProductID: item.ProductID, Title: title}
			byKey[key] = p
		}
		p.Revenue = round2(p.Revenue + item.Price*float64(item.Quantity))
		p.Quantity += item.Quantity
	}

	ranked := make([]TopProduct, 0, len(byKey))
	for _, p := range byKey {
		ranked = append(ranked, *p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].Title < ranked[j].Title
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	return ranked, nil
}

// AggregateDaily recomputes the kpi_daily row for one calendar day from
// scratch and upserts it. date is "YYYY-MM-DD"; empty means today.
func (a *Aggregator) AggregateDaily(ctx context.Context, shop, date string) (*models.KpiDaily, error) {
	if date == "" {
		date = a.now().UTC().Format("2006-01-02")
	}
	dayStart, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	orders, err := a.store.OrdersInRange(shop, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	orderIDs := make([]string, 0, len(orders))
	var revenue float64
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		revenue += o.TotalPrice
	}

	refundRows, err := a.store.RefundsForOrders(orderIDs)
	if err != nil {
		return nil, err
	}
	var refunded float64
	for _, r := range refundRows {
		refunded += r.Amount
	}

	row := &models.KpiDaily{
		Shop:    shop,
		Date:    date,
		Revenue: round2(revenue),
		Orders:  len(orders),
		Refunds: round2(refunded),
	}
	if row.Orders > 0 {
		row.AOV = round2(revenue / float64(row.Orders))
	}

	if err := a.store.UpsertKpiDaily(row); err != nil {
		return nil, err
	}
	if a.logger != nil {
		a.logger.Debug("Aggregated kpi_daily %s/%s: revenue=%.2f orders=%d", shop, date, row.Revenue, row.Orders)
	}
	return row, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
