package analytics

import (
	"context"
	"math"
	"time"

	"sierre/internal/models"
	"sierre/internal/store"
)

// TrafficSources is the percentage split of store traffic by channel.
type TrafficSources struct {
	Ads      float64 `json:"ads"`
	Organic  float64 `json:"organic"`
	Social   float64 `json:"social"`
	Referral float64 `json:"referral"`
	Direct   float64 `json:"direct"`
	Email    float64 `json:"email"`
}

// Data is the deterministic analytics snapshot a store's insights are
// computed from: current window metrics compared against the previous window
// of equal length.
type Data struct {
	GrossRevenue         float64 `json:"grossRevenue"`
	NetRevenue           float64 `json:"netRevenue"`
	RevenueChangePercent float64 `json:"revenueChangePercent"`

	NewCustomers                 int     `json:"newCustomers"`
	NewCustomersChangePercent    float64 `json:"newCustomersChangePercent"`
	ActiveCustomers              int     `json:"activeCustomers"`
	ActiveCustomersChangePercent float64 `json:"activeCustomersChangePercent"`

	GrowthRate          float64 `json:"growthRate"`
	ConversionRate      float64 `json:"conversionRate"`
	CartAbandonmentRate float64 `json:"cartAbandonmentRate"`

	TrafficSources TrafficSources `json:"trafficSources"`

	TotalOrders       int     `json:"totalOrders"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	TotalVisitors     int     `json:"totalVisitors"`
	TotalSessions     int     `json:"totalSessions"`
}

// Session volume is not available from order data alone, so the snapshot
// estimates it from order count at a 3% baseline conversion rate. The
// abandonment rate and traffic mix are fixed industry-typical figures until a
// storefront analytics source is wired in.
const (
	baselineConversion = 0.03
	fixedAbandonment   = 70
	visitorsPerSession = 0.8
)

var estimatedTrafficMix = TrafficSources{
	Ads:      25,
	Organic:  35,
	Social:   15,
	Referral: 10,
	Direct:   10,
	Email:    5,
}

// Builder assembles snapshots from mirrored order data.
type Builder struct {
	store *store.Store

	// now is swappable in tests.
	now func() time.Time
}

func NewBuilder(st *store.Store) *Builder {
	return &Builder{store: st, now: time.Now}
}

// Build computes the snapshot for the trailing window of days days, compared
// against the window of the same length immediately before it.
func (b *Builder) Build(ctx context.Context, shop string, days int) (*Data, error) {
	if days <= 0 {
		days = 30
	}
	now := b.now().UTC()
	currentFrom := now.AddDate(0, 0, -days)
	previousFrom := now.AddDate(0, 0, -2*days)

	current, err := b.store.OrdersInRange(shop, currentFrom, now)
	if err != nil {
		return nil, err
	}
	previous, err := b.store.OrdersInRange(shop, previousFrom, currentFrom)
	if err != nil {
		return nil, err
	}

	var grossRevenue, totalDiscounts float64
	activeNow := map[string]bool{}
	for _, o := range current {
		grossRevenue += o.TotalPrice
		totalDiscounts += o.TotalDiscounts
		if o.CustomerID != "" {
			activeNow[o.CustomerID] = true
		}
	}
	var previousRevenue float64
	activeBefore := map[string]bool{}
	for _, o := range previous {
		previousRevenue += o.TotalPrice
		if o.CustomerID != "" {
			activeBefore[o.CustomerID] = true
		}
	}

	// New customers: customers whose first order in the mirror falls in the
	// window.
	firstSeen, err := b.firstOrderDates(shop)
	if err != nil {
		return nil, err
	}
	var newNow, newBefore int
	for _, first := range firstSeen {
		if !first.Before(currentFrom) && first.Before(now) {
			newNow++
		} else if !first.Before(previousFrom) && first.Before(currentFrom) {
			newBefore++
		}
	}

	totalOrders := len(current)
	data := &Data{
		GrossRevenue:         grossRevenue,
		NetRevenue:           grossRevenue - totalDiscounts,
		RevenueChangePercent: changePercent(grossRevenue, previousRevenue),

		NewCustomers:              newNow,
		NewCustomersChangePercent: changePercent(float64(newNow), float64(newBefore)),

		ActiveCustomers:              len(activeNow),
		ActiveCustomersChangePercent: changePercent(float64(len(activeNow)), float64(len(activeBefore))),

		CartAbandonmentRate: fixedAbandonment,
		TrafficSources:      estimatedTrafficMix,
		TotalOrders:         totalOrders,
	}
	data.GrowthRate = data.RevenueChangePercent
	if totalOrders > 0 {
		data.AverageOrderValue = grossRevenue / float64(totalOrders)
	}

	sessions := int(math.Round(float64(totalOrders) / baselineConversion))
	data.TotalSessions = sessions
	data.TotalVisitors = int(math.Round(float64(sessions) * visitorsPerSession))
	if sessions > 0 {
		data.ConversionRate = float64(totalOrders) / float64(sessions) * 100
	}

	return data, nil
}

func (b *Builder) firstOrderDates(shop string) (map[string]time.Time, error) {
	var rows []models.Order
	err := b.store.DB().
		Select("customer_id", "created_at").
		Where("shop = ? AND customer_id <> ''", shop).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		if r.CreatedAt == nil {
			continue
		}
		first, seen := out[r.CustomerID]
		if !seen || r.CreatedAt.Before(first) {
			out[r.CustomerID] = *r.CreatedAt
		}
	}
	return out, nil
}

func changePercent(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
