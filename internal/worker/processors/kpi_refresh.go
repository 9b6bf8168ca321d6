package processors

import (
	"context"
	"encoding/json"
	"fmt"

	"sierre/internal/events"
	"sierre/internal/logger"
	"sierre/internal/services/kpi"
)

// KpiRefreshProcessor recomputes daily KPI rollups when order events arrive.
// Rollups are recomputed from scratch, so reprocessing a message is harmless.
type KpiRefreshProcessor struct {
	aggregator *kpi.Aggregator
	logger     *logger.Logger
}

func NewKpiRefreshProcessor(aggregator *kpi.Aggregator, log *logger.Logger) *KpiRefreshProcessor {
	return &KpiRefreshProcessor{aggregator: aggregator, logger: log}
}

func (p *KpiRefreshProcessor) Process(ctx context.Context, value []byte) error {
	var event events.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if event.Shop == "" {
		return fmt.Errorf("event missing shop")
	}

	dates := event.Dates
	if len(dates) == 0 {
		// No explicit dates means refresh today.
		dates = []string{""}
	}
	for _, date := range dates {
		if _, err := p.aggregator.AggregateDaily(ctx, event.Shop, date); err != nil {
			return fmt.Errorf("failed to refresh kpi_daily for %s: %w", event.Shop, err)
		}
	}

	p.logger.Debug("Refreshed %d rollup(s) for %s after %s", len(dates), event.Shop, event.Type)
	return nil
}
