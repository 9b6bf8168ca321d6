package models

// KpiDaily is one day's rollup for a shop. Date is stored as "YYYY-MM-DD"
// so the composite key stays stable across database engines.
type KpiDaily struct {
	Shop           string  `json:"shop" gorm:"primaryKey;column:shop"`
	Date           string  `json:"date" gorm:"primaryKey;column:date"`
	Revenue        float64 `json:"revenue" gorm:"column:revenue"`
	Orders         int     `json:"orders" gorm:"column:orders"`
	AOV            float64 `json:"aov" gorm:"column:aov"`
	Refunds        float64 `json:"refunds" gorm:"column:refunds"`
	Sessions       int     `json:"sessions" gorm:"column:sessions"`
	Conversions    int     `json:"conversions" gorm:"column:conversions"`
	ConversionRate float64 `json:"conversion_rate" gorm:"column:conversion_rate"`
	AdSpend        float64 `json:"ad_spend" gorm:"column:ad_spend"`
	ROAS           float64 `json:"roas" gorm:"column:roas"`
	CAC            float64 `json:"cac" gorm:"column:cac"`
}

func (KpiDaily) TableName() string {
	return "kpi_daily"
}
