package insights

import (
	"fmt"
	"math"

	"sierre/internal/services/analytics"
)

// Analyze runs the rule engine over a snapshot. It is a pure function: the
// same snapshot and shop name always produce byte-identical output.
func Analyze(data *analytics.Data, shopName string) StoreAnalysis {
	var insights []Insight
	insights = append(insights, analyzeRevenue(data)...)
	insights = append(insights, analyzeConversion(data)...)
	insights = append(insights, analyzeCustomers(data)...)
	insights = append(insights, analyzeTraffic(data)...)
	insights = append(insights, analyzeOperations(data)...)

	health := overallHealth(insights)

	return StoreAnalysis{
		OverallHealth: health,
		Insights:      insights,
		Summary:       buildSummary(insights, health, shopName),
		TopPriorities: topPriorities(insights),
	}
}

func analyzeRevenue(data *analytics.Data) []Insight {
	var insights []Insight

	if data.RevenueChangePercent < -10 {
		severity := SeverityHigh
		if data.RevenueChangePercent < -30 {
			severity = SeverityCritical
		}
		change := data.RevenueChangePercent
		insights = append(insights, Insight{
			ID:          "revenue-decline",
			Type:        TypeProblem,
			Severity:    severity,
			Title:       "Revenue Decline Detected",
			Description: fmt.Sprintf("Revenue has decreased by %.1f%% compared to the previous period.", math.Abs(data.RevenueChangePercent)),
			Impact:      fmt.Sprintf("This represents a loss of approximately $%.0f in potential revenue.", math.Abs(data.GrossRevenue*data.RevenueChangePercent/100)),
			Recommendation: "Focus on improving your marketing creatives and ad targeting. Test new ad formats, " +
				"refresh your creative assets, and optimize your audience targeting to improve conversion rates.",
			Metrics:  Metrics{Current: data.GrossRevenue, Change: &change},
			Category: "revenue",
		})
	}

	if data.AverageOrderValue < 50 {
		insights = append(insights, Insight{
			ID:          "low-aov",
			Type:        TypeOpportunity,
			Severity:    SeverityMedium,
			Title:       "Low Average Order Value",
			Description: fmt.Sprintf("Your AOV of $%.2f is below the industry average of $75.", data.AverageOrderValue),
			Impact:      "Increasing AOV by just $10 could boost revenue by 20% with the same number of orders.",
			Recommendation: "Implement upselling strategies, bundle products, offer free shipping thresholds, " +
				"and create product recommendations to increase order value.",
			Metrics:  Metrics{Current: data.AverageOrderValue},
			Category: "revenue",
		})
	}

	if data.CartAbandonmentRate > 75 {
		insights = append(insights, Insight{
			ID:          "high-abandonment",
			Type:        TypeProblem,
			Severity:    SeverityHigh,
			Title:       "High Cart Abandonment Rate",
			Description: fmt.Sprintf("Your cart abandonment rate of %v%% is significantly above the industry average of 70%%.", trimFloat(data.CartAbandonmentRate)),
			Impact:      fmt.Sprintf("Reducing abandonment by 10%% could recover approximately $%.0f in lost revenue.", data.GrossRevenue*0.1),
			Recommendation: "Implement cart abandonment email sequences, optimize checkout flow, add trust signals, " +
				"and offer incentives like free shipping or discounts.",
			Metrics:  Metrics{Current: data.CartAbandonmentRate},
			Category: "conversion",
		})
	}

	return insights
}

func analyzeConversion(data *analytics.Data) []Insight {
	var insights []Insight

	if data.ConversionRate < 2 {
		insights = append(insights, Insight{
			ID:          "low-conversion",
			Type:        TypeProblem,
			Severity:    SeverityHigh,
			Title:       "Low Conversion Rate",
			Description: fmt.Sprintf("Your conversion rate of %.2f%% is below the industry average of 2.5%%.", data.ConversionRate),
			Impact:      fmt.Sprintf("Improving conversion by 0.5%% could generate %d additional orders.", int(math.Round(float64(data.TotalSessions)*0.005))),
			Recommendation: "Optimize your product pages, improve site speed, enhance product descriptions and images, " +
				"and implement social proof elements like reviews and testimonials.",
			Metrics:  Metrics{Current: data.ConversionRate},
			Category: "conversion",
		})
	}

	if data.ConversionRate > 3.5 {
		insights = append(insights, Insight{
			ID:          "high-conversion",
			Type:        TypeSuccess,
			Severity:    SeverityLow,
			Title:       "Excellent Conversion Rate",
			Description: fmt.Sprintf("Your conversion rate of %.2f%% is well above the industry average.", data.ConversionRate),
			Impact:      "This indicates strong product-market fit and effective marketing strategies.",
			Recommendation: "Continue current strategies and consider scaling successful campaigns. " +
				"Document what's working to replicate success across other marketing channels.",
			Metrics:  Metrics{Current: data.ConversionRate},
			Category: "conversion",
		})
	}

	return insights
}

func analyzeCustomers(data *analytics.Data) []Insight {
	var insights []Insight

	if data.NewCustomersChangePercent < -15 {
		change := data.NewCustomersChangePercent
		insights = append(insights, Insight{
			ID:          "declining-customers",
			Type:        TypeProblem,
			Severity:    SeverityHigh,
			Title:       "Declining New Customer Acquisition",
			Description: fmt.Sprintf("New customer acquisition has decreased by %.1f%%.", math.Abs(data.NewCustomersChangePercent)),
			Impact:      "This trend could lead to long-term revenue decline as customer acquisition is crucial for growth.",
			Recommendation: "Invest in customer acquisition campaigns, expand to new marketing channels, " +
				"improve your referral program, and enhance your brand presence on social media.",
			Metrics:  Metrics{Current: float64(data.NewCustomers), Change: &change},
			Category: "customers",
		})
	}

	if data.NewCustomers > 0 && float64(data.ActiveCustomers) < float64(data.NewCustomers)*0.3 {
		previous := float64(data.NewCustomers)
		insights = append(insights, Insight{
			ID:          "low-retention",
			Type:        TypeProblem,
			Severity:    SeverityMedium,
			Title:       "Low Customer Retention",
			Description: fmt.Sprintf("Only %.1f%% of new customers are making repeat purchases.", float64(data.ActiveCustomers)/float64(data.NewCustomers)*100),
			Impact:      "Customer retention is more cost-effective than acquisition and drives long-term revenue growth.",
			Recommendation: "Implement email marketing campaigns, loyalty programs, personalized product recommendations, " +
				"and follow-up sequences to encourage repeat purchases.",
			Metrics:  Metrics{Current: float64(data.ActiveCustomers), Previous: &previous},
			Category: "customers",
		})
	}

	return insights
}

func analyzeTraffic(data *analytics.Data) []Insight {
	var insights []Insight
	traffic := data.TrafficSources

	if traffic.Ads > 60 {
		insights = append(insights, Insight{
			ID:          "high-paid-traffic",
			Type:        TypeOpportunity,
			Severity:    SeverityMedium,
			Title:       "Over-reliance on Paid Traffic",
			Description: fmt.Sprintf("%v%% of your traffic comes from paid advertising, which can be expensive and unsustainable.", trimFloat(traffic.Ads)),
			Impact:      "Diversifying traffic sources reduces dependency on ad spend and improves long-term profitability.",
			Recommendation: "Focus on SEO, content marketing, social media engagement, and email marketing " +
				"to build organic traffic sources.",
			Metrics:  Metrics{Current: traffic.Ads},
			Category: "marketing",
		})
	}

	if traffic.Organic < 20 {
		insights = append(insights, Insight{
			ID:          "low-organic-traffic",
			Type:        TypeOpportunity,
			Severity:    SeverityMedium,
			Title:       "Low Organic Traffic",
			Description: fmt.Sprintf("Only %v%% of traffic comes from organic search, limiting your reach and increasing acquisition costs.", trimFloat(traffic.Organic)),
			Impact:      "Organic traffic is free and typically converts better than paid traffic.",
			Recommendation: "Invest in SEO, create valuable content, optimize product descriptions, " +
				"and build quality backlinks to improve organic visibility.",
			Metrics:  Metrics{Current: traffic.Organic},
			Category: "marketing",
		})
	}

	return insights
}

func analyzeOperations(data *analytics.Data) []Insight {
	var insights []Insight

	if data.TotalOrders < 50 {
		insights = append(insights, Insight{
			ID:          "low-orders",
			Type:        TypeOpportunity,
			Severity:    SeverityMedium,
			Title:       "Low Order Volume",
			Description: fmt.Sprintf("With only %d orders, you have room to significantly increase sales volume.", data.TotalOrders),
			Impact:      "Increasing order volume is essential for scaling your business and improving profitability.",
			Recommendation: "Focus on marketing campaigns, product launches, seasonal promotions, " +
				"and expanding your product catalog to drive more orders.",
			Metrics:  Metrics{Current: float64(data.TotalOrders)},
			Category: "operations",
		})
	}

	var sessionsPerOrder float64
	if data.TotalOrders > 0 {
		sessionsPerOrder = float64(data.TotalSessions) / float64(data.TotalOrders)
	}
	if sessionsPerOrder > 50 {
		insights = append(insights, Insight{
			ID:          "traffic-conversion-gap",
			Type:        TypeProblem,
			Severity:    SeverityMedium,
			Title:       "Traffic Not Converting",
			Description: fmt.Sprintf("You're getting good traffic (%d sessions) but low conversion rates.", data.TotalSessions),
			Impact:      "This suggests issues with your sales funnel or product-market fit.",
			Recommendation: "Analyze your sales funnel, improve product-market fit, optimize pricing, " +
				"and enhance the customer experience to convert more visitors into buyers.",
			Metrics:  Metrics{Current: sessionsPerOrder},
			Category: "operations",
		})
	}

	return insights
}

// overallHealth grades the store from the insight mix. The checks run in
// order and the first match wins.
func overallHealth(insights []Insight) Health {
	var critical, high, medium, successes int
	for _, i := range insights {
		switch i.Severity {
		case SeverityCritical:
			critical++
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
		if i.Type == TypeSuccess {
			successes++
		}
	}

	switch {
	case critical > 0:
		return HealthCritical
	case high > 2:
		return HealthWarning
	case high > 0 || medium > 3:
		return HealthWarning
	case successes > 2 && high == 0 && medium <= 1:
		return HealthExcellent
	default:
		return HealthGood
	}
}

func buildSummary(insights []Insight, health Health, shopName string) string {
	var problems, opportunities, successes int
	for _, i := range insights {
		switch i.Type {
		case TypeProblem:
			problems++
		case TypeOpportunity:
			opportunities++
		case TypeSuccess:
			successes++
		}
	}

	summary := shopName + " is showing "
	switch health {
	case HealthExcellent:
		summary += "excellent performance with strong metrics across all areas. "
	case HealthGood:
		summary += "good overall performance with room for optimization. "
	case HealthWarning:
		summary += "concerning trends that need immediate attention. "
	default:
		summary += "critical issues that require urgent intervention. "
	}

	if problems > 0 {
		summary += fmt.Sprintf("We've identified %d key problem%s affecting your store's performance. ", problems, plural(problems, "s", ""))
	}
	if opportunities > 0 {
		summary += fmt.Sprintf("There are also %d significant opportunit%s for growth. ", opportunities, plural(opportunities, "ies", "y"))
	}
	if successes > 0 {
		summary += fmt.Sprintf("On the positive side, you have %d area%s performing exceptionally well. ", successes, plural(successes, "s", ""))
	}

	summary += "Focus on the high-priority recommendations below to improve your store's performance."
	return summary
}

var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// topPriorities returns the recommendations of the three most severe
// problems. The sort is stable so equal severities keep rule-evaluation
// order.
func topPriorities(insights []Insight) []string {
	var problems []Insight
	for _, i := range insights {
		if i.Type == TypeProblem {
			problems = append(problems, i)
		}
	}
	for i := 1; i < len(problems); i++ {
		for j := i; j > 0 && severityRank[problems[j].Severity] > severityRank[problems[j-1].Severity]; j-- {
			problems[j], problems[j-1] = problems[j-1], problems[j]
		}
	}

	priorities := make([]string, 0, 3)
	for _, p := range problems {
		if len(priorities) == 3 {
			break
		}
		priorities = append(priorities, p.Recommendation)
	}
	return priorities
}

func plural(n int, many, one string) string {
	if n > 1 {
		return many
	}
	return one
}

// trimFloat renders whole numbers without a decimal point, matching how the
// rates read in dashboards (70%, not 70.0%).
func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
