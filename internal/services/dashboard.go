package services

import (
	"fmt"
	"time"

	"github.com/mitgajera/InvoicePro/internal/models"

	"gorm.io/gorm"
)

// DashboardService produces the per-user aggregates behind the
// dashboard view. It only reads stored fields; in particular "overdue"
// means stored status overdue, never a due-date comparison at query
// time.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// MonthRevenue is one point of the revenue-over-time series.
type MonthRevenue struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
}

// Stats are the aggregate figures shown on the dashboard.
type Stats struct {
	InvoiceCount int64 `json:"invoice_count"`
	DraftCount   int64 `json:"draft_count"`
	SentCount    int64 `json:"sent_count"`
	PaidCount    int64 `json:"paid_count"`
	OverdueCount int64 `json:"overdue_count"`
	ClientCount  int64 `json:"client_count"`

	TotalRevenue   float64        `json:"total_revenue"`
	MonthlyRevenue float64        `json:"monthly_revenue"`
	RevenueSeries  []MonthRevenue `json:"revenue_series"`
}

// Stats computes the user's dashboard aggregates. Revenue counts only
// paid invoices; the series covers the trailing six months including
// the current one.
func (s *DashboardService) Stats(userID uint, now time.Time) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&stats.InvoiceCount).Error; err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	statusCounts := []struct {
		status models.InvoiceStatus
		dest   *int64
	}{
		{models.InvoiceStatusDraft, &stats.DraftCount},
		{models.InvoiceStatusSent, &stats.SentCount},
		{models.InvoiceStatusPaid, &stats.PaidCount},
		{models.InvoiceStatusOverdue, &stats.OverdueCount},
	}
	for _, sc := range statusCounts {
		if err := s.db.Model(&models.Invoice{}).
			Where("user_id = ? AND status = ?", userID, sc.status).
			Count(sc.dest).Error; err != nil {
			return nil, fmt.Errorf("dashboard counts: %w", err)
		}
	}
	if err := s.db.Model(&models.Client{}).Where("user_id = ?", userID).Count(&stats.ClientCount).Error; err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	// Revenue aggregation happens in memory over paid invoices so the
	// month bucketing stays portable between postgres and sqlite.
	var paid []models.Invoice
	if err := s.db.Where("user_id = ? AND status = ?", userID, models.InvoiceStatusPaid).
		Find(&paid).Error; err != nil {
		return nil, fmt.Errorf("dashboard revenue: %w", err)
	}

	monthKey := func(t time.Time) string { return t.Format("2006-01") }
	byMonth := map[string]float64{}
	for _, inv := range paid {
		stats.TotalRevenue += inv.Total
		byMonth[monthKey(inv.IssueDate)] += inv.Total
	}
	stats.MonthlyRevenue = byMonth[monthKey(now)]

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 5; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		stats.RevenueSeries = append(stats.RevenueSeries, MonthRevenue{
			Month:   monthKey(m),
			Revenue: byMonth[monthKey(m)],
		})
	}
	return stats, nil
}
