package statistics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/giveledger/pkg/types"
)

type StatisticType string

const (
	// Daily counts and amounts
	StatisticTypeDailyDonationCount  StatisticType = "daily_donation_count"
	StatisticTypeDailyDonationAmount StatisticType = "daily_donation_amount"
	StatisticTypeTotalDonationAmount StatisticType = "total_donation_amount"

	// Donor related
	StatisticTypeDailyNewDonorCount         StatisticType = "daily_new_donor_count"
	StatisticTypeDailyAccumulatedDonorCount StatisticType = "daily_accumulated_donor_count"
)

var ErrInvalidRequest = errors.New("invalid statistic request")

// filterable lists the statistics that honour request filters; the
// cumulative ones always cover the whole ledger.
var filterable = []StatisticType{StatisticTypeDailyDonationCount, StatisticTypeDailyDonationAmount}

// AllowedFilterFields are the donation columns a statistic filter may reference.
var AllowedFilterFields = map[string]bool{
	"organization_id": true,
	"campaign_id":     true,
	"donor_id":        true,
	"kind":            true,
	"created_at":      true,
}

type DonationStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type DonationStatisticRequest struct {
	Filters   []types.CommonFilter         `json:"filters"`
	DataItems []*DonationStatisticDataItem `json:"data_items"`
}

// Build composes a WHERE clause from the request filters.
func (r *DonationStatisticRequest) Build(builder clause.Builder) {
	if len(r.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i := range r.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		r.Filters[i].Build(builder)
	}
}

type DonationStatisticResponseDataItem struct {
	Date   string          `json:"date"`
	Label  string          `json:"label,omitempty"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type DonationStatisticResponse struct {
	DataItems map[StatisticType][]DonationStatisticResponseDataItem `json:"data_items"`
}

// Service provides statistics operations
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) completed(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("donation").Where("status = ?", string(types.DonationStatusCompleted))
}

func (s *Service) getDailyDonationCount(ctx context.Context, request *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	q := s.completed(ctx).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as count").
		Where(clause.Where{Exprs: []clause.Expression{request}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyDonationAmount(ctx context.Context, request *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	q := s.completed(ctx).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, currency AS label, count(*) as count, COALESCE(sum(amount), 0) as amount").
		Where("amount IS NOT NULL").
		Where(clause.Where{Exprs: []clause.Expression{request}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalDonationAmount(ctx context.Context, _ *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date
    FROM donation WHERE status = ?
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM donation WHERE status = ? AND amount IS NOT NULL
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
amount_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(t.amount), 0) as amount
    FROM date_currency_combinations dc
    LEFT JOIN donation t
      ON TO_CHAR(t.created_at, 'YYYY-MM-DD') = dc.date
     AND t.currency = dc.label
     AND t.status = ?
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.amount) as amount
FROM amount_date d
LEFT JOIN amount_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`, types.DonationStatusCompleted, types.DonationStatusCompleted, types.DonationStatusCompleted).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewDonorCount(ctx context.Context, _ *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH first_donation AS (
    SELECT donor_id, MIN(DATE(created_at)) as date FROM donation WHERE status = ? GROUP BY donor_id
)
SELECT TO_CHAR(date, 'YYYY-MM-DD') as date, COUNT(*) as count
FROM first_donation
GROUP BY date
ORDER BY date DESC
`, types.DonationStatusCompleted).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyAccumulatedDonorCount(ctx context.Context, _ *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date FROM donation WHERE status = ?
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
donor_date AS (
    SELECT donor_id, DATE(created_at) as date FROM donation WHERE status = ?
)
SELECT TO_CHAR(d.date, 'YYYY-MM-DD') as date, COUNT(DISTINCT s.donor_id) as count
FROM distinct_dates d
LEFT JOIN donor_date s ON s.date <= d.date
GROUP BY d.date
ORDER BY d.date DESC
`, types.DonationStatusCompleted, types.DonationStatusCompleted).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDonationStatistic(ctx context.Context, request *DonationStatisticRequest, dataItem *DonationStatisticDataItem) ([]DonationStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyDonationCount:
		return s.getDailyDonationCount(ctx, request)
	case StatisticTypeDailyDonationAmount:
		return s.getDailyDonationAmount(ctx, request)
	case StatisticTypeTotalDonationAmount:
		return s.getTotalDonationAmount(ctx, request)
	case StatisticTypeDailyNewDonorCount:
		return s.getDailyNewDonorCount(ctx, request)
	case StatisticTypeDailyAccumulatedDonorCount:
		return s.getDailyAccumulatedDonorCount(ctx, request)
	default:
		return nil, fmt.Errorf("%w: invalid data item id: %s", ErrInvalidRequest, dataItem.ID)
	}
}

// GetDonationStatistic computes the requested data items concurrently.
// Filtered requests return no rows for statistics that cannot be filtered.
func (s *Service) GetDonationStatistic(ctx context.Context, request *DonationStatisticRequest) (*DonationStatisticResponse, error) {
	for i := range request.Filters {
		if err := request.Filters[i].Validate(AllowedFilterFields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []DonationStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *DonationStatisticDataItem) {
			defer wg.Done()
			if len(request.Filters) > 0 && !lo.Contains(filterable, di.ID) {
				resChan <- &lo.Entry[StatisticType, []DonationStatisticResponseDataItem]{Key: di.ID, Value: nil}
				return
			}
			res, err := s.getDonationStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []DonationStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	wg.Wait()
	close(errChan)
	close(resChan)
	if err := <-errChan; err != nil {
		return nil, err
	}

	results := make(map[StatisticType][]DonationStatisticResponseDataItem)
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &DonationStatisticResponse{DataItems: results}, nil
}
