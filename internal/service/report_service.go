package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-api/internal/core/cache"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/repo"
)

const reportCacheTTL = time.Minute

// ReportService computes the admin dashboard aggregates. Pure read side:
// deterministic for a given data snapshot and reference date.
type ReportService struct {
	transactions *repo.TransactionRepo
	users        *repo.UserRepo
	cache        *cache.Cache // optional
}

func NewReportService(transactions *repo.TransactionRepo, users *repo.UserRepo, c *cache.Cache) *ReportService {
	return &ReportService{transactions: transactions, users: users, cache: c}
}

// monthWindow is [first day of the month, first day of the next month).
func monthWindow(date time.Time) (time.Time, time.Time) {
	y, m, _ := date.Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, date.Location())
	return from, from.AddDate(0, 1, 0)
}

// weekWindow is the 7 days ending the day after the reference date:
// [date-6d, date+1d), both at midnight.
func weekWindow(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	from := time.Date(y, m, d-6, 0, 0, 0, 0, date.Location())
	to := time.Date(y, m, d+1, 0, 0, 0, 0, date.Location())
	return from, to
}

type TransactionsReport struct {
	Monthly int64 `json:"monthlyTransactions"`
	Weekly  int64 `json:"weeklyTransactions"`
}

func (s *ReportService) TransactionsCount(ctx context.Context, date time.Time) (*TransactionsReport, error) {
	return s.cached(ctx, "transactions_count", date, func(ctx context.Context) (*TransactionsReport, error) {
		mFrom, mTo := monthWindow(date)
		monthly, err := s.transactions.CountCreatedBetween(ctx, mFrom, mTo)
		if err != nil {
			return nil, err
		}
		wFrom, wTo := weekWindow(date)
		weekly, err := s.transactions.CountCreatedBetween(ctx, wFrom, wTo)
		if err != nil {
			return nil, err
		}
		return &TransactionsReport{Monthly: monthly, Weekly: weekly}, nil
	})
}

func (s *ReportService) TransactionsTotal(ctx context.Context, date time.Time) (*TransactionsReport, error) {
	return s.cached(ctx, "transactions_total", date, func(ctx context.Context) (*TransactionsReport, error) {
		mFrom, mTo := monthWindow(date)
		monthly, err := s.transactions.SumTotalCreatedBetween(ctx, mFrom, mTo)
		if err != nil {
			return nil, err
		}
		wFrom, wTo := weekWindow(date)
		weekly, err := s.transactions.SumTotalCreatedBetween(ctx, wFrom, wTo)
		if err != nil {
			return nil, err
		}
		return &TransactionsReport{Monthly: monthly, Weekly: weekly}, nil
	})
}

type UsersReport struct {
	TotalShops    int64 `json:"totalShopsCount"`
	TotalBuyers   int64 `json:"totalBuyersCount"`
	MonthlyShops  int64 `json:"monthlyShopsCount"`
	MonthlyBuyers int64 `json:"monthlyBuyersCount"`
}

func (s *ReportService) UsersCount(ctx context.Context, date time.Time) (*UsersReport, error) {
	key := fmt.Sprintf("report:users_count:%s", date.Format("2006-01-02"))
	load := func(ctx context.Context) (*UsersReport, error) {
		sellers, err := s.users.CountByRole(ctx, domain.RoleSeller)
		if err != nil {
			return nil, err
		}
		buyers, err := s.users.CountByRole(ctx, domain.RoleBuyer)
		if err != nil {
			return nil, err
		}
		from, to := monthWindow(date)
		mSellers, err := s.users.CountByRoleCreatedBetween(ctx, domain.RoleSeller, from, to)
		if err != nil {
			return nil, err
		}
		mBuyers, err := s.users.CountByRoleCreatedBetween(ctx, domain.RoleBuyer, from, to)
		if err != nil {
			return nil, err
		}
		return &UsersReport{
			TotalShops:    sellers,
			TotalBuyers:   buyers,
			MonthlyShops:  mSellers,
			MonthlyBuyers: mBuyers,
		}, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return cache.GetOrLoadJSON[UsersReport](s.cache, ctx, key, reportCacheTTL, load)
}

func (s *ReportService) cached(ctx context.Context, name string, date time.Time, load func(context.Context) (*TransactionsReport, error)) (*TransactionsReport, error) {
	if s.cache == nil {
		return load(ctx)
	}
	key := fmt.Sprintf("report:%s:%s", name, date.Format("2006-01-02"))
	return cache.GetOrLoadJSON[TransactionsReport](s.cache, ctx, key, reportCacheTTL, load)
}
