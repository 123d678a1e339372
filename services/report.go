package services

import (
	"context"
	"time"

	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/utils"
)

type DashboardStats struct {
	TotalTrips       int     `json:"totalTrips"`
	ActiveDrivers    int64   `json:"activeDrivers"`
	TotalVehicles    int64   `json:"totalVehicles"`
	TotalCustomers   int64   `json:"totalCustomers"`
	TotalExpenses    float64 `json:"totalExpenses"`
	FullyBookedToday bool    `json:"fullyBookedToday"`
}

type ReportDay struct {
	Date     string  `json:"date"`
	Trips    int     `json:"trips"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
}

// Report aggregates trips and expenses per day over a period. The parallel
// slices feed charts directly.
type Report struct {
	Period        string      `json:"period"`
	TotalTrips    int         `json:"totalTrips"`
	TotalRevenue  float64     `json:"totalRevenue"`
	TotalExpenses float64     `json:"totalExpenses"`
	Dates         []string    `json:"dates"`
	Revenue       []float64   `json:"revenue"`
	Expenses      []float64   `json:"expenses"`
	Details       []ReportDay `json:"details"`
}

type Reports struct {
	store storage.Store
	trips *TripService
}

func NewReports(store storage.Store, trips *TripService) *Reports {
	return &Reports{store: store, trips: trips}
}

func (r *Reports) Dashboard(ctx context.Context, caller Caller) (*DashboardStats, error) {
	trips, err := r.trips.List(ctx, caller)
	if err != nil {
		return nil, err
	}
	drivers, err := r.store.CountDriversByStatus(ctx, models.DriverActive)
	if err != nil {
		return nil, err
	}
	vehicles, err := r.store.CountVehicles(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := r.store.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := r.store.SumExpenses(ctx)
	if err != nil {
		return nil, err
	}
	today, err := r.trips.Availability(ctx, "")
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalTrips:       len(trips),
		ActiveDrivers:    drivers,
		TotalVehicles:    vehicles,
		TotalCustomers:   customers,
		TotalExpenses:    utils.Round2(expenses),
		FullyBookedToday: today.FullyBooked,
	}, nil
}

// Monthly reports on a "YYYY-MM" month.
func (r *Reports) Monthly(ctx context.Context, caller Caller, month string) (*Report, error) {
	from, to, err := utils.MonthRange(month)
	if err != nil {
		return nil, err
	}
	return r.build(ctx, caller, month, from, to)
}

// Weekly reports on an ISO "YYYY-Www" week.
func (r *Reports) Weekly(ctx context.Context, caller Caller, week string) (*Report, error) {
	from, to, err := utils.WeekRange(week)
	if err != nil {
		return nil, err
	}
	return r.build(ctx, caller, week, from, to)
}

func (r *Reports) build(ctx context.Context, caller Caller, period string, from, to time.Time) (*Report, error) {
	first, last := from.Format(utils.DateLayout), to.Format(utils.DateLayout)

	trips, err := r.store.ListTripsBetween(ctx, first, last)
	if err != nil {
		return nil, err
	}
	expenses, err := r.store.ListExpensesBetween(ctx, first, last)
	if err != nil {
		return nil, err
	}

	days := utils.DaysBetween(from, to)
	index := make(map[string]int, len(days))
	report := &Report{
		Period:   period,
		Dates:    days,
		Revenue:  make([]float64, len(days)),
		Expenses: make([]float64, len(days)),
		Details:  make([]ReportDay, len(days)),
	}
	for i, d := range days {
		index[d] = i
		report.Details[i].Date = d
	}

	for _, t := range VisibleTrips(caller, trips) {
		i, ok := index[t.Date]
		if !ok {
			continue
		}
		report.Details[i].Trips++
		report.TotalTrips++
		if t.Status == models.TripCompleted && t.Price != nil {
			report.Details[i].Revenue += *t.Price
		}
	}
	for _, e := range expenses {
		if i, ok := index[e.Date]; ok {
			report.Details[i].Expenses += e.Amount
		}
	}

	for i := range report.Details {
		day := &report.Details[i]
		day.Revenue = utils.Round2(day.Revenue)
		day.Expenses = utils.Round2(day.Expenses)
		report.Revenue[i] = day.Revenue
		report.Expenses[i] = day.Expenses
		report.TotalRevenue += day.Revenue
		report.TotalExpenses += day.Expenses
	}
	report.TotalRevenue = utils.Round2(report.TotalRevenue)
	report.TotalExpenses = utils.Round2(report.TotalExpenses)
	return report, nil
}
