package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/batch"
	"github.com/josh987123/ftg-foundation-data/internal/money"
)

// ErrNoJobs means the job budget dataset came through empty
var ErrNoJobs = errors.New("no jobs to calculate")

var hundred = decimal.NewFromInt(100)

// JobStatus is the lifecycle state of a job
type JobStatus string

const (
	StatusOpen   JobStatus = "open"
	StatusClosed JobStatus = "closed"
)

// JobData holds the job fields needed for calculations
type JobData struct {
	JobNo          string
	Description    string
	CustomerNo     string
	CustomerName   string
	ProjectManager string
	Status         JobStatus

	OriginalContract    decimal.Decimal
	ContractAdjustments decimal.Decimal // approved change orders
	OriginalCost        decimal.Decimal
	CostAdjustments     decimal.Decimal
}

// RevisedContract is the original contract plus approved adjustments
func (j JobData) RevisedContract() decimal.Decimal {
	return j.OriginalContract.Add(j.ContractAdjustments)
}

// RevisedCost is the original budgeted cost plus approved adjustments
func (j JobData) RevisedCost() decimal.Decimal {
	return j.OriginalCost.Add(j.CostAdjustments)
}

// JobMetric represents calculated metrics for a single job
type JobMetric struct {
	JobNo            string          `json:"job_no"`
	Description      string          `json:"job_description"`
	CustomerNo       string          `json:"customer_no"`
	CustomerName     string          `json:"customer_name"`
	ProjectManager   string          `json:"project_manager"`
	Status           JobStatus       `json:"job_status"`
	RevisedContract  decimal.Decimal `json:"revised_contract"`
	RevisedCost      decimal.Decimal `json:"revised_cost"`
	ActualCost       decimal.Decimal `json:"actual_cost"`
	Billed           decimal.Decimal `json:"billed"`
	PercentComplete  decimal.Decimal `json:"percent_complete"`
	EarnedRevenue    decimal.Decimal `json:"earned_revenue"`
	Backlog          decimal.Decimal `json:"backlog"`
	OverUnderBilling decimal.Decimal `json:"over_under_billing"`
	Profit           decimal.Decimal `json:"profit"`
	MarginPct        decimal.Decimal `json:"margin"`
	ProfitBasis      ProfitBasis     `json:"profit_basis"`
}

// Aggregates carries the per-job totals computed outside the job record
type Aggregates struct {
	ActualCost map[string]decimal.Decimal
	Billed     map[string]decimal.Decimal
}

// CalculateJobMetrics computes metrics for every job in a batch. Jobs are
// never dropped; a job with no aggregates is calculated with zero cost and
// zero billings.
func CalculateJobMetrics(jobs []JobData, agg Aggregates, workers int) ([]JobMetric, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	results := batch.Map(len(jobs), workers, func(i int) (JobMetric, bool) {
		job := jobs[i]
		key := strings.TrimSpace(job.JobNo)
		return CalculateJob(job, agg.ActualCost[key], agg.Billed[key]), true
	})

	if len(results) != len(jobs) {
		return nil, fmt.Errorf("calculated %d of %d jobs", len(results), len(jobs))
	}
	return results, nil
}

// CalculateJob computes the metrics for a single job
func CalculateJob(job JobData, actualCost, billed decimal.Decimal) JobMetric {
	revisedContract := job.RevisedContract()
	revisedCost := job.RevisedCost()
	closed := job.Status == StatusClosed

	// Percent complete is cost-to-cost, capped at 100
	percentComplete := money.Min(money.Percent(actualCost, revisedCost), hundred)
	earned := money.Ratio(actualCost, revisedCost).Mul(revisedContract)

	backlog := decimal.Zero
	overUnder := decimal.Zero
	if !closed {
		backlog = revisedContract.Sub(earned)
		overUnder = billed.Sub(earned)
	}

	profit := SelectProfit(ProfitInput{
		Closed:          closed,
		RevisedContract: revisedContract,
		RevisedCost:     revisedCost,
		ActualCost:      actualCost,
		Billed:          billed,
		EarnedRevenue:   earned,
	})

	return JobMetric{
		JobNo:            job.JobNo,
		Description:      job.Description,
		CustomerNo:       job.CustomerNo,
		CustomerName:     job.CustomerName,
		ProjectManager:   job.ProjectManager,
		Status:           job.Status,
		RevisedContract:  money.Round(revisedContract),
		RevisedCost:      money.Round(revisedCost),
		ActualCost:       money.Round(actualCost),
		Billed:           money.Round(billed),
		PercentComplete:  money.Round(percentComplete),
		EarnedRevenue:    money.Round(earned),
		Backlog:          money.Round(backlog),
		OverUnderBilling: money.Round(overUnder),
		Profit:           money.Round(profit.Profit),
		MarginPct:        money.Round(profit.Margin),
		ProfitBasis:      profit.Basis,
	}
}

// SumByJob totals amounts per trimmed job number. Rows without a job number
// are ignored.
func SumByJob(rows []JobAmount) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range rows {
		key := strings.TrimSpace(r.JobNo)
		if key == "" {
			continue
		}
		totals[key] = totals[key].Add(r.Amount)
	}
	return totals
}

// JobAmount is one job-keyed amount from an aggregate export
type JobAmount struct {
	JobNo  string
	Amount decimal.Decimal
}
