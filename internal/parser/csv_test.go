package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecPtr(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, decimal.RequireFromString(want).Equal(*got), "want %s, got %s", want, got)
}

func TestParseARInvoices(t *testing.T) {
	data := `Invoice_No,Customer_No,Customer_Name,Job_No,Job_Description,Project_Manager_Name,Invoice_Date,Invoice_Amount,Retainage_Percent,Retainage_Amount,Amount_Due
1001.0,C-7,Acme Owner LLC,2301,Warehouse retrofit,Dana,2025-11-01,"$1,000.00",,100,900
1002,C-7,Acme Owner LLC,2301,Warehouse retrofit,Dana,45366,(250.00),10,nan,
,C-9,Nobody,,,,,,,,
`
	res, err := NewCSVParser().ParseARInvoices(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 1, res.Skipped)

	first := res.Rows[0]
	assert.Equal(t, "1001", first.InvoiceNo, "float artifact stripped")
	assert.Equal(t, "Dana", first.ProjectManager)
	assertDecPtr(t, "1000", first.InvoiceAmount)
	assertDecPtr(t, "100", first.RetainageAmount)
	assert.Nil(t, first.RetainagePercent)
	assertDecPtr(t, "900", first.AmountDue)
	require.NotNil(t, first.InvoiceDate)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), *first.InvoiceDate)

	second := res.Rows[1]
	assertDecPtr(t, "-250", second.InvoiceAmount)
	assertDecPtr(t, "10", second.RetainagePercent)
	assert.Nil(t, second.RetainageAmount, "nan is blank")
	require.NotNil(t, second.InvoiceDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *second.InvoiceDate)
}

func TestParseARInvoices_MalformedCellsWarn(t *testing.T) {
	data := `invoice_no,invoice_date,invoice_amount
A1,not-a-date,12x
`
	res, err := NewCSVParser().ParseARInvoices(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	assert.Nil(t, res.Rows[0].InvoiceAmount)
	assert.Nil(t, res.Rows[0].InvoiceDate)
	require.Len(t, res.Warnings, 2)
	assert.ErrorIs(t, res.Warnings[0], errBadDate)
	assert.ErrorIs(t, res.Warnings[1], errBadNumber)
	assert.Equal(t, 2, res.Warnings[0].Row)
	assert.Len(t, res.WarningStrings(), 2)
}

func TestParseARInvoices_MissingColumn(t *testing.T) {
	_, err := NewCSVParser().ParseARInvoices(strings.NewReader("customer_no\nC1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := NewCSVParser().ParseJobBudgets(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseCashApplications_Aliases(t *testing.T) {
	data := `invoice_no,cash_amount,void_flag
1001,400,N
1001,50,Y
1002,75.5,1.0
1003,,
`
	res, err := NewCSVParser().ParseCashApplications(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)

	assertDecPtr(t, "400", res.Rows[0].AppliedAmount)
	assert.False(t, res.Rows[0].Reversed)
	assert.True(t, res.Rows[1].Reversed)
	assert.True(t, res.Rows[2].Reversed)
	assert.Nil(t, res.Rows[3].AppliedAmount)
}

func TestParseAPPayments(t *testing.T) {
	data := `invoice_no,invoice_date,invoice_amount,vendor_name,retainage_percent,retainage_amount,cash_amount,void_flag,transaction_date,job_no,job_description,project_manager_name
V-1,11/3/2025,1000,Steel Co,10,100,400,,2025-11-20 00:00:00,2301,Retrofit,Dana
V-1,11/3/2025,1000,Steel Co,10,100,,,,2301,Retrofit,Dana
`
	res, err := NewCSVParser().ParseAPPayments(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	first := res.Rows[0]
	assert.Equal(t, "Steel Co", first.VendorName)
	require.NotNil(t, first.InvoiceDate)
	assert.Equal(t, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), *first.InvoiceDate)
	require.NotNil(t, first.TransactionDate)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), *first.TransactionDate)
	assertDecPtr(t, "400", first.CashAmount)

	assert.Nil(t, res.Rows[1].CashAmount)
	assert.Nil(t, res.Rows[1].TransactionDate)
	assert.Empty(t, res.Warnings)
}

func TestParseJobBudgets(t *testing.T) {
	data := `job_no,job_description,customer_no,customer_name,job_status,project_manager_name,original_contract,tot_income_adj,original_cost,tot_cost_adj
2301,Retrofit,C-7,Acme,A,Dana,"200,000.00",10000,150000,(15000)
2302,Closed job,C-8,Beta,C,Lee,1000,None,800,
`
	res, err := NewCSVParser().ParseJobBudgets(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, "A", res.Rows[0].Status)
	assertDecPtr(t, "200000", res.Rows[0].OriginalContract)
	assertDecPtr(t, "-15000", res.Rows[0].CostAdjustments)
	assert.Nil(t, res.Rows[1].IncomeAdjustments)
	assert.Nil(t, res.Rows[1].CostAdjustments)
}

func TestParseJobAmounts(t *testing.T) {
	data := `Job_No,Actual_Cost
2301,100.10
2301,200
,5
`
	res, err := NewCSVParser().ParseJobAmounts(strings.NewReader(data), "actual_cost")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 1, res.Skipped)
	assertDecPtr(t, "100.10", res.Rows[0].Amount)

	_, err = NewCSVParser().ParseJobAmounts(strings.NewReader(data), "billed_revenue")
	assert.ErrorIs(t, err, ErrMissingColumn)
}
