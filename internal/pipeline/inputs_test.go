package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
)

func TestLoadInputs(t *testing.T) {
	in, err := LoadInputs(writeFixtures(t))
	require.NoError(t, err)

	assert.Len(t, in.ARInvoices, 3)
	require.NotNil(t, in.Ledger)
	assert.Len(t, in.Ledger["1001"], 1)

	require.Len(t, in.APInvoices, 3, "payment rows are grouped per invoice")
	assert.Equal(t, "V-1", in.APInvoices[0].InvoiceNo)
	assert.Len(t, in.APInvoices[0].Payments, 1)
	assert.Empty(t, in.APInvoices[1].Payments)

	assert.Len(t, in.Jobs, 2)
	assert.True(t, decimal.NewFromInt(67500).Equal(in.Aggregates.ActualCost["2301"]))
	assert.True(t, decimal.NewFromInt(1000).Equal(in.Aggregates.Billed["2302"]))

	assert.Equal(t, 4, in.RowCounts[FileAPPayments])
	assert.Empty(t, in.Warnings)
}

func TestLoadInputs_MissingLedgerIsNil(t *testing.T) {
	in, err := LoadInputs(writeFixtures(t, FileCashApplications))
	require.NoError(t, err)
	assert.Nil(t, in.Ledger)
	assert.Contains(t, in.Warnings, FileCashApplications+": file not found")
}

func TestLoadInputs_ParseWarningsArePrefixed(t *testing.T) {
	dir := writeFixtures(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileJobActuals), []byte("Job_No,Actual_Cost\n2301,abc\n"), 0o644))

	in, err := LoadInputs(dir)
	require.NoError(t, err)
	require.Len(t, in.Warnings, 1)
	assert.Contains(t, in.Warnings[0], FileJobActuals+": row 2")
	assert.True(t, in.Aggregates.ActualCost["2301"].IsZero(), "malformed amounts count as zero")
}

func TestRetainageBasis(t *testing.T) {
	amt := decimal.NewFromInt(100)
	pct := decimal.NewFromInt(10)

	assert.Equal(t, reconcile.RetainageOfAmount(amt), retainageBasis(&amt, &pct))
	assert.Equal(t, reconcile.RetainageOfPercent(pct), retainageBasis(nil, &pct))

	zero := retainageBasis(nil, nil)
	assert.Equal(t, reconcile.RetainageAmount, zero.Kind)
	assert.True(t, zero.Value.IsZero())
}

func TestJobStatus(t *testing.T) {
	assert.Equal(t, metrics.StatusClosed, jobStatus("C"))
	assert.Equal(t, metrics.StatusClosed, jobStatus(" c "))
	assert.Equal(t, metrics.StatusClosed, jobStatus("Closed"))
	assert.Equal(t, metrics.StatusOpen, jobStatus("A"))
	assert.Equal(t, metrics.StatusOpen, jobStatus(""))
}

func TestFingerprint(t *testing.T) {
	dir := writeFixtures(t)

	a, hashes, err := Fingerprint(dir, testAsOf)
	require.NoError(t, err)
	assert.Len(t, hashes, len(inputFiles))

	b, _, err := Fingerprint(dir, testAsOf)
	require.NoError(t, err)
	assert.Equal(t, a, b, "stable for identical inputs")

	c, _, err := Fingerprint(dir, testAsOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "as-of date is part of the fingerprint")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileJobBilled), []byte("Job_No,Billed_Revenue\n"), 0o644))
	d, _, err := Fingerprint(dir, testAsOf)
	require.NoError(t, err)
	assert.NotEqual(t, a, d, "content changes the fingerprint")

	require.NoError(t, os.Remove(filepath.Join(dir, FileCashApplications)))
	_, hashes, err = Fingerprint(dir, testAsOf)
	require.NoError(t, err)
	assert.Equal(t, "missing", hashes[FileCashApplications])
}

func TestValidateInputs_NoLedger(t *testing.T) {
	in := &Inputs{
		ARInvoices: []reconcile.Invoice{{InvoiceNo: "1", HeaderAmountDue: &decimal.Zero}},
	}
	res := ValidateInputs(in)
	assert.Empty(t, res.StaleHeaders, "nothing to compare against")
	assert.Empty(t, res.Warnings)
}
