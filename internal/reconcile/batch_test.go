package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileARBatch(t *testing.T) {
	invoices := []Invoice{
		withNo(arInvoice("1000", "50", 10), "A-1"),  // paid in full
		withNo(arInvoice("1000", "150", 45), "A-2"), // partially paid
		withNo(arInvoice("500", "600", 5), "A-3"),   // untouched
	}
	ledger := NewCashLedger([]CashApplication{
		{InvoiceNo: "A-1", Amount: dec("1000")},
		{InvoiceNo: " A-2 ", Amount: dec("200")},
	})

	got, err := ReconcileARBatch(invoices, ledger, Options{AsOf: asOf, Workers: 4})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A-2", got[0].InvoiceNo)
	assert.True(t, dec("650").Equal(got[0].Collectible))
	assert.Equal(t, "A-3", got[1].InvoiceNo)
	assert.True(t, got[1].Collectible.IsZero())
}

func TestReconcileARBatch_MissingLedgerIsFatal(t *testing.T) {
	_, err := ReconcileARBatch([]Invoice{arInvoice("10", "0", 0)}, nil, Options{AsOf: asOf})
	assert.ErrorIs(t, err, ErrMissingLedger)
}

func TestReconcileARBatch_EmptyLedgerIsAllowed(t *testing.T) {
	got, err := ReconcileARBatch([]Invoice{arInvoice("10", "0", 0)}, NewCashLedger(nil), Options{AsOf: asOf})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReconcileARBatch_ZeroRowsIsFatal(t *testing.T) {
	invoices := []Invoice{withNo(arInvoice("100", "0", 0), "Z-1")}
	ledger := NewCashLedger([]CashApplication{{InvoiceNo: "Z-1", Amount: dec("100")}})

	_, err := ReconcileARBatch(invoices, ledger, Options{AsOf: asOf})
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = ReconcileARBatch(nil, ledger, Options{AsOf: asOf})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestReconcileARBatch_Deterministic(t *testing.T) {
	var invoices []Invoice
	var apps []CashApplication
	for i := 0; i < 300; i++ {
		no := fmt.Sprintf("D-%03d", i)
		invoices = append(invoices, withNo(arInvoice("1000", "100", i), no))
		apps = append(apps, CashApplication{InvoiceNo: no, Amount: dec(fmt.Sprintf("%d", i*3))})
	}
	ledger := NewCashLedger(apps)

	sequential, err := ReconcileARBatch(invoices, ledger, Options{AsOf: asOf, Workers: 1})
	require.NoError(t, err)
	parallel, err := ReconcileARBatch(invoices, ledger, Options{AsOf: asOf, Workers: 16})
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestReconcileAPBatch_DenyList(t *testing.T) {
	invoices := []APInvoice{
		{Invoice: withVendor(arInvoice("1000", "0", 10), "Costco Wholesale")},
		{Invoice: withVendor(arInvoice("400", "0", 10), "Ready Mix Supply")},
		{Invoice: withVendor(arInvoice("300", "0", 10), "  FTG Builders LLC ")},
	}

	opts := Options{AsOf: asOf, ExcludedVendors: []string{"Costco Wholesale", "FTG Builders LLC"}}
	got, err := ReconcileAPBatch(invoices, opts)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ready Mix Supply", got[0].CounterpartyName)

	// a different deny-list on the next call does not leak from the previous one
	got, err = ReconcileAPBatch(invoices, Options{AsOf: asOf})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestReconcileAPBatch_ZeroRowsIsFatal(t *testing.T) {
	invoices := []APInvoice{{
		Invoice:  arInvoice("100", "0", 0),
		Payments: cash("100"),
	}}
	_, err := ReconcileAPBatch(invoices, Options{AsOf: asOf})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestGroupAPLines(t *testing.T) {
	header := func(no, vendor, job string, amount string, age int) Invoice {
		inv := arInvoice(amount, "0", age)
		inv.InvoiceNo = no
		inv.CounterpartyName = vendor
		inv.JobNo = job
		return inv
	}
	pay := func(amount string, age int) *CashApplication {
		return &CashApplication{Amount: dec(amount), TransactionDate: daysAgo(age)}
	}

	lines := []APLine{
		{Invoice: header("100", "Steel Co", "J1", "1000", 30), Payment: pay("200", 20)},
		{Invoice: header("100", "Steel Co", "J1", "1000", 40), Payment: pay("300", 10)},
		{Invoice: header("100", "Lumber Co", "J1", "50", 5)},
		{Invoice: header("100", "Steel Co", "J2", "75", 5), Payment: pay("0", 3)},
	}
	lines[1].Invoice.Retainage = RetainageOfAmount(dec("100"))

	got := GroupAPLines(lines)
	require.Len(t, got, 3)

	steel := got[0]
	assert.Equal(t, "Steel Co", steel.CounterpartyName)
	assert.Equal(t, "J1", steel.JobNo)
	assert.Len(t, steel.Payments, 2)
	assert.Equal(t, daysAgo(40), steel.InvoiceDate, "earliest invoice date wins")
	assert.True(t, dec("100").Equal(steel.Retainage.Value), "largest retainage wins")

	assert.Equal(t, "Lumber Co", got[1].CounterpartyName)
	assert.Empty(t, got[1].Payments)

	assert.Equal(t, "J2", got[2].JobNo)
	assert.Len(t, got[2].Payments, 1)
}

func TestLargerRetainagePrefersAmount(t *testing.T) {
	pct := RetainageOfPercent(dec("10"))
	amt := RetainageOfAmount(dec("5"))

	assert.Equal(t, amt, largerRetainage(pct, amt))
	assert.Equal(t, amt, largerRetainage(amt, pct))
}

func withNo(inv Invoice, no string) Invoice {
	inv.InvoiceNo = no
	return inv
}

func withVendor(inv Invoice, vendor string) Invoice {
	inv.CounterpartyName = vendor
	return inv
}
