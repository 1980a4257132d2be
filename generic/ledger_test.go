package generic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pwdtools/calc-engine/generic"
	"github.com/pwdtools/calc-engine/generic/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

var errDiskFull = errors.New("disk full")

func (brokenStore) Insert(context.Context, generic.TableName, map[string]any) (int64, error) {
	return 0, errDiskFull
}
func (brokenStore) Count(context.Context, generic.TableName) (int64, error) { return 0, errDiskFull }
func (brokenStore) Sum(context.Context, generic.TableName, string) (decimal.Decimal, error) {
	return decimal.Zero, errDiskFull
}

func TestLedger_Record_StampsCreatedAt(t *testing.T) {
	mem := store.NewMemory()
	ledger := generic.NewLedger(mem)
	ledger.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	id, err := ledger.Record(ctx, generic.TableBillNotes, map[string]any{
		"payee": "A. Kumar", "work": "Road repair", "amount": "1500.00",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = ledger.Record(ctx, generic.TableBillNotes, map[string]any{"payee": "B", "amount": "250.50"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	rows := mem.Rows(generic.TableBillNotes)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-10T09:00:00Z", rows[0]["created_at"])
}

func TestLedger_Record_RejectsUnknownColumn(t *testing.T) {
	ledger := generic.NewLedger(store.NewMemory())
	_, err := ledger.Record(context.Background(), generic.TableBillNotes, map[string]any{"payee; DROP": "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrPersistence)
	assert.ErrorIs(t, err, generic.ErrUnknownColumn)
	assert.False(t, generic.IsClientError(err))
}

func TestLedger_Record_RejectsUnknownTable(t *testing.T) {
	ledger := generic.NewLedger(store.NewMemory())
	_, err := ledger.Record(context.Background(), generic.TableName("users"), map[string]any{})
	assert.ErrorIs(t, err, generic.ErrUnknownTable)
}

func TestLedger_Record_WrapsStoreFailure(t *testing.T) {
	ledger := generic.NewLedger(brokenStore{})
	_, err := ledger.Record(context.Background(), generic.TableEMDRefunds, map[string]any{"amount": "10"})

	var perr *generic.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, generic.TableEMDRefunds, perr.Table)
	assert.ErrorIs(t, err, errDiskFull)
	assert.True(t, generic.IsPersistence(err))
}

func TestLedger_Summary(t *testing.T) {
	// GIVEN: Two stamp duty rows and nothing else
	// WHEN: Reading the summary
	// THEN: Every table is listed, empty ones with zero totals

	mem := store.NewMemory()
	ledger := generic.NewLedger(mem)
	ctx := context.Background()
	for _, duty := range []string{"50.25", "49.75"} {
		_, err := ledger.Record(ctx, generic.TableStampDuties, map[string]any{"stamp_duty": duty})
		require.NoError(t, err)
	}

	summary, err := ledger.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, len(generic.Tables))

	for _, s := range summary {
		if s.Table == generic.TableStampDuties {
			assert.Equal(t, int64(2), s.Count)
			assert.True(t, decimal.NewFromInt(100).Equal(s.Total))
			continue
		}
		assert.Zero(t, s.Count, s.Table)
		assert.True(t, s.Total.IsZero(), s.Table)
	}
}

func TestMemory_SumRejectsTextColumn(t *testing.T) {
	_, err := store.NewMemory().Sum(context.Background(), generic.TableBillNotes, "payee")
	assert.ErrorIs(t, err, generic.ErrUnknownColumn)
}
