package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcilerCleanLedger(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLedgerRepo()
	cash := repo.addLocation("Cash Register", LocationCash, true)
	bank := repo.addLocation("Bank Account", LocationBankAccount, true)
	svc := NewService(repo, ServiceConfig{})

	_, err := svc.RecordDeposit(ctx, ManualInput{LocationID: cash.ID, Amount: dec("300"), ActorID: 1})
	require.NoError(t, err)
	_, err = svc.RecordTransfer(ctx, TransferInput{FromLocationID: &cash.ID, ToLocationID: bank.ID, Amount: dec("100"), ActorID: 1})
	require.NoError(t, err)

	drifts, err := NewReconciler(repo, nil, 2).Run(ctx)
	require.NoError(t, err)
	require.Empty(t, drifts)
}

func TestReconcilerDetectsDrift(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLedgerRepo()
	cash := repo.addLocation("Cash Register", LocationCash, true)
	svc := NewService(repo, ServiceConfig{})

	_, err := svc.RecordDeposit(ctx, ManualInput{LocationID: cash.ID, Amount: dec("300"), ActorID: 1})
	require.NoError(t, err)

	// Simulate a write path that bypassed the recorder.
	repo.mu.Lock()
	repo.locations[cash.ID].Balance = dec("275")
	repo.mu.Unlock()

	drifts, err := NewReconciler(repo, nil, 2).Run(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.Equal(t, cash.ID, drifts[0].LocationID)
	require.True(t, drifts[0].Cached.Equal(dec("275")))
	require.True(t, drifts[0].Computed.Equal(dec("300")))
	require.True(t, drifts[0].Delta().Equal(dec("-25")))
}

func TestReconcilerCoversInactiveLocations(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLedgerRepo()
	old := repo.addLocation("Old Safe", LocationCash, true)
	svc := NewService(repo, ServiceConfig{})

	_, err := svc.RecordDeposit(ctx, ManualInput{LocationID: old.ID, Amount: dec("50"), ActorID: 1})
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateLocation(ctx, old.ID))

	repo.mu.Lock()
	repo.locations[old.ID].Balance = dec("0")
	repo.mu.Unlock()

	drifts, err := NewReconciler(repo, nil, 2).Run(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
}
