package Billing

import (
	"context"
	"errors"
	"testing"

	"Weighbridge/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(store Models.EntryStore) *Controller {
	return NewController(store, DefaultTariff())
}

func stageOneInput() EntryInput {
	return EntryInput{
		BillingDate: "2026-01-15",
		ItemName:    "Cotton MCU-5",
		FarmerName:  "Ramesh",
		Village:     "Kodur",
		VehicleNo:   "AP 21 X 1234",
		GrossWt:     f(500),
	}
}

func TestApplyTokenResolvedNotFound(t *testing.T) {
	state, ops, err := Apply(State{Phase: PhaseIdle}, TokenResolved{TokenNo: "C010"}, DefaultTariff())
	require.NoError(t, err)
	assert.Empty(t, ops)
	assert.Equal(t, PhaseCreating, state.Phase)
	assert.Equal(t, "C010", state.TokenNo)
	assert.Empty(t, state.Warning)
}

func TestApplyTokenResolvedAnomalyWarning(t *testing.T) {
	res := Resolution{Found: true, Entry: Models.CottonEntry{TokenNo: "C011"}, Matches: 3, Anomaly: true}
	state, _, err := Apply(State{Phase: PhaseIdle}, TokenResolved{TokenNo: "C011", Resolution: res}, DefaultTariff())
	require.NoError(t, err)
	assert.Equal(t, PhaseEditing, state.Phase)
	assert.Contains(t, state.Warning, "3 entries share token C011")
}

func TestApplySaveWithoutLookup(t *testing.T) {
	_, ops, err := Apply(State{Phase: PhaseIdle}, SaveRequested{Input: stageOneInput()}, DefaultTariff())
	assert.Empty(t, ops)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestApplyReset(t *testing.T) {
	state := State{Phase: PhaseEditing, TokenNo: "C012", Warning: "stale"}
	state, ops, err := Apply(state, Reset{}, DefaultTariff())
	require.NoError(t, err)
	assert.Empty(t, ops)
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Empty(t, state.TokenNo)
}

func TestSaveCreatesEntry(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	entry, created, warning, err := c.Save(context.Background(), "C010", stageOneInput())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, warning)
	assert.Equal(t, "C010", entry.TokenNo)
	assert.Equal(t, 500.0, entry.GrossWt)
	// No tare weigh-in yet, so nothing is derived.
	assert.Nil(t, entry.NetWt)
	assert.Nil(t, entry.GrossAmount)
	assert.Equal(t, 1, store.PutCalls)
}

func TestSaveUpdatesDerivedFields(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	_, _, _, err := c.Save(context.Background(), "C010", stageOneInput())
	require.NoError(t, err)

	entry, created, _, err := c.Save(context.Background(), "C010", EntryInput{TareWt: f(50)})
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, entry.NetWt)
	assert.Equal(t, 450.0, *entry.NetWt)
	require.NotNil(t, entry.HamaliDeduction)
	assert.Equal(t, 6750.0, *entry.HamaliDeduction)
	assert.Nil(t, entry.GrossAmount)
}

func TestSaveMissingRequiredFieldWritesNothing(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	in := stageOneInput()
	in.Village = ""
	_, _, _, err := c.Save(context.Background(), "C010", in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "village", verr.Field)
	assert.Zero(t, store.PutCalls)
	assert.Zero(t, store.MergeCalls)
}

func TestSaveTareExceedsGross(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	in := stageOneInput()
	in.TareWt = f(600)
	_, _, _, err := c.Save(context.Background(), "C010", in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tare_wt", verr.Field)
	assert.Zero(t, store.PutCalls)
}

func TestSaveFreezesWeighInFieldsAfterTare(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	_, _, _, err := c.Save(context.Background(), "C010", stageOneInput())
	require.NoError(t, err)
	_, _, _, err = c.Save(context.Background(), "C010", EntryInput{TareWt: f(50)})
	require.NoError(t, err)

	// The physical weigh-in concluded; the gross weight is frozen.
	_, _, _, err = c.Save(context.Background(), "C010", EntryInput{GrossWt: f(520)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "gross_wt", verr.Field)

	// Re-submitting the same value is not a change.
	_, _, _, err = c.Save(context.Background(), "C010", EntryInput{GrossWt: f(500), Rate: f(40)})
	require.NoError(t, err)
}

func TestSaveEditsWeighInFieldsBeforeTare(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	_, _, _, err := c.Save(context.Background(), "C010", stageOneInput())
	require.NoError(t, err)

	entry, _, _, err := c.Save(context.Background(), "C010", EntryInput{GrossWt: f(520), FarmerName: "Mahesh"})
	require.NoError(t, err)
	assert.Equal(t, 520.0, entry.GrossWt)
	assert.Equal(t, "Mahesh", entry.FarmerName)
	// Untouched fields survive the edit.
	assert.Equal(t, "Kodur", entry.Village)
}

func TestSaveStoreFailureNoPartialState(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	store.FailWith = errors.New("unavailable")
	_, _, _, err := c.Save(context.Background(), "C010", stageOneInput())
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "put", serr.Op)

	_, err = store.Get(context.Background(), "C010")
	assert.ErrorIs(t, err, Models.ErrNotFound)
}

func TestSaveAnomalyWarningSurvivesSave(t *testing.T) {
	store := Models.NewMemoryStore()
	store.SeedLegacy("gen-1", Models.CottonEntry{TokenNo: "C011", BillingDate: "2026-01-10",
		ItemName: "Cotton", FarmerName: "First", Village: "Kodur", VehicleNo: "AP 21 X 1", GrossWt: 300})
	store.SeedLegacy("gen-2", Models.CottonEntry{TokenNo: "C011", FarmerName: "Second", GrossWt: 310})
	c := newTestController(store)

	entry, created, warning, err := c.Save(context.Background(), "C011", EntryInput{TareWt: f(30)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Contains(t, warning, "2 entries share token C011")
	assert.Equal(t, "First", entry.FarmerName)
	// The save lands on the token-keyed document, migrating the legacy record.
	migrated, err := store.Get(context.Background(), "C011")
	require.NoError(t, err)
	require.NotNil(t, migrated.NetWt)
	assert.Equal(t, 270.0, *migrated.NetWt)
}

func TestSaveRecomputesAfterRateChange(t *testing.T) {
	store := Models.NewMemoryStore()
	c := newTestController(store)

	in := stageOneInput()
	in.TareWt = f(100)
	in.Rate = f(40)
	first, _, _, err := c.Save(context.Background(), "C013", in)
	require.NoError(t, err)
	require.NotNil(t, first.GrossAmount)

	second, _, _, err := c.Save(context.Background(), "C013", EntryInput{Rate: f(45)})
	require.NoError(t, err)
	require.NotNil(t, second.GrossAmount)
	assert.NotEqual(t, *first.GrossAmount, *second.GrossAmount)
	assert.Equal(t, Round2(45**second.NetWtAfterDeduction), *second.GrossAmount)
}
