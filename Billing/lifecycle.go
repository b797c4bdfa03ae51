package Billing

import (
	"context"
	"fmt"
	"strings"

	"Weighbridge/Models"
)

// Phase is where the find-or-create editor currently stands.
type Phase int

const (
	// PhaseIdle means no entry is loaded; the operator is at the token prompt.
	PhaseIdle Phase = iota
	// PhaseCreating means the token resolved to nothing; a new record is
	// being filled in with the token prefilled.
	PhaseCreating
	// PhaseEditing means an existing record is loaded.
	PhaseEditing
)

// State is the tagged editor state the lifecycle machine transitions over.
type State struct {
	Phase   Phase
	TokenNo string
	// Entry is the loaded record while editing.
	Entry Models.CottonEntry
	// Warning carries a non-fatal message for the operator, such as the
	// duplicate-token anomaly.
	Warning string
}

// Event drives a state transition.
type Event interface{ isEvent() }

// TokenResolved is the outcome of a token lookup entering the machine.
type TokenResolved struct {
	TokenNo    string
	Resolution Resolution
}

// SaveRequested asks the machine to persist the operator's current input.
type SaveRequested struct {
	Input EntryInput
}

// Reset returns the editor to the token prompt.
type Reset struct{}

func (TokenResolved) isEvent() {}
func (SaveRequested) isEvent() {}
func (Reset) isEvent()         {}

// StoreOp is a write the caller must execute against the document store.
// State only advances once every op has durably succeeded.
type StoreOp interface{ isStoreOp() }

// OpPut creates or fully overwrites the entry keyed by its token.
type OpPut struct {
	Entry Models.CottonEntry
}

// OpMerge partially updates the entry keyed by TokenNo.
type OpMerge struct {
	TokenNo string
	Fields  map[string]interface{}
}

func (OpPut) isStoreOp()   {}
func (OpMerge) isStoreOp() {}

// EntryInput is the operator's form content for a find-or-create save.
// Nil / empty values mean "not supplied".
type EntryInput struct {
	BillingDate string
	ItemName    string
	FarmerName  string
	Village     string
	VehicleNo   string
	GrossWt     *float64
	TareWt      *float64
	Rate        *float64
}

// Apply is the lifecycle transition function: given the current state and an
// event it returns the next state and the store writes that realize it. Pure;
// it never touches the store itself.
func Apply(state State, event Event, tariff Tariff) (State, []StoreOp, error) {
	switch ev := event.(type) {
	case Reset:
		return State{Phase: PhaseIdle}, nil, nil

	case TokenResolved:
		next := State{TokenNo: ev.TokenNo}
		if ev.Resolution.Found {
			next.Phase = PhaseEditing
			next.Entry = ev.Resolution.Entry
		} else {
			next.Phase = PhaseCreating
		}
		if ev.Resolution.Anomaly {
			next.Warning = fmt.Sprintf("%d entries share token %s; loaded the first one. This should not happen.",
				ev.Resolution.Matches, ev.TokenNo)
		}
		return next, nil, nil

	case SaveRequested:
		switch state.Phase {
		case PhaseCreating:
			return applyCreate(state, ev.Input, tariff)
		case PhaseEditing:
			return applyEdit(state, ev.Input, tariff)
		default:
			return state, nil, &ValidationError{Field: "token_no", Reason: "no entry loaded; look a token up first"}
		}
	}
	return state, nil, fmt.Errorf("unknown lifecycle event %T", event)
}

func applyCreate(state State, in EntryInput, tariff Tariff) (State, []StoreOp, error) {
	if err := validateRequired(in); err != nil {
		return state, nil, err
	}
	if err := validateWeights(in.GrossWt, in.TareWt, in.Rate); err != nil {
		return state, nil, err
	}

	entry := Models.CottonEntry{
		BillingDate: in.BillingDate,
		TokenNo:     state.TokenNo,
		ItemName:    in.ItemName,
		FarmerName:  in.FarmerName,
		Village:     in.Village,
		VehicleNo:   in.VehicleNo,
		GrossWt:     *in.GrossWt,
		TareWt:      in.TareWt,
		Rate:        in.Rate,
	}
	setDerived(&entry, tariff)

	return State{Phase: PhaseIdle}, []StoreOp{OpPut{Entry: entry}}, nil
}

func applyEdit(state State, in EntryInput, tariff Tariff) (State, []StoreOp, error) {
	entry := state.Entry

	// Once the tare weigh-in of an existing record is on file the physical
	// weigh-in has concluded and stage-1 fields are frozen.
	if entry.TareWt != nil {
		if field, ok := changesStageOneField(entry, in); ok {
			return state, nil, &ValidationError{
				Field:  field,
				Reason: "weigh-in fields cannot change after the tare weight is recorded",
			}
		}
	} else {
		mergeStageOne(&entry, in)
	}
	if in.TareWt != nil {
		entry.TareWt = in.TareWt
	}
	if in.Rate != nil {
		entry.Rate = in.Rate
	}
	if err := validateWeights(&entry.GrossWt, entry.TareWt, entry.Rate); err != nil {
		return state, nil, err
	}

	setDerived(&entry, tariff)

	return State{Phase: PhaseIdle}, []StoreOp{OpPut{Entry: entry}}, nil
}

// setDerived recomputes every derived field from the entry's current inputs,
// overwriting whatever was stored before.
func setDerived(entry *Models.CottonEntry, tariff Tariff) {
	derived := Calculate(Measurements{
		GrossWt:    &entry.GrossWt,
		TareWt:     entry.TareWt,
		Rate:       entry.Rate,
		AmountPaid: entry.AmountPaid,
	}, tariff)
	entry.NetWt = derived.NetWt
	entry.NetWtAfterDeduction = derived.NetWtAfterDeduction
	entry.HamaliDeduction = derived.HamaliDeduction
	entry.WeighmentCharges = derived.WeighmentCharges
	entry.LessDeduction = derived.LessDeduction
	entry.GrossAmount = derived.GrossAmount
	entry.NetAmount = derived.NetAmount
	entry.ToBePaidAmount = derived.ToBePaidAmount
}

func validateRequired(in EntryInput) error {
	required := []struct {
		field, value string
	}{
		{"billing_date", in.BillingDate},
		{"item_name", in.ItemName},
		{"farmer_name", in.FarmerName},
		{"village", in.Village},
		{"vehicle_no", in.VehicleNo},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "required for a new entry"}
		}
	}
	if in.GrossWt == nil {
		return &ValidationError{Field: "gross_wt", Reason: "required for a new entry"}
	}
	return nil
}

func validateWeights(gross, tare, rate *float64) error {
	if gross != nil && *gross < 0 {
		return &ValidationError{Field: "gross_wt", Reason: "must not be negative"}
	}
	if tare != nil {
		if *tare < 0 {
			return &ValidationError{Field: "tare_wt", Reason: "must not be negative"}
		}
		if gross != nil && *tare > *gross {
			return &ValidationError{Field: "tare_wt", Reason: "must not exceed the gross weight"}
		}
	}
	if rate != nil && *rate < 0 {
		return &ValidationError{Field: "rate", Reason: "must not be negative"}
	}
	return nil
}

func changesStageOneField(entry Models.CottonEntry, in EntryInput) (string, bool) {
	switch {
	case in.BillingDate != "" && in.BillingDate != entry.BillingDate:
		return "billing_date", true
	case in.ItemName != "" && in.ItemName != entry.ItemName:
		return "item_name", true
	case in.FarmerName != "" && in.FarmerName != entry.FarmerName:
		return "farmer_name", true
	case in.Village != "" && in.Village != entry.Village:
		return "village", true
	case in.VehicleNo != "" && in.VehicleNo != entry.VehicleNo:
		return "vehicle_no", true
	case in.GrossWt != nil && *in.GrossWt != entry.GrossWt:
		return "gross_wt", true
	}
	return "", false
}

func mergeStageOne(entry *Models.CottonEntry, in EntryInput) {
	if in.BillingDate != "" {
		entry.BillingDate = in.BillingDate
	}
	if in.ItemName != "" {
		entry.ItemName = in.ItemName
	}
	if in.FarmerName != "" {
		entry.FarmerName = in.FarmerName
	}
	if in.Village != "" {
		entry.Village = in.Village
	}
	if in.VehicleNo != "" {
		entry.VehicleNo = in.VehicleNo
	}
	if in.GrossWt != nil {
		entry.GrossWt = *in.GrossWt
	}
}

// Controller ties the resolver, the state machine and the store together for
// one operator session.
type Controller struct {
	Store    Models.EntryStore
	Resolver *Resolver
	Tariff   Tariff
}

func NewController(store Models.EntryStore, tariff Tariff) *Controller {
	return &Controller{
		Store:    store,
		Resolver: &Resolver{Store: store},
		Tariff:   tariff,
	}
}

// Lookup resolves a token for the find-or-create editor.
func (c *Controller) Lookup(ctx context.Context, tokenNo string) (Resolution, error) {
	return c.Resolver.Resolve(ctx, tokenNo)
}

// Save persists the operator's input for the given token, creating the record
// when the token is unknown and updating it otherwise. The returned flag
// reports whether a new record was created. A warning is returned alongside a
// successful save when the lookup hit the duplicate-token anomaly.
func (c *Controller) Save(ctx context.Context, tokenNo string, in EntryInput) (Models.CottonEntry, bool, string, error) {
	res, err := c.Resolver.Resolve(ctx, tokenNo)
	if err != nil {
		return Models.CottonEntry{}, false, "", err
	}

	state, _, err := Apply(State{Phase: PhaseIdle}, TokenResolved{TokenNo: tokenNo, Resolution: res}, c.Tariff)
	if err != nil {
		return Models.CottonEntry{}, false, "", err
	}
	created := state.Phase == PhaseCreating

	_, ops, err := Apply(state, SaveRequested{Input: in}, c.Tariff)
	if err != nil {
		return Models.CottonEntry{}, false, "", err
	}
	if err := c.exec(ctx, ops); err != nil {
		return Models.CottonEntry{}, false, "", err
	}

	saved, err := c.Store.Get(ctx, tokenNo)
	if err != nil {
		return Models.CottonEntry{}, false, "", &StoreError{Op: "get", Err: err}
	}
	return saved, created, state.Warning, nil
}

func (c *Controller) exec(ctx context.Context, ops []StoreOp) error {
	for _, op := range ops {
		switch o := op.(type) {
		case OpPut:
			if err := c.Store.Put(ctx, o.Entry); err != nil {
				return &StoreError{Op: "put", Err: err}
			}
		case OpMerge:
			if err := c.Store.Merge(ctx, o.TokenNo, o.Fields); err != nil {
				return &StoreError{Op: "merge", Err: err}
			}
		}
	}
	return nil
}
