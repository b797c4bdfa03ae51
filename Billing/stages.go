package Billing

import (
	"context"
	"fmt"

	"Weighbridge/Models"
)

// Wizard stage numbers. A transaction walks them strictly in order: gross
// weigh-in, tare weigh-in, rate agreement, payment.
const (
	StageInitialEntry = 1
	StageTareWeight   = 2
	StageRate         = 3
	StagePayment      = 4
)

// StageInput is the operator's form content for one wizard stage. Only the
// fields belonging to the record's awaited stage are consumed.
type StageInput struct {
	BillingDate string
	ItemName    string
	FarmerName  string
	Village     string
	VehicleNo   string
	GrossWt     *float64
	TareWt      *float64
	Rate        *float64
	AmountPaid  *float64
}

// AwaitedStage reports which stage the record waits on next. A nil record
// awaits stage 1; a completed record awaits nothing (returns 0). Records
// created through the flexible editor carry no status and are placed by
// which inputs they are missing.
func AwaitedStage(entry *Models.CottonEntry) int {
	if entry == nil {
		return StageInitialEntry
	}
	switch entry.Status {
	case Models.StatusStage1Complete:
		return StageTareWeight
	case Models.StatusStage2Complete:
		return StageRate
	case Models.StatusStage3Complete:
		return StagePayment
	case Models.StatusComplete:
		return 0
	}
	switch {
	case entry.TareWt == nil:
		return StageTareWeight
	case entry.Rate == nil:
		return StageRate
	case entry.AmountPaid == nil:
		return StagePayment
	}
	return 0
}

// PlanStage computes the write for the record's awaited stage. Pure: the
// caller executes the ops and the status marker only advances with them.
// entry is nil when no record exists for the token yet.
func PlanStage(tokenNo string, entry *Models.CottonEntry, in StageInput, tariff Tariff) (int, []StoreOp, error) {
	stage := AwaitedStage(entry)
	switch stage {
	case 0:
		return 0, nil, &ValidationError{Field: "token_no",
			Reason: fmt.Sprintf("entry %s is already complete; start a new token", tokenNo)}

	case StageInitialEntry:
		state := State{Phase: PhaseCreating, TokenNo: tokenNo}
		_, ops, err := Apply(state, SaveRequested{Input: EntryInput{
			BillingDate: in.BillingDate,
			ItemName:    in.ItemName,
			FarmerName:  in.FarmerName,
			Village:     in.Village,
			VehicleNo:   in.VehicleNo,
			GrossWt:     in.GrossWt,
		}}, tariff)
		if err != nil {
			return 0, nil, err
		}
		put := ops[0].(OpPut)
		put.Entry.Status = Models.StatusStage1Complete
		return StageInitialEntry, []StoreOp{put}, nil

	case StageTareWeight:
		if in.TareWt == nil {
			return 0, nil, &ValidationError{Field: "tare_wt", Reason: "required to complete the tare weigh-in stage"}
		}
		if err := validateWeights(&entry.GrossWt, in.TareWt, nil); err != nil {
			return 0, nil, err
		}
		derived := Calculate(Measurements{GrossWt: &entry.GrossWt, TareWt: in.TareWt}, tariff)
		return StageTareWeight, []StoreOp{OpMerge{TokenNo: tokenNo, Fields: map[string]interface{}{
			"tareWt": *in.TareWt,
			"netWt":  *derived.NetWt,
			"status": Models.StatusStage2Complete,
		}}}, nil

	case StageRate:
		if in.Rate == nil {
			return 0, nil, &ValidationError{Field: "rate", Reason: "required to complete the rate stage"}
		}
		if err := validateWeights(nil, nil, in.Rate); err != nil {
			return 0, nil, err
		}
		derived := Calculate(Measurements{GrossWt: &entry.GrossWt, TareWt: entry.TareWt, Rate: in.Rate}, tariff)
		if derived.GrossAmount == nil {
			return 0, nil, &ValidationError{Field: "tare_wt", Reason: "tare weight missing; record it before the rate"}
		}
		return StageRate, []StoreOp{OpMerge{TokenNo: tokenNo, Fields: map[string]interface{}{
			"rate":                *in.Rate,
			"netWtAfterDeduction": *derived.NetWtAfterDeduction,
			"hamaliDeduction":     *derived.HamaliDeduction,
			"grossAmount":         *derived.GrossAmount,
			"status":              Models.StatusStage3Complete,
		}}}, nil

	case StagePayment:
		if in.AmountPaid == nil {
			return 0, nil, &ValidationError{Field: "amount_paid", Reason: "required to complete the payment stage"}
		}
		if *in.AmountPaid < 0 {
			return 0, nil, &ValidationError{Field: "amount_paid", Reason: "must not be negative"}
		}
		derived := Calculate(Measurements{
			GrossWt:    &entry.GrossWt,
			TareWt:     entry.TareWt,
			Rate:       entry.Rate,
			AmountPaid: in.AmountPaid,
		}, tariff)
		if derived.ToBePaidAmount == nil {
			return 0, nil, &ValidationError{Field: "rate", Reason: "rate missing; record it before payment"}
		}
		return StagePayment, []StoreOp{OpMerge{TokenNo: tokenNo, Fields: map[string]interface{}{
			"amountPaid":       *in.AmountPaid,
			"weighmentCharges": *derived.WeighmentCharges,
			"lessDeduction":    *derived.LessDeduction,
			"netAmount":        *derived.NetAmount,
			"toBePaidAmount":   *derived.ToBePaidAmount,
			"status":           Models.StatusComplete,
		}}}, nil
	}
	return 0, nil, fmt.Errorf("unreachable stage %d", stage)
}

// AdvanceStage resolves the token, plans the awaited stage's write and
// executes it. On a write failure the stage marker has not advanced and the
// same submission can be retried.
func (c *Controller) AdvanceStage(ctx context.Context, tokenNo string, in StageInput) (int, Models.CottonEntry, error) {
	var entry *Models.CottonEntry
	res, err := c.Resolver.Resolve(ctx, tokenNo)
	if err != nil {
		return 0, Models.CottonEntry{}, err
	}
	if res.Found {
		entry = &res.Entry
	}

	stage, ops, err := PlanStage(tokenNo, entry, in, c.Tariff)
	if err != nil {
		return 0, Models.CottonEntry{}, err
	}
	if err := c.exec(ctx, ops); err != nil {
		return 0, Models.CottonEntry{}, err
	}

	saved, err := c.Store.Get(ctx, tokenNo)
	if err != nil {
		return 0, Models.CottonEntry{}, &StoreError{Op: "get", Err: err}
	}
	return stage, saved, nil
}
