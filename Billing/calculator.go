package Billing

import "math"

// Measurements are the raw operator-entered figures a calculation runs over.
// Absent values stay nil; the calculator never treats absence as zero.
type Measurements struct {
	GrossWt    *float64
	TareWt     *float64
	Rate       *float64
	AmountPaid *float64
}

// Derived holds every billing figure computable from a set of measurements.
// A field is nil whenever one of its prerequisites is absent.
type Derived struct {
	NetWt               *float64
	NetWtAfterDeduction *float64
	HamaliDeduction     *float64
	WeighmentCharges    *float64
	LessDeduction       *float64
	GrossAmount         *float64
	NetAmount           *float64
	ToBePaidAmount      *float64
}

// Round2 rounds a monetary or weight figure to 2 decimal places. Derived
// values are rounded exactly once, at the point of computation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Calculate derives billing figures from the measurements under the given
// tariff. Pure and idempotent: identical inputs produce identical outputs.
func Calculate(m Measurements, t Tariff) Derived {
	var d Derived
	if m.GrossWt == nil || m.TareWt == nil {
		return d
	}

	netWt := Round2(*m.GrossWt - *m.TareWt)
	d.NetWt = &netWt
	d.NetWtAfterDeduction = ptr(Round2(netWt * t.ShrinkageFactor))
	d.HamaliDeduction = ptr(Round2(netWt * t.HamaliRate))

	if m.Rate == nil {
		return d
	}
	d.WeighmentCharges = ptr(t.WeighmentCharge)
	d.LessDeduction = ptr(Round2(*d.HamaliDeduction + t.WeighmentCharge))
	d.GrossAmount = ptr(Round2(*m.Rate * *d.NetWtAfterDeduction))
	d.NetAmount = ptr(Round2(*d.GrossAmount - *d.HamaliDeduction - t.WeighmentCharge))

	if m.AmountPaid == nil {
		return d
	}
	d.ToBePaidAmount = ptr(Round2(*d.NetAmount - *m.AmountPaid))
	return d
}

func ptr(v float64) *float64 { return &v }
