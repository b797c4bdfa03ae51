package Models

import "time"

// Wizard progress markers stored on the record. A record created through the
// flexible find-or-create editor has no status until it passes through the
// staged wizard.
const (
	StatusStage1Complete = "Stage1Complete"
	StatusStage2Complete = "Stage2Complete"
	StatusStage3Complete = "Stage3Complete"
	StatusComplete       = "Complete"
)

// CottonEntry is one purchase transaction, keyed by TokenNo (the operator
// assigned token doubles as the Firestore document ID). Fields recorded in
// later stages and all derived values are pointers so "not yet known" stays
// distinguishable from "computed as zero".
type CottonEntry struct {
	BillingDate string  `json:"billing_date" firestore:"billingDate"`
	TokenNo     string  `json:"token_no" firestore:"tokenNo"`
	ItemName    string  `json:"item_name" firestore:"itemName"`
	FarmerName  string  `json:"farmer_name" firestore:"farmerName"`
	Village     string  `json:"village" firestore:"village"`
	VehicleNo   string  `json:"vehicle_no" firestore:"vehicleNo"`
	GrossWt     float64 `json:"gross_wt" firestore:"grossWt"`

	TareWt     *float64 `json:"tare_wt,omitempty" firestore:"tareWt"`
	Rate       *float64 `json:"rate,omitempty" firestore:"rate"`
	AmountPaid *float64 `json:"amount_paid,omitempty" firestore:"amountPaid"`

	// Derived fields, recomputed from the inputs above on every save.
	NetWt               *float64 `json:"net_wt,omitempty" firestore:"netWt"`
	NetWtAfterDeduction *float64 `json:"net_wt_after_deduction,omitempty" firestore:"netWtAfterDeduction"`
	HamaliDeduction     *float64 `json:"hamali_deduction,omitempty" firestore:"hamaliDeduction"`
	WeighmentCharges    *float64 `json:"weighment_charges,omitempty" firestore:"weighmentCharges"`
	LessDeduction       *float64 `json:"less_deduction,omitempty" firestore:"lessDeduction"`
	GrossAmount         *float64 `json:"gross_amount,omitempty" firestore:"grossAmount"`
	NetAmount           *float64 `json:"net_amount,omitempty" firestore:"netAmount"`
	ToBePaidAmount      *float64 `json:"to_be_paid_amount,omitempty" firestore:"toBePaidAmount"`

	Status        string    `json:"status,omitempty" firestore:"status"`
	LastUpdatedAt time.Time `json:"last_updated_at" firestore:"lastUpdatedAt,serverTimestamp"`
}
