package Billing

import (
	"fmt"
	"os"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Tariff holds the station's business constants. They change with the
// season's agreements, so they live in configuration rather than code.
type Tariff struct {
	// ShrinkageFactor is applied to net weight for moisture loss.
	ShrinkageFactor float64 `json:"shrinkage_factor"`
	// HamaliRate is the handling deduction charged per unit of net weight.
	HamaliRate float64 `json:"hamali_rate"`
	// WeighmentCharge is the flat fee per transaction for the scale.
	WeighmentCharge float64 `json:"weighment_charge"`
}

func DefaultTariff() Tariff {
	return Tariff{
		ShrinkageFactor: 0.986,
		HamaliRate:      15,
		WeighmentCharge: 50,
	}
}

// LoadTariff reads tariff overrides from a JSON5 file. A missing file means
// the defaults apply; a malformed or invalid file is a startup error.
func LoadTariff(path string) (Tariff, error) {
	tariff := DefaultTariff()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return tariff, nil
	}
	if err != nil {
		return tariff, fmt.Errorf("read tariff file %s: %w", path, err)
	}
	if err := json5.Unmarshal(data, &tariff); err != nil {
		return tariff, fmt.Errorf("parse tariff file %s: %w", path, err)
	}
	if tariff.ShrinkageFactor <= 0 || tariff.ShrinkageFactor > 1 {
		return tariff, fmt.Errorf("tariff file %s: shrinkage_factor must be in (0, 1]", path)
	}
	if tariff.HamaliRate < 0 || tariff.WeighmentCharge < 0 {
		return tariff, fmt.Errorf("tariff file %s: charges must not be negative", path)
	}
	return tariff, nil
}
