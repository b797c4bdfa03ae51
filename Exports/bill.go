package Exports

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"Weighbridge/Models"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	billWidth   = 640
	copyHeight  = 460
	lineHeight  = 22
	leftMargin  = 24
	valueColumn = 280
)

// RenderBill draws the printable bill as a PNG. The page carries two
// identical copies, one retained at the station and one handed to the
// farmer.
func RenderBill(entry Models.CottonEntry, stationName string) (*bytes.Buffer, error) {
	canvas := imaging.New(billWidth, copyHeight*2, color.White)

	drawCopy(canvas, 0, entry, stationName, "Station Copy")
	drawCopy(canvas, copyHeight, entry, stationName, "Farmer Copy")

	// Cut line between the two copies.
	for x := leftMargin; x < billWidth-leftMargin; x += 8 {
		for d := 0; d < 4; d++ {
			canvas.Set(x+d, copyHeight, color.Black)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("error encoding bill: %w", err)
	}
	return &buf, nil
}

func drawCopy(canvas *image.NRGBA, offsetY int, entry Models.CottonEntry, stationName, copyLabel string) {
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}

	y := offsetY + 32
	drawCentered(drawer, stationName, y)
	y += lineHeight
	drawCentered(drawer, copyLabel, y)
	y += lineHeight + 8

	rows := []struct {
		label string
		value string
	}{
		{"Billing Date", entry.BillingDate},
		{"Token No.", entry.TokenNo},
		{"Farmer Name", entry.FarmerName},
		{"Village", entry.Village},
		{"Vehicle No.", entry.VehicleNo},
		{"Item Name", entry.ItemName},
		{"Gross Wt", amount(&entry.GrossWt)},
		{"Tare Wt", amount(entry.TareWt)},
		{"Net Wt", amount(entry.NetWt)},
		{"Net Wt (Ded.)", amount(entry.NetWtAfterDeduction)},
		{"Rate", amount(entry.Rate)},
		{"Gross Amount", amount(entry.GrossAmount)},
		{"Hamali", amount(entry.HamaliDeduction)},
		{"Weighment Charges", amount(entry.WeighmentCharges)},
		{"Less Deduction", amount(entry.LessDeduction)},
		{"Net Amount", amount(entry.NetAmount)},
		{"Amount Paid", amount(entry.AmountPaid)},
		{"To Be Paid", amount(entry.ToBePaidAmount)},
	}
	for _, row := range rows {
		drawer.Dot = fixed.P(leftMargin, y)
		drawer.DrawString(row.label)
		drawer.Dot = fixed.P(valueColumn, y)
		drawer.DrawString(row.value)
		y += lineHeight
	}
}

func drawCentered(d *font.Drawer, text string, y int) {
	width := d.MeasureString(text)
	d.Dot = fixed.P(billWidth/2, y)
	d.Dot.X -= width / 2
	d.DrawString(text)
}

func amount(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
