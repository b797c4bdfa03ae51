package Controllers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"Weighbridge/Billing"
	"Weighbridge/Exports"
	"Weighbridge/Models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// EntryController exposes the transaction record operations over HTTP.
type EntryController struct {
	Billing  *Billing.Controller
	Recent   *RecentEntriesCache
	validate *validator.Validate
}

func NewEntryController(billing *Billing.Controller, recent *RecentEntriesCache) *EntryController {
	return &EntryController{
		Billing:  billing,
		Recent:   recent,
		validate: validator.New(),
	}
}

type LookupRequest struct {
	TokenNo string `json:"token_no" validate:"required"`
}

type SaveEntryRequest struct {
	TokenNo     string   `json:"token_no" validate:"required"`
	BillingDate string   `json:"billing_date"`
	ItemName    string   `json:"item_name"`
	FarmerName  string   `json:"farmer_name"`
	Village     string   `json:"village"`
	VehicleNo   string   `json:"vehicle_no"`
	GrossWt     *float64 `json:"gross_wt" validate:"omitempty,gte=0"`
	TareWt      *float64 `json:"tare_wt" validate:"omitempty,gte=0"`
	Rate        *float64 `json:"rate" validate:"omitempty,gte=0"`
}

type StageRequest struct {
	BillingDate string   `json:"billing_date"`
	ItemName    string   `json:"item_name"`
	FarmerName  string   `json:"farmer_name"`
	Village     string   `json:"village"`
	VehicleNo   string   `json:"vehicle_no"`
	GrossWt     *float64 `json:"gross_wt" validate:"omitempty,gte=0"`
	TareWt      *float64 `json:"tare_wt" validate:"omitempty,gte=0"`
	Rate        *float64 `json:"rate" validate:"omitempty,gte=0"`
	AmountPaid  *float64 `json:"amount_paid" validate:"omitempty,gte=0"`
}

// Lookup resolves a token number to its record, if any.
func (ec *EntryController) Lookup(c *fiber.Ctx) error {
	var req LookupRequest
	if err := c.BodyParser(&req); err != nil {
		log.Println(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := ec.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Token number is required",
			"error":   err.Error(),
		})
	}

	resolution, err := ec.Billing.Lookup(c.Context(), req.TokenNo)
	if err != nil {
		return respondError(c, err)
	}

	response := fiber.Map{
		"found":   resolution.Found,
		"matches": resolution.Matches,
	}
	if resolution.Found {
		response["entry"] = resolution.Entry
	}
	if resolution.Anomaly {
		response["warning"] = fmt.Sprintf(
			"%d entries share token %s; loaded the first one. This should not happen.",
			resolution.Matches, req.TokenNo,
		)
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// Save creates or updates a record through the flexible editor.
func (ec *EntryController) Save(c *fiber.Ctx) error {
	var req SaveEntryRequest
	if err := c.BodyParser(&req); err != nil {
		log.Println(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := ec.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid entry fields",
			"error":   err.Error(),
		})
	}

	entry, created, warning, err := ec.Billing.Save(c.Context(), req.TokenNo, Billing.EntryInput{
		BillingDate: req.BillingDate,
		ItemName:    req.ItemName,
		FarmerName:  req.FarmerName,
		Village:     req.Village,
		VehicleNo:   req.VehicleNo,
		GrossWt:     req.GrossWt,
		TareWt:      req.TareWt,
		Rate:        req.Rate,
	})
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	message := "Entry updated successfully"
	if created {
		status = fiber.StatusCreated
		message = "Entry created successfully"
	}
	response := fiber.Map{
		"message": message,
		"entry":   entry,
	}
	if warning != "" {
		response["warning"] = warning
	}
	return c.Status(status).JSON(response)
}

// AdvanceStage runs the next step of the four-stage wizard for a token.
func (ec *EntryController) AdvanceStage(c *fiber.Ctx) error {
	tokenNo := c.Params("token")
	var req StageRequest
	if err := c.BodyParser(&req); err != nil {
		log.Println(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := ec.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid stage fields",
			"error":   err.Error(),
		})
	}

	stage, entry, err := ec.Billing.AdvanceStage(c.Context(), tokenNo, Billing.StageInput{
		BillingDate: req.BillingDate,
		ItemName:    req.ItemName,
		FarmerName:  req.FarmerName,
		Village:     req.Village,
		VehicleNo:   req.VehicleNo,
		GrossWt:     req.GrossWt,
		TareWt:      req.TareWt,
		Rate:        req.Rate,
		AmountPaid:  req.AmountPaid,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": fmt.Sprintf("Stage %d completed", stage),
		"stage":   stage,
		"entry":   entry,
	})
}

// GetRecentEntries returns the live list of the latest records.
func (ec *EntryController) GetRecentEntries(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"entries": ec.Recent.Entries(),
	})
}

// ExportExcel streams the full record set as a workbook download.
func (ec *EntryController) ExportExcel(c *fiber.Ctx) error {
	entries, err := ec.Billing.Store.All(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	buf, err := Exports.WorkbookBuffer(entries)
	if err != nil {
		if errors.Is(err, Exports.ErrNoEntries) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "No entries to export",
			})
		}
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to generate workbook",
			"error":   err.Error(),
		})
	}

	filename := fmt.Sprintf("cotton_entries_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// GetBill renders the printable two-copy bill for a token.
func (ec *EntryController) GetBill(c *fiber.Ctx) error {
	tokenNo := c.Params("token")
	resolution, err := ec.Billing.Lookup(c.Context(), tokenNo)
	if err != nil {
		return respondError(c, err)
	}
	if !resolution.Found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Entry not found",
		})
	}

	stationName := c.Query("station", "Cotton Weighing Station")
	buf, err := Exports.RenderBill(resolution.Entry, stationName)
	if err != nil {
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to render bill",
			"error":   err.Error(),
		})
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", fmt.Sprintf(`inline; filename="bill_%s.png"`, tokenNo))
	return c.Send(buf.Bytes())
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *Billing.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   validationErr.Error(),
		})
	}
	if errors.Is(err, Models.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Entry not found",
		})
	}
	log.Println(err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
		"error":   err.Error(),
	})
}
