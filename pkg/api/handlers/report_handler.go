package handlers

import (
	"context"
	"sync"

	"clv-forecast/pkg/models"
	"clv-forecast/pkg/report"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RefreshFunc recalcule le rapport à la demande.
type RefreshFunc func(ctx context.Context) (*models.Report, error)

// ReportHandler sert le dernier rapport calculé. Aucun recalcul implicite :
// seul POST /report/refresh relance le pipeline.
type ReportHandler struct {
	mu      sync.RWMutex
	current *models.Report
	refresh RefreshFunc
	logger  *zap.Logger
}

// NewReportHandler sert initial jusqu'au prochain refresh.
func NewReportHandler(initial *models.Report, refresh RefreshFunc, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		current: initial,
		refresh: refresh,
		logger:  logger,
	}
}

func (h *ReportHandler) snapshot() *models.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	return c.JSON(h.snapshot())
}

func (h *ReportHandler) GetHistogram(c *fiber.Ctx) error {
	rep := h.snapshot()
	return c.JSON(fiber.Map{
		"thresholds": rep.Thresholds,
		"histogram":  rep.Histogram,
	})
}

func (h *ReportHandler) GetCustomer(c *fiber.Ctx) error {
	rep := h.snapshot()
	id := c.Params("id")
	customer, ok := report.Find(rep.Customers, id)
	if !ok {
		for _, s := range rep.Skipped {
			if s.CustomerID == id {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(s)
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "client introuvable",
		})
	}
	return c.JSON(fiber.Map{
		"customer":       customer,
		"recommendation": customer.Segment.Recommendation(),
	})
}

func (h *ReportHandler) TopCustomers(c *fiber.Ctx) error {
	rep := h.snapshot()
	limit := c.QueryInt("limit", rep.Config.TopN)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit doit être > 0",
		})
	}
	return c.JSON(report.TopN(rep.Customers, limit))
}

func (h *ReportHandler) Refresh(c *fiber.Ctx) error {
	if h.refresh == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "recalcul non configuré")
	}
	rep, err := h.refresh(c.UserContext())
	if err != nil {
		h.logger.Error("recalcul du rapport en échec", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "recalcul du rapport en échec",
		})
	}
	h.mu.Lock()
	h.current = rep
	h.mu.Unlock()
	h.logger.Info("rapport recalculé", zap.String("run_id", rep.RunID.String()))
	return c.JSON(fiber.Map{
		"run_id":    rep.RunID,
		"customers": len(rep.Customers),
		"skipped":   len(rep.Skipped),
	})
}
