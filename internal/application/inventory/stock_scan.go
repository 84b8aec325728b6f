package inventory

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain/entity"
	"github.com/jhoicas/Apothecary-api/internal/domain/repository"
	"github.com/jhoicas/Apothecary-api/pkg/logger"
)

// ScanResult resumen de una pasada del escaneo periódico.
type ScanResult struct {
	LowStockAlerts int
	ExpiryAlerts   int
	EmailQueued    bool
}

// StockScanUseCase revisa stock bajo y vencimientos próximos y genera avisos (uno por producto y día)
// y un correo resumen para los administradores. Lo ejecuta el worker.
type StockScanUseCase struct {
	productRepo   repository.ProductRepository
	notifRepo     repository.NotificationRepository
	userRepo      repository.UserRepository
	notifier      ports.Notifier
	enqueuer      ports.TaskEnqueuer
	replenishment *ReplenishmentUseCase
	log           *logger.Logger
}

// NewStockScanUseCase construye el caso de uso.
func NewStockScanUseCase(
	productRepo repository.ProductRepository,
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	notifier ports.Notifier,
	enqueuer ports.TaskEnqueuer,
	replenishment *ReplenishmentUseCase,
	log *logger.Logger,
) *StockScanUseCase {
	return &StockScanUseCase{
		productRepo:   productRepo,
		notifRepo:     notifRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		enqueuer:      enqueuer,
		replenishment: replenishment,
		log:           log,
	}
}

// Run ejecuta el escaneo con now como referencia.
func (uc *StockScanUseCase) Run(ctx context.Context, now time.Time) (*ScanResult, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	res := &ScanResult{}
	var lines []string

	low, err := uc.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar stock bajo: %w", err)
	}
	for _, p := range low {
		seen, err := uc.notifRepo.ExistsSince(ctx, entity.NotificationLowStock, p.ID, dayStart)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}
		uc.notifier.Notify(ctx, LowStockNotification(p))
		res.LowStockAlerts++
		s := Suggest(p)
		lines = append(lines, fmt.Sprintf("Stock bajo: %s (%s) stock %d, reorden %d, pedir %d",
			p.Name, p.SKU, p.StockQuantity, p.ReorderLevel, s.SuggestedOrderQty))
	}

	expiring, err := uc.replenishment.ExpiringProducts(ctx, 0, now)
	if err != nil {
		return nil, fmt.Errorf("listar vencimientos: %w", err)
	}
	for _, e := range expiring {
		seen, err := uc.notifRepo.ExistsSince(ctx, entity.NotificationExpiry, e.ProductID, dayStart)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}
		msg := fmt.Sprintf("%s (%s) vence el %s (%d unidades).", e.ProductName, e.SKU, e.ExpiryDate.Format("2006-01-02"), e.StockQuantity)
		title := "Próximo a vencer: " + e.ProductName
		if e.Expired {
			title = "Vencido: " + e.ProductName
		}
		uc.notifier.Notify(ctx, &entity.Notification{
			Type:        entity.NotificationExpiry,
			Title:       title,
			Message:     msg,
			ReferenceID: e.ProductID,
		})
		res.ExpiryAlerts++
		lines = append(lines, msg)
	}

	if len(lines) == 0 {
		return res, nil
	}
	admins, err := uc.userRepo.ListByRole(ctx, entity.RoleAdmin)
	if err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo obtener administradores para el resumen")
		return res, nil
	}
	var to []string
	for _, a := range admins {
		if a.Status == entity.UserStatusActive && a.Email != "" {
			to = append(to, a.Email)
		}
	}
	if len(to) == 0 {
		return res, nil
	}
	if err := uc.enqueuer.EnqueueEmail(ctx, ports.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Alertas de inventario (%d)", len(lines)),
		Body:    summaryHTML(lines),
	}); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo encolar el resumen de alertas")
		return res, nil
	}
	res.EmailQueued = true
	return res, nil
}

func summaryHTML(lines []string) string {
	var b strings.Builder
	b.WriteString("<h3>Alertas de inventario</h3><ul>")
	for _, l := range lines {
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(l))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}
