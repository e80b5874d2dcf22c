package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artmarket/commission-service/internal/config"
	"github.com/artmarket/commission-service/internal/handler"
	"github.com/artmarket/commission-service/internal/inventory"
	"github.com/artmarket/commission-service/internal/ledger"
	"github.com/artmarket/commission-service/internal/order"
	"github.com/artmarket/commission-service/internal/staff"
)

func NewRouter(dbPool *pgxpool.Pool, commission config.CommissionConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	staffRepo := staff.NewRepository(dbPool)
	staffSvc := staff.NewService(staffRepo)

	ledgerRepo := ledger.NewRepository(dbPool)
	ledgerSvc := ledger.NewService(ledgerRepo, staffSvc, commission)

	inventoryRepo := inventory.NewRepository(dbPool)
	inventorySvc := inventory.NewService(inventoryRepo)

	orderRepo := order.NewRepository(dbPool)
	orderSvc := order.NewService(orderRepo, ledgerSvc, inventorySvc)

	handler.NewOrderHandler(orderSvc).RegisterRoutes(r)
	handler.NewProductHandler(inventorySvc).RegisterRoutes(r)
	handler.NewStaffHandler(staffSvc).RegisterRoutes(r)
	handler.NewLedgerHandler(ledgerSvc).RegisterRoutes(r)

	return r
}
