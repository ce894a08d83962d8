package http

import (
	"net/http"

	"github.com/robertarktes/college-event-tickets/internal/approval"
	"github.com/robertarktes/college-event-tickets/internal/auth"
	"github.com/robertarktes/college-event-tickets/internal/catalog"
	"github.com/robertarktes/college-event-tickets/internal/idempotency"
	"github.com/robertarktes/college-event-tickets/internal/inventory"
	"github.com/robertarktes/college-event-tickets/internal/observability"
)

// Handlers is the thin adapter between routes and the core services.
// It owns no business logic: every operation maps 1:1 onto a service
// call.
type Handlers struct {
	logger    observability.Logger
	auth      *auth.Service
	approval  *approval.Service
	inventory *inventory.Ledger
	catalog   *catalog.Service
	idemp     *idempotency.Idempotency
}

func NewHandlers(
	logger observability.Logger,
	authSvc *auth.Service,
	approvalSvc *approval.Service,
	ledger *inventory.Ledger,
	catalogSvc *catalog.Service,
	idemp *idempotency.Idempotency,
) *Handlers {
	return &Handlers{
		logger:    logger,
		auth:      authSvc,
		approval:  approvalSvc,
		inventory: ledger,
		catalog:   catalogSvc,
		idemp:     idemp,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
