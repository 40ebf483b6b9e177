package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/resellerhq/resellerhq-backend/api/controllers"
	"github.com/resellerhq/resellerhq-backend/api/middleware"
	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/commission"
	"github.com/resellerhq/resellerhq-backend/internal/earnings"
	"github.com/resellerhq/resellerhq-backend/internal/wallet"
	"github.com/resellerhq/resellerhq-backend/internal/withdrawals"
	"github.com/resellerhq/resellerhq-backend/pkg/config"
	"github.com/resellerhq/resellerhq-backend/pkg/db"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
	"github.com/resellerhq/resellerhq-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	agentsRepo agents.Repository,
	earningsService earnings.Service,
	commissionService commission.Service,
	walletService wallet.Service,
	withdrawalsService withdrawals.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/earnings", controllers.RecordEarning(earningsService, logg))

		r.Route("/agents/{agentID}", func(r chi.Router) {
			r.Get("/commissions", controllers.AgentCommissions(commissionService, logg))
			r.Get("/wallet", controllers.AgentWallet(agentsRepo, walletService, logg))
			r.Get("/wallet/transactions", controllers.AgentWalletTransactions(walletService, logg))
			r.Post("/withdrawals", controllers.RequestWithdrawal(withdrawalsService, logg))
			r.Get("/withdrawals", controllers.ListWithdrawals(withdrawalsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/agents", controllers.CreateAgent(agentsRepo, logg))
		r.Post("/agents/{agentID}/wallet/adjustments", controllers.AdminWalletAdjustment(walletService, logg))
		r.Route("/withdrawals/{withdrawalID}", func(r chi.Router) {
			r.Post("/payout", controllers.PayoutWithdrawal(withdrawalsService, logg))
			r.Post("/reject", controllers.RejectWithdrawal(withdrawalsService, logg))
		})
	})

	return r
}
