package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API under r. The mutating middlewares run before
// every route that submits a ledger command.
func (h *Handler) RegisterRoutes(r gin.IRouter, mutating ...gin.HandlerFunc) {
	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(mutating)+1)
		chain = append(chain, mutating...)
		return append(chain, handler)
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/parties", h.ListParties)

		proposals := api.Group("/proposals")
		{
			proposals.GET("", h.ListProposals)
			proposals.POST("", write(h.CreateProposal)...)
			proposals.POST("/:contractId/accept", write(h.AcceptProposal)...)
			proposals.POST("/:contractId/withdraw", write(h.WithdrawProposal)...)
		}

		transactions := api.Group("/transactions")
		{
			transactions.GET("", h.ListTransactions)
			transactions.POST("/:contractId/freeze", write(h.FreezeTransaction)...)
			transactions.POST("/:contractId/settle", write(h.SettleTransaction)...)
		}

		api.GET("/sender-views", h.ListSenderViews)
		api.GET("/recipient-views", h.ListRecipientViews)
		api.GET("/regulator-views", h.ListRegulatorViews)
		api.POST("/regulator-views/:contractId/flag", write(h.FlagSuspicious)...)
	}
}
