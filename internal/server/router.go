package server

import (
	"net/http"

	handler "auction-house/services/bidding/handler"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// Services are the application services behind the REST surface
type Services struct {
	Bidding   handler.BiddingServiceInterface
	Auctions  handler.AuctionServiceInterface
	Catalog   handler.CatalogServiceInterface
	Payments  handler.PaymentServiceInterface
	Users     handler.UserServiceInterface
	Watchlist handler.WatchlistServiceInterface
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(svc.Bidding)
	auctionHandler := handler.NewAuctionHandler(svc.Auctions)
	itemHandler := handler.NewItemHandler(svc.Catalog)
	paymentHandler := handler.NewPaymentHandler(svc.Payments)
	userHandler := handler.NewUserHandler(svc.Users)
	watchlistHandler := handler.NewWatchlistHandler(svc.Watchlist)

	router.GET("/healthz", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"ok": true}, "healthy")
	})

	users := router.Group("/users")
	{
		users.POST("", userHandler.RegisterHandler)
		users.GET("/:user_id", userHandler.GetUserHandler)
		users.GET("/:user_id/items", biddingHandler.GetItemsByUserHandler)
		users.GET("/:user_id/payments", paymentHandler.ListPaymentsByUserHandler)
		users.GET("/:user_id/watchlist", watchlistHandler.ListWatchlistHandler)
	}

	items := router.Group("/items")
	{
		items.GET("", itemHandler.ListItemsHandler)
		items.GET("/:item_id", itemHandler.GetItemHandler)
		items.GET("/:item_id/bids", biddingHandler.GetBidsByItemHandler)
		items.GET("/:item_id/winning", biddingHandler.GetWinningBidHandler)

		owned := items.Group("", helpers.RequireIdentity)
		owned.POST("", itemHandler.CreateItemHandler)
		owned.PATCH("/:item_id", itemHandler.UpdateItemHandler)
		owned.DELETE("/:item_id", itemHandler.DeleteItemHandler)
		owned.POST("/:item_id/auction", itemHandler.CreateAuctionHandler)
		owned.POST("/:item_id/bids", biddingHandler.PlaceBidHandler)
	}

	auctions := router.Group("/auctions")
	{
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/cancel", helpers.RequireIdentity, auctionHandler.CancelAuctionHandler)
	}

	payments := router.Group("/payments")
	{
		payments.GET("/:payment_id", paymentHandler.GetPaymentHandler)
		payments.POST("/:payment_id/pay", helpers.RequireIdentity, paymentHandler.PayHandler)
	}

	watchlist := router.Group("/watchlist", helpers.RequireIdentity)
	{
		watchlist.POST("", watchlistHandler.WatchHandler)
		watchlist.DELETE("/:item_id", watchlistHandler.UnwatchHandler)
	}

	return router
}
