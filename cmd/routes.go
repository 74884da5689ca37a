package main

import (
	"net/http"

	"camioBack/internal/models"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(""))
	clientMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleClient))
	transporterMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleTransporter))
	adminMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleAdmin))

	mux := pat.New()

	// Users
	mux.Post("/user/sign_up", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/user/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Post("/user/refresh", standardMiddleware.ThenFunc(app.userHandler.Refresh))
	mux.Post("/user/logout", authMiddleware.ThenFunc(app.userHandler.Logout))
	mux.Get("/user/me", authMiddleware.ThenFunc(app.userHandler.Me))
	mux.Post("/user/proof", transporterMiddleware.ThenFunc(app.userHandler.SubmitProof))
	mux.Get("/user/:id", adminMiddleware.ThenFunc(app.userHandler.GetUser))

	// Requests: lifecycle
	mux.Post("/request", clientMiddleware.ThenFunc(app.requestHandler.CreateRequest))
	mux.Get("/request/mine", clientMiddleware.ThenFunc(app.requestHandler.ListMine))
	mux.Get("/request/status/:status", adminMiddleware.ThenFunc(app.requestHandler.ListByStatus))
	mux.Get("/request/:id", authMiddleware.ThenFunc(app.requestHandler.GetRequest))
	mux.Post("/request/:id/qualify", adminMiddleware.ThenFunc(app.requestHandler.QualifyRequest))
	mux.Post("/request/:id/publish", adminMiddleware.ThenFunc(app.requestHandler.PublishForMatching))
	mux.Post("/request/:id/archive", adminMiddleware.ThenFunc(app.requestHandler.ArchiveRequest))
	mux.Post("/request/:id/start", transporterMiddleware.ThenFunc(app.requestHandler.StartRequest))
	mux.Post("/request/:id/complete", clientMiddleware.ThenFunc(app.requestHandler.CompleteRequest))
	mux.Post("/request/:id/republish", adminMiddleware.ThenFunc(app.requestHandler.RepublishRequest))
	mux.Put("/request/:id/hide", adminMiddleware.ThenFunc(app.requestHandler.HideRequest))
	mux.Del("/request/:id", adminMiddleware.ThenFunc(app.requestHandler.DeleteRequest))

	// Requests: interest ledger
	mux.Post("/request/:id/interest", transporterMiddleware.ThenFunc(app.interestHandler.ExpressInterest))
	mux.Del("/request/:id/interest", transporterMiddleware.ThenFunc(app.interestHandler.WithdrawInterest))
	mux.Post("/request/:id/decline", transporterMiddleware.ThenFunc(app.interestHandler.DeclineRequest))
	mux.Get("/request/:id/interests", authMiddleware.ThenFunc(app.interestHandler.ListInterests))

	// Requests: selection
	mux.Post("/request/:id/choose", clientMiddleware.ThenFunc(app.assignmentHandler.ChooseTransporter))
	mux.Post("/request/:id/assign", adminMiddleware.ThenFunc(app.assignmentHandler.AssignTransporterManually))

	// Offers
	mux.Post("/offer", transporterMiddleware.ThenFunc(app.offerHandler.CreateOffer))
	mux.Get("/request/:id/offers", authMiddleware.ThenFunc(app.offerHandler.ListByRequest))
	mux.Post("/offer/:id/accept", clientMiddleware.ThenFunc(app.assignmentHandler.AcceptOffer))
	mux.Post("/offer/:id/reject", clientMiddleware.ThenFunc(app.offerHandler.RejectOffer))

	// Payments
	mux.Post("/request/:id/pay", clientMiddleware.ThenFunc(app.paymentHandler.MarkAsPaid))
	mux.Post("/request/:id/payment/validate", adminMiddleware.ThenFunc(app.paymentHandler.ValidatePayment))
	mux.Post("/request/:id/payment/reject", adminMiddleware.ThenFunc(app.paymentHandler.RejectReceipt))

	// Recommendations
	mux.Get("/request/:id/recommendations", adminMiddleware.ThenFunc(app.recommendationHandler.GetRecommendations))

	// Empty returns
	mux.Post("/empty_return", transporterMiddleware.ThenFunc(app.emptyReturnHandler.CreateEmptyReturn))
	mux.Get("/empty_return/mine", transporterMiddleware.ThenFunc(app.emptyReturnHandler.ListMine))
	mux.Get("/empty_return", adminMiddleware.ThenFunc(app.emptyReturnHandler.ListByRoute))
	mux.Del("/empty_return/:id", transporterMiddleware.ThenFunc(app.emptyReturnHandler.DeleteEmptyReturn))
	mux.Post("/empty_return/:id/consume", adminMiddleware.ThenFunc(app.emptyReturnHandler.ConsumeEmptyReturn))

	// Push tokens
	mux.Post("/notify/token", authMiddleware.ThenFunc(app.notificationHandler.SaveToken))
	mux.Del("/notify/token", authMiddleware.ThenFunc(app.notificationHandler.DeleteToken))

	// Websocket event stream
	mux.Get("/ws", http.HandlerFunc(app.WebSocketHandler))

	return mux
}
