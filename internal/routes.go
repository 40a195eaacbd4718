package internal

import (
	"appero/internal/controllers"
	"appero/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/experience", http.HandlerFunc(apiController.ReceiveExperience))
	routers.Post("/feedback", http.HandlerFunc(apiController.ReceiveFeedback))
	routers.Get("/prompt", http.HandlerFunc(apiController.GetPrompt))
	routers.Post("/prompt/dismiss", http.HandlerFunc(apiController.DismissPrompt))
	routers.Post("/offline", http.HandlerFunc(apiController.SetOffline))
	routers.Post("/drain", http.HandlerFunc(apiController.Drain))
	routers.Post("/reset", http.HandlerFunc(apiController.Reset))
	routers.Get("/state", http.HandlerFunc(apiController.GetState))
	routers.Post("/frustrations", http.HandlerFunc(apiController.RegisterFrustration))
	routers.Post("/frustrations/log", http.HandlerFunc(apiController.LogFrustration))
	routers.Get("/frustration", http.HandlerFunc(apiController.GetFrustration))
	routers.Get("/points", http.HandlerFunc(apiController.GetPoints))
	routers.Post("/points/log", http.HandlerFunc(apiController.LogPoints))
	routers.Post("/points/threshold", http.HandlerFunc(apiController.SetRatingThreshold))
	routers.Post("/points/prompted", http.HandlerFunc(apiController.MarkRatingPrompted))
	routers.Post("/points/reset", http.HandlerFunc(apiController.ResetPoints))
	return routers
}
