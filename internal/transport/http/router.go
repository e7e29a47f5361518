package http

import (
	"net/http"

	"github.com/civic-relay/internal/application/authproxy"
	"github.com/civic-relay/internal/application/complaint"
	"github.com/civic-relay/internal/application/otp"
	"github.com/civic-relay/internal/config"
	"github.com/civic-relay/internal/transport/http/handler"
	appmiddleware "github.com/civic-relay/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// maxComplaintBody caps complaint submissions, photo payload included.
const maxComplaintBody = 5 << 20

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.FrontendOrigin,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 20 requests/minute per IP on the endpoints that send email.
	mailRL := appmiddleware.NewRateLimiter(rate.Limit(20.0/60.0), 20)

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:    deps.OTPStore,
		Mailer:   deps.Mailer,
		Identity: deps.identityAdmin(),
		Signer:   deps.tokenSigner(),
	})
	complaintSvc := complaint.NewService(complaint.ServiceDeps{
		Mailer:  deps.Mailer,
		Repo:    deps.complaintRepo(),
		Alerter: deps.Alerter,
		Audit:   deps.Audit,
		CCEmail: cfg.CCEmail,
	})
	proxySvc := authproxy.NewService(deps.identityProvider())

	healthH := handler.NewHealthHandler()
	complaintH := handler.NewComplaintHandler(complaintSvc)
	photoH := handler.NewPhotoHandler(deps.photoUploader())
	otpH := handler.NewOTPHandler(otpSvc)
	proxyH := handler.NewAuthProxyHandler(proxySvc)

	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.RequestSize(maxComplaintBody))
			r.With(mailRL.Limit).Post("/send-complaint", complaintH.Relay)
			r.With(mailRL.Limit).Post("/complaints/anonymous", complaintH.RelayAnonymous)
			r.Post("/complaints/photo", photoH.Upload)
		})
		r.Get("/complaints/{referenceID}", complaintH.Get)

		r.Route("/auth", func(r chi.Router) {
			r.With(mailRL.Limit).Post("/send-otp", otpH.Send)
			r.With(mailRL.Limit).Post("/resend-otp", otpH.Resend)
			r.Post("/verify-otp", otpH.Verify)
			r.Post("/login", proxyH.Login)
			r.Post("/signup", proxyH.Signup)
		})
	})

	return r
}
