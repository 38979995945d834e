package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/reunion/internal/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router builds the full route tree.
func Router(h *Handler, tokens *auth.Tokens, profiles auth.ProfileChecker) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/activate", h.Activate)
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokens))

		r.Post("/profile", h.CompleteProfile)
		r.Post("/profile/photo", h.UploadPhoto)
		r.Post("/profile/photo/presign", h.PresignPhoto)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireProfile(profiles))

			r.Get("/directory", h.Directory)
			r.Get("/profiles/{id}", h.Profile)

			r.Post("/event/registrations", h.Register)
			r.Get("/event/registrations/me", h.MyRegistration)

			r.Route("/admin/registrations", func(r chi.Router) {
				r.Get("/", h.ListRegistrations)
				r.Post("/{id}/cancel", h.CancelRegistration)
				r.Post("/{id}/reactivate", h.ReactivateRegistration)
				r.Put("/{id}/amount-paid", h.UpdateAmountPaid)
				r.Put("/{id}/notes", h.UpdateNotes)
			})
		})
	})

	return r
}
