package api

import (
	"net/http"
	"time"

	"portfolio/src/api/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
}

func NewServer(handler *handlers.Handler) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", handlers.Healthcheck)

	s.Router.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.Handler.TokenAuth))

		r.Get("/", s.Handler.GetIndex)
		r.Get("/create_user", s.Handler.GetCreateUser)
		r.Post("/create_user", s.Handler.PostCreateUser)
		r.Get("/signin", s.Handler.GetSignIn)
		r.Post("/signin", s.Handler.PostSignIn)
		r.Post("/signout", s.Handler.PostSignOut)

		r.Group(func(r chi.Router) {
			r.Use(s.Handler.RequireLogin)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.Handler.GetAccounts)
				r.Post("/", s.Handler.PostAccount)
				r.Get("/new", s.Handler.GetNewAccount)
				r.Post("/delete", s.Handler.PostDeleteAccount)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", s.Handler.GetAssets)
				r.Post("/", s.Handler.PostAsset)
				r.Get("/new", s.Handler.GetNewAsset)
				r.Get("/update", s.Handler.GetUpdateAsset)
				r.Post("/update", s.Handler.PostUpdateAsset)
				r.Post("/delete", s.Handler.PostDeleteAsset)
				r.Get("/allocation", s.Handler.GetAllocation)
			})

			r.Route("/holdings", func(r chi.Router) {
				r.Get("/", s.Handler.GetHoldings)
				r.Post("/", s.Handler.PostHolding)
				r.Get("/new", s.Handler.GetNewHolding)
				r.Get("/update", s.Handler.GetUpdateHolding)
				r.Post("/update", s.Handler.PostUpdateHolding)
				r.Post("/delete", s.Handler.PostDeleteHolding)
				r.Get("/export", s.Handler.GetHoldingsExport)
			})
		})
	})
}

func NewHTTPServer(server *Server, port string) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Handler:      server,
	}
	return httpServer
}
