package webapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Strum355/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// shutdownTimeout is how long in-flight requests get to finish once the
// server is told to stop.
const shutdownTimeout = 5 * time.Second

// App is the demo web service this repository deploys: a single route
// answering a fixed message. It doubles as the probe target for
// verification, so the message must match the deployed configuration.
type App struct {
	message string
}

func New(message string) App {
	return App{message: message}
}

// Register mounts the app's routes.
func (a App) Register(r chi.Router) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/", a.home)
}

func (a App) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, a.message)
}

// ListenAndServe blocks serving the app on the given port until the server
// fails or ctx is cancelled, then drains in-flight requests.
func (a App) ListenAndServe(ctx context.Context, port int) error {
	r := chi.NewRouter()
	a.Register(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down web app")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
