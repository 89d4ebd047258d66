package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tarabot/scheduler/backend/internal/analysis/when"
	"github.com/tarabot/scheduler/backend/internal/config"
	"github.com/tarabot/scheduler/backend/internal/handler"
	"github.com/tarabot/scheduler/backend/internal/service/agent"
	"github.com/tarabot/scheduler/backend/internal/service/ai"
	"github.com/tarabot/scheduler/backend/internal/service/booking"
	"github.com/tarabot/scheduler/backend/internal/service/extract"
	"github.com/tarabot/scheduler/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := session.NewStore(cfg.Scheduling.SessionTTL)
	store.StartSweeper(ctx)

	if cfg.Scheduling.AssumePM {
		// Relaxation documented in config: meridiem-less hours book PM.
		log.Println("assume-PM relaxation enabled for bare time phrases")
	}
	engine := extract.NewEngine(store, when.Options{AssumePM: cfg.Scheduling.AssumePM})

	var booker booking.Booker
	if cfg.Calendar.Enabled() {
		booker = booking.NewCalendarClient(booking.CalendarConfig{
			WebhookURL: cfg.Calendar.WebhookURL,
			CalendarID: cfg.Calendar.CalendarID,
			AuthToken:  cfg.Calendar.AuthToken,
			Timeout:    cfg.Scheduling.BookingTimeout,
		})
		log.Println("calendar client initialized successfully")
	} else {
		booker = booking.LogBooker{}
		log.Println("CALENDAR_WEBHOOK_URL not configured, bookings will only be logged")
	}
	gate := booking.NewGate(store, booker, cfg.Scheduling.BookingTimeout)

	var dialogue *ai.Service
	if cfg.AI.Enabled() {
		dialogue, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize dialogue service: %v", err)
			log.Println("continuing with deterministic replies only")
		} else {
			log.Println("dialogue service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, using deterministic replies")
	}

	agt := agent.New(engine, gate, dialogue)
	router := handler.NewRouter(agt, store)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Tara scheduling backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
