package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/partyroom/server/internal/controller"
	connectioninmemory "github.com/partyroom/server/internal/repository/connection/inmemory"
	roominmemory "github.com/partyroom/server/internal/repository/room/inmemory"
	"github.com/partyroom/server/internal/service/room"
	"github.com/partyroom/server/internal/spotify"
	"github.com/partyroom/server/pkg/ctxlogger"
	"github.com/partyroom/server/pkg/randstr"
	"github.com/partyroom/server/pkg/wordlist"
)

type AppConfig struct {
	Host                string `json:"host"`
	Port                int    `json:"port"`
	LogLevel            string `json:"log_level"`
	SpotifyClientSecret string `json:"-"`
	ScoreCap            int    `json:"score_cap"`
	WrongGuessCap       int    `json:"wrong_guess_cap"`
	WheelOptionsLimit   int    `json:"wheel_options_limit"`
	WheelOptionLength   int    `json:"wheel_option_length"`
	SuggestionsLimit    int    `json:"suggestions_limit"`
	QueueLimit          int    `json:"queue_limit"`
	NotesLimit          int    `json:"notes_limit"`
	NoteLength          int    `json:"note_length"`
	ProviderTimeout     int    `json:"provider_timeout_seconds"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.ScoreCap < 1 {
		return fmt.Errorf("score cap must be greater than 0")
	}
	if cfg.WrongGuessCap < 1 {
		return fmt.Errorf("wrong guess cap must be greater than 0")
	}
	if cfg.WheelOptionsLimit < 1 {
		return fmt.Errorf("wheel options limit must be greater than 0")
	}
	if cfg.SuggestionsLimit < 1 || cfg.QueueLimit < 1 {
		return fmt.Errorf("suggestion and queue limits must be greater than 0")
	}
	if cfg.NotesLimit < 1 || cfg.NoteLength < 1 {
		return fmt.Errorf("notes limit and note length must be greater than 0")
	}
	if cfg.ProviderTimeout < 1 {
		return fmt.Errorf("provider timeout must be greater than 0")
	}
	return nil
}

const roomIdAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	roomRepo := roominmemory.NewRepo(logger)
	connectionRepo := connectioninmemory.NewRepo(logger)
	words := wordlist.Load()
	provider := spotify.NewClient(cfg.SpotifyClientSecret, time.Duration(cfg.ProviderTimeout)*time.Second)

	roomService := room.NewService(roomRepo, connectionRepo, provider, words, &room.Config{
		ScoreCap:          cfg.ScoreCap,
		WrongGuessCap:     cfg.WrongGuessCap,
		WheelOptionsLimit: cfg.WheelOptionsLimit,
		WheelOptionLength: cfg.WheelOptionLength,
		SuggestionsLimit:  cfg.SuggestionsLimit,
		QueueLimit:        cfg.QueueLimit,
		NotesLimit:        cfg.NotesLimit,
		NoteLength:        cfg.NoteLength,
	}, logger)

	ctrl := controller.NewController(roomService, randstr.New([]byte(roomIdAlphabet)), logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.Mux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
