package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/partyroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	spotifyClientSecret = configVar[string]{
		envKey:       "SPOTIFY_CLIENT_SECRET",
		flagKey:      "spotify-client-secret",
		defaultValue: "",
	}
	scoreCap = configVar[int]{
		envKey:       "SERVER_SCORE_CAP",
		flagKey:      "score-cap",
		defaultValue: 5,
	}
	wrongGuessCap = configVar[int]{
		envKey:       "SERVER_WRONG_GUESS_CAP",
		flagKey:      "wrong-guess-cap",
		defaultValue: 5,
	}
	wheelOptionsLimit = configVar[int]{
		envKey:       "SERVER_WHEEL_OPTIONS_LIMIT",
		flagKey:      "wheel-options-limit",
		defaultValue: 12,
	}
	wheelOptionLength = configVar[int]{
		envKey:       "SERVER_WHEEL_OPTION_LENGTH",
		flagKey:      "wheel-option-length",
		defaultValue: 60,
	}
	suggestionsLimit = configVar[int]{
		envKey:       "SERVER_SUGGESTIONS_LIMIT",
		flagKey:      "suggestions-limit",
		defaultValue: 25,
	}
	queueLimit = configVar[int]{
		envKey:       "SERVER_QUEUE_LIMIT",
		flagKey:      "queue-limit",
		defaultValue: 25,
	}
	notesLimit = configVar[int]{
		envKey:       "SERVER_NOTES_LIMIT",
		flagKey:      "notes-limit",
		defaultValue: 50,
	}
	noteLength = configVar[int]{
		envKey:       "SERVER_NOTE_LENGTH",
		flagKey:      "note-length",
		defaultValue: 280,
	}
	providerTimeout = configVar[int]{
		envKey:       "SPOTIFY_TIMEOUT_SECONDS",
		flagKey:      "spotify-timeout-seconds",
		defaultValue: 10,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(spotifyClientSecret.flagKey, spotifyClientSecret.defaultValue, "Spotify client secret used for token refresh")
	pflag.Int(scoreCap.flagKey, scoreCap.defaultValue, "Points needed to win the drawing game")
	pflag.Int(wrongGuessCap.flagKey, wrongGuessCap.defaultValue, "Wrong guesses before a round is skipped")
	pflag.Int(wheelOptionsLimit.flagKey, wheelOptionsLimit.defaultValue, "Maximum number of wheel options")
	pflag.Int(wheelOptionLength.flagKey, wheelOptionLength.defaultValue, "Maximum length of a wheel option")
	pflag.Int(suggestionsLimit.flagKey, suggestionsLimit.defaultValue, "Maximum number of track suggestions")
	pflag.Int(queueLimit.flagKey, queueLimit.defaultValue, "Maximum number of queued tracks")
	pflag.Int(notesLimit.flagKey, notesLimit.defaultValue, "Maximum number of lobby notes")
	pflag.Int(noteLength.flagKey, noteLength.defaultValue, "Maximum length of a lobby note")
	pflag.Int(providerTimeout.flagKey, providerTimeout.defaultValue, "Spotify call timeout in seconds")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(spotifyClientSecret.flagKey, spotifyClientSecret.envKey)
	viper.BindEnv(scoreCap.flagKey, scoreCap.envKey)
	viper.BindEnv(wrongGuessCap.flagKey, wrongGuessCap.envKey)
	viper.BindEnv(wheelOptionsLimit.flagKey, wheelOptionsLimit.envKey)
	viper.BindEnv(wheelOptionLength.flagKey, wheelOptionLength.envKey)
	viper.BindEnv(suggestionsLimit.flagKey, suggestionsLimit.envKey)
	viper.BindEnv(queueLimit.flagKey, queueLimit.envKey)
	viper.BindEnv(notesLimit.flagKey, notesLimit.envKey)
	viper.BindEnv(noteLength.flagKey, noteLength.envKey)
	viper.BindEnv(providerTimeout.flagKey, providerTimeout.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(spotifyClientSecret.flagKey, spotifyClientSecret.defaultValue)
	viper.SetDefault(scoreCap.flagKey, scoreCap.defaultValue)
	viper.SetDefault(wrongGuessCap.flagKey, wrongGuessCap.defaultValue)
	viper.SetDefault(wheelOptionsLimit.flagKey, wheelOptionsLimit.defaultValue)
	viper.SetDefault(wheelOptionLength.flagKey, wheelOptionLength.defaultValue)
	viper.SetDefault(suggestionsLimit.flagKey, suggestionsLimit.defaultValue)
	viper.SetDefault(queueLimit.flagKey, queueLimit.defaultValue)
	viper.SetDefault(notesLimit.flagKey, notesLimit.defaultValue)
	viper.SetDefault(noteLength.flagKey, noteLength.defaultValue)
	viper.SetDefault(providerTimeout.flagKey, providerTimeout.defaultValue)

	return &app.AppConfig{
		Host:                viper.GetString(host.flagKey),
		Port:                viper.GetInt(port.flagKey),
		LogLevel:            viper.GetString(logLevel.flagKey),
		SpotifyClientSecret: viper.GetString(spotifyClientSecret.flagKey),
		ScoreCap:            viper.GetInt(scoreCap.flagKey),
		WrongGuessCap:       viper.GetInt(wrongGuessCap.flagKey),
		WheelOptionsLimit:   viper.GetInt(wheelOptionsLimit.flagKey),
		WheelOptionLength:   viper.GetInt(wheelOptionLength.flagKey),
		SuggestionsLimit:    viper.GetInt(suggestionsLimit.flagKey),
		QueueLimit:          viper.GetInt(queueLimit.flagKey),
		NotesLimit:          viper.GetInt(notesLimit.flagKey),
		NoteLength:          viper.GetInt(noteLength.flagKey),
		ProviderTimeout:     viper.GetInt(providerTimeout.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
