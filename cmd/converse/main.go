package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/plugin/ai"
	apiv1 "github.com/hrygo/converse/server/router/api/v1"
	"github.com/hrygo/converse/server/service/chat"
	"github.com/hrygo/converse/store"
	"github.com/hrygo/converse/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "converse",
	Short: "Conversation-history management and completion-proxy service",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		instanceProfile := profileFromViper()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("invalid profile: %w", err)
		}

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		defer storeInstance.Close()
		if err := storeInstance.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		completionService, err := ai.NewCompletionService(&ai.Config{
			BaseURL:          instanceProfile.AIBaseURL,
			APIKey:           instanceProfile.AIAPIKey,
			ChatModel:        instanceProfile.AIChatModel,
			Temperature:      instanceProfile.AITemperature,
			MaxTokens:        instanceProfile.AIMaxTokens,
			TopP:             instanceProfile.AITopP,
			FrequencyPenalty: instanceProfile.AIFrequencyPenalty,
			PresencePenalty:  instanceProfile.AIPresencePenalty,
		})
		if err != nil {
			return fmt.Errorf("failed to create completion service: %w", err)
		}

		chatService := chat.NewService(storeInstance, completionService, instanceProfile.AITimeout)

		e := echo.New()
		e.HideBanner = true
		e.Use(echomiddleware.Recover())
		apiv1.NewAPIV1Service(instanceProfile, storeInstance, chatService).RegisterRoutes(e)

		address := fmt.Sprintf("%s:%d", instanceProfile.Addr, instanceProfile.Port)
		slog.Info("starting server",
			slog.String("address", address),
			slog.String("mode", instanceProfile.Mode),
			slog.String("driver", instanceProfile.Driver),
			slog.String("version", instanceProfile.Version),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := e.Start(address); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8230, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	flags.String("dsn", "", "database source name (aka. DSN)")
	flags.String("ai-base-url", "https://api.openai.com/v1", "base URL of the completion API")
	flags.String("ai-api-key", "", "API key for the completion API")
	flags.String("ai-chat-model", "gpt-4o-mini", "chat model identifier")
	flags.Duration("ai-timeout", 30*time.Second, "timeout for a single completion call")
	flags.Float32("ai-temperature", 0, "sampling temperature (omitted from requests unless set)")
	flags.Int("ai-max-tokens", 0, "max output tokens (omitted from requests unless set)")
	flags.Float32("ai-top-p", 0, "nucleus sampling threshold (omitted from requests unless set)")
	flags.Float32("ai-frequency-penalty", 0, "frequency penalty (omitted from requests unless set)")
	flags.Float32("ai-presence-penalty", 0, "presence penalty (omitted from requests unless set)")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("converse")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// profileFromViper assembles the runtime profile. Generation parameters stay
// nil unless the flag or environment variable was actually provided, so the
// completion client can omit them from the payload.
func profileFromViper() *profile.Profile {
	p := &profile.Profile{
		Mode:        viper.GetString("mode"),
		Addr:        viper.GetString("addr"),
		Port:        viper.GetInt("port"),
		Data:        viper.GetString("data"),
		Driver:      viper.GetString("driver"),
		DSN:         viper.GetString("dsn"),
		Version:     version,
		AIBaseURL:   viper.GetString("ai-base-url"),
		AIAPIKey:    viper.GetString("ai-api-key"),
		AIChatModel: viper.GetString("ai-chat-model"),
		AITimeout:   viper.GetDuration("ai-timeout"),
	}
	if viper.IsSet("ai-temperature") {
		v := float32(viper.GetFloat64("ai-temperature"))
		p.AITemperature = &v
	}
	if viper.IsSet("ai-max-tokens") {
		v := viper.GetInt("ai-max-tokens")
		p.AIMaxTokens = &v
	}
	if viper.IsSet("ai-top-p") {
		v := float32(viper.GetFloat64("ai-top-p"))
		p.AITopP = &v
	}
	if viper.IsSet("ai-frequency-penalty") {
		v := float32(viper.GetFloat64("ai-frequency-penalty"))
		p.AIFrequencyPenalty = &v
	}
	if viper.IsSet("ai-presence-penalty") {
		v := float32(viper.GetFloat64("ai-presence-penalty"))
		p.AIPresencePenalty = &v
	}
	return p
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
