package main

import (
	"context"
	"errors"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cluechase/cli"
	"cluechase/internal/domain"
	"cluechase/internal/integrations/openai"
	"cluechase/internal/integrations/paramstore"
	"cluechase/internal/usecase"
)

// llmAdapter narrows *openai.Client to the usecase.LLMClient interface;
// the concrete *openai.Stream satisfies usecase.TokenStream.
type llmAdapter struct {
	*openai.Client
}

func (a llmAdapter) ChatStream(ctx context.Context, req domain.ChatRequest) (usecase.TokenStream, error) {
	return a.Client.ChatStream(ctx, req)
}

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	_ = godotenv.Load()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "warn")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	model := getEnv("OPENAI_MODEL", "gpt-4o")
	baseURL := os.Getenv("OPENAI_BASE_URL")
	streaming := !envBool("NO_STREAM", false)

	// ---- Credential ----
	keys, err := resolveKeySource(ctx)
	if err != nil {
		log.Error().Err(err).Msg("no usable API credential")
		os.Exit(1)
	}

	// ---- Clients ----
	var opts []openai.Option
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.NewClient(keys, opts...)
	if err != nil {
		log.Error().Err(err).Msg("failed to create completion client")
		os.Exit(1)
	}

	ui, err := cli.New(os.Stdin, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("failed to create terminal UI")
		os.Exit(1)
	}

	// ---- Session ----
	ui.Banner()
	difficulty, err := ui.SelectDifficulty()
	if err != nil {
		log.Error().Err(err).Msg("failed to read difficulty")
		os.Exit(1)
	}

	game, err := usecase.NewGame(llmAdapter{client}, ui, os.Stdout, usecase.Config{
		Difficulty: difficulty,
		Model:      model,
		Streaming:  streaming,
	})
	if err != nil {
		ui.ReportError(err)
		log.Error().Err(err).Msg("failed to create game")
		os.Exit(1)
	}

	outcome, err := game.RunSession(ctx)
	if err != nil {
		ui.ReportError(err)
		log.Error().Err(err).Str("session_id", outcome.SessionID).Msg("session failed")
		os.Exit(1)
	}
	ui.ReportOutcome(outcome)
}

// resolveKeySource prefers the environment credential and falls back to an
// SSM parameter when one is named. Missing both is a configuration error.
func resolveKeySource(ctx context.Context) (openai.KeySource, error) {
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return openai.StaticKey(key), nil
	}

	paramName := strings.TrimSpace(os.Getenv("OPENAI_API_KEY_SSM_PARAM"))
	if paramName == "" {
		return nil, errors.New("set OPENAI_API_KEY or OPENAI_API_KEY_SSM_PARAM")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return paramstore.NewKeySource(ssmClient, paramName)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}
