package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/app"
	"github.com/stafflens/stafflens/internal/config"
	llmmock "github.com/stafflens/stafflens/pkg/provider/llm/mock"
	sttmock "github.com/stafflens/stafflens/pkg/provider/stt/mock"
	ttsmock "github.com/stafflens/stafflens/pkg/provider/tts/mock"
	storemock "github.com/stafflens/stafflens/pkg/store/mock"
	voicemock "github.com/stafflens/stafflens/pkg/voice/mock"
)

// nullPoster satisfies report.Poster and discards everything.
type nullPoster struct{}

func (nullPoster) PostReport(context.Context, *discordgo.MessageEmbed) error { return nil }
func (nullPoster) PostNotice(context.Context, string) error                  { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Discord: config.DiscordConfig{
			Token:           "token",
			GuildID:         "g1",
			ApplicantRoleID: "role1",
			ReportChannelID: "reports",
		},
		Storage: config.StorageConfig{
			PostgresDSN: "postgres://localhost/stafflens_test",
		},
	}
}

func testProviders() *app.Providers {
	return &app.Providers{
		LLM:   &llmmock.Provider{},
		STT:   &sttmock.Provider{},
		TTS:   &ttsmock.Provider{},
		Voice: &voicemock.Platform{},
	}
}

func TestNew_WiresPipeline(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(), testProviders(),
		app.WithStore(&storemock.Store{}),
		app.WithPoster(nullPoster{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if a.Sessions() == nil {
		t.Error("Sessions() = nil")
	}
	if a.Store() == nil {
		t.Error("Store() = nil")
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	// Idempotent.
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestNew_MissingProviders(t *testing.T) {
	t.Parallel()

	providers := testProviders()
	providers.STT = nil
	providers.TTS = nil

	_, err := app.New(context.Background(), testConfig(), providers,
		app.WithStore(&storemock.Store{}),
		app.WithPoster(nullPoster{}),
	)
	if err == nil {
		t.Fatal("New succeeded without STT and TTS providers")
	}
	if !strings.Contains(err.Error(), "stt") || !strings.Contains(err.Error(), "tts") {
		t.Errorf("err = %v, want both missing providers named", err)
	}
}

func TestNew_MissingPoster(t *testing.T) {
	t.Parallel()

	_, err := app.New(context.Background(), testConfig(), testProviders(),
		app.WithStore(&storemock.Store{}),
	)
	if err == nil {
		t.Fatal("New succeeded without a report poster")
	}
}

func TestNew_MissingStorageDSN(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Storage.PostgresDSN = ""

	_, err := app.New(context.Background(), cfg, testProviders(),
		app.WithPoster(nullPoster{}),
	)
	if err == nil {
		t.Fatal("New succeeded without a store or DSN")
	}
	if !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("err = %v, want DSN requirement named", err)
	}
}
