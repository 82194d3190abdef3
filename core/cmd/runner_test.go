package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/printbot/core/config"
	coretelegram "github.com/m3rciful/printbot/core/telegram"
)

type stubApp struct {
	opts coretelegram.RunOptions
	err  error
}

func (a stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, a.err }

func TestConfigPath(t *testing.T) {
	t.Setenv("PRINTBOT_CONFIG", "")
	assert.Equal(t, "config.yaml", ConfigPath("PRINTBOT_CONFIG", "config.yaml"))

	t.Setenv("PRINTBOT_CONFIG", "/etc/printbot.yaml")
	assert.Equal(t, "/etc/printbot.yaml", ConfigPath("PRINTBOT_CONFIG", "config.yaml"))
}

func TestRunWiresHooks(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg := &coreconfig.Config{}
	var calls []string

	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			assert.Equal(t, "config.yaml", path)
			return cfg, nil
		},
		Bootstrap: func(_ context.Context, got *coreconfig.Config) (TelegramApp, error) {
			assert.Same(t, cfg, got)
			return stubApp{opts: coretelegram.RunOptions{
				Config: got,
				OnStop: func(context.Context, coretelegram.Runtime) error {
					calls = append(calls, "app.stop")
					return nil
				},
			}}, nil
		},
		ShutdownLogger: func() error { calls = append(calls, "logger"); return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			calls = append(calls, "run")
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.stop", "run", "logger"}, calls)
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	boom := errors.New("no database")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap: func(context.Context, *coreconfig.Config) (TelegramApp, error) {
			return nil, boom
		},
		ShutdownLogger: func() error { return nil },
	})
	require.ErrorIs(t, err, boom)
}
