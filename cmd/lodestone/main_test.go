package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/lodeworks/lodestone/core"
)

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "WaRn"})
		require.NoError(t, err)
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestBuildSourceConfigKinds(t *testing.T) {
	app := &cli.App{
		Name: "test",
		Commands: []*cli.Command{
			{
				Name: "probe",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner"},
					&cli.StringFlag{Name: "repo"},
					&cli.StringFlag{Name: "workspace"},
					&cli.StringFlag{Name: "channel"},
					&cli.StringFlag{Name: "path"},
				},
				Action: func(c *cli.Context) error {
					config, err := buildSourceConfig(core.SourceKindGitHub, c)
					require.NoError(t, err)
					github, ok := config.(*core.GitHubConfig)
					require.True(t, ok)
					assert.Equal(t, "acme", github.Owner)
					assert.Equal(t, "widgets", github.Repo)

					config, err = buildSourceConfig(core.SourceKindFeed, c)
					require.NoError(t, err)
					fd, ok := config.(*core.FeedConfig)
					require.True(t, ok)
					assert.Equal(t, "/tmp/drop.jsonl", fd.Path)
					return nil
				},
			},
		},
	}

	err := app.Run([]string{
		"test", "probe",
		"--owner", "acme", "--repo", "widgets",
		"--path", "/tmp/drop.jsonl",
	})
	require.NoError(t, err)
}
