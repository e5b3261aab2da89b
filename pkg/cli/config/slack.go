package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/service/slack"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Slack configures notifications posted to a Slack channel
type Slack struct {
	botToken  string
	channelID string
	baseURL   string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for notifications",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("PLOTLINE_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID that receives notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("PLOTLINE_SLACK_CHANNEL_ID"),
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of the application used in notification links (e.g., https://your-domain.com)",
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("PLOTLINE_BASE_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
		slog.String("base-url", x.baseURL),
	)
}

// IsConfigured reports whether notifications are enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" || x.channelID != ""
}

// Configure returns the notifier, or nil when Slack is not configured
func (x *Slack) Configure() (interfaces.Notifier, error) {
	if !x.IsConfigured() {
		logging.Default().Info("Slack notifications disabled")
		return nil, nil
	}
	if x.botToken == "" {
		return nil, goerr.Wrap(ErrMissingSlackToken, "slack-bot-token is required when slack-channel-id is set")
	}
	if x.channelID == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "slack-channel-id is required when slack-bot-token is set")
	}

	var opts []slack.Option
	if x.baseURL != "" {
		opts = append(opts, slack.WithBaseURL(x.baseURL))
	}
	notifier, err := slack.New(x.botToken, x.channelID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack notifier")
	}

	logging.Default().Info("Slack notifications enabled", "channel_id", x.channelID)
	return notifier, nil
}
