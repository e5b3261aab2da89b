package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/slack-go/slack"
)

// client posts notifications to one Slack channel
type client struct {
	api       *slack.Client
	channelID string
	apiURL    string
	baseURL   string
}

var _ interfaces.Notifier = &client{}

// Option is a functional option for client configuration
type Option func(*client)

// WithAPIURL points the client at another Slack API endpoint
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiURL = url
	}
}

// WithBaseURL sets the public URL of the service, used to link records from messages
func WithBaseURL(url string) Option {
	return func(c *client) {
		c.baseURL = url
	}
}

// New creates a Slack notifier posting to channelID with the provided bot token
func New(token, channelID string, opts ...Option) (interfaces.Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	c := &client{
		channelID: channelID,
	}

	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []slack.Option
	if c.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(c.apiURL))
	}
	c.api = slack.New(token, apiOpts...)

	return c, nil
}

func (c *client) post(ctx context.Context, text string, blocks ...slack.Block) error {
	_, _, err := c.api.PostMessageContext(ctx, c.channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack message", goerr.V("channel_id", c.channelID))
	}
	return nil
}

func section(markdown string) slack.Block {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, markdown, false, false), nil, nil)
}

func actorName(actor *auth.Principal) string {
	if actor == nil {
		return "unknown user"
	}
	return actor.ID.String()
}

func (c *client) SchemaPublished(ctx context.Context, schema *model.FormSchema, actor *auth.Principal) error {
	fields := 0
	for _, st := range schema.Steps {
		fields += len(st.Fields)
	}

	text := fmt.Sprintf("Form %s %s published by %s", schema.FormKey, schema.Version, actorName(actor))
	return c.post(ctx, text,
		section(fmt.Sprintf(":memo: *Form schema published*\n*%s* is now at *%s*", schema.FormKey, schema.Version)),
		section(fmt.Sprintf("%d steps, %d fields. Published by `%s`.", len(schema.Steps), fields, actorName(actor))),
	)
}

func (c *client) PropertySubmitted(ctx context.Context, property *model.Property, actor *auth.Principal, created bool) error {
	verb := "updated"
	if created {
		verb = "submitted"
	}

	title := property.Legacy.Title
	if c.baseURL != "" {
		title = fmt.Sprintf("<%s/properties/%s|%s>", c.baseURL, property.ID, title)
	}

	text := fmt.Sprintf("Property %s %s by %s", property.Legacy.Title, verb, actorName(actor))
	return c.post(ctx, text,
		section(fmt.Sprintf(":house: *Property %s*\n%s", verb, title)),
		section(fmt.Sprintf("%s, %s for %s at %.0f. Form %s %s.",
			property.Legacy.City, property.Legacy.PropertyType, property.Legacy.ListingType,
			property.Legacy.AskingPrice, property.FormKey, property.FormVersion)),
	)
}

func (c *client) ProfilePending(ctx context.Context, profile *model.Profile) error {
	text := fmt.Sprintf("New user %s is waiting for approval", profile.ID)
	return c.post(ctx, text,
		section(fmt.Sprintf(":wave: *New user waiting for approval*\nUser `%s` signed in for the first time.", profile.ID)),
	)
}
