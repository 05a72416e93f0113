package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

type notifier struct {
	webhookURL string
}

// NewNotifier creates a Slack webhook notifier for deployment results
func NewNotifier(webhookURL string) interfaces.Notifier {
	return &notifier{webhookURL: webhookURL}
}

// NotifyDeploy posts the deployment outcome to the configured webhook
func (n *notifier) NotifyDeploy(ctx context.Context, result *model.DeployResult, deployErr error) error {
	var attachment slack.Attachment

	switch {
	case deployErr != nil:
		name := "(unknown)"
		if result != nil {
			name = result.FunctionName
		}
		attachment = slack.Attachment{
			Color: "danger",
			Title: fmt.Sprintf("Deploy failed: %s", name),
			Text:  deployErr.Error(),
		}
	default:
		attachment = slack.Attachment{
			Color: "good",
			Title: fmt.Sprintf("Deployed: %s", result.FunctionName),
			Fields: []slack.AttachmentField{
				{Title: "Version", Value: result.Version, Short: true},
				{Title: "Code size", Value: fmt.Sprintf("%d bytes", result.CodeSize), Short: true},
				{Title: "SHA256", Value: result.CodeSHA256},
				{Title: "ARN", Value: result.ARN},
			},
		}
	}

	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{attachment},
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack webhook")
	}
	return nil
}
