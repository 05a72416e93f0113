package lambda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// stateChangeDetailType is the EventBridge detail-type this handler
// consumes
const stateChangeDetailType = "EC2 Instance State-change Notification"

// Handler processes EventBridge events delivered to the Lambda function
type Handler struct {
	recordsUC interfaces.RecordsUseCase
}

// NewHandler creates a new event handler
func NewHandler(recordsUC interfaces.RecordsUseCase) *Handler {
	return &Handler{recordsUC: recordsUC}
}

// HandleEvent processes an EventBridge event. Events other than EC2
// state-change notifications are ignored.
func (h *Handler) HandleEvent(ctx context.Context, event events.CloudWatchEvent) error {
	logger := ctxlog.From(ctx)

	if event.DetailType != stateChangeDetailType {
		logger.Info("Ignoring unsupported event type", "detail_type", event.DetailType)
		return nil
	}

	stateChange, err := parseStateChange(event)
	if err != nil {
		logger.Error("Failed to parse state-change event", "error", err)
		return err
	}

	logger.Info("Processing state-change event",
		"account", stateChange.Account,
		"region", stateChange.Region,
		"instance_id", stateChange.InstanceID,
		"state", stateChange.State,
	)

	return h.recordsUC.HandleStateChange(ctx, stateChange)
}

// parseStateChange extracts the domain event from an EventBridge envelope
func parseStateChange(event events.CloudWatchEvent) (*model.StateChangeEvent, error) {
	var detail model.StateChangeDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal event detail")
	}

	if event.AccountID == "" || event.Region == "" || detail.InstanceID == "" || detail.State == "" {
		return nil, goerr.New("event is missing required fields",
			goerr.V("account", event.AccountID),
			goerr.V("region", event.Region),
			goerr.V("instance_id", detail.InstanceID),
			goerr.V("state", detail.State))
	}

	return &model.StateChangeEvent{
		Account:    event.AccountID,
		Region:     event.Region,
		InstanceID: detail.InstanceID,
		State:      model.InstanceState(detail.State),
		ReceivedAt: time.Now(),
	}, nil
}
