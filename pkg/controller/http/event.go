package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
)

// EventHandler processes an EventBridge-style event for a local function
type EventHandler interface {
	HandleEvent(ctx context.Context, event events.CloudWatchEvent) error
}

// EventEndpoint accepts events over HTTP and dispatches them to registered
// function handlers, emulating asynchronous EventBridge delivery
type EventEndpoint struct {
	handlers map[string]EventHandler
}

// NewEventEndpoint creates a new EventEndpoint
func NewEventEndpoint(handlers map[string]EventHandler) *EventEndpoint {
	return &EventEndpoint{handlers: handlers}
}

// Handle accepts a JSON event for the function named in the URL, responds
// 202, and runs the handler asynchronously
func (e *EventEndpoint) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	name := chi.URLParam(r, "function")
	handler, ok := e.handlers[name]
	if !ok {
		writeError(w, goerr.New("unknown function"), http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var event events.CloudWatchEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Error("Failed to parse event payload", "error", err)
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	dispatchID := uuid.NewString()
	logger.Info("Dispatching event",
		"function", name,
		"dispatch_id", dispatchID,
		"detail_type", event.DetailType,
	)

	async.Dispatch(ctx, func(ctx context.Context) error {
		return handler.HandleEvent(ctx, event)
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":      "accepted",
		"dispatch_id": dispatchID,
	}); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
