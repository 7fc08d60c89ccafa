package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/promptchain/pkg/pipeline"
	"github.com/zen-systems/promptchain/pkg/router"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// RouteOutcome is the result of the routing flow.
type RouteOutcome struct {
	Status   Status            `json:"status"`
	Reason   string            `json:"reason,omitempty"`
	Category *router.Category  `json:"category,omitempty"`
	Response *CalendarResponse `json:"response,omitempty"`
	Failure  *pipeline.Failure `json:"failure,omitempty"`
}

const (
	classifySystem = `Determine if this is a request to create a new calendar event or modify an existing one.
Return "new_event" for scheduling new meetings, "modify_event" for changing existing ones,
or "other" for non-calendar requests.`

	newEventSystem = `Extract details for creating a new calendar event.
Convert relative dates (like "next Tuesday") to absolute dates using today as reference.
Use ISO 8601 format for the date field.`

	modifyEventSystem = `Extract details for modifying an existing calendar event.
Identify which event is being discussed and what changes are requested.`
)

// ProcessRoute classifies the request and dispatches it to the matching
// handler. Low confidence and non-calendar requests end as NotApplicable.
func (f *Flows) ProcessRoute(ctx context.Context, input string) *RouteOutcome {
	f.logger.Info().Str("flow", "routing").Msg("processing calendar request")

	r := router.New(
		f.stage("classify_request", classifySystem, shapeRequestClassification, false),
		f.routeThreshold,
		router.WithCatchAll("other"),
		router.WithLogger(f.logger),
	)
	r.Register("new_event", router.HandlerFunc(f.handleNewEvent))
	r.Register("modify_event", router.HandlerFunc(f.handleModifyEvent))

	decision := r.Route(ctx, input)
	switch decision.State {
	case router.StateRouted:
		if !decision.Result.OK() {
			return &RouteOutcome{
				Status:   StatusFailed,
				Reason:   decision.Result.Failure.Reason,
				Category: decision.Category,
				Failure:  decision.Result.Failure,
			}
		}
		var response CalendarResponse
		if err := decision.Result.Decode(&response); err != nil {
			return &RouteOutcome{Status: StatusFailed, Reason: err.Error(), Category: decision.Category}
		}
		return &RouteOutcome{Status: StatusCompleted, Category: decision.Category, Response: &response}

	default:
		return &RouteOutcome{Status: StatusNotApplicable, Reason: decision.Reason, Category: decision.Category}
	}
}

func (f *Flows) handleNewEvent(ctx context.Context, description string) *pipeline.Result {
	f.logger.Info().Msg("processing new event request")

	res := f.stage("new_event_details", newEventSystem, shapeEventDetails, true).Run(ctx, description)
	if !res.OK() {
		return res
	}

	var details EventDetails
	if err := res.Decode(&details); err != nil {
		return pipeline.Fail("handle_new_event", pipeline.MalformedOutput, res.Artifact.Content, "%v", err)
	}

	response := schema.Record{
		"success": true,
		"message": fmt.Sprintf("Created new event '%s' for %s with %s",
			details.Name, details.Date, strings.Join(details.Participants, ", ")),
		"calendar_link": "calendar://new?event=" + details.Name,
	}
	return pipeline.Succeed("handle_new_event", response, res.Artifact)
}

func (f *Flows) handleModifyEvent(ctx context.Context, description string) *pipeline.Result {
	f.logger.Info().Msg("processing event modification request")

	res := f.stage("modify_event_details", modifyEventSystem, shapeModifyEventDetails, false).Run(ctx, description)
	if !res.OK() {
		return res
	}

	var details ModifyEventDetails
	if err := res.Decode(&details); err != nil {
		return pipeline.Fail("handle_modify_event", pipeline.MalformedOutput, res.Artifact.Content, "%v", err)
	}

	changes := make([]string, 0, len(details.Changes))
	for _, change := range details.Changes {
		changes = append(changes, fmt.Sprintf("%s to %s", change.Field, change.NewValue))
	}

	response := schema.Record{
		"success": true,
		"message": fmt.Sprintf("Modified event '%s'. Changes: %s",
			details.EventIdentifier, strings.Join(changes, ", ")),
		"calendar_link": "calendar://modify?event=" + details.EventIdentifier,
	}
	return pipeline.Succeed("handle_modify_event", response, res.Artifact)
}
