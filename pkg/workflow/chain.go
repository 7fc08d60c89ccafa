package workflow

import (
	"context"
	"encoding/json"

	"github.com/zen-systems/promptchain/pkg/gate"
	"github.com/zen-systems/promptchain/pkg/pipeline"
)

// ChainOutcome is the result of the linear chain flow.
type ChainOutcome struct {
	Status       Status             `json:"status"`
	Reason       string             `json:"reason,omitempty"`
	Extraction   *EventExtraction   `json:"extraction,omitempty"`
	Details      *EventDetails      `json:"details,omitempty"`
	Confirmation *EventConfirmation `json:"confirmation,omitempty"`
	Failure      *pipeline.Failure  `json:"failure,omitempty"`
}

const (
	extractionSystem = `Analyze if the user's text describes a calendar event.
Provide a confidence score based on how clearly it describes an event with time, date, and participants.`

	detailsSystem = `Extract detailed event information from the description.
Convert relative dates (like 'next Tuesday') to absolute dates using today as reference.
Use ISO 8601 format for the date field.`

	confirmationSystem = `Generate a friendly, natural confirmation message for the event.
Sign off with your name: Susie.
You may include a calendar link if appropriate.`
)

// ProcessChain runs the linear chain: extraction, gate, details,
// confirmation. A gate failure ends the flow as NotApplicable.
func (f *Flows) ProcessChain(ctx context.Context, input string) *ChainOutcome {
	f.logger.Info().Str("flow", "chain").Msg("starting calendar request chain")

	extractionResult := f.stage("event_extraction", extractionSystem, shapeEventExtraction, true).Run(ctx, input)
	if !extractionResult.OK() {
		return &ChainOutcome{Status: StatusFailed, Reason: extractionResult.Failure.Reason, Failure: extractionResult.Failure}
	}

	var extraction EventExtraction
	if err := extractionResult.Decode(&extraction); err != nil {
		return &ChainOutcome{Status: StatusFailed, Reason: err.Error()}
	}

	decision := gate.Check(extractionResult, gate.All(
		gate.FlagSet("is_calendar_event"),
		gate.MinConfidence("confidence_score", f.chainThreshold),
	))
	f.observeGate("event_extraction", decision)
	if !decision.Passed {
		f.logger.Info().Str("evidence", decision.Evidence).Msg("gate check failed, not a calendar event")
		return &ChainOutcome{
			Status:     StatusNotApplicable,
			Reason:     decision.Evidence,
			Extraction: &extraction,
		}
	}

	f.logger.Info().Float64("confidence", extraction.ConfidenceScore).Msg("gate check passed")

	detailsResult := f.stage("event_details", detailsSystem, shapeEventDetails, true).Run(ctx, extraction.Description)
	if !detailsResult.OK() {
		return &ChainOutcome{Status: StatusFailed, Reason: detailsResult.Failure.Reason, Extraction: &extraction, Failure: detailsResult.Failure}
	}

	var details EventDetails
	if err := detailsResult.Decode(&details); err != nil {
		return &ChainOutcome{Status: StatusFailed, Reason: err.Error(), Extraction: &extraction}
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return &ChainOutcome{Status: StatusFailed, Reason: err.Error(), Extraction: &extraction, Details: &details}
	}

	confirmationResult := f.stage("event_confirmation", confirmationSystem, shapeEventConfirmation, false).
		Run(ctx, "Event details: "+string(detailsJSON))
	if !confirmationResult.OK() {
		return &ChainOutcome{Status: StatusFailed, Reason: confirmationResult.Failure.Reason, Extraction: &extraction, Details: &details, Failure: confirmationResult.Failure}
	}

	var confirmation EventConfirmation
	if err := confirmationResult.Decode(&confirmation); err != nil {
		return &ChainOutcome{Status: StatusFailed, Reason: err.Error(), Extraction: &extraction, Details: &details}
	}

	f.logger.Info().Str("event", details.Name).Msg("chain completed")
	return &ChainOutcome{
		Status:       StatusCompleted,
		Extraction:   &extraction,
		Details:      &details,
		Confirmation: &confirmation,
	}
}
