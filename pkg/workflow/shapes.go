package workflow

import "github.com/zen-systems/promptchain/pkg/schema"

// Shapes for each stage of the calendar flows. The same descriptors drive
// prompt construction and response validation.

var shapeEventExtraction = &schema.Shape{
	Name:        "EventExtraction",
	Description: "Analysis of whether text describes a calendar event",
	Fields: []schema.Field{
		{Name: "description", Kind: schema.KindString, Required: true, Description: "Raw description of the event"},
		{Name: "is_calendar_event", Kind: schema.KindBool, Required: true, Description: "Whether this text describes a calendar event"},
		{Name: "confidence_score", Kind: schema.KindNumber, Required: true, Min: schema.Bound(0), Max: schema.Bound(1), Description: "Confidence score between 0 and 1"},
	},
}

var shapeEventDetails = &schema.Shape{
	Name:        "EventDetails",
	Description: "Specific details of a calendar event",
	Fields: []schema.Field{
		{Name: "name", Kind: schema.KindString, Required: true, Description: "Name of the event"},
		{Name: "date", Kind: schema.KindString, Required: true, Description: "Date and time of the event in ISO 8601 format"},
		{Name: "duration_minutes", Kind: schema.KindInteger, Required: true, Min: schema.Bound(1), Description: "Expected duration in minutes"},
		{Name: "participants", Kind: schema.KindList, Required: true, Item: &schema.Field{Kind: schema.KindString}, Description: "List of participants"},
	},
}

var shapeEventConfirmation = &schema.Shape{
	Name:        "EventConfirmation",
	Description: "User-facing confirmation of a created event",
	Fields: []schema.Field{
		{Name: "confirmation_message", Kind: schema.KindString, Required: true, Description: "Natural language confirmation message"},
		{Name: "calendar_link", Kind: schema.KindString, Description: "Generated calendar link if applicable"},
	},
}

var shapeRequestClassification = &schema.Shape{
	Name:        "CalendarRequestType",
	Description: "Classification of the calendar request",
	Fields: []schema.Field{
		{Name: "request_type", Kind: schema.KindEnum, Required: true, Enum: []string{"new_event", "modify_event", "other"}, Description: "Type of calendar request being made"},
		{Name: "confidence_score", Kind: schema.KindNumber, Required: true, Min: schema.Bound(0), Max: schema.Bound(1), Description: "Confidence score between 0 and 1"},
		{Name: "description", Kind: schema.KindString, Required: true, Description: "Cleaned description of the request"},
	},
}

var shapeModifyEventDetails = &schema.Shape{
	Name:        "ModifyEventDetails",
	Description: "Details for modifying an existing event",
	Fields: []schema.Field{
		{Name: "event_identifier", Kind: schema.KindString, Required: true, Description: "Description to identify the existing event"},
		{Name: "changes", Kind: schema.KindList, Required: true, Description: "List of changes to make", Item: &schema.Field{
			Kind: schema.KindObject,
			Fields: []schema.Field{
				{Name: "field", Kind: schema.KindString, Required: true, Description: "Field to change"},
				{Name: "new_value", Kind: schema.KindString, Required: true, Description: "New value for the field"},
			},
		}},
		{Name: "participants_to_add", Kind: schema.KindList, Item: &schema.Field{Kind: schema.KindString}, Description: "New participants to add"},
		{Name: "participants_to_remove", Kind: schema.KindList, Item: &schema.Field{Kind: schema.KindString}, Description: "Participants to remove"},
	},
}

var shapeCalendarValidation = &schema.Shape{
	Name:        "CalendarValidation",
	Description: "Check if input is a valid calendar request",
	Fields: []schema.Field{
		{Name: "is_calendar_request", Kind: schema.KindBool, Required: true, Description: "Whether this is a calendar request"},
		{Name: "confidence_score", Kind: schema.KindNumber, Required: true, Min: schema.Bound(0), Max: schema.Bound(1), Description: "Confidence score between 0 and 1"},
	},
}

var shapeSecurityCheck = &schema.Shape{
	Name:        "SecurityCheck",
	Description: "Check for security risks like prompt injection",
	Fields: []schema.Field{
		{Name: "is_safe", Kind: schema.KindBool, Required: true, Description: "Whether the input appears safe"},
		{Name: "risk_flags", Kind: schema.KindList, Required: true, Item: &schema.Field{Kind: schema.KindString}, Description: "List of potential security concerns"},
	},
}

// Typed records decoded from validated stage output.

// EventExtraction is the first chain stage's verdict.
type EventExtraction struct {
	Description     string  `json:"description"`
	IsCalendarEvent bool    `json:"is_calendar_event"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// EventDetails holds the extracted specifics of an event.
type EventDetails struct {
	Name            string   `json:"name"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Participants    []string `json:"participants"`
}

// EventConfirmation is the final chain payload.
type EventConfirmation struct {
	ConfirmationMessage string `json:"confirmation_message"`
	CalendarLink        string `json:"calendar_link,omitempty"`
}

// Change is one field modification on an existing event.
type Change struct {
	Field    string `json:"field"`
	NewValue string `json:"new_value"`
}

// ModifyEventDetails holds the extracted specifics of a modification.
type ModifyEventDetails struct {
	EventIdentifier      string   `json:"event_identifier"`
	Changes              []Change `json:"changes"`
	ParticipantsToAdd    []string `json:"participants_to_add,omitempty"`
	ParticipantsToRemove []string `json:"participants_to_remove,omitempty"`
}

// CalendarResponse is the routing flow's final structured response.
type CalendarResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CalendarLink string `json:"calendar_link,omitempty"`
}

// CalendarValidation is guardrail branch A's verdict.
type CalendarValidation struct {
	IsCalendarRequest bool    `json:"is_calendar_request"`
	ConfidenceScore   float64 `json:"confidence_score"`
}

// SecurityCheck is guardrail branch B's verdict.
type SecurityCheck struct {
	IsSafe    bool     `json:"is_safe"`
	RiskFlags []string `json:"risk_flags"`
}
