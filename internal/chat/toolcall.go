// Package chat lets a language model edit the itinerary. The model answers a
// user message with streamed text, structured tool invocations, or both; the
// Bridge translates each invocation into a mutation on the service, and the
// Conversation consumes a backend stream into one reply.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/KarenSyu/travel/internal/domain"
)

// ToolName is the only tool the model is offered.
const ToolName = "update_itinerary_activity"

// ToolDescription is sent with the tool declaration to every backend.
const ToolDescription = "Update the details of a specific activity in the itinerary or add a new one."

// UpdateArgs are the arguments of an update_itinerary_activity invocation.
// An empty ActivityTitleToFind, or one that matches nothing, adds a new activity.
type UpdateArgs struct {
	DayNumber           int                  `json:"dayNumber"`
	ActivityTitleToFind string               `json:"activityTitleToFind,omitempty"`
	NewDetails          domain.ActivityPatch `json:"newDetails"`
}

// ToolCall is one structured invocation emitted by the model.
// Args is only meaningful when Name == ToolName.
type ToolCall struct {
	Name string
	Args UpdateArgs
}

// toolSchema constrains update_itinerary_activity arguments. Field descriptions
// double as the parameter documentation given to the model.
const toolSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "dayNumber": {
      "type": "integer",
      "minimum": 1,
      "description": "The day number to update."
    },
    "activityTitleToFind": {
      "type": "string",
      "description": "The title of the existing activity to update. If empty, a new activity might be added."
    },
    "newDetails": {
      "type": "object",
      "description": "The new details for the activity.",
      "properties": {
        "time":                {"type": "string"},
        "title":               {"type": "string"},
        "description":         {"type": "string"},
        "location":            {"type": "string"},
        "icon":                {"type": "string"},
        "transportSuggestion": {"type": "string"}
      }
    }
  },
  "required": ["dayNumber", "newDetails"]
}`

const toolSchemaURL = "https://travel.local/schemas/update_itinerary_activity.json"

var compiledToolSchema = mustCompileToolSchema()

func mustCompileToolSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(toolSchemaURL, strings.NewReader(toolSchema)); err != nil {
		panic(fmt.Sprintf("chat: load tool schema: %v", err))
	}
	s, err := c.Compile(toolSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("chat: compile tool schema: %v", err))
	}
	return s
}

// ToolParameters returns the argument schema as a generic JSON object, the form
// backends attach to their tool declarations.
func ToolParameters() map[string]any {
	var m map[string]any
	_ = json.Unmarshal([]byte(toolSchema), &m)
	delete(m, "$schema")
	return m
}

// ParseToolCall decodes and validates the raw JSON arguments of a tool
// invocation. Calls to tools other than ToolName are returned with only Name
// set so the Bridge can report them. Arguments that are not JSON or fail the
// schema yield domain.ErrUnparseableToolCall. Unknown newDetails keys are
// ignored.
func ParseToolCall(name string, raw []byte) (ToolCall, error) {
	if name != ToolName {
		return ToolCall{Name: name}, nil
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return ToolCall{}, fmt.Errorf("chat.ParseToolCall: %w: %w", domain.ErrUnparseableToolCall, err)
	}
	if err := compiledToolSchema.Validate(generic); err != nil {
		return ToolCall{}, fmt.Errorf("chat.ParseToolCall: %w: %w", domain.ErrUnparseableToolCall, err)
	}

	// The schema admits 1.0 as an integer; encoding/json does not decode that
	// into an int, so the day number goes through float64.
	var wire struct {
		DayNumber           float64              `json:"dayNumber"`
		ActivityTitleToFind string               `json:"activityTitleToFind"`
		NewDetails          domain.ActivityPatch `json:"newDetails"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ToolCall{}, fmt.Errorf("chat.ParseToolCall: %w: %w", domain.ErrUnparseableToolCall, err)
	}
	return ToolCall{Name: name, Args: UpdateArgs{
		DayNumber:           int(wire.DayNumber),
		ActivityTitleToFind: wire.ActivityTitleToFind,
		NewDetails:          wire.NewDetails,
	}}, nil
}

// ParseToolCallArgs is ParseToolCall for backends that deliver arguments
// already decoded into a map.
func ParseToolCallArgs(name string, args map[string]any) (ToolCall, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return ToolCall{}, fmt.Errorf("chat.ParseToolCallArgs: %w: %w", domain.ErrUnparseableToolCall, err)
	}
	return ParseToolCall(name, raw)
}
