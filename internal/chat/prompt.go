package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KarenSyu/travel/internal/domain"
)

// Flight is one leg of the trip's air travel.
type Flight struct {
	Code     string `yaml:"code"`
	Airline  string `yaml:"airline"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Departs  string `yaml:"departs"` // local time, "2006-01-02T15:04"
	Arrives  string `yaml:"arrives"`
	Headline string `yaml:"headline"` // one-line summary used in the prompt
}

// TripContext holds the fixed travel constraints given to the model with every
// turn. It is read from YAML; fields absent from the file keep their defaults.
type TripContext struct {
	Assistant      string `yaml:"assistant"`
	Language       string `yaml:"language"`
	Dates          string `yaml:"dates"`
	Outbound       Flight `yaml:"outbound"`
	Inbound        Flight `yaml:"inbound"`
	Accommodation  string `yaml:"accommodation"`
	Transportation string `yaml:"transportation"`
	Focus          string `yaml:"focus"`
	Welcome        string `yaml:"welcome"`
}

// DefaultTripContext describes the Okinawa trip of January 2026.
func DefaultTripContext() TripContext {
	return TripContext{
		Assistant: "You are a travel assistant for a trip to Okinawa, Japan.",
		Language:  "Traditional Chinese (Taiwan)",
		Dates:     "Jan 9, 2026 to Jan 12, 2026",
		Outbound: Flight{
			Code: "FD230", Airline: "泰國亞航 (AirAsia)",
			From: "TPE 台灣桃園國際機場 T1", To: "OKA 那霸機場 I",
			Departs: "2026-01-09T13:25", Arrives: "2026-01-09T15:55",
			Headline: "Arrive Okinawa 15:55 on Jan 9",
		},
		Inbound: Flight{
			Code: "FD231", Airline: "泰國亞航 (AirAsia)",
			From: "OKA 那霸機場 I", To: "TPE 台灣桃園國際機場 T1",
			Departs: "2026-01-12T16:55", Arrives: "2026-01-12T17:35",
			Headline: "Depart Okinawa 16:55 on Jan 12",
		},
		Accommodation:  "Naha city center (Kokusai Dori area)",
		Transportation: "Yui Rail (Monorail) and Walking ONLY. No car rental.",
		Focus:          "Food, sightseeing, and relaxation.",
		Welcome:        "你好！我是你的沖繩旅遊助手。我可以幫你修改行程、查詢美食。試試看說：「把第一天的晚餐改成燒肉」",
	}
}

// LoadTripContext reads a YAML trip context from path on top of the defaults.
// An empty path returns the defaults.
func LoadTripContext(path string) (TripContext, error) {
	tc := DefaultTripContext()
	if path == "" {
		return tc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return TripContext{}, fmt.Errorf("chat.LoadTripContext: %w", err)
	}
	if err := yaml.Unmarshal(data, &tc); err != nil {
		return TripContext{}, fmt.Errorf("chat.LoadTripContext: parse %s: %w", path, err)
	}
	return tc, nil
}

// SystemPrompt renders the system instruction for one turn: the travel
// constraints, how to use the tool, and the current draft as compact JSON so the
// model can address days and activity titles that actually exist.
func (tc TripContext) SystemPrompt(draft domain.Itinerary) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	b.WriteString(tc.Assistant + "\n")
	line("Language", tc.Language)
	line("Travel Dates", tc.Dates)
	line("Outbound", flightLine(tc.Outbound))
	line("Inbound", flightLine(tc.Inbound))
	line("Accommodation", tc.Accommodation)
	line("Transportation Mode within the destination", tc.Transportation)
	line("Focus", tc.Focus)

	fmt.Fprintf(&b, "\nYou can help users update their itinerary using the `%s` tool. ", ToolName)
	b.WriteString("To change an existing activity, set activityTitleToFind to part of its title; ")
	b.WriteString("leave it empty to add a new activity. Be helpful and enthusiastic.\n")

	if body, err := json.Marshal(draft); err == nil {
		b.WriteString("\nCurrent itinerary (JSON):\n")
		b.Write(body)
		b.WriteString("\n")
	}
	return b.String()
}

func flightLine(f Flight) string {
	if f.Headline != "" && f.Code != "" {
		return fmt.Sprintf("%s (%s %s)", f.Headline, f.Airline, f.Code)
	}
	if f.Headline != "" {
		return f.Headline
	}
	if f.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s %s, %s %s → %s %s", f.Airline, f.Code, f.From, f.Departs, f.To, f.Arrives)
}
