package engine

import (
	"encoding/json"
	"strings"
)

// Event is one inbound technician action. The set is closed: Text, Choice,
// Photo and Command.
type Event interface {
	isEvent()
}

// Text is a typed message.
type Text struct {
	Body string
}

// Choice is a button press.
type Choice struct {
	Action ChoiceAction
	Value  string
}

// Photo is an uploaded image, already downloaded by the transport.
type Photo struct {
	Data []byte
}

// Command is a slash command such as /start.
type Command struct {
	Name string
}

func (Text) isEvent()    {}
func (Choice) isEvent()  {}
func (Photo) isEvent()   {}
func (Command) isEvent() {}

// ChoiceAction identifies what a button does.
type ChoiceAction string

const (
	ActionDate       ChoiceAction = "date"
	ActionManualDate ChoiceAction = "manual-date"
	ActionKind       ChoiceAction = "kind"
	ActionEquipment  ChoiceAction = "equip"
	ActionShift      ChoiceAction = "shift"
	ActionPass       ChoiceAction = "ok"
	ActionFail       ChoiceAction = "nok"
	ActionSkip       ChoiceAction = "skip"
	ActionCategory   ChoiceAction = "cat"

	// ActionUnknown marks a token that did not parse.
	ActionUnknown ChoiceAction = "?"
)

var knownActions = map[ChoiceAction]bool{
	ActionDate:       true,
	ActionManualDate: true,
	ActionKind:       true,
	ActionEquipment:  true,
	ActionShift:      true,
	ActionPass:       true,
	ActionFail:       true,
	ActionSkip:       true,
	ActionCategory:   true,
}

// Encode renders the choice as the token carried by transport buttons.
func (c Choice) Encode() string {
	if c.Value == "" {
		return string(c.Action)
	}
	return string(c.Action) + ":" + c.Value
}

// ParseChoice decodes a button token. Tokens that do not parse become an
// ActionUnknown choice so the engine can answer "not recognized".
func ParseChoice(token string) Choice {
	token = strings.TrimSpace(token)
	action, value, _ := strings.Cut(token, ":")
	if !knownActions[ChoiceAction(action)] {
		return Choice{Action: ActionUnknown, Value: token}
	}
	return Choice{Action: ChoiceAction(action), Value: value}
}

// MarshalJSON encodes the choice as its token.
func (c Choice) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Encode())
}

// UnmarshalJSON decodes a token produced by MarshalJSON.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}
	*c = ParseChoice(token)
	return nil
}

// ParseCommand turns "/start@bot args" or "start" into a Command.
func ParseCommand(raw string) Command {
	name := strings.TrimPrefix(strings.TrimSpace(raw), "/")
	if i := strings.IndexAny(name, " @"); i >= 0 {
		name = name[:i]
	}
	return Command{Name: strings.ToLower(name)}
}

// Button is one inline button of a reply.
type Button struct {
	Label  string `json:"label"`
	Choice Choice `json:"choice"`
}

// Reply is one outbound message. Document, when set, is a file path to deliver.
type Reply struct {
	Text     string     `json:"text"`
	Buttons  [][]Button `json:"buttons,omitempty"`
	Document string     `json:"document,omitempty"`
}

func say(msg string) Reply {
	return Reply{Text: msg}
}

func row(buttons ...Button) []Button {
	return buttons
}

func button(label string, action ChoiceAction, value string) Button {
	return Button{Label: label, Choice: Choice{Action: action, Value: value}}
}
