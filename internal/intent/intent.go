package intent

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of conversation context handed to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Action is the operation the model resolved from the conversation.
type Action string

const (
	ActionNone           Action = "none"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionUnsubscribe    Action = "unsubscribe"
	ActionLookup         Action = "lookup"
	ActionFeatureRequest Action = "feature_request"
)

// ParseAction maps the model's action string (possibly null/empty) onto the enum.
// Unknown values degrade to ActionNone so a hallucinated action never dispatches.
func ParseAction(raw string) Action {
	switch Action(raw) {
	case ActionCreate, ActionUpdate, ActionUnsubscribe, ActionLookup, ActionFeatureRequest:
		return Action(raw)
	default:
		return ActionNone
	}
}

// Result is the extractor's output for a single inbound message. Data holds
// whatever subscriber fields the model pulled out of the text (possibly
// partial); Needs is the model's advisory list of what is still missing.
type Result struct {
	Reply  string
	Action Action
	Data   map[string]any
	Needs  []string
}
