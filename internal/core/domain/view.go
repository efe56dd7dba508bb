package domain

// Region is a display region addressed by its element id.
type Region string

const (
	RegionUploadStatus Region = "uploadStatus"
	RegionChatBox      Region = "chatBox"
	RegionReport       Region = "report"
)

// Control is a button whose disabled flag drives one action's state machine.
type Control string

const (
	ControlUpload Control = "uploadBtn"
	ControlAsk    Control = "askBtn"
	ControlReport Control = "reportBtn"
)

const (
	InputFiles    = "fileInput"
	InputQuestion = "questionInput"
)

// Action names one of the independent request flows.
type Action string

const (
	ActionUpload Action = "upload"
	ActionAsk    Action = "ask"
	ActionReport Action = "report"
)

func (a Action) Control() Control {
	switch a {
	case ActionUpload:
		return ControlUpload
	case ActionAsk:
		return ControlAsk
	default:
		return ControlReport
	}
}

type BlockKind string

const (
	BlockUser        BlockKind = "user"
	BlockAssistant   BlockKind = "assistant"
	BlockPlaceholder BlockKind = "placeholder"
	BlockSource      BlockKind = "source"
)

// Block is one transcript entry. Body is already HTML-escaped; views that
// render markup must insert it as-is and views that print text unescape it.
type Block struct {
	ID   string    `json:"id,omitempty"`
	Kind BlockKind `json:"kind"`
	Body string    `json:"body"`
}

const (
	LabelUser      = "You:"
	LabelAssistant = "Assistant:"
)
