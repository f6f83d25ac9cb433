package dialogue

// ReplyKind tags a Reply variant.
type ReplyKind int

const (
	// KindText is a plain message.
	KindText ReplyKind = iota
	// KindQuestion is a quiz question with answer choices.
	KindQuestion
	// KindMenu is a prompt with selectable choices.
	KindMenu
)

func (k ReplyKind) String() string {
	switch k {
	case KindQuestion:
		return "question"
	case KindMenu:
		return "menu"
	default:
		return "text"
	}
}

// Choice is one selectable option. With Key set, tapping it sends the postback
// Key|Payload; otherwise it sends Text (Label when Text is empty) as a message.
type Choice struct {
	Label   string
	Text    string
	Key     string
	Payload string
}

// IsPostback reports whether the choice sends postback data.
func (c Choice) IsPostback() bool {
	return c.Key != ""
}

// Message returns the text sent when a non-postback choice is tapped.
func (c Choice) Message() string {
	if c.Text != "" {
		return c.Text
	}
	return c.Label
}

// Reply is a platform-independent outbound message.
type Reply struct {
	Kind    ReplyKind
	Text    string
	Choices []Choice
}

// PlainText builds a text reply.
func PlainText(text string) Reply {
	return Reply{Kind: KindText, Text: text}
}

// QuestionPrompt builds a quiz question reply.
func QuestionPrompt(text string, choices []Choice) Reply {
	return Reply{Kind: KindQuestion, Text: text, Choices: choices}
}

// MenuPrompt builds a menu reply.
func MenuPrompt(text string, choices []Choice) Reply {
	return Reply{Kind: KindMenu, Text: text, Choices: choices}
}
