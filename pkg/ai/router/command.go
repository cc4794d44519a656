package router

import "strings"

// Command is a mode-switch keyword found in a chat message.
type Command int

const (
	CommandNone Command = iota
	// CommandExit returns the session to general legal mode.
	CommandExit
	// CommandReturnToDocument switches back to the uploaded document.
	CommandReturnToDocument
)

// Keywords are matched as case-insensitive substrings. Exit is checked first,
// so a message containing both switches to general mode.
const (
	KeywordExit             = "exit"
	KeywordReturnToDocument = "return to pdf"
)

func (c Command) String() string {
	switch c {
	case CommandExit:
		return "exit"
	case CommandReturnToDocument:
		return "return_to_document"
	default:
		return "none"
	}
}

// ParseCommand finds a mode command anywhere in msg.
func ParseCommand(msg string) Command {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, KeywordExit):
		return CommandExit
	case strings.Contains(lower, KeywordReturnToDocument):
		return CommandReturnToDocument
	default:
		return CommandNone
	}
}
