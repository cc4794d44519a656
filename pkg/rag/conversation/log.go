package conversation

import "strings"

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DefaultWindow is the number of trailing turns fed back into prompts.
const DefaultWindow = 6

// Turn is one utterance in a conversation. Turns are never edited once appended.
type Turn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Log is an append-only record of a session's turns.
// It is not safe for concurrent use; callers hold the owning session's lock.
type Log struct {
	turns []Turn
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(t Turn) {
	l.turns = append(l.turns, t)
}

func (l *Log) AppendUser(text string) {
	l.Append(Turn{Sender: SenderUser, Text: text})
}

func (l *Log) AppendBot(text string) {
	l.Append(Turn{Sender: SenderBot, Text: text})
}

func (l *Log) Len() int {
	return len(l.turns)
}

// Turns returns a copy of every turn in order.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Window renders the last n turns as "sender: text" lines. Fewer than n
// turns renders all of them; an empty log renders "".
func (l *Log) Window(n int) string {
	if n <= 0 || len(l.turns) == 0 {
		return ""
	}
	start := len(l.turns) - n
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(l.turns)-start)
	for _, t := range l.turns[start:] {
		lines = append(lines, string(t.Sender)+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

// Reset drops every turn.
func (l *Log) Reset() {
	l.turns = nil
}
