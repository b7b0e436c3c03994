package data

type MessageLevel string

const (
	MessageInfo    MessageLevel = "info"
	MessageSuccess MessageLevel = "success"
	MessageWarning MessageLevel = "warning"
	MessageError   MessageLevel = "error"
)

// Message is a flash notification, shown once on the next rendered page.
type Message struct {
	Level MessageLevel
	Text  string
}
