package discord

type SystemEventType string

const (
	SystemEventRefreshCommands SystemEventType = "refresh_commands"
)

// SystemEvent asks the running bot to do something outside a handler.
// Target is "all", a command name, or "group:<name>".
type SystemEvent struct {
	Type    SystemEventType
	GuildID string
	Target  string
}

var systemEventBus = make(chan SystemEvent, 16)

// PublishSystemEvent never blocks; events beyond the buffer are dropped.
func PublishSystemEvent(evt SystemEvent) bool {
	select {
	case systemEventBus <- evt:
		return true
	default:
		return false
	}
}

func SystemEvents() <-chan SystemEvent {
	return systemEventBus
}
