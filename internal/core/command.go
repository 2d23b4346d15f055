package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin subscribes the connection to a room and replays history.
	CommandJoin CommandKind = iota
	// CommandLeave unsubscribes the connection from its current room.
	CommandLeave
	// CommandSend delivers a chat message to the current room.
	CommandSend
	// CommandEdit overwrites the body of a message the sender authored.
	CommandEdit
	// CommandDelete removes a message the sender authored.
	CommandDelete
)

// Command represents an action requested by a connection. Commands are
// processed strictly in the order a connection submitted them.
type Command struct {
	Kind      CommandKind
	Room      RoomID
	Identity  Identity
	Body      string
	MessageID string
}
