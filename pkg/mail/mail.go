package mail

// Message is a plain outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// Sender delivers messages fire-and-forget. Implementations must not block
// the caller on network I/O.
type Sender interface {
	Send(msg Message)
}
