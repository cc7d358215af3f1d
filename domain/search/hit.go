package search

// Hit is one search result over the local message cache.
type Hit struct {
	MessageID string
	PeerID    string
	SenderID  string
	Content   string
}
