package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady       = "ready"
	MsgPong        = "pong"
	MsgPrice       = "price"
	MsgLeaderboard = "leaderboard"
	MsgError       = "error"
)
