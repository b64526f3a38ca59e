package websocket

// optional query parameters; when both are set the connection joins the
// session right away instead of waiting for a join message
type ConnectParams struct {
	SessionID string `form:"session_id" binding:"omitempty,max=100"`
	UserID    string `form:"user_id" binding:"omitempty,max=100"`
}
