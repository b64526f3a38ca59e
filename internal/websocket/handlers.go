package websocket

import (
	"context"
	stderrors "errors"

	"codeberg.org/moodcanvas/server/internal/canvas"
	"codeberg.org/moodcanvas/server/internal/errors"
	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/internal/mood"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// chat messages replayed to a joining client
const sessionStateHistoryLimit = 100

// the registry operations the gateway drives
type SessionStore interface {
	JoinSession(sessionID, userID string) (*sessions.View, error)
	LeaveSession(sessionID, userID string) ([]string, error)
	Messages(sessionID string, limit int) ([]sessions.ChatMessage, error)
	AppendChat(ctx context.Context, sessionID, userID, text, replyTo string) (*sessions.ChatResult, error)
	MessageSession(messageID string) (string, error)
	ToggleReaction(messageID, emoji, userID string) (*sessions.ChatMessage, error)
	PushCanvasSnapshot(sessionID string, snapshot canvas.Snapshot) (canvas.Snapshot, error)
	Undo(sessionID string) (canvas.Snapshot, error)
	Redo(sessionID string) (canvas.Snapshot, error)
	OnMoodUpdate(fn func(sessionID string, state mood.State))
}

// wires every message type to the store, and makes asynchronous mood
// updates and disconnects reach the session's clients
func RegisterSessionHandlers(hub *Hub, store SessionStore) {
	hub.RegisterHandler(TypeJoin, JoinHandler(store))
	hub.RegisterHandler(TypeChat, ChatHandler(store))
	hub.RegisterHandler(TypeCanvasUpdate, CanvasUpdateHandler(store))
	hub.RegisterHandler(TypeUndo, HistoryHandler(store.Undo))
	hub.RegisterHandler(TypeRedo, HistoryHandler(store.Redo))
	hub.RegisterHandler(TypeReaction, ReactionHandler(store))
	hub.RegisterHandler(TypePing, PingHandler())

	store.OnMoodUpdate(func(sessionID string, state mood.State) {
		hub.inOrder(func() {
			broadcast(hub, sessionID, "", TypeMoodUpdate, "", moodPayload(state))
		})
	})

	hub.OnClientDisconnect(func(client *Client) {
		leave(hub, store, client.SessionID(), client.UserID())
	})
}

// handles join messages
func JoinHandler(store SessionStore) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		var payload JoinPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse join", err.Error())
			return err
		}

		sessionID := firstNonEmpty(payload.SessionID, msg.SessionID)
		userID := firstNonEmpty(payload.UserID, msg.UserID)

		if sessionID == "" {
			client.SendError(errors.CodeInvalidInput, "session_id is required", "")
			return ErrInvalidMessage
		}

		view, err := store.JoinSession(sessionID, userID)
		if err != nil {
			return reportStoreError(client, err)
		}

		prevSession, prevUser := client.SessionID(), client.UserID()
		hub.JoinSession(client, sessionID, userID)

		if prevSession != "" && (prevSession != sessionID || prevUser != userID) {
			leave(hub, store, prevSession, prevUser)
		}

		history, err := store.Messages(sessionID, sessionStateHistoryLimit)
		if err != nil {
			return reportStoreError(client, err)
		}

		chatHistory := make([]ChatMessagePayload, len(history))
		for i, m := range history {
			chatHistory[i] = chatPayload(m)
		}

		stateMsg, err := NewMessage(TypeSessionState, sessionID, userID, SessionStatePayload{
			SessionID:    view.ID,
			Name:         view.Name,
			Canvas:       view.Canvas,
			CanUndo:      view.CanUndo,
			CanRedo:      view.CanRedo,
			Mood:         moodPayload(view.Mood),
			Participants: view.Participants,
			ChatHistory:  chatHistory,
		})
		if err != nil {
			client.SendError(errors.CodeServerError, "failed to build session state", err.Error())
			return err
		}

		if err := client.Send(stateMsg); err != nil {
			return err
		}

		logger.Info("client joined session",
			"client_id", client.ID,
			"session_id", sessionID,
			"user_id", userID,
		)

		broadcast(hub, sessionID, "", TypeParticipantsChanged, userID, ParticipantsChangedPayload{
			UserID:       userID,
			Participants: view.Participants,
		})

		return nil
	}
}

// handles chat messages: the stored message goes out first, then the mood
func ChatHandler(store SessionStore) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		if !client.checkChatRateLimit() {
			client.SendError(errors.CodeTooManyRequests, "too many chat messages. maximum 20 per minute.", "")
			return ErrRateLimitExceeded
		}

		var payload ChatPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse chat message", err.Error())
			return err
		}

		ctx := logger.WithContext(context.Background(), logger.With(
			"client_id", client.ID,
			"session_id", msg.SessionID,
		))

		var err error
		hub.inOrder(func() {
			var result *sessions.ChatResult
			result, err = store.AppendChat(ctx, msg.SessionID, msg.UserID, payload.Text, payload.ReplyTo)
			if err != nil {
				return
			}

			broadcast(hub, msg.SessionID, "", TypeChatMessage, msg.UserID, chatPayload(result.Message))
			broadcast(hub, msg.SessionID, "", TypeMoodUpdate, "", moodPayload(result.Mood))
		})
		if err != nil {
			return reportStoreError(client, err)
		}

		return nil
	}
}

// handles canvas updates; the sender already has the state it sent
func CanvasUpdateHandler(store SessionStore) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		if !client.checkCanvasUpdateRateLimit() {
			client.SendError(errors.CodeTooManyRequests, "too many canvas updates. maximum 30 per second.", "")
			return ErrRateLimitExceeded
		}

		var payload CanvasUpdatePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse canvas update", err.Error())
			return err
		}

		snapshot, err := store.PushCanvasSnapshot(msg.SessionID, payload.Elements)
		if err != nil {
			return reportStoreError(client, err)
		}

		broadcast(hub, msg.SessionID, client.ID, TypeCanvasUpdate, msg.UserID, CanvasUpdatePayload{Elements: snapshot})

		return nil
	}
}

// handles undo and redo; everyone, including the sender, gets the new canvas
func HistoryHandler(move func(sessionID string) (canvas.Snapshot, error)) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		if !client.checkCanvasUpdateRateLimit() {
			client.SendError(errors.CodeTooManyRequests, "too many canvas updates. maximum 30 per second.", "")
			return ErrRateLimitExceeded
		}

		snapshot, err := move(msg.SessionID)
		if err != nil {
			return reportStoreError(client, err)
		}

		broadcast(hub, msg.SessionID, "", TypeCanvasUpdate, msg.UserID, CanvasUpdatePayload{Elements: snapshot})

		return nil
	}
}

// handles reaction toggles on messages of the client's session
func ReactionHandler(store SessionStore) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		var payload ReactionPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse reaction", err.Error())
			return err
		}

		owner, err := store.MessageSession(payload.MessageID)
		if err == nil && owner != msg.SessionID {
			err = sessions.ErrMessageNotFound
		}
		if err != nil {
			return reportStoreError(client, err)
		}

		updated, err := store.ToggleReaction(payload.MessageID, payload.Emoji, msg.UserID)
		if err != nil {
			return reportStoreError(client, err)
		}

		broadcast(hub, msg.SessionID, "", TypeReactionUpdated, msg.UserID, ReactionUpdatedPayload{
			MessageID: updated.ID,
			Reactions: updated.Reactions,
		})

		return nil
	}
}

// handles ping messages
func PingHandler() MessageHandler {
	return func(_ *Hub, client *Client, msg *Message) error {
		pong, err := NewMessage(TypePong, client.SessionID(), client.UserID(), struct{}{})
		if err != nil {
			return err
		}

		return client.Send(pong)
	}
}

// removes the user from the session and tells whoever is left
func leave(hub *Hub, store SessionStore, sessionID, userID string) {
	if sessionID == "" {
		return
	}

	remaining, err := store.LeaveSession(sessionID, userID)
	if err != nil {
		if !stderrors.Is(err, sessions.ErrNotFound) {
			logger.ErrorErr(err, "failed to leave session",
				"session_id", sessionID,
				"user_id", userID,
			)
		}
		return
	}

	if len(remaining) == 0 {
		return
	}

	broadcast(hub, sessionID, "", TypeParticipantsChanged, userID, ParticipantsChangedPayload{
		UserID:       userID,
		Participants: remaining,
	})
}

func broadcast(hub *Hub, sessionID, excludeClientID, msgType, userID string, payload any) {
	msg, err := NewMessage(msgType, sessionID, userID, payload)
	if err != nil {
		logger.ErrorErr(err, "failed to create broadcast message",
			"session_id", sessionID,
			"message_type", msgType,
		)
		return
	}

	hub.BroadcastToSession(sessionID, msg, excludeClientID)
}

// reports a registry error to the originating client only
func reportStoreError(client *Client, err error) error {
	d := errors.Describe(err)

	switch d.Kind {
	case errors.CodeNotFound:
		client.SendError(d.Kind, err.Error(), "")
	case errors.CodeServerError:
		logger.ErrorErr(err, "session operation failed",
			"client_id", client.ID,
			"session_id", client.SessionID(),
		)
		client.SendError(d.Kind, "failed to process message", err.Error())
	default:
		client.SendError(d.Kind, d.Message, err.Error())
	}

	return err
}

func chatPayload(m sessions.ChatMessage) ChatMessagePayload {
	return ChatMessagePayload{
		ID:        m.ID,
		UserID:    m.UserID,
		Text:      m.Text,
		Timestamp: m.Timestamp.UnixMilli(),
		ReplyTo:   m.ReplyTo,
		Reactions: m.Reactions,
	}
}

func moodPayload(state mood.State) MoodUpdatePayload {
	return MoodUpdatePayload{
		Kind:      string(state.Kind),
		Intensity: state.Intensity,
		Timestamp: state.Timestamp.UnixMilli(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

