package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientMessageUnmarshal(t *testing.T) {
	tt := []struct {
		name  string
		raw   string
		check func(t *testing.T, msg *ClientMessage)
	}{
		{
			name: "join",
			raw:  `{"id":1,"join":{"room_id":"R1","display_name":"Alice"}}`,
			check: func(t *testing.T, msg *ClientMessage) {
				assert.Equal(t, 1, msg.Id)
				assert.NotNil(t, msg.Join)
				assert.Equal(t, "R1", msg.Join.RoomId)
				assert.Equal(t, "Alice", msg.Join.DisplayName)
			},
		},
		{
			name: "code edit",
			raw:  `{"code_edit":{"room_id":"R1","code":"print(1)"}}`,
			check: func(t *testing.T, msg *ClientMessage) {
				assert.NotNil(t, msg.CodeEdit)
				assert.Equal(t, "print(1)", msg.CodeEdit.Code)
			},
		},
		{
			name: "language switch",
			raw:  `{"language_switch":{"room_id":"R1","language":"python"}}`,
			check: func(t *testing.T, msg *ClientMessage) {
				assert.NotNil(t, msg.LanguageSwitch)
				assert.Equal(t, "python", msg.LanguageSwitch.Language)
			},
		},
		{
			name: "chat",
			raw:  `{"chat":{"room_id":"R1","content":"hi","display_name":"Alice"}}`,
			check: func(t *testing.T, msg *ClientMessage) {
				assert.NotNil(t, msg.Chat)
				assert.Equal(t, "hi", msg.Chat.Content)
			},
		},
		{
			name: "unknown event leaves envelope empty",
			raw:  `{"id":7,"frobnicate":{"room_id":"R1"}}`,
			check: func(t *testing.T, msg *ClientMessage) {
				assert.Equal(t, 7, msg.Id)
				assert.Nil(t, msg.Join)
				assert.Nil(t, msg.Leave)
				assert.Nil(t, msg.CodeEdit)
				assert.Nil(t, msg.LanguageSwitch)
				assert.Nil(t, msg.Chat)
				assert.Nil(t, msg.ExecutionResult)
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var msg ClientMessage
			err := json.Unmarshal([]byte(tc.raw), &msg)
			assert.NoError(t, err)
			tc.check(t, &msg)
		})
	}
}

func TestServerMessageMarshalOmitsUnsetEvents(t *testing.T) {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		CodeUpdate:  &CodeUpdate{Code: "x"},
	}

	bytes, err := json.Marshal(msg)
	assert.NoError(t, err)

	decoded := make(map[string]json.RawMessage)
	assert.NoError(t, json.Unmarshal(bytes, &decoded))

	assert.Contains(t, decoded, "code_update")
	assert.Contains(t, decoded, "timestamp")
	assert.NotContains(t, decoded, "member_joined")
	assert.NotContains(t, decoded, "chat")
	assert.NotContains(t, decoded, "response")
	assert.NotContains(t, decoded, "id", "expected zero id to be omitted")
}

func TestErrNotInRoom(t *testing.T) {
	msg := ErrNotInRoom(3)

	assert.Equal(t, 3, msg.Id)
	assert.NotNil(t, msg.Response)
	assert.Equal(t, 403, msg.Response.ResponseCode)
	assert.NotEmpty(t, msg.Response.Error)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestErrInvalidMessage(t *testing.T) {
	t.Run("positive id is echoed", func(t *testing.T) {
		msg := ErrInvalidMessage(5)
		assert.Equal(t, 5, msg.Id)
		assert.Equal(t, 400, msg.Response.ResponseCode)
	})

	t.Run("unparseable message has no id to echo", func(t *testing.T) {
		msg := ErrInvalidMessage(-1)
		assert.Zero(t, msg.Id)
		assert.Equal(t, 400, msg.Response.ResponseCode)
	})
}

func TestErrServiceUnavailable(t *testing.T) {
	msg := ErrServiceUnavailable(9)

	assert.Equal(t, 9, msg.Id)
	assert.Equal(t, 503, msg.Response.ResponseCode)
}

func TestNow(t *testing.T) {
	now := Now()

	assert.Equal(t, now, now.Round(time.Millisecond), "expected millisecond precision")
	assert.Equal(t, time.UTC, now.Location())
}
