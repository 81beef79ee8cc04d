package server

import (
	"net/http"
	"time"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope for every client-to-server relay event.
// Exactly one of the event fields is expected to be set.
type ClientMessage struct {
	BaseMessage
	Join            *Join            `json:"join,omitempty"`
	Leave           *Leave           `json:"leave,omitempty"`
	CodeEdit        *CodeEdit        `json:"code_edit,omitempty"`
	LanguageSwitch  *LanguageSwitch  `json:"language_switch,omitempty"`
	Chat            *Chat            `json:"chat,omitempty"`
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty"`
	client          *Client
}

type Join struct {
	RoomId      string `json:"room_id"`
	DisplayName string `json:"display_name"`
}

type Leave struct {
	RoomId string `json:"room_id"`
}

type CodeEdit struct {
	RoomId string `json:"room_id"`
	Code   string `json:"code"`
}

type LanguageSwitch struct {
	RoomId   string `json:"room_id"`
	Language string `json:"language"`
}

// Chat carries the client-supplied timestamp through unchanged; the server
// fills ConnectionId on the echo.
type Chat struct {
	RoomId       string    `json:"room_id"`
	Content      string    `json:"content"`
	DisplayName  string    `json:"display_name"`
	Timestamp    time.Time `json:"timestamp"`
	ConnectionId string    `json:"connection_id,omitempty"`
}

type ExecutionResult struct {
	RoomId string `json:"room_id"`
	Output string `json:"output"`
}

// ServerMessage is the envelope for every server-to-client event.
type ServerMessage struct {
	BaseMessage
	Response        *Response        `json:"response,omitempty"`
	MemberJoined    *MemberJoined    `json:"member_joined,omitempty"`
	MemberList      *MemberList      `json:"member_list,omitempty"`
	MemberLeft      *MemberLeft      `json:"member_left,omitempty"`
	CodeUpdate      *CodeUpdate      `json:"code_update,omitempty"`
	LanguageUpdate  *LanguageUpdate  `json:"language_update,omitempty"`
	Chat            *Chat            `json:"chat,omitempty"`
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type MemberJoined struct {
	RoomId       string   `json:"room_id"`
	DisplayName  string   `json:"display_name"`
	ConnectionId string   `json:"connection_id"`
	Members      []string `json:"members"`
}

// MemberList is sent only to a newly joined connection.
type MemberList struct {
	RoomId  string   `json:"room_id"`
	Members []string `json:"members"`
}

type MemberLeft struct {
	RoomId       string   `json:"room_id"`
	DisplayName  string   `json:"display_name"`
	ConnectionId string   `json:"connection_id"`
	Members      []string `json:"members"`
}

type CodeUpdate struct {
	Code string `json:"code"`
}

type LanguageUpdate struct {
	Language string `json:"language"`
}

func ErrNotInRoom(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusForbidden,
			Error:        "not a member of room",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
