package types

import (
	"time"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id           int       `json:"id"`
	RoomId       string    `json:"room_id"`
	OwnerId      int       `json:"owner_id"`
	Participants []User    `json:"participants,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type CodeDocument struct {
	Id        int       `json:"id"`
	RoomId    string    `json:"room_id"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExecutionResult struct {
	Output string `json:"output"`
	Status string `json:"status"`
}
