package database

import "time"

type Account struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id           int
	RoomId       string
	OwnerId      int
	CreatedAt    time.Time
	Participants []Participant
}

type Participant struct {
	AccountId int
	Username  string
	JoinedAt  time.Time
}

type CodeDocument struct {
	Id        int
	RoomId    string
	Code      string
	Language  string
	UpdatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type UpdateAccountParams struct {
	AccountId    int
	Username     string
	PasswordHash string
}

type CreateRoomParams struct {
	RoomId  string
	OwnerId int
}

type SaveCodeParams struct {
	RoomId   string
	Code     string
	Language string
}
