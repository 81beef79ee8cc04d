package database

type CollabRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (Account, error)
	UpdateAccount(params UpdateAccountParams) (Account, error)
	GetAccountById(accountId int) (Account, error)
	GetAccountByEmail(email string) (Account, error)
	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomByRoomId(roomId string) (Room, error)
	GetRoomWithParticipants(roomId string) (*Room, error)
	DeleteRoom(id int) error
	AddParticipant(roomDbId, accountId int) error
	IsParticipant(roomDbId, accountId int) bool
	GetCodeDocument(roomId string) (CodeDocument, error)
	CreateCodeDocument(params SaveCodeParams) (CodeDocument, error)
	UpdateCodeDocument(params SaveCodeParams) (CodeDocument, error)
	DeleteCodeDocuments(roomId string) error
	ListCodeDocumentsForAccount(accountId int) ([]CodeDocument, error)
}
