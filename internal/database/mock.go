package database

import (
	"github.com/stretchr/testify/mock"
)

type MockCollabRepository struct {
	mock.Mock
}

func (m *MockCollabRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockCollabRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCollabRepository) UpdateAccount(params UpdateAccountParams) (Account, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCollabRepository) GetAccountById(accountId int) (Account, error) {
	args := m.Called(accountId)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCollabRepository) GetAccountByEmail(email string) (Account, error) {
	args := m.Called(email)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCollabRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCollabRepository) GetRoomByRoomId(roomId string) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCollabRepository) GetRoomWithParticipants(roomId string) (*Room, error) {
	args := m.Called(roomId)
	if room, ok := args.Get(0).(*Room); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockCollabRepository) DeleteRoom(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockCollabRepository) AddParticipant(roomDbId, accountId int) error {
	args := m.Called(roomDbId, accountId)
	return args.Error(0)
}
func (m *MockCollabRepository) IsParticipant(roomDbId, accountId int) bool {
	args := m.Called(roomDbId, accountId)
	return args.Bool(0)
}
func (m *MockCollabRepository) GetCodeDocument(roomId string) (CodeDocument, error) {
	args := m.Called(roomId)
	return args.Get(0).(CodeDocument), args.Error(1)
}
func (m *MockCollabRepository) CreateCodeDocument(params SaveCodeParams) (CodeDocument, error) {
	args := m.Called(params)
	return args.Get(0).(CodeDocument), args.Error(1)
}
func (m *MockCollabRepository) UpdateCodeDocument(params SaveCodeParams) (CodeDocument, error) {
	args := m.Called(params)
	return args.Get(0).(CodeDocument), args.Error(1)
}
func (m *MockCollabRepository) DeleteCodeDocuments(roomId string) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockCollabRepository) ListCodeDocumentsForAccount(accountId int) ([]CodeDocument, error) {
	args := m.Called(accountId)
	return args.Get(0).([]CodeDocument), args.Error(1)
}
