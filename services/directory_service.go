//go:generate go run go.uber.org/mock/mockgen -source=directory_service.go -destination=../mocks/mock_directory_service.go -package=mocks
package services

import (
	"textnest/domain"
	"textnest/repositories"
)

// IDirectoryService is the read-side surface of the REST edge: who exists and
// what was said.
type IDirectoryService interface {
	ListUsers() ([]string, error)
	History(party string) ([]domain.Message, error)
}

type DirectoryService struct {
	users    repositories.IUserRepository
	messages repositories.IMessageRepository
}

func NewDirectoryService(users repositories.IUserRepository,
	messages repositories.IMessageRepository) IDirectoryService {
	return &DirectoryService{users: users, messages: messages}
}

func (s *DirectoryService) ListUsers() ([]string, error) {
	return s.users.ListUsernames()
}

// History returns every message involving party, oldest first. The party may
// be a username or a group id; the store keys both the same way.
func (s *DirectoryService) History(party string) ([]domain.Message, error) {
	return s.messages.MessagesInvolving(party)
}
