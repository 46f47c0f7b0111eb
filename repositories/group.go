//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"textnest/domain"
	"textnest/errors"
)

const (
	groupIDKeyPrefix   = "group:id:"
	groupNameKeyPrefix = "group:name:"
)

type IGroupRepository interface {
	CreateGroup(group domain.Group) error
	AddMember(groupName, username string) (domain.Group, error)
	GetGroupByID(id domain.GroupID) (domain.Group, error)
	GetGroupByName(name string) (domain.Group, error)
}

// GroupRepository stores each group under two keys: the record itself under
// its id, and a name marker pointing at the id. The marker doubles as the
// uniqueness guard for human-chosen group names.
type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) IGroupRepository {
	return &GroupRepository{db: db}
}

type diskGroup struct {
	ID      string   `json:"group_id"`
	Name    string   `json:"group_name"`
	Members []string `json:"members"`
}

func (r *GroupRepository) CreateGroup(group domain.Group) error {
	data, err := json.Marshal(fromGroup(group))
	if err != nil {
		return fmt.Errorf("marshal group: %w", err)
	}

	nameKey := []byte(groupNameKeyPrefix + group.Name)
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrGroupNameTaken
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey, []byte(group.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(groupIDKeyPrefix+string(group.ID)), data)
	})
}

// AddMember performs a set-union add of username inside one transaction.
// Badger aborts conflicting read-modify-write transactions, so concurrent
// joins to the same group are retried rather than losing an update.
func (r *GroupRepository) AddMember(groupName, username string) (domain.Group, error) {
	for {
		group, err := r.addMemberOnce(groupName, username)
		if stderrors.Is(err, badger.ErrConflict) {
			continue
		}
		return group, err
	}
}

func (r *GroupRepository) addMemberOnce(groupName, username string) (domain.Group, error) {
	var updated domain.Group

	err := r.db.Update(func(txn *badger.Txn) error {
		stored, err := groupByName(txn, groupName)
		if err != nil {
			return err
		}

		updated = toGroup(stored).WithMember(username)
		data, err := json.Marshal(fromGroup(updated))
		if err != nil {
			return fmt.Errorf("marshal group: %w", err)
		}
		return txn.Set([]byte(groupIDKeyPrefix+string(updated.ID)), data)
	})
	if err != nil {
		return domain.Group{}, err
	}

	return updated, nil
}

func (r *GroupRepository) GetGroupByID(id domain.GroupID) (domain.Group, error) {
	var stored diskGroup

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		stored, err = groupValue(txn, []byte(groupIDKeyPrefix+string(id)))
		return err
	})
	if err != nil {
		return domain.Group{}, err
	}

	return toGroup(stored), nil
}

func (r *GroupRepository) GetGroupByName(name string) (domain.Group, error) {
	var stored diskGroup

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		stored, err = groupByName(txn, name)
		return err
	})
	if err != nil {
		return domain.Group{}, err
	}

	return toGroup(stored), nil
}

// groupByName resolves the name marker, then loads the record it points at.
func groupByName(txn *badger.Txn, name string) (diskGroup, error) {
	item, err := txn.Get([]byte(groupNameKeyPrefix + name))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return diskGroup{}, errors.ErrGroupNotFound
		}
		return diskGroup{}, err
	}

	var id []byte
	if id, err = item.ValueCopy(nil); err != nil {
		return diskGroup{}, err
	}
	return groupValue(txn, append([]byte(groupIDKeyPrefix), id...))
}

func groupValue(txn *badger.Txn, key []byte) (diskGroup, error) {
	item, err := txn.Get(key)
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return diskGroup{}, errors.ErrGroupNotFound
		}
		return diskGroup{}, err
	}

	var stored diskGroup
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &stored)
	})
	return stored, err
}

func fromGroup(group domain.Group) diskGroup {
	return diskGroup{ID: string(group.ID), Name: group.Name, Members: group.Members}
}

func toGroup(stored diskGroup) domain.Group {
	return domain.Group{ID: domain.GroupID(stored.ID), Name: stored.Name, Members: stored.Members}
}
