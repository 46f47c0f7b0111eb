package runtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"textnest/domain"
	"textnest/repositories"
)

// MembershipIndex is the durable group surface. Every mutation goes through
// the group repository before it is acknowledged; the in-memory cache only
// ever holds states that are already on disk. No lock is held across store
// I/O, so a slow write never stalls unrelated reads.
type MembershipIndex struct {
	log    *slog.Logger
	groups repositories.IGroupRepository

	mu    sync.RWMutex
	cache map[domain.GroupID]domain.Group
}

func NewMembershipIndex(log *slog.Logger, groups repositories.IGroupRepository) *MembershipIndex {
	return &MembershipIndex{
		log:    log,
		groups: groups,
		cache:  make(map[domain.GroupID]domain.Group),
	}
}

// CreateGroup allocates a fresh group id and persists the group with the
// creator as its sole member. A second group with the same name fails with
// ErrGroupNameTaken.
func (m *MembershipIndex) CreateGroup(name, creator string) (domain.Group, error) {
	group := domain.NewGroup(domain.GroupID(uuid.NewString()), name, creator)

	if err := m.groups.CreateGroup(group); err != nil {
		return domain.Group{}, err
	}
	m.remember(group)

	m.log.Info("group created", "group_id", group.ID, "group_name", name, "creator", creator)
	return group, nil
}

// JoinGroup adds username to the named group. Joining a group one already
// belongs to is a no-op that still succeeds; an unknown name fails with
// ErrGroupNotFound and writes nothing.
func (m *MembershipIndex) JoinGroup(name, username string) (domain.Group, error) {
	group, err := m.groups.AddMember(name, username)
	if err != nil {
		return domain.Group{}, err
	}
	m.remember(group)

	return group, nil
}

// MembersOf returns the durable member set of a group.
func (m *MembershipIndex) MembersOf(id domain.GroupID) ([]string, error) {
	group, err := m.GroupByID(id)
	if err != nil {
		return nil, err
	}
	// Copy so callers cannot mutate the cached set
	return lo.Map(group.Members, func(member string, _ int) string { return member }), nil
}

// GroupByID serves from cache when possible and falls back to the store on a
// miss (e.g. after a restart).
func (m *MembershipIndex) GroupByID(id domain.GroupID) (domain.Group, error) {
	m.mu.RLock()
	group, ok := m.cache[id]
	m.mu.RUnlock()
	if ok {
		return group, nil
	}

	group, err := m.groups.GetGroupByID(id)
	if err != nil {
		return domain.Group{}, err
	}
	m.remember(group)

	return group, nil
}

// remember installs a freshly persisted group state in the cache.
func (m *MembershipIndex) remember(group domain.Group) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A concurrent join may already have cached a larger member set; never
	// replace it with a smaller one.
	if cached, ok := m.cache[group.ID]; ok && len(cached.Members) > len(group.Members) {
		return
	}
	m.cache[group.ID] = group
}
