package runtime

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"textnest/domain"
	"textnest/errors"
	"textnest/mocks"
)

func TestMembershipIndex_CreateGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIGroupRepository(ctrl)
	index := NewMembershipIndex(slog.Default(), mockRepo)

	t.Run("should persist the group with the creator as sole member", func(t *testing.T) {
		req := require.New(t)

		var persisted domain.Group
		mockRepo.EXPECT().
			CreateGroup(gomock.Any()).
			Do(func(group domain.Group) { persisted = group }).
			Return(nil).
			Times(1)

		group, err := index.CreateGroup("team", "alice")

		req.NoError(err)
		req.NotEmpty(group.ID)
		req.Equal("team", group.Name)
		req.Equal([]string{"alice"}, group.Members)
		req.Equal(group, persisted)

		// And the group is served from cache afterwards, no repo read
		cached, err := index.GroupByID(group.ID)
		req.NoError(err)
		req.Equal(group, cached)
	})

	t.Run("should fail on duplicate name and cache nothing", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateGroup(gomock.Any()).
			Return(errors.ErrGroupNameTaken).
			Times(1)

		_, err := index.CreateGroup("team", "bob")

		req.ErrorIs(err, errors.ErrGroupNameTaken)
	})
}

func TestMembershipIndex_JoinGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIGroupRepository(ctrl)
	index := NewMembershipIndex(slog.Default(), mockRepo)

	t.Run("should return the updated member set", func(t *testing.T) {
		req := require.New(t)
		updated := domain.Group{ID: "g1", Name: "team", Members: []string{"alice", "bob"}}

		mockRepo.EXPECT().
			AddMember("team", "bob").
			Return(updated, nil).
			Times(1)

		group, err := index.JoinGroup("team", "bob")

		req.NoError(err)
		req.Equal(updated, group)

		members, err := index.MembersOf("g1")
		req.NoError(err)
		req.ElementsMatch([]string{"alice", "bob"}, members)
	})

	t.Run("should surface NotFound for an unknown name", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			AddMember("nonexistent", "carol").
			Return(domain.Group{}, errors.ErrGroupNotFound).
			Times(1)

		_, err := index.JoinGroup("nonexistent", "carol")

		req.ErrorIs(err, errors.ErrGroupNotFound)
	})

	t.Run("should never shrink a cached member set", func(t *testing.T) {
		req := require.New(t)

		// A stale repo answer (smaller set) must not clobber the cache
		mockRepo.EXPECT().
			AddMember("team", "alice").
			Return(domain.Group{ID: "g1", Name: "team", Members: []string{"alice"}}, nil).
			Times(1)

		_, err := index.JoinGroup("team", "alice")
		req.NoError(err)

		members, err := index.MembersOf("g1")
		req.NoError(err)
		req.ElementsMatch([]string{"alice", "bob"}, members)
	})
}

func TestMembershipIndex_GroupByID_Cache_Miss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIGroupRepository(ctrl)
	index := NewMembershipIndex(slog.Default(), mockRepo)

	t.Run("should fall back to the store on a cold cache", func(t *testing.T) {
		req := require.New(t)
		stored := domain.Group{ID: "g2", Name: "ops", Members: []string{"carol"}}

		// Exactly one repo read; the second lookup hits the cache
		mockRepo.EXPECT().
			GetGroupByID(domain.GroupID("g2")).
			Return(stored, nil).
			Times(1)

		first, err := index.GroupByID("g2")
		req.NoError(err)
		req.Equal(stored, first)

		second, err := index.GroupByID("g2")
		req.NoError(err)
		req.Equal(stored, second)
	})

	t.Run("should surface NotFound for an unknown id", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetGroupByID(domain.GroupID("missing")).
			Return(domain.Group{}, errors.ErrGroupNotFound).
			Times(1)

		_, err := index.MembersOf("missing")

		req.ErrorIs(err, errors.ErrGroupNotFound)
	})
}
