package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"textnest/contract"
	"textnest/domain"
	"textnest/domain/event"
	"textnest/errors"
	"textnest/mocks"
	"textnest/observability"
	"textnest/repositories"
)

func newTestRouter(registry contract.ISessionRegistry,
	membership contract.IMembershipIndex, messages repositories.IMessageRepository) *Router {
	log := slog.Default()
	return NewRouter(log, registry, membership, messages, observability.NewStats(log))
}

func TestRouter_SendPersonal(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist then deliver to receiver and sender sessions", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		bobSession := mocks.NewMockSession(ctrl)
		aliceSession := mocks.NewMockSession(ctrl)
		router := newTestRouter(registry, mocks.NewMockIMembershipIndex(ctrl), messages)

		messages.EXPECT().
			AppendMessage(gomock.Any()).
			DoAndReturn(func(message domain.Message) (domain.Message, error) {
				req.Equal("alice", message.Sender)
				req.Equal("bob", message.Target)
				req.Equal(domain.KindPersonal, message.Kind)
				return message, nil
			}).
			Times(1)

		registry.EXPECT().SessionsFor("bob").Return([]contract.Session{bobSession}).Times(1)
		registry.EXPECT().SessionsFor("alice").Return([]contract.Session{aliceSession}).Times(1)

		var delivered []event.Event
		bobSession.EXPECT().Consume(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, e event.Event) { delivered = append(delivered, e) }).
			Return(nil).Times(1)
		aliceSession.EXPECT().Consume(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, e event.Event) { delivered = append(delivered, e) }).
			Return(nil).Times(1)

		stored, err := router.SendPersonal(ctx, "alice", "bob", "hi")

		req.NoError(err)
		req.Equal("hi", stored.Content)
		req.Len(delivered, 2)
		for _, e := range delivered {
			pm, ok := e.(event.PersonalMessage)
			req.True(ok)
			req.Equal("alice", pm.Message.Sender)
			req.Equal("hi", pm.Message.Content)
		}
	})

	t.Run("should not deliver anything when persistence fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		router := newTestRouter(registry, mocks.NewMockIMembershipIndex(ctrl), messages)

		messages.EXPECT().
			AppendMessage(gomock.Any()).
			Return(domain.Message{}, fmt.Errorf("store unreachable")).
			Times(1)

		// The registry is never consulted
		registry.EXPECT().SessionsFor(gomock.Any()).Times(0)

		_, err := router.SendPersonal(ctx, "alice", "bob", "hi")

		req.Error(err)
	})

	t.Run("should persist even when the receiver is offline", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		router := newTestRouter(registry, mocks.NewMockIMembershipIndex(ctrl), messages)

		messages.EXPECT().
			AppendMessage(gomock.Any()).
			DoAndReturn(func(message domain.Message) (domain.Message, error) { return message, nil }).
			Times(1)
		registry.EXPECT().SessionsFor("bob").Return(nil).Times(1)
		registry.EXPECT().SessionsFor("alice").Return(nil).Times(1)

		_, err := router.SendPersonal(ctx, "alice", "bob", "hi")

		req.NoError(err)
	})

	t.Run("should not abort delivery when one session fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		broken := mocks.NewMockSession(ctrl)
		healthy := mocks.NewMockSession(ctrl)
		router := newTestRouter(registry, mocks.NewMockIMembershipIndex(ctrl), messages)

		messages.EXPECT().
			AppendMessage(gomock.Any()).
			DoAndReturn(func(message domain.Message) (domain.Message, error) { return message, nil }).
			Times(1)
		registry.EXPECT().SessionsFor("bob").Return([]contract.Session{broken, healthy}).Times(1)
		registry.EXPECT().SessionsFor("alice").Return(nil).Times(1)

		broken.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.ErrSessionBusy).Times(1)
		broken.EXPECT().ID().Return("broken").Times(1)
		healthy.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		_, err := router.SendPersonal(ctx, "alice", "bob", "hi")

		req.NoError(err)
	})

	t.Run("should deliver once when sending to oneself", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		self := mocks.NewMockSession(ctrl)
		router := newTestRouter(registry, mocks.NewMockIMembershipIndex(ctrl), messages)

		messages.EXPECT().
			AppendMessage(gomock.Any()).
			DoAndReturn(func(message domain.Message) (domain.Message, error) { return message, nil }).
			Times(1)
		registry.EXPECT().SessionsFor("alice").Return([]contract.Session{self}).Times(1)
		self.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		_, err := router.SendPersonal(ctx, "alice", "alice", "note to self")

		req.NoError(err)
	})
}

func TestRouter_SendGroup(t *testing.T) {
	ctx := context.Background()
	group := domain.Group{ID: "g1", Name: "team", Members: []string{"alice", "bob", "carol"}}

	t.Run("should deliver only to subscribed sessions of members", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		membership := mocks.NewMockIMembershipIndex(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		subscribed := mocks.NewMockSession(ctrl)
		unsubscribed := mocks.NewMockSession(ctrl)
		router := newTestRouter(registry, membership, messages)

		membership.EXPECT().GroupByID(domain.GroupID("g1")).Return(group, nil).Times(1)
		messages.EXPECT().
			AppendMessage(gomock.Any()).
			DoAndReturn(func(message domain.Message) (domain.Message, error) {
				req.Equal(domain.KindGroup, message.Kind)
				req.Equal("g1", message.Target)
				return message, nil
			}).
			Times(1)

		// alice has a subscribed session, bob an unsubscribed one, carol is offline
		registry.EXPECT().SessionsFor("alice").Return([]contract.Session{subscribed}).Times(1)
		registry.EXPECT().SessionsFor("bob").Return([]contract.Session{unsubscribed}).Times(1)
		registry.EXPECT().SessionsFor("carol").Return(nil).Times(1)

		subscribed.EXPECT().SubscribedTo(domain.GroupID("g1")).Return(true).Times(1)
		unsubscribed.EXPECT().SubscribedTo(domain.GroupID("g1")).Return(false).Times(1)

		subscribed.EXPECT().Consume(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, e event.Event) {
				gm, ok := e.(event.GroupMessage)
				req.True(ok)
				req.Equal("hello team", gm.Message.Content)
				req.Equal(group, gm.Group)
			}).
			Return(nil).Times(1)

		stored, err := router.SendGroup(ctx, "g1", "alice", "hello team")

		req.NoError(err)
		req.Equal("hello team", stored.Content)
	})

	t.Run("should fail with NotFound before persisting anything", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		membership := mocks.NewMockIMembershipIndex(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		router := newTestRouter(registry, membership, messages)

		membership.EXPECT().
			GroupByID(domain.GroupID("missing")).
			Return(domain.Group{}, errors.ErrGroupNotFound).
			Times(1)
		messages.EXPECT().AppendMessage(gomock.Any()).Times(0)

		_, err := router.SendGroup(ctx, "missing", "alice", "anyone here?")

		req.ErrorIs(err, errors.ErrGroupNotFound)
	})

	t.Run("should surface persistence failure and skip fan-out", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockISessionRegistry(ctrl)
		membership := mocks.NewMockIMembershipIndex(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		router := newTestRouter(registry, membership, messages)

		membership.EXPECT().GroupByID(domain.GroupID("g1")).Return(group, nil).Times(1)
		messages.EXPECT().
			AppendMessage(gomock.Any()).
			Return(domain.Message{}, fmt.Errorf("store unreachable")).
			Times(1)
		registry.EXPECT().SessionsFor(gomock.Any()).Times(0)

		_, err := router.SendGroup(ctx, "g1", "alice", "hello team")

		req.Error(err)
	})
}
