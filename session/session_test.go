package session

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"textnest/domain"
	"textnest/domain/event"
	"textnest/errors"
	"textnest/mocks"
)

func newTestSession(ctrl *gomock.Controller) (*Session, *mocks.MockISessionRegistry, *mocks.MockIMembershipIndex, *mocks.MockIRouter) {
	registry := mocks.NewMockISessionRegistry(ctrl)
	membership := mocks.NewMockIMembershipIndex(ctrl)
	router := mocks.NewMockIRouter(ctrl)
	sess := New(slog.Default(), registry, membership, router, 8)
	return sess, registry, membership, router
}

func TestSession_Rejects_Actions_Before_Register(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	sess, _, _, router := newTestSession(ctrl)

	// The router must never be reached from an unregistered session
	router.EXPECT().SendPersonal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	router.EXPECT().SendGroup(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := sess.SendPersonal(ctx, "bob", "hi")
	req.ErrorIs(err, errors.ErrUnauthenticated)

	_, err = sess.SendGroup(ctx, "g1", "hi")
	req.ErrorIs(err, errors.ErrUnauthenticated)

	_, err = sess.JoinGroup("g1")
	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestSession_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("should bind the username and enter the registry once", func(t *testing.T) {
		req := require.New(t)
		sess, registry, _, _ := newTestSession(ctrl)

		registry.EXPECT().Register("alice", sess).Times(1)

		req.NoError(sess.Register("alice"))

		// Re-registering the same username is a no-op
		req.NoError(sess.Register("alice"))
	})

	t.Run("should refuse to rebind a live connection", func(t *testing.T) {
		req := require.New(t)
		sess, registry, _, _ := newTestSession(ctrl)

		registry.EXPECT().Register("alice", sess).Times(1)
		req.NoError(sess.Register("alice"))

		err := sess.Register("mallory")
		req.ErrorIs(err, errors.ErrAlreadyRegistered)
	})

	t.Run("should refuse registration after termination", func(t *testing.T) {
		req := require.New(t)
		sess, registry, _, _ := newTestSession(ctrl)

		registry.EXPECT().Unregister(sess).Times(1)
		sess.Disconnect()

		err := sess.Register("alice")
		req.ErrorIs(err, errors.ErrSessionClosed)
	})
}

func TestSession_Send_Uses_Bound_Username(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	sess, registry, _, router := newTestSession(ctrl)
	registry.EXPECT().Register("alice", sess).Times(1)
	req.NoError(sess.Register("alice"))

	// The sender is always the registered identity, never caller input
	router.EXPECT().
		SendPersonal(gomock.Any(), "alice", "bob", "hi").
		Return(domain.Message{Content: "hi"}, nil).
		Times(1)
	router.EXPECT().
		SendGroup(gomock.Any(), domain.GroupID("g1"), "alice", "hello team").
		Return(domain.Message{Content: "hello team"}, nil).
		Times(1)

	_, err := sess.SendPersonal(ctx, "bob", "hi")
	req.NoError(err)

	_, err = sess.SendGroup(ctx, "g1", "hello team")
	req.NoError(err)
}

func TestSession_JoinGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("should subscribe the session and return metadata", func(t *testing.T) {
		req := require.New(t)
		sess, registry, membership, _ := newTestSession(ctrl)
		group := domain.Group{ID: "g1", Name: "team", Members: []string{"alice"}}

		registry.EXPECT().Register("alice", sess).Times(1)
		req.NoError(sess.Register("alice"))

		membership.EXPECT().GroupByID(domain.GroupID("g1")).Return(group, nil).Times(1)

		req.False(sess.SubscribedTo("g1"))

		got, err := sess.JoinGroup("g1")

		req.NoError(err)
		req.Equal(group, got)
		req.True(sess.SubscribedTo("g1"))
		req.False(sess.SubscribedTo("g2"))
	})

	t.Run("should not subscribe on an unknown group id", func(t *testing.T) {
		req := require.New(t)
		sess, registry, membership, _ := newTestSession(ctrl)

		registry.EXPECT().Register("alice", sess).Times(1)
		req.NoError(sess.Register("alice"))

		membership.EXPECT().
			GroupByID(domain.GroupID("missing")).
			Return(domain.Group{}, errors.ErrGroupNotFound).
			Times(1)

		_, err := sess.JoinGroup("missing")

		req.ErrorIs(err, errors.ErrGroupNotFound)
		req.False(sess.SubscribedTo("missing"))
	})
}

func TestSession_Disconnect_Unregisters_Exactly_Once(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sess, registry, _, _ := newTestSession(ctrl)
	registry.EXPECT().Register("alice", sess).Times(1)
	req.NoError(sess.Register("alice"))

	// Several teardown paths may all call Disconnect; one cleanup happens
	registry.EXPECT().Unregister(sess).Times(1)

	sess.Disconnect()
	sess.Disconnect()
	sess.Disconnect()

	select {
	case <-sess.Done():
	default:
		req.Fail("done channel should be closed after disconnect")
	}
}

func TestSession_Consume(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	t.Run("should buffer events for the transport", func(t *testing.T) {
		req := require.New(t)
		sess, _, _, _ := newTestSession(ctrl)
		evt := event.PersonalMessage{Message: domain.Message{Content: "hi"}}

		req.NoError(sess.Consume(ctx, evt))

		select {
		case got := <-sess.Events():
			req.Equal(evt, got)
		default:
			req.Fail("event should be buffered")
		}
	})

	t.Run("should report a full buffer instead of blocking", func(t *testing.T) {
		req := require.New(t)
		registry := mocks.NewMockISessionRegistry(ctrl)
		sess := New(slog.Default(), registry, mocks.NewMockIMembershipIndex(ctrl), mocks.NewMockIRouter(ctrl), 1)
		evt := event.PersonalMessage{Message: domain.Message{Content: "hi"}}

		req.NoError(sess.Consume(ctx, evt))

		err := sess.Consume(ctx, evt)
		req.ErrorIs(err, errors.ErrSessionBusy)
	})

	t.Run("should reject events after termination", func(t *testing.T) {
		req := require.New(t)
		sess, registry, _, _ := newTestSession(ctrl)
		registry.EXPECT().Unregister(sess).Times(1)
		sess.Disconnect()

		err := sess.Consume(ctx, event.PersonalMessage{})
		req.ErrorIs(err, errors.ErrSessionClosed)
	})
}
