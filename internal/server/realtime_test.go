package server

import (
	"context"
	"testing"
	"time"
)

func TestNotificationDispatcherPublishesToSubscriber(t *testing.T) {
	dispatcher := NewNotificationDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "user-1")
	defer cleanup()

	dispatcher.Publish(Notification{
		UserID:    "user-1",
		EventType: NotificationEventPostLiked,
		PostID:    "post-a",
		ActorName: "Alex Writer",
		Timestamp: time.Now().UTC(),
	})

	select {
	case received := <-stream:
		if received.EventType != NotificationEventPostLiked {
			t.Fatalf("expected event type %s, got %s", NotificationEventPostLiked, received.EventType)
		}
		if received.PostID != "post-a" {
			t.Fatalf("expected post-a, got %s", received.PostID)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification within deadline")
	}
}

func TestNotificationDispatcherIsolatedByUser(t *testing.T) {
	dispatcher := NewNotificationDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otherCtx, otherCancel := context.WithCancel(context.Background())
	defer otherCancel()

	userStream, cleanup := dispatcher.Subscribe(ctx, "user-2")
	defer cleanup()

	otherStream, otherCleanup := dispatcher.Subscribe(otherCtx, "user-3")
	defer otherCleanup()

	dispatcher.Publish(Notification{
		UserID:    "user-3",
		EventType: NotificationEventCommentAdded,
		PostID:    "post-c",
		Timestamp: time.Now().UTC(),
	})

	select {
	case <-userStream:
		t.Fatal("did not expect notification for unrelated user")
	case <-time.After(200 * time.Millisecond):
	}

	select {
	case msg := <-otherStream:
		if msg.UserID != "user-3" {
			t.Fatalf("expected user-3, received %s", msg.UserID)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for subscribed user")
	}
}

func TestNotificationDispatcherIgnoresAnonymousSubscriber(t *testing.T) {
	dispatcher := NewNotificationDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "")
	defer cleanup()

	if _, open := <-stream; open {
		t.Fatal("expected a closed stream for an anonymous subscriber")
	}
}
