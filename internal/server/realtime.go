package server

import (
	"context"
	"sync"
	"time"
)

const (
	// NotificationEventPostLiked is sent to a post's author when someone
	// likes their post.
	NotificationEventPostLiked = "post-liked"
	// NotificationEventCommentAdded is sent to a post's author when
	// someone comments on their post.
	NotificationEventCommentAdded = "comment-added"

	notificationEventHeartbeat = "heartbeat"
)

// Notification is an in-app event addressed to a single user.
type Notification struct {
	UserID    string    `json:"-"`
	EventType string    `json:"event"`
	PostID    string    `json:"post_id"`
	PostTitle string    `json:"post_title,omitempty"`
	ActorName string    `json:"actor_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationDispatcher fans notifications out to the user's open event
// streams. Delivery is best effort: a subscriber with a full buffer
// misses the message rather than blocking the publisher.
type NotificationDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*notificationSubscriber
	nextID      int64
	bufferSize  int
}

type notificationSubscriber struct {
	id     int64
	stream chan Notification
}

// NewNotificationDispatcher constructs an empty dispatcher.
func NewNotificationDispatcher() *NotificationDispatcher {
	return &NotificationDispatcher{
		subscribers: make(map[string]map[int64]*notificationSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a stream for the user's notifications. The stream
// is detached when the context ends or the returned cleanup runs.
func (d *NotificationDispatcher) Subscribe(ctx context.Context, userID string) (<-chan Notification, func()) {
	if userID == "" {
		ch := make(chan Notification)
		close(ch)
		return ch, func() {}
	}
	subscriber := &notificationSubscriber{
		id:     d.nextSequence(),
		stream: make(chan Notification, d.bufferSize),
	}
	d.registerSubscriber(userID, subscriber)
	cleanup := func() {
		d.unregisterSubscriber(userID, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the notification to every stream of its addressee.
func (d *NotificationDispatcher) Publish(message Notification) {
	if message.UserID == "" || message.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[message.UserID]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*notificationSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

func (d *NotificationDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *NotificationDispatcher) registerSubscriber(userID string, subscriber *notificationSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[userID]; !ok {
		d.subscribers[userID] = make(map[int64]*notificationSubscriber)
	}
	d.subscribers[userID][subscriber.id] = subscriber
}

func (d *NotificationDispatcher) unregisterSubscriber(userID string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[userID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, userID)
		}
	}
	d.mu.Unlock()
}
