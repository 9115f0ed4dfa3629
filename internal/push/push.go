// Package push receives server-sent notification events over a websocket
// and hands them to a Notifier. The sync hook only acknowledges tagged
// signals; goal reconciliation stays with the goal API.
package push

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// SyncTag is the background-sync signal the client acknowledges.
const SyncTag = "goal-sync"

// DefaultIcon doubles as the notification badge.
const DefaultIcon = "/static/images/GD-Logo.png"

// DefaultVibration is the fixed vibration pattern in milliseconds.
var DefaultVibration = []int{200, 100, 200}

// Message is one event from the notification endpoint.
type Message struct {
	Type  string `json:"type"` // "push" or "sync"
	Tag   string `json:"tag,omitempty"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Notification is a displayable push payload with its target URL.
type Notification struct {
	Title   string
	Body    string
	URL     string
	Icon    string
	Badge   string
	Vibrate []int
}

// Notifier displays notifications to the user.
type Notifier interface {
	Show(n Notification) error
}

// Subscriber keeps a websocket connection to the notification endpoint,
// reconnecting with backoff until its context is canceled.
type Subscriber struct {
	url      string
	notifier Notifier
	dialer   *websocket.Dialer
	backoff  time.Duration
}

// NewSubscriber creates a subscriber for the given ws:// or wss:// URL.
// A nil notifier falls back to LogNotifier.
func NewSubscriber(wsURL string, notifier Notifier) *Subscriber {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Subscriber{
		url:      wsURL,
		notifier: notifier,
		dialer:   websocket.DefaultDialer,
		backoff:  5 * time.Second,
	}
}

// Run blocks until ctx is canceled, processing incoming messages and
// re-dialing after connection failures.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := s.connectAndRead(ctx); err != nil {
			logger.Log.WithError(err).Warn("Notification connection lost")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff):
		}
	}
}

func (s *Subscriber) connectAndRead(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Log.WithField("url", s.url).Info("Subscribed to notifications")

	// Unblock ReadMessage when the context ends.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Log.WithError(err).Warn("Malformed notification payload")
			continue
		}
		s.Handle(msg)
	}
}

// Handle routes one message. Sync signals are acknowledged only; push
// payloads become notifications.
func (s *Subscriber) Handle(msg Message) {
	switch msg.Type {
	case "sync":
		if msg.Tag == SyncTag {
			logger.Log.Info("Background sync signal for goals acknowledged")
		} else {
			logger.Log.WithField("tag", msg.Tag).Debug("Ignoring sync signal")
		}
	case "push":
		n := Notification{
			Title:   msg.Title,
			Body:    msg.Body,
			URL:     msg.URL,
			Icon:    DefaultIcon,
			Badge:   DefaultIcon,
			Vibrate: DefaultVibration,
		}
		if n.Title == "" {
			n.Title = "Git-Done"
		}
		if n.URL == "" {
			n.URL = "/"
		}
		if err := s.notifier.Show(n); err != nil {
			logger.Log.WithError(err).Warn("Failed to display notification")
		}
	default:
		logger.Log.WithFields(logrus.Fields{"type": msg.Type}).Debug("Ignoring notification event")
	}
}
