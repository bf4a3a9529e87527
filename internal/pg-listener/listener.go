package pg_listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const DefaultChannel = "data_change"

// Change is the payload the data_change trigger publishes for every write
// to a filtered table.
type Change struct {
	Table     string `json:"table"`
	Operation string `json:"op"`
	AppID     string `json:"app_id"`
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id,omitempty"`
}

type NotificationHandler interface {
	HandleNotification(ctx context.Context, change Change) error
}

type ListenerConfig struct {
	PgConnStr            string
	Channel              string
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
	PingInterval         time.Duration
}

type DBListener struct {
	config  ListenerConfig
	handler NotificationHandler
}

func NewDBListener(config ListenerConfig, handler NotificationHandler) *DBListener {
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	if config.MinReconnectInterval <= 0 {
		config.MinReconnectInterval = 10 * time.Second
	}
	if config.MaxReconnectInterval <= 0 {
		config.MaxReconnectInterval = time.Minute
	}
	if config.PingInterval <= 0 {
		config.PingInterval = 90 * time.Second
	}
	return &DBListener{config: config, handler: handler}
}

// Start listens until ctx is done. Notifications missed while the connection
// was down are not replayed; cached entries then expire through their TTL.
func (d *DBListener) Start(ctx context.Context) error {
	listener := pq.NewListener(d.config.PgConnStr, d.config.MinReconnectInterval, d.config.MaxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logrus.WithError(err).WithField("event", ev).Warn("listener connection event")
			}
		})
	defer listener.Close()

	if err := listener.Listen(d.config.Channel); err != nil {
		return fmt.Errorf("error listening to channel %q: %w", d.config.Channel, err)
	}
	logrus.WithField("channel", d.config.Channel).Info("listening for data changes")

	ticker := time.NewTicker(d.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect
			if n == nil {
				logrus.Info("listener reconnected")
				continue
			}
			d.handle(ctx, n)
		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				logrus.WithError(err).Warn("listener ping failed")
			}
		}
	}
}

func (d *DBListener) handle(ctx context.Context, n *pq.Notification) {
	change, err := ParseChange(n.Extra)
	if err != nil {
		logrus.WithError(err).WithField("payload", n.Extra).Error("invalid data change payload")
		return
	}
	if err := d.handler.HandleNotification(ctx, change); err != nil {
		logrus.WithError(err).WithField("table", change.Table).Error("error handling data change")
	}
}

func ParseChange(payload string) (Change, error) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return change, err
	}
	if change.Table == "" {
		return change, errors.New("data change without table")
	}
	if change.ID == 0 {
		return change, errors.New("data change without id")
	}
	return change, nil
}
