package pg_listener

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	changes []Change
	err     error
}

func (h *recordingHandler) HandleNotification(_ context.Context, change Change) error {
	h.changes = append(h.changes, change)
	return h.err
}

func TestParseChange(t *testing.T) {
	change, err := ParseChange(`{"table":"profiles","op":"UPDATE","app_id":"app-1","id":12,"user_id":3}`)
	require.NoError(t, err)
	assert.Equal(t, Change{Table: "profiles", Operation: "UPDATE", AppID: "app-1", ID: 12, UserID: 3}, change)

	_, err = ParseChange(`{"op":"UPDATE","id":1}`)
	assert.Error(t, err)

	_, err = ParseChange(`{"table":"users"}`)
	assert.Error(t, err)

	_, err = ParseChange(`not json`)
	assert.Error(t, err)
}

func TestDBListener_Handle(t *testing.T) {
	handler := &recordingHandler{}
	listener := NewDBListener(ListenerConfig{}, handler)
	assert.Equal(t, DefaultChannel, listener.config.Channel)

	listener.handle(context.Background(), &pq.Notification{Extra: `{"table":"users","op":"DELETE","app_id":"app-1","id":7}`})
	listener.handle(context.Background(), &pq.Notification{Extra: `{}`})

	require.Len(t, handler.changes, 1)
	assert.Equal(t, int64(7), handler.changes[0].ID)

	handler.err = errors.New("cache unavailable")
	listener.handle(context.Background(), &pq.Notification{Extra: `{"table":"address","app_id":"app-1","id":2}`})
	assert.Len(t, handler.changes, 2)
}
