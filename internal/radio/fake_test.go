package radio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeChannelSend(t *testing.T) {
	f := NewFakeChannel()
	require.NoError(t, f.Send([]byte{2, 1, 60}))
	require.NoError(t, f.Send([]byte{3, 1, 90}))
	assert.Equal(t, [][]byte{{2, 1, 60}, {3, 1, 90}}, f.Sent)
}

func TestFakeChannelSendError(t *testing.T) {
	f := NewFakeChannel()
	f.SendError = errors.New("tx failed")

	assert.Error(t, f.Send([]byte{2, 1, 60}))
	assert.Empty(t, f.Sent)
}

func TestFakeChannelReceive(t *testing.T) {
	f := NewFakeChannel()
	f.Inject([]byte{1}, []byte{2})

	got, err := f.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, got)
	assert.Equal(t, 1, f.Pending())

	got, err = f.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, got)

	_, err = f.Receive(time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, f.Timeouts)
}

func TestFakeChannelClose(t *testing.T) {
	f := NewFakeChannel()
	f.Inject([]byte{1})
	require.NoError(t, f.Close())

	_, err := f.Receive(time.Second)
	assert.ErrorIs(t, err, ErrClosed)

	f.Reset()
	assert.False(t, f.Closed)
	assert.Equal(t, 0, f.Pending())
}
