package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/errors"
)

func newShoutrrrSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Notify.Timeout = 5
	settings.Notify.Destinations = map[string]string{
		"chan-1": "generic://example.com/hook",
	}
	return settings
}

func TestNewShoutrrrTransportRejectsBadURL(t *testing.T) {
	settings := newShoutrrrSettings()
	settings.Notify.Destinations["chan-2"] = "not-a-service-url"

	_, err := NewShoutrrrTransport(settings)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.GetCategory(err))
}

func TestShoutrrrTransportUnknownDestination(t *testing.T) {
	transport, err := NewShoutrrrTransport(newShoutrrrSettings())
	require.NoError(t, err)

	err = transport.Send(context.Background(), "chan-unknown", "hello")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryDispatch, errors.GetCategory(err))
}

func TestShoutrrrTransportHonorsCancelledContext(t *testing.T) {
	transport, err := NewShoutrrrTransport(newShoutrrrSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = transport.Send(ctx, "chan-1", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
