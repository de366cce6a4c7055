package notifier

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/errors"
)

// ShoutrrrTransport delivers messages via nicholas-fedor/shoutrrr. Each
// destination id maps to one service URL from the configuration; a sender is
// built per destination at construction so bad URLs fail at startup.
type ShoutrrrTransport struct {
	senders map[string]*router.ServiceRouter
	timeout time.Duration
}

func NewShoutrrrTransport(settings *conf.Settings) (*ShoutrrrTransport, error) {
	st := &ShoutrrrTransport{
		senders: make(map[string]*router.ServiceRouter, len(settings.Notify.Destinations)),
		timeout: time.Duration(settings.Notify.Timeout) * time.Second,
	}
	for destinationID, serviceURL := range settings.Notify.Destinations {
		sender, err := shoutrrr.CreateSender(serviceURL)
		if err != nil {
			return nil, errors.Newf("creating sender for destination %s: %w", destinationID, err).
				Component("notifier").
				Category(errors.CategoryConfiguration).
				Context("destination", destinationID).
				Build()
		}
		if st.timeout > 0 {
			sender.Timeout = st.timeout
		}
		sender.SetLogger(log.New(io.Discard, "", 0))
		st.senders[destinationID] = sender
	}
	return st, nil
}

// Send delivers one message to one destination.
func (st *ShoutrrrTransport) Send(ctx context.Context, destinationID, text string) error {
	sender, ok := st.senders[destinationID]
	if !ok {
		return errors.Newf("no transport configured for destination %s", destinationID).
			Component("notifier").
			Category(errors.CategoryDispatch).
			Context("destination", destinationID).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if errs := sender.Send(text, &stypes.Params{}); len(errs) > 0 {
		for _, err := range errs {
			if err != nil {
				return fmt.Errorf("sending to destination %s: %w", destinationID, err)
			}
		}
	}
	return nil
}
