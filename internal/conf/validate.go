// validate.go - validation of loaded settings
package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the loaded settings for inconsistencies that would
// prevent the services from starting.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream.timeout must be positive, got %d", settings.Upstream.Timeout))
	}
	if settings.Watcher.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("watcher.pollinterval must be positive, got %d", settings.Watcher.PollInterval))
	}
	if settings.Watcher.BackoffFloor <= 0 {
		errs = append(errs, fmt.Errorf("watcher.backofffloor must be positive, got %d", settings.Watcher.BackoffFloor))
	}
	if settings.Watcher.BackoffCap < settings.Watcher.BackoffFloor {
		errs = append(errs, fmt.Errorf("watcher.backoffcap %d is below watcher.backofffloor %d",
			settings.Watcher.BackoffCap, settings.Watcher.BackoffFloor))
	}
	if settings.Notify.PayloadLimit <= 0 {
		errs = append(errs, fmt.Errorf("notify.payloadlimit must be positive, got %d", settings.Notify.PayloadLimit))
	}
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		errs = append(errs, errors.New("only one of output.sqlite and output.mysql may be enabled"))
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		errs = append(errs, errors.New("one of output.sqlite and output.mysql must be enabled"))
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		errs = append(errs, errors.New("output.sqlite.path must be set when SQLite is enabled"))
	}

	return errors.Join(errs...)
}
