package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultInterval is the pause between periodic actions when none is given.
const DefaultInterval = 5000 * time.Millisecond

// Options are the execution options of a worker loop. They are fixed for the
// life of the loop.
type Options struct {
	// Interval is the pause between periodic actions. Zero repeats as fast
	// as the cancellation check allows.
	Interval time.Duration
}

// Validate rejects a negative interval.
func (o Options) Validate() error {
	if o.Interval < 0 {
		return fmt.Errorf("interval must be >= 0, got %s", o.Interval)
	}
	return nil
}

// NotificationSettings controls the startup notification. A notification is
// sent only when it is enabled and both addresses are non-blank. Address
// syntax is left to the sender, which may accept forms such as
// "Name <user@host>" or unqualified local hosts.
type NotificationSettings struct {
	Enabled bool
	From    string `validate:"required"`
	To      string `validate:"required"`
}

// ErrNotificationDisabled is returned by Validate when Enabled is false.
var ErrNotificationDisabled = errors.New("notification disabled")

var addressValidator = validator.New()

// Validate reports why a notification must not be sent, or nil when it may.
func (n NotificationSettings) Validate() error {
	if !n.Enabled {
		return ErrNotificationDisabled
	}

	trimmed := NotificationSettings{
		Enabled: true,
		From:    strings.TrimSpace(n.From),
		To:      strings.TrimSpace(n.To),
	}
	if err := addressValidator.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid notification address: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid notification settings: %w", err)
	}
	return nil
}
