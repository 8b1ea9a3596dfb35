package notify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Interface delivers alert notifications. Both calls are best-effort:
// callers log failures and carry on.
type Interface interface {
	Notify(title, message string) error
	// Cue plays a short audible signal, once per batch of notifications.
	Cue() error
}

// Console logs notifications and rings the terminal bell.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole writes the bell to out; nil means stdout.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) Notify(title, message string) error {
	zap.L().Info("🔔 "+title, zap.String("message", message))
	return nil
}

func (c *Console) Cue() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprint(c.out, "\a")
	return err
}

// Desktop raises an OS notification and beeps through the system speaker.
type Desktop struct {
	AppIcon string
}

func NewDesktop() *Desktop {
	return &Desktop{}
}

func (d *Desktop) Notify(title, message string) error {
	return beeep.Notify(title, message, d.AppIcon)
}

func (d *Desktop) Cue() error {
	return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}

// Multi fans out to every notifier and joins their errors.
type Multi []Interface

func (m Multi) Notify(title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Cue() error {
	var errs []error
	for _, n := range m {
		if err := n.Cue(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
