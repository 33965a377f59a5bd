package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ConsoleSink prints reminders to a writer. Useful when no chat
// transport is configured, and as the default sink in development.
type ConsoleSink struct {
	W io.Writer
}

func (c ConsoleSink) Deliver(ctx context.Context, p Payload) error {
	_ = ctx
	w := c.W
	if w == nil {
		w = os.Stdout
	}
	if p.Message == "" {
		_, err := fmt.Fprintf(w, "[reminder] %s\n", p.Title)
		return err
	}
	_, err := fmt.Fprintf(w, "[reminder] %s: %s\n", p.Title, p.Message)
	return err
}
