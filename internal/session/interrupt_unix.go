//go:build unix

package session

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// holdInterrupts keeps SIGINT and SIGQUIT from ending mansh while a child
// shell owns the terminal. The child still receives them from the tty.
func holdInterrupts() (release func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGINT, unix.SIGQUIT)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
