package pubsub

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Signaled is returned by Subscribe when a TERM or INT arrived instead
// of the deadline elapsing.
const Signaled = -1

// pollQuantum is the cooperative polling interval of the subscribe
// loop. It bounds both idle CPU burn and the latency from signal or
// deadline to loop exit.
const pollQuantum = 10 * time.Millisecond

// Subscribe polls the channel and invokes callback for every message
// until the timeout elapses or a TERM/INT signal arrives. A timeout of
// zero disables the deadline and the loop runs until signaled. The
// return value is the number of messages processed, or Signaled when a
// signal ended the loop.
//
// Callback panics are recovered and logged; they count as processed and
// never abort the loop. Signal registration is scoped to the call: Go
// signal delivery is multicast, so any Notify channels the host process
// installed keep receiving TERM and INT during and after the loop.
func Subscribe(c *Channel, callback func(*Message), timeout time.Duration) (int, error) {
	if timeout < 0 {
		return 0, ErrBadTimeout
	}
	if c.reader == nil {
		return 0, ErrChannelNotOpen
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	// The limiter is the sleep: one fetch attempt per quantum, with a
	// burst of one so the first poll runs immediately.
	limiter := rate.NewLimiter(rate.Every(pollQuantum), 1)
	ctx := context.Background()

	processed := 0
	for {
		select {
		case sig := <-sigs:
			log.WithField("signal", sig).Debug("subscribe loop interrupted")
			return Signaled, nil
		case <-deadline:
			return processed, nil
		default:
		}

		msg, err := Fetch(c)
		switch {
		case err != nil:
			// Frame-level failures kill the message, not the loop.
			log.WithError(err).WithField("channel", c.Dir).Warn("fetch failed, continuing")
		case msg != nil:
			invokeCallback(callback, msg)
			processed++
		}

		if err := limiter.Wait(ctx); err != nil {
			return processed, err
		}
	}
}

func invokeCallback(callback func(*Message), msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			metricCallbackFaults.Inc()
			log.WithField("panic", r).WithField("message", msg.ID).Warn("subscriber callback panicked")
		}
	}()
	callback(msg)
}
