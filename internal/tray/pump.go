package tray

import "time"

type events struct {
	refresh <-chan struct{}
	quit    <-chan struct{}
	// exit is closed when the tray is shutting down for any reason.
	exit <-chan struct{}
}

type handlers struct {
	tick    func()
	refresh func()
	quit    func()
}

// pump dispatches menu events and ticks until quit is clicked or exit is
// closed. Nothing is called after it returns.
func pump(interval time.Duration, ev events, h handlers) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ev.exit:
			return
		default:
		}

		select {
		case <-ev.exit:
			return
		case <-ticker.C:
			h.tick()
		case <-ev.refresh:
			h.refresh()
		case <-ev.quit:
			h.quit()
			return
		}
	}
}
