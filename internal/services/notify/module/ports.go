package module

import wdom "marketwatch/internal/services/watcher/domain"

// Ports exposes the fanout as the watcher's notifier
type Ports struct {
	Notifier wdom.NotifierPort
	// Channels names the enabled channels, primary first
	Channels []string
}
