// Package httpmon provides an adaptive HTTP resource monitor.
// It polls remote resources, predicts when each will change next from
// server-reported timestamps, and fans changed content out to WebDAV
// destinations and live TCP, UDP and WebSocket subscribers.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, etree/, websocket/).
package httpmon
