// Package host provides the desktop services a composition session uses
// outside the text client: the error signal, the clipboard, desktop
// notifications, and an in-memory document that implements session.Host
// for terminal frontends.
package host
