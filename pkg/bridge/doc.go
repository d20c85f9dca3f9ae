// ABOUTME: Package documentation for the stream bridge
// ABOUTME: Explains the plug-to-backend adaptation and entry points
// Package bridge adapts a pull-based, ring-buffer PCM playback model to a
// push-based, backend-managed audio stream.
//
// The host sees a circular buffer with a polled position; the backend owns
// its buffering and scheduling entirely. A Bridge owns exactly one backend
// stream, serializes every control and transfer operation on it, and maps
// the backend's absolute frame counters onto the host's circular
// coordinates.
//
// Example:
//
//	p, err := bridge.Create("default", plug.Playback, 0, backend.NewOtoOpener())
//	err = p.Configure(plug.Params{
//	    Access:     plug.AccessRWInterleaved,
//	    Format:     plug.FormatS16LE,
//	    Channels:   2,
//	    Rate:       48000,
//	    BufferSize: 16384,
//	    Periods:    2,
//	})
//	err = p.Prepare()
//	n, err := p.Writei(frames, 1024) // auto-starts playback
//	err = p.Drain()
//	err = p.Close()
//
// Only playback is supported; capture requests fail at Create.
package bridge
