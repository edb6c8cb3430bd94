// Package display captures and restores the e-ink framebuffer.
//
// When an application is paused its full panel contents are copied out of
// the mapped framebuffer and kept zlib-compressed in memory. On resume the
// pixels are written back verbatim and the panel controller is asked for one
// full refresh, which is much cheaper and less flickery than having the
// application redraw itself.
//
// Components:
//   - Framebuffer, Mapping: device access (mmap + refresh ioctl)
//   - DeviceFramebuffer: the Linux framebuffer device node
//   - MemoryFramebuffer: an in-memory panel for headless runs and tests
//   - ScreenCapture: per-application capture/restore with one held Snapshot
//
// Capture and restore block the calling goroutine for the duration of the
// copy and (de)compression and are not cancellable.
package display
