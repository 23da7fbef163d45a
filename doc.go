// Package headlessterm implements a display-less VT220/xterm-class terminal
// emulator: it parses the ANSI/VT byte stream a shell or full-screen program
// produces and maintains the resulting screen state — cells, cursor,
// scrollback, selection — without ever drawing a pixel. A caller queries that
// state through Terminal's methods instead of reading it off a rendered
// surface, which makes the package useful for:
//   - driving a PTY-backed terminal from a CLI harness (see cmd/vtterm)
//   - scripted testing of interactive CLI tools
//   - recording and replaying terminal sessions
//   - any front-end (TUI, web, GUI) that wants a parsed model instead of
//     raw bytes, and does its own glyph rendering
//
// # Quick start
//
//	term := headlessterm.New()
//	term.WriteString("\x1b[31mHello \x1b[32mWorld\x1b[0m!")
//	fmt.Println(term.String()) // "Hello World!"
//
// # Architecture
//
//   - [Terminal]: owns parser state, cursor, modes, and the two screen buffers
//   - [Buffer]: a row/column grid of cells, with scrollback for the primary screen
//   - [Cell]: one character cell with its attributes, colors, and optional
//     combining runes, hyperlink, and image reference
//   - [Cursor]: position plus the style it renders with
//
// # Terminal
//
// Terminal implements [io.Writer], so a PTY's output can be piped straight in:
//
//	term := headlessterm.New(
//	    headlessterm.WithSize(24, 80),
//	    headlessterm.WithScrollback(headlessterm.NewRingScrollback(1000)),
//	    headlessterm.WithResponse(ptyWriter), // cursor-position reports, etc. go here
//	)
//	cmd := exec.Command("ls", "-la", "--color")
//	cmd.Stdout = term
//	cmd.Run()
//	for row := 0; row < term.Rows(); row++ {
//	    fmt.Println(term.LineContent(row))
//	}
//
// # Primary and alternate screens
//
// Full-screen programs (vim, less, htop) switch to an alternate screen via
// CSI ?1049h/l; the alternate screen has no scrollback and its own saved
// cursor slot, independent of the primary screen's.
//
//	if term.IsAlternateScreen() {
//	    // a full-screen app currently owns the display
//	}
//
// # Colors and attributes
//
//	cell := term.Cell(row, col)
//	if cell != nil {
//	    fmt.Printf("%c bold=%v fg=%v bg=%v\n", cell.Char,
//	        cell.HasFlag(headlessterm.CellFlagBold), cell.Fg, cell.Bg)
//	}
//
// Colors are named (0-15), 256-palette indexed, or 24-bit true color; the
// named default foreground, background and cursor colors resolve to RGBA
// values that [SetDefaultColors] overrides (e.g. from a loaded configuration
// file).
//
// # Scrollback
//
// Lines scrolled off the primary screen are handed to a [ScrollbackProvider];
// [NewRingScrollback] is the built-in bounded in-memory implementation.
// Indexing is oldest-first and stable: a retained line keeps its index until
// ring overflow evicts it, which is what lets prompt marks (below) reference
// scrollback rows that stay valid as later output arrives.
//
// # Providers and middleware
//
// Providers are the optional integration points for terminal-driven events
// (bell, title, clipboard, scrollback, recording, printing) — each has a
// `Noop*` default so an embedder only implements what it cares about.
// [Middleware] wraps the handler methods the decoder dispatches into,
// letting a caller observe or override behavior (logging input, suppressing
// the bell) without forking the package.
//
// # Shell integration (OSC 133)
//
// Prompt and command-boundary marks are recorded as they arrive and can be
// walked with [Terminal.NextPromptRow]/[Terminal.PrevPromptRow], or turned
// into structured command records with [Terminal.Commands] and
// [Terminal.CommandOutput]:
//
//	for _, rec := range term.Commands() {
//	    fmt.Printf("exit=%d output=%q\n", rec.ExitCode, term.CommandOutput(rec))
//	}
//
// # Inline images
//
// Sixel and Kitty graphics protocols are supported for placement tracking:
// the package stores decoded pixel buffers and placement geometry keyed to
// cells, but performs no rasterization or font rendering itself — that is a
// front-end's job.
//
//	for _, placement := range term.ImagePlacements() {
//	    img := term.Image(placement.ImageID)
//	    _ = img.Data // RGBA pixels, front-end rasterizes
//	}
//
// # Snapshots
//
// [Terminal.Snapshot] captures screen state at one of three detail levels
// (text only, styled segments, full cell data including image references)
// for serialization or rendering by a consumer that doesn't want to poll
// Cell/LineContent directly.
//
// # Thread safety
//
// All Terminal methods lock internally and are safe for concurrent use.
// Callers needing several operations to appear atomic must add their own
// synchronization around the sequence.
package headlessterm
