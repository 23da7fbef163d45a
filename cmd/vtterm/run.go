package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	headlessterm "github.com/coreterm/coreterm"
	"github.com/coreterm/coreterm/internal/config"
	"github.com/coreterm/coreterm/ldisc"
	"github.com/creack/pty"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func runMain(cmd *cobra.Command, args []string) error {
	if flagShowHelp {
		return cmd.Help()
	}

	cfg := config.Default()
	if flagConfig != "" {
		f, err := os.Open(flagConfig)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer f.Close()
		cfg, err = config.Parse(f)
		if err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	if flagTitle != "" {
		cfg.Title = flagTitle
	}
	if flagSize != "" {
		cols, rows, err := parseSize(flagSize)
		if err != nil {
			return fmt.Errorf("parsing -s: %w", err)
		}
		cfg.Cols, cfg.Rows = cols, rows
	}

	headlessterm.SetDefaultColors(cfg.Foreground.RGBA(), cfg.Background.RGBA(), cfg.CursorColor.RGBA())

	shell := firstNonEmpty(os.Getenv("SHELL"), "/bin/sh")
	command := commandArgs
	if len(command) == 0 {
		command = []string{shell}
	}

	c := exec.Command(command[0], command[1:]...)
	c.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(c, &pty.Winsize{Cols: uint16(cfg.Cols), Rows: uint16(cfg.Rows)})
	if err != nil {
		return fmt.Errorf("starting pty: %w", err)
	}
	defer ptmx.Close()

	if flagUtmp {
		registerUtmp(c.Process.Pid)
	}

	var recorder *os.File
	if flagLogFile != "" {
		recorder, err = os.Create(flagLogFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer recorder.Close()
	}

	vt := headlessterm.New(
		headlessterm.WithSize(cfg.Rows, cfg.Cols),
		headlessterm.WithResponse(ptmx),
		headlessterm.WithScrollback(headlessterm.NewRingScrollback(cfg.ScrollbackLines)),
	)
	if recorder != nil {
		vt.SetRecordingProvider(&fileRecorder{f: recorder})
	}
	vt.SetBackspaceSendsDEL(cfg.BackspaceSendsDEL)
	vt.SetEscapeSendsFS(cfg.EscapeSendsFS)
	if cfg.Title != "" {
		vt.WriteString(fmt.Sprintf("\x1b]2;%s\x07", cfg.Title))
	}

	stdinIsTTY := isatty.IsTerminal(os.Stdin.Fd())
	if stdinIsTTY {
		prevState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			defer term.Restore(int(os.Stdin.Fd()), prevState)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	g, ctx := errgroup.WithContext(ctx)

	// pty -> Terminal -> nothing further (headless: content is queried via API,
	// not rendered; a GUI front-end would read vt.String()/Cell() here).
	g.Go(func() error {
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				vt.Write(buf[:n])
			}
			if err != nil {
				cancel()
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}
	})

	// stdin -> pty, through the line discipline when stdin is not itself a
	// tty (no kernel pty upstream providing cooked-mode editing).
	disc := ldisc.New(ptyWriter{ptmx}, termEchoer{vt})
	disc.Editing = !stdinIsTTY
	disc.Echoing = !stdinIsTTY

	g.Go(func() error {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if stdinIsTTY {
					ptmx.Write(buf[:n])
				} else if closeRequested := disc.Feed(buf[:n]); closeRequested {
					cancel()
					return nil
				}
			}
			if err != nil {
				cancel()
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGWINCH:
					if stdinIsTTY {
						if ws, err := getWinsize(os.Stdin.Fd()); err == nil {
							pty.Setsize(ptmx, ws)
							vt.Resize(int(ws.Rows), int(ws.Cols))
						}
					}
				case syscall.SIGTERM, syscall.SIGINT:
					cancel()
					return nil
				}
			}
		}
	})

	waitErr := c.Wait()
	cancel()
	_ = g.Wait()

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}

	log.Debug().Int("exit_code", exitCode).Msg("child exited")

	switch flagHold {
	case "always":
		fmt.Fprintln(os.Stderr, "[process exited, press Enter to close]")
		fmt.Fscanln(os.Stdin)
	case "error":
		if exitCode != 0 {
			fmt.Fprintln(os.Stderr, "[process exited with error, press Enter to close]")
			fmt.Fscanln(os.Stdin)
		}
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

type ptyWriter struct{ f *os.File }

func (p ptyWriter) Write(b []byte) (int, error) { return p.f.Write(b) }

type termEchoer struct{ t *headlessterm.Terminal }

func (e termEchoer) WriteString(s string) (int, error) { return e.t.WriteString(s) }

type fileRecorder struct {
	f   *os.File
	buf []byte
}

func (r *fileRecorder) Record(data []byte) {
	r.buf = append(r.buf, data...)
	r.f.Write(data)
}
func (r *fileRecorder) Data() []byte { return r.buf }
func (r *fileRecorder) Clear()       { r.buf = nil }
