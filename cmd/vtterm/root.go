package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagSize     string
	flagTitle    string
	flagLogFile  string
	flagUtmp     bool
	flagHold     string
	flagVerbose  bool
	flagShowHelp bool
	commandArgs  []string
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:                "vtterm [flags] [-e COMMAND [ARG...]]",
	Short:              "A headless VT/xterm-compatible terminal engine harness",
	Version:            version,
	SilenceUsage:       true,
	DisableFlagParsing: false,
	RunE:               runMain,
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolP("help", "", false, "display help and exit")
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "load settings from FILE")
	rootCmd.Flags().StringVarP(&flagSize, "size", "s", "", "set initial size COLS,ROWS")
	rootCmd.Flags().StringVarP(&flagTitle, "title", "t", "", "set window title")
	rootCmd.Flags().StringVarP(&flagLogFile, "log", "l", "", "log all output to FILE")
	rootCmd.Flags().BoolVarP(&flagUtmp, "utmp", "u", false, "register a utmp entry")
	rootCmd.Flags().StringVarP(&flagHold, "hold", "h", "never", "keep window open after command exits: never, always, error")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Flags().BoolVarP(&flagShowHelp, "exit", "H", false, "print command-line help and exit")
	rootCmd.Flags().BoolP("version", "V", false, "print version and exit")

	rootCmd.SetVersionTemplate("vtterm {{.Version}}\n")
}

func initLogging() {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// splitCommandArgs extracts everything after a bare "-e" from os.Args before
// cobra parses flags, since pflag has no getopt-style "stop parsing flags at
// this point" primitive for an arbitrary flag (only for "--").
func splitCommandArgs(args []string) (rest []string, command []string) {
	for i, a := range args {
		if a == "-e" || a == "--exec" {
			rest = append([]string{}, args[:i]...)
			if i+1 < len(args) {
				command = args[i+1:]
			}
			return rest, command
		}
	}
	return args, nil
}

func parseSize(s string) (cols, rows int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected COLS,ROWS, got %q", s)
	}
	cols, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	rows, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return cols, rows, nil
}

