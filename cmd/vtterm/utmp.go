package main

import "github.com/rs/zerolog/log"

// registerUtmp would add a utmp/wtmp login record for pid. No pack
// dependency provides utmp access and it is host-OS glue outside the
// engine's scope, so this is a logged no-op rather than a fabricated
// implementation.
func registerUtmp(pid int) {
	log.Warn().Int("pid", pid).Msg("utmp registration requested but not implemented on this platform")
}
