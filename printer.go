package headlessterm

// StartPrinting puts the terminal into printer-controller mode: subsequent
// bytes are routed to the configured PrinterProvider instead of the screen
// model until StopPrinting is called.
//
// The vendored output-parser handler interface has no media-copy (CSI 5i /
// CSI 4i) hook, so this is driven explicitly rather than automatically from
// the byte stream.
func (t *Terminal) StartPrinting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printing = true
}

// StopPrinting ends printer-controller mode.
func (t *Terminal) StopPrinting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printing = false
}

// IsPrinting reports whether the terminal is currently in printer-controller mode.
func (t *Terminal) IsPrinting() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.printing
}

// SetPrinterProvider replaces the printer-controller-mode sink.
func (t *Terminal) SetPrinterProvider(p PrinterProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p == nil {
		p = NoopPrinter{}
	}
	t.printerProvider = p
}
