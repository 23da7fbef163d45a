package headlessterm

import (
	"strconv"
	"strings"
)

// NotificationPayload describes one desktop notification request, covering
// both the simple OSC 9 form (Data only) and the richer OSC 99 (iTerm2/Kitty
// style) key=value form.
type NotificationPayload struct {
	// ID identifies this notification for later reference (i= on OSC 99).
	ID string
	// Done indicates the payload is complete; OSC 99 allows a notification's
	// Data to arrive split across multiple escape sequences with Done=false
	// on every chunk but the last.
	Done bool
	// PayloadType is the OSC 99 d= field: "title", "body", or "?" for a
	// capability query. Empty for the plain OSC 9 form.
	PayloadType string
	// Encoding is the OSC 99 e= field ("1" for base64), empty if Data is raw text.
	Encoding string
	// Actions lists the OSC 99 a= actions the provider should offer
	// ("focus", "report", ...).
	Actions []string
	// TrackClose requests a close notification back from the provider (c=1).
	TrackClose bool
	// Timeout is the OSC 99 w= auto-dismiss timeout in milliseconds, 0 for none.
	Timeout int
	// AppName is the OSC 99 f= field identifying the requesting application.
	AppName string
	// Type is the OSC 99 t= notification type/category.
	Type string
	// IconName is the OSC 99 n= icon name.
	IconName string
	// IconCacheID is the OSC 99 g= cached icon reference.
	IconCacheID string
	// Sound is the OSC 99 s= sound name ("system" or a specific sound), empty
	// for silent.
	Sound string
	// Urgency is the OSC 99 u= urgency level (0=low, 1=normal, 2=critical).
	Urgency int
	// Occasion is the OSC 99 o= field controlling when the provider should
	// surface the notification ("always", "unfocused", "invisible").
	Occasion string
	// Data is the notification title or body text (or base64 payload if
	// Encoding is set).
	Data []byte
}

// NotificationProvider surfaces desktop notification requests (OSC 9/99) to
// a host environment. Notify returns the raw response bytes to write back to
// the PTY for a query payload (PayloadType == "?"), or "" when no response
// is expected.
type NotificationProvider interface {
	Notify(payload *NotificationPayload) string
}

// NoopNotification discards all notification requests.
type NoopNotification struct{}

func (NoopNotification) Notify(payload *NotificationPayload) string { return "" }

var _ NotificationProvider = NoopNotification{}

// DesktopNotification delivers payload to the configured NotificationProvider
// (OSC 9/99). Unlike most handlers here, nothing in the vendored ANSI decoder
// currently recognizes OSC 9/99 and dispatches into this method directly —
// the same gap the printing handlers document for media-copy — so a decoder
// extension or middleware is expected to parse the OSC payload (see
// ParseOSC99Notification) and call this explicitly.
func (t *Terminal) DesktopNotification(payload *NotificationPayload) {
	if t.middleware != nil && t.middleware.DesktopNotification != nil {
		t.middleware.DesktopNotification(payload, t.desktopNotificationInternal)
		return
	}
	t.desktopNotificationInternal(payload)
}

func (t *Terminal) desktopNotificationInternal(payload *NotificationPayload) {
	if t.notificationProvider == nil {
		return
	}

	response := t.notificationProvider.Notify(payload)
	if response != "" {
		t.writeResponseString(response)
	}
}

// ParseOSC99Notification parses the body of an OSC 99 sequence (everything
// after "99;"): a colon-separated run of key=value metadata pairs,
// followed by ";" and the notification text.
//
//	i=1:d=title;Hello
//	i=1:d=body:a=focus,report:u=2;Build finished
func ParseOSC99Notification(data []byte) *NotificationPayload {
	p := &NotificationPayload{Done: true}

	sepIdx := indexUnescapedSemicolon(data)
	var meta, text []byte
	if sepIdx >= 0 {
		meta = data[:sepIdx]
		text = data[sepIdx+1:]
	} else {
		meta = data
	}

	for _, field := range strings.Split(string(meta), ":") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "i":
			p.ID = value
		case "d":
			p.PayloadType = value
			p.Done = value != "0"
		case "e":
			p.Encoding = value
		case "a":
			p.Actions = strings.Split(value, ",")
		case "c":
			p.TrackClose = value == "1"
		case "w":
			p.Timeout, _ = strconv.Atoi(value)
		case "f":
			p.AppName = value
		case "t":
			p.Type = value
		case "n":
			p.IconName = value
		case "g":
			p.IconCacheID = value
		case "s":
			p.Sound = value
		case "u":
			p.Urgency, _ = strconv.Atoi(value)
		case "o":
			p.Occasion = value
		}
	}

	p.Data = text
	return p
}

// ParseOSC9Notification parses the body of a plain OSC 9 sequence: the
// entire payload is the notification body, with no metadata fields.
func ParseOSC9Notification(data []byte) *NotificationPayload {
	return &NotificationPayload{
		Done:        true,
		PayloadType: "body",
		Data:        data,
	}
}

// ParseOSC777Notification parses the body of an rxvt-style OSC 777 sequence:
// "notify;title;body". The leading "notify;" selector is required by the
// protocol but carries no information once recognized, so only title/body
// survive into the payload.
func ParseOSC777Notification(data []byte) *NotificationPayload {
	_, rest, ok := strings.Cut(string(data), ";")
	if !ok {
		return &NotificationPayload{Done: true, PayloadType: "body"}
	}

	title, body, ok := strings.Cut(rest, ";")
	if !ok {
		return &NotificationPayload{Done: true, PayloadType: "title", Data: []byte(title)}
	}

	return &NotificationPayload{
		Done:        true,
		PayloadType: "body",
		AppName:     title,
		Data:        []byte(body),
	}
}

// indexUnescapedSemicolon finds the first ';' not immediately preceded by
// another ';' (OSC 99 escapes a literal semicolon in its metadata as ";;").
func indexUnescapedSemicolon(data []byte) int {
	for i := 0; i < len(data); i++ {
		if data[i] != ';' {
			continue
		}
		if i+1 < len(data) && data[i+1] == ';' {
			i++
			continue
		}
		return i
	}
	return -1
}
