// internal/app/sync/icloud/icloud.go

// Package icloud reads Apple Reminders over CalDAV. There is no OAuth here:
// the user supplies their Apple ID plus an app-specific password, verified
// with a probe request and kept in the sync_tokens store by the caller.
package icloud

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const caldavBase = "https://caldav.icloud.com"

// Adapter talks CalDAV to iCloud with basic auth.
type Adapter struct {
	// BaseURL overrides caldavBase in tests.
	BaseURL string

	// HTTPClient defaults to a 15s-timeout client.
	HTTPClient *http.Client
}

// Credentials is an Apple ID plus app-specific password pair.
type Credentials struct {
	AppleID     string `json:"apple_id"`
	AppPassword string `json:"app_password"`
}

func (a *Adapter) base() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return caldavBase
}

func (a *Adapter) client() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// Verify probes the CalDAV root to check the credentials. Returns nil when
// iCloud accepts them.
func (a *Adapter) Verify(ctx context.Context, creds Credentials) error {
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", a.base()+"/", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(creds.AppleID, creds.AppPassword)
	req.Header.Set("Depth", "0")

	resp, err := a.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("icloud: credenciales rechazadas (%d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("icloud: verify: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type multistatus struct {
	Responses []struct {
		Href     string `xml:"href"`
		Propstat []struct {
			Prop struct {
				CalendarData string `xml:"calendar-data"`
			} `xml:"prop"`
		} `xml:"propstat"`
	} `xml:"response"`
}

// Reminder is one VTODO pulled from a reminders calendar.
type Reminder struct {
	UID        string     `json:"uid"`
	Titulo     string     `json:"titulo"`
	VenceEn    *time.Time `json:"vence_en,omitempty"`
	Completada bool       `json:"completada"`
}

// ListReminders runs a calendar-query REPORT for VTODO components against
// the given calendar path.
func (a *Adapter) ListReminders(ctx context.Context, creds Credentials, calendarPath string) ([]Reminder, error) {
	const query = `<?xml version="1.0" encoding="utf-8"?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop><C:calendar-data/></D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VTODO"/>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`

	req, err := http.NewRequestWithContext(ctx, "REPORT", a.base()+calendarPath, bytes.NewBufferString(query))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.AppleID, creds.AppPassword)
	req.Header.Set("Depth", "1")
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := a.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMultiStatus {
		return nil, fmt.Errorf("icloud: report: unexpected status %d", resp.StatusCode)
	}

	var ms multistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, err
	}

	var reminders []Reminder
	for _, r := range ms.Responses {
		for _, ps := range r.Propstat {
			if ps.Prop.CalendarData == "" {
				continue
			}
			reminders = append(reminders, parseVTodo(ps.Prop.CalendarData))
		}
	}
	return reminders, nil
}

// CreateReminder PUTs a minimal VTODO into the calendar.
func (a *Adapter) CreateReminder(ctx context.Context, creds Credentials, calendarPath string, rem Reminder) error {
	uid := rem.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//astren//sync//ES\r\nBEGIN:VTODO\r\n")
	fmt.Fprintf(&b, "UID:%s\r\n", uid)
	fmt.Fprintf(&b, "SUMMARY:%s\r\n", escapeText(rem.Titulo))
	if rem.VenceEn != nil {
		fmt.Fprintf(&b, "DUE:%s\r\n", rem.VenceEn.UTC().Format("20060102T150405Z"))
	}
	b.WriteString("END:VTODO\r\nEND:VCALENDAR\r\n")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		a.base()+calendarPath+uid+".ics", strings.NewReader(b.String()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(creds.AppleID, creds.AppPassword)
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")

	resp, err := a.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("icloud: put reminder: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// parseVTodo extracts the fields we surface from a raw iCalendar blob.
// A line-oriented scan is enough; iCloud emits one property per line.
func parseVTodo(ics string) Reminder {
	var rem Reminder
	for _, line := range strings.Split(ics, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "UID:"):
			rem.UID = strings.TrimPrefix(line, "UID:")
		case strings.HasPrefix(line, "SUMMARY:"):
			rem.Titulo = unescapeText(strings.TrimPrefix(line, "SUMMARY:"))
		case strings.HasPrefix(line, "STATUS:"):
			rem.Completada = strings.TrimPrefix(line, "STATUS:") == "COMPLETED"
		case strings.HasPrefix(line, "DUE"):
			if i := strings.IndexByte(line, ':'); i >= 0 {
				raw := line[i+1:]
				for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
					if due, err := time.Parse(layout, raw); err == nil {
						rem.VenceEn = &due
						break
					}
				}
			}
		}
	}
	return rem
}

func escapeText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}

func unescapeText(s string) string {
	r := strings.NewReplacer("\\\\", "\\", "\\;", ";", "\\,", ",", "\\n", "\n", "\\N", "\n")
	return r.Replace(s)
}
