// Package routepath owns the launch week URL layout.
package routepath

import "net/url"

const (
	Root   = "/"
	Health = "/up"

	StaticPrefix = "/static/"

	LaunchWeek       = "/launch-week"
	LaunchWeekPrefix = "/launch-week/"
	Events           = "/launch-week/events"
	TicketsPrefix    = "/launch-week/tickets/"

	AppPrefix           = "/app/"
	AppLaunchWeekPrefix = "/app/launch-week/"
	Claim               = "/app/launch-week/claim"

	AuthHooksPrefix = "/auth/hooks/"
	SessionHook     = "/auth/hooks/session"
)

// TicketImage returns the SVG artifact path for username.
func TicketImage(username string) string {
	return TicketsPrefix + url.PathEscape(username) + "/og.svg"
}

// EventsWithQuery returns the event stream path carrying the page query.
func EventsWithQuery(rawQuery string) string {
	if rawQuery == "" {
		return Events
	}
	return Events + "?" + rawQuery
}

// ShareLink returns the page path previewing username's ticket.
func ShareLink(username string) string {
	return LaunchWeek + "?" + url.Values{"username": {username}}.Encode()
}
