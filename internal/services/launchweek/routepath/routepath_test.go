package routepath

import "testing"

func TestTopLevelRouteConstants(t *testing.T) {
	t.Parallel()

	if Root != "/" {
		t.Fatalf("Root = %q", Root)
	}
	if Health != "/up" {
		t.Fatalf("Health = %q", Health)
	}
	if Claim != AppLaunchWeekPrefix+"claim" {
		t.Fatalf("Claim = %q", Claim)
	}
	if SessionHook != AuthHooksPrefix+"session" {
		t.Fatalf("SessionHook = %q", SessionHook)
	}
}

func TestRouteBuilders(t *testing.T) {
	t.Parallel()

	if got := TicketImage("ada"); got != "/launch-week/tickets/ada/og.svg" {
		t.Fatalf("TicketImage() = %q", got)
	}
	if got := TicketImage("a/b"); got != "/launch-week/tickets/a%2Fb/og.svg" {
		t.Fatalf("TicketImage(escaped) = %q", got)
	}
	if got := EventsWithQuery(""); got != Events {
		t.Fatalf("EventsWithQuery(\"\") = %q", got)
	}
	if got := EventsWithQuery("name=Ada"); got != "/launch-week/events?name=Ada" {
		t.Fatalf("EventsWithQuery() = %q", got)
	}
	if got := ShareLink("ada"); got != "/launch-week?username=ada" {
		t.Fatalf("ShareLink() = %q", got)
	}
}
