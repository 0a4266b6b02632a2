package templates

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/louisbranch/launchweek/internal/services/launchweek/render"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"golang.org/x/net/html"
)

func renderComponent(t *testing.T, ctx context.Context, c templ.Component) *html.Node {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc, err := html.Parse(&buf)
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}
	return doc
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

func byAttr(key, value string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, key) == value }
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func TestLayoutRendersOpenGraphMetadataAndChildren(t *testing.T) {
	t.Parallel()

	head := Head{
		Title:        "Ada's ticket",
		Description:  "Claim <yours>",
		Lang:         "pt-BR",
		Theme:        "dark",
		CanonicalURL: "https://launch.example.com/launch-week?username=ada",
		ImageURL:     "https://launch.example.com/launch-week/tickets/ada/og.svg",
		Languages: []LanguageOption{
			{Tag: "en-US", Label: "English", URL: "/launch-week?lang=en-US"},
			{Tag: "pt-BR", Label: "Português", URL: "/launch-week?lang=pt-BR", Active: true},
		},
	}
	ctx := templ.WithChildren(context.Background(), templ.Raw(`<p id="child">hi</p>`))
	doc := renderComponent(t, ctx, Layout(head))

	htmlNode := find(doc, byTag("html"))
	if attr(htmlNode, "lang") != "pt-BR" || attr(htmlNode, "data-theme") != "dark" {
		t.Fatalf("html attrs = %v", htmlNode.Attr)
	}
	if got := textOf(find(doc, byTag("title"))); got != "Ada's ticket | "+AppName {
		t.Fatalf("title = %q", got)
	}
	image := find(doc, byAttr("property", "og:image"))
	if image == nil || attr(image, "content") != head.ImageURL {
		t.Fatalf("og:image = %v", image)
	}
	desc := find(doc, byAttr("name", "description"))
	if attr(desc, "content") != "Claim <yours>" {
		t.Fatalf("description = %q", attr(desc, "content"))
	}
	if find(doc, byAttr("id", "child")) == nil {
		t.Fatal("children not rendered")
	}
	if find(doc, byAttr("hreflang", "en-US")) == nil {
		t.Fatal("language switcher missing inactive link")
	}
}

func TestTicketFragmentStates(t *testing.T) {
	t.Parallel()

	artifact := render.Artifact{
		Theme:         render.ThemeGolden,
		TicketLabel:   "#00042",
		ReferralCount: 3,
		SVG:           []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`),
	}
	cases := []struct {
		state    string
		wantForm bool
		wantSVG  bool
	}{
		{state: StateLoading},
		{state: StateForm, wantForm: true, wantSVG: true},
		{state: StateTicket, wantSVG: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.state, func(t *testing.T) {
			t.Parallel()

			view := TicketView{State: tc.state, Artifact: artifact, ClaimURL: "/app/launch-week/claim", ShareURL: "https://x.test/s"}
			doc := renderComponent(t, context.Background(), TicketFragment(view, nil))
			section := find(doc, byAttr("id", TicketFragmentID))
			if section == nil {
				t.Fatal("ticket section missing")
			}
			if got := attr(section, "data-state"); got != tc.state {
				t.Fatalf("data-state = %q, want %q", got, tc.state)
			}
			if got := find(section, byTag("form")) != nil; got != tc.wantForm {
				t.Fatalf("form present = %v, want %v", got, tc.wantForm)
			}
			if got := find(section, byTag("svg")) != nil; got != tc.wantSVG {
				t.Fatalf("svg present = %v, want %v", got, tc.wantSVG)
			}
		})
	}
}

func TestTicketFragmentEscapesFormValues(t *testing.T) {
	t.Parallel()

	view := TicketView{
		State:    StateForm,
		ClaimURL: "/app/launch-week/claim",
		Form:     ClaimForm{Name: `"><script>alert(1)</script>`, Error: "Enter a valid GitHub username"},
	}
	var buf bytes.Buffer
	if err := TicketFragment(view, nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Fatalf("unescaped markup in %q", buf.String())
	}
	doc, _ := html.Parse(&buf)
	if alert := find(doc, byAttr("role", "alert")); alert == nil || textOf(alert) != view.Form.Error {
		t.Fatal("form error not rendered")
	}
}

func TestPresenceStripCapsParticipants(t *testing.T) {
	t.Parallel()

	refs := make([]storage.ParticipantRef, maxPresenceShown+5)
	for i := range refs {
		refs[i] = storage.ParticipantRef{Username: "user", Number: i + 1}
	}
	doc := renderComponent(t, context.Background(), PresenceStrip(TicketView{Presence: refs}, nil))
	count := 0
	for li := find(doc, byTag("ul")).FirstChild; li != nil; li = li.NextSibling {
		count++
	}
	if count != maxPresenceShown {
		t.Fatalf("rendered %d participants, want %d", count, maxPresenceShown)
	}

	empty := renderComponent(t, context.Background(), PresenceStrip(TicketView{}, nil))
	if find(empty, byTag("ul")) != nil {
		t.Fatal("empty presence rendered a list")
	}
}

func TestErrorStateNormalizesStatus(t *testing.T) {
	t.Parallel()

	doc := renderComponent(t, context.Background(), ErrorState(http.StatusTeapot, "/launch-week", nil))
	main := find(doc, byTag("main"))
	if got := attr(main, "data-status"); got != "500" {
		t.Fatalf("data-status = %q, want 500", got)
	}
	if got := ErrorPageTitle(http.StatusNotFound, nil); got != errorNotFoundKey {
		t.Fatalf("ErrorPageTitle() = %q, want %q", got, errorNotFoundKey)
	}
}

func TestComposePageTitle(t *testing.T) {
	t.Parallel()

	if got := ComposePageTitle(""); got != AppName {
		t.Fatalf("ComposePageTitle(\"\") = %q", got)
	}
	if got := ComposePageTitle("Ticket"); got != "Ticket | "+AppName {
		t.Fatalf("ComposePageTitle() = %q", got)
	}
}
