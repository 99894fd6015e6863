package server

import (
	"encoding/xml"
	"io"
	"net/http"
	"time"

	"jabber.at/hp"
	"jabber.at/hp/i18n"
)

// The blog has no posts, so both feeds only describe the blog itself.

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	Language      string `xml:"language"`
	LastBuildDate string `xml:"lastBuildDate"`
}

type atomFeed struct {
	XMLName  xml.Name   `xml:"http://www.w3.org/2005/Atom feed"`
	Lang     string     `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	ID       string     `xml:"id"`
	Title    string     `xml:"title"`
	Subtitle string     `xml:"subtitle"`
	Updated  string     `xml:"updated"`
	Links    []atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

func (s *Server) rssFeed(w http.ResponseWriter, r *http.Request) {
	tr := i18n.FromContext(r.Context())
	blog := s.site.CanonicalURL(s.resolver.MustReverse("blog:home"))
	writeXML(w, r, "application/rss+xml; charset=utf-8", rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         s.site.Name,
			Link:          blog,
			Description:   tr.T(s.site.Description),
			Language:      tr.Lang(),
			LastBuildDate: s.site.Now().UTC().Format(time.RFC1123Z),
		},
	})
}

func (s *Server) atomFeed(w http.ResponseWriter, r *http.Request) {
	tr := i18n.FromContext(r.Context())
	blog := s.site.CanonicalURL(s.resolver.MustReverse("blog:home"))
	self := s.site.CanonicalURL(s.resolver.MustReverse("blog:atom"))
	writeXML(w, r, "application/atom+xml; charset=utf-8", atomFeed{
		Lang:     tr.Lang(),
		ID:       self,
		Title:    s.site.Name,
		Subtitle: tr.T(s.site.Description),
		Updated:  s.site.Now().UTC().Format(time.RFC3339),
		Links: []atomLink{
			{Href: blog},
			{Href: self, Rel: "self"},
		},
	})
}

func writeXML(w http.ResponseWriter, r *http.Request, contentType string, v any) {
	ctx := r.Context()
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		hp.Logger(ctx).ErrorContext(ctx, "error encoding feed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	io.WriteString(w, xml.Header) //nolint:errcheck
	w.Write(out)                  //nolint:errcheck
}
