package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ContentKind classifies a message body.
type ContentKind string

const (
	ContentText      ContentKind = "text"
	ContentBroadcast ContentKind = "broadcast"
	ContentLocation  ContentKind = "location"
)

const (
	// BroadcastMarker prefixes every broadcast body.
	BroadcastMarker = "📢 "
	// BroadcastFallback is sent when the broadcast text is empty.
	BroadcastFallback = "Broadcast message sent"
	// LocationMarker prefixes shared locations.
	LocationMarker = "📍 My location: "

	mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="
)

// EnhancePrompt is prepended to drafts sent for AI enhancement.
const EnhancePrompt = "pls improve this sentence ok, just give the enhanced version without any words from you here is the text: "

// Content is a parsed message body.
type Content struct {
	Kind ContentKind
	// Text is the body with any marker removed.
	Text string
	// Lat and Lng are set for locations.
	Lat, Lng float64
	// URL is the map link of a location.
	URL string
}

// FormatBroadcast builds a broadcast body from user text.
func FormatBroadcast(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = BroadcastFallback
	}
	return BroadcastMarker + text
}

// FormatLocation builds a location share body.
func FormatLocation(lat, lng float64) string {
	return LocationMarker + LocationURL(lat, lng)
}

// LocationURL returns the map search link for coordinates.
func LocationURL(lat, lng float64) string {
	return mapsSearchURL + strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// ParseContent classifies a message body.
func ParseContent(body string) Content {
	switch {
	case strings.HasPrefix(body, LocationMarker):
		link := strings.TrimSpace(strings.TrimPrefix(body, LocationMarker))
		c := Content{Kind: ContentLocation, Text: link, URL: link}
		if lat, lng, ok := parseMapsQuery(link); ok {
			c.Lat, c.Lng = lat, lng
			return c
		}
		return Content{Kind: ContentText, Text: body}
	case strings.HasPrefix(body, BroadcastMarker):
		return Content{Kind: ContentBroadcast, Text: strings.TrimPrefix(body, BroadcastMarker)}
	default:
		return Content{Kind: ContentText, Text: body}
	}
}

func parseMapsQuery(link string) (float64, float64, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return 0, 0, false
	}
	parts := strings.Split(u.Query().Get("query"), ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

// ParseCoordinates parses "lat,lng" as typed by a user.
func ParseCoordinates(s string) (float64, float64, error) {
	lat, lng, ok := parseMapsQuery("?query=" + url.QueryEscape(strings.ReplaceAll(s, " ", "")))
	if !ok {
		return 0, 0, fmt.Errorf("invalid coordinates %q: want <lat>,<lng>", s)
	}
	return lat, lng, nil
}

var (
	linkURLRe   = regexp.MustCompile(`(?i)(https?://[^\s]+|www\.[^\s]+)`)
	linkEmailRe = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	linkPhoneRe = regexp.MustCompile(`(\+?\d[\d\s\-().]{6,}\d)`)
	nonDialRe   = regexp.MustCompile(`[^\d+]`)
)

// LinkTarget returns the first actionable target in a body: a URL, then a
// mailto: address, then a tel: number. Empty when nothing matches.
func LinkTarget(body string) string {
	if m := linkURLRe.FindString(body); m != "" {
		if strings.HasPrefix(strings.ToLower(m), "http") {
			return m
		}
		return "https://" + m
	}
	if m := linkEmailRe.FindString(body); m != "" {
		return "mailto:" + m
	}
	if m := linkPhoneRe.FindString(body); m != "" {
		return "tel:" + nonDialRe.ReplaceAllString(m, "")
	}
	return ""
}

var memberSplitRe = regexp.MustCompile(`[,\s]+`)

// ParseMemberList splits comma or whitespace separated addresses, keeping
// entries that contain "@" and are not self. Order is preserved.
func ParseMemberList(raw, self string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	out := make([]string, 0)
	for _, part := range memberSplitRe.Split(raw, -1) {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, "@") || part == self {
			continue
		}
		out = append(out, part)
	}
	return out
}

// System messages posted to a group after membership changes.

func MemberRemovedNotice(actor, member string) string {
	return fmt.Sprintf("%s removed %s", actor, member)
}

func MemberLeftNotice(actor string) string {
	return fmt.Sprintf("%s left the group", actor)
}

func AdminGrantedNotice(actor, member string) string {
	return fmt.Sprintf("%s made %s an admin", actor, member)
}

func AdminRevokedNotice(actor, member string) string {
	return fmt.Sprintf("%s removed %s as admin", actor, member)
}

// UnreadBadge renders an unread count, capping at "99+".
func UnreadBadge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 99:
		return "99+"
	default:
		return strconv.Itoa(n)
	}
}

// Initials returns up to two upper-case letters for an avatar placeholder.
func Initials(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r := []rune(name)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}
