package navigation

import (
	"net/url"
	"strconv"
)

// Descriptor is the deep-link form of a navigation state, carried as the
// query parameters section, chapter and quiz. Zero ids mean absent.
type Descriptor struct {
	Section uint `json:"section,omitempty"`
	Chapter uint `json:"chapter,omitempty"`
	Quiz    bool `json:"quiz,omitempty"`
}

// ParseDescriptor reads raw parameter values. Anything that is not a
// positive integer id is treated as absent; quiz is set only by "1".
func ParseDescriptor(section, chapter, quiz string) Descriptor {
	return Descriptor{
		Section: parseID(section),
		Chapter: parseID(chapter),
		Quiz:    quiz == "1",
	}
}

func DescriptorFromValues(v url.Values) Descriptor {
	return ParseDescriptor(v.Get("section"), v.Get("chapter"), v.Get("quiz"))
}

func parseID(raw string) uint {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0
	}
	return uint(id)
}

func (d Descriptor) Values() url.Values {
	v := url.Values{}
	if d.Section != 0 {
		v.Set("section", strconv.FormatUint(uint64(d.Section), 10))
	}
	if d.Chapter != 0 {
		v.Set("chapter", strconv.FormatUint(uint64(d.Chapter), 10))
	}
	if d.Quiz {
		v.Set("quiz", "1")
	}
	return v
}

// Encode renders the descriptor as a query string without the leading "?".
func (d Descriptor) Encode() string {
	return d.Values().Encode()
}
