package models

import "fmt"

// Collection is one of the fixed content buckets.
//
// The set is closed: values outside of it can only come from decoding
// untrusted input and are rejected by ParseCollection.
type Collection string

const (
	// Research holds research notes.
	Research Collection = "research"
	// Media holds film, music and book reviews.
	Media Collection = "media"
	// Activity holds the activity log.
	Activity Collection = "activity"
	// Shop holds shop items.
	Shop Collection = "shop"
)

// Collections returns every collection in display order.
func Collections() []Collection {
	return []Collection{Research, Media, Activity, Shop}
}

// Valid reports whether c is part of the fixed set.
func (c Collection) Valid() bool {
	switch c {
	case Research, Media, Activity, Shop:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (c Collection) String() string {
	return string(c)
}

// ParseCollection validates a wire-level collection name.
func ParseCollection(s string) (Collection, error) {
	c := Collection(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, s)
	}
	return c, nil
}
