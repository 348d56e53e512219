package model

import (
	"fmt"
	"strings"
)

// Status is the closed set of states a report can be in.
type Status string

// Item statuses.
const (
	StatusLost  Status = "lost"
	StatusFound Status = "found"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusLost, StatusFound}

// ParseStatus returns the status for s, rejecting anything outside the enum.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusLost:
		return StatusLost, nil
	case StatusFound:
		return StatusFound, nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusLost || s == StatusFound
}

// Item is a single lost or found report.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Contact     string  `json:"contact"`
	Date        string  `json:"date"`
	Time        *string `json:"time"`
	Location    string  `json:"location"`
	Status      Status  `json:"status"`
}

// UploadsPrefix is the URL prefix under which item images are served.
const UploadsPrefix = "/uploads/"
