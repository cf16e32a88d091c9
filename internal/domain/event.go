package domain

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

type EventCategory string

const (
	EventCategoryConference EventCategory = "conference"
	EventCategoryWorkshop   EventCategory = "workshop"
	EventCategoryMeetup     EventCategory = "meetup"
	EventCategorySocial     EventCategory = "social"
	EventCategorySports     EventCategory = "sports"
	EventCategoryOther      EventCategory = "other"
)

// Event represents a draft or published event with tier-based inventory.
// Deletion is represented only by DeletedAt; deleted events are invisible
// to every read path.
type Event struct {
	ID           string
	Title        string
	Description  string
	Category     EventCategory
	Location     string
	VenueAddress string
	StartsAt     time.Time
	EndsAt       time.Time
	Timezone     string
	MaxAttendees *int
	IsFree       bool
	Status       EventStatus
	OrganizerID  string
	DeletedAt    *time.Time
	CreatedAt    time.Time
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c EventCategory) bool {
	switch c {
	case EventCategoryConference, EventCategoryWorkshop, EventCategoryMeetup,
		EventCategorySocial, EventCategorySports, EventCategoryOther:
		return true
	}
	return false
}

// ValidEventStatusChange reports whether an organizer may move an event
// from one lifecycle state to another.
func ValidEventStatusChange(from, to EventStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case EventStatusDraft:
		return to == EventStatusPublished || to == EventStatusCancelled
	case EventStatusPublished:
		return to == EventStatusCancelled || to == EventStatusCompleted
	}
	return false
}
