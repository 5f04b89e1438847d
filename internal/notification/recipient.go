package notification

import "strings"

// Observer: bağlı istemcinin kimliği (oturumdan gelir)
type Observer struct {
	UserID     uint
	Role       string
	Department string
}

// Recipient is one scoping rule of a notification. The set of variants is closed.
type Recipient interface {
	isRecipient()
}

type (
	Broadcast     struct{}
	ForUser       struct{ ID uint }
	ForRole       struct{ Role string }
	ForDepartment struct{ Department string }
)

func (Broadcast) isRecipient()     {}
func (ForUser) isRecipient()       {}
func (ForRole) isRecipient()       {}
func (ForDepartment) isRecipient() {}

// Audience: bütün kuralların birlikte sağlanması gerekir. Boş audience herkese açıktır.
type Audience []Recipient

// AudienceOf derives the audience from the event's optional scoping tags.
func AudienceOf(e Event) Audience {
	var a Audience
	if e.UserID != nil && *e.UserID != 0 {
		a = append(a, ForUser{ID: *e.UserID})
	}
	if e.Role != nil && strings.TrimSpace(*e.Role) != "" {
		a = append(a, ForRole{Role: *e.Role})
	}
	if e.Department != nil && strings.TrimSpace(*e.Department) != "" {
		a = append(a, ForDepartment{Department: *e.Department})
	}
	if len(a) == 0 {
		return Audience{Broadcast{}}
	}
	return a
}

func (a Audience) Admits(o Observer) bool {
	for _, r := range a {
		if !matches(r, o) {
			return false
		}
	}
	return true
}

func matches(r Recipient, o Observer) bool {
	switch r := r.(type) {
	case Broadcast:
		return true
	case ForUser:
		return o.UserID == r.ID
	case ForRole:
		return o.Role == r.Role
	case ForDepartment:
		return o.Department == r.Department
	default:
		return false
	}
}

// Visible reports whether the observer may see the event.
func Visible(e Event, o Observer) bool {
	return AudienceOf(e).Admits(o)
}
