package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestAudienceOf(t *testing.T) {
	assert.Equal(t, Audience{Broadcast{}}, AudienceOf(Event{}))
	assert.Equal(t, Audience{Broadcast{}}, AudienceOf(Event{Role: ptr(""), UserID: ptr(uint(0))}))
	assert.Equal(t,
		Audience{ForUser{ID: 3}, ForRole{Role: "CHEF"}, ForDepartment{Department: "Bar"}},
		AudienceOf(Event{UserID: ptr(uint(3)), Role: ptr("CHEF"), Department: ptr("Bar")}))
}

func TestVisible(t *testing.T) {
	chef := Observer{UserID: 3, Role: "CHEF", Department: "Salon 1"}

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"broadcast", Event{}, true},
		{"same user", Event{UserID: ptr(uint(3))}, true},
		{"other user", Event{UserID: ptr(uint(4))}, false},
		{"same role", Event{Role: ptr("CHEF")}, true},
		{"other role", Event{Role: ptr("ADMIN")}, false},
		{"same department", Event{Department: ptr("Salon 1")}, true},
		{"other department", Event{Department: ptr("Bar")}, false},
		{"all tags must match", Event{Role: ptr("CHEF"), Department: ptr("Bar")}, false},
		{"role and department match", Event{Role: ptr("CHEF"), Department: ptr("Salon 1")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(tt.event, chef))
		})
	}
}

type unknownRecipient struct{ Recipient }

func TestMatchesRejectsUnknownRecipient(t *testing.T) {
	assert.False(t, Audience{unknownRecipient{}}.Admits(Observer{}))
}
