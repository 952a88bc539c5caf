package escalation

import "testing"

func TestTriggerFires(t *testing.T) {
	trigger := NewTrigger(
		[]string{"helpline", " Customer Care ", ""},
		[]string{"cityvibes team"},
	)

	tests := []struct {
		name     string
		inbound  string
		outbound string
		want     bool
	}{
		{"user phrase", "What's your helpline number?", "We are open 10 to 9.", true},
		{"user phrase upper case", "HELPLINE please", "", true},
		{"configured phrase trimmed and lowered", "need customer care", "", true},
		{"bot phrase any case", "Where is my order?", "The Cityvibes Team will call you shortly.", true},
		{"bot phrase in inbound only", "is the cityvibes team around?", "Yes!", false},
		{"user phrase in outbound only", "hello", "Our helpline is 1800", false},
		{"no phrase", "Do you have kurtas?", "Yes, in all sizes.", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trigger.Fires(tt.inbound, tt.outbound); got != tt.want {
				t.Errorf("Fires(%q, %q) = %v, want %v", tt.inbound, tt.outbound, got, tt.want)
			}
		})
	}
}

func TestTriggerWithoutPhrases(t *testing.T) {
	if NewTrigger(nil, nil).Fires("helpline", "cityvibes team") {
		t.Fatal("trigger with no phrases must never fire")
	}
}
