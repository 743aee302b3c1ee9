package enums

import "testing"

func TestParseEventStatusAcceptsLegacyAliases(t *testing.T) {
	cases := map[string]EventStatus{
		"draft":              EventStatusDraft,
		" Investment_Window": EventStatusInvestmentWindow,
		"approved":           EventStatusInvestmentWindow,
		"dao_voting":         EventStatusDAOProcess,
		"dao_process":        EventStatusDAOProcess,
	}
	for raw, want := range cases {
		got, err := ParseEventStatus(raw)
		if err != nil {
			t.Fatalf("ParseEventStatus(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseEventStatus(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseEventStatus("live"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestEventStatusTerminalStates(t *testing.T) {
	terminal := 0
	for _, status := range EventStatuses() {
		if !status.IsValid() {
			t.Fatalf("status %s should be valid", status)
		}
		if status.IsTerminal() {
			terminal++
		}
	}
	if terminal != 3 {
		t.Fatalf("expected 3 terminal states, got %d", terminal)
	}
	if len(EventStatuses()) != 12 {
		t.Fatalf("expected 12 statuses, got %d", len(EventStatuses()))
	}
}

func TestEventStatusIsPublished(t *testing.T) {
	for _, status := range EventStatuses() {
		want := true
		switch status {
		case EventStatusDraft, EventStatusPendingApproval, EventStatusRejected:
			want = false
		}
		if got := status.IsPublished(); got != want {
			t.Fatalf("%s: expected published=%v got %v", status, want, got)
		}
	}
	if EventStatus("bogus").IsPublished() {
		t.Fatal("unknown status must not be published")
	}
}

func TestParseActorRole(t *testing.T) {
	role, err := ParseActorRole("organizer")
	if err != nil || role != ActorRoleOrganizer {
		t.Fatalf("expected organizer, got %s (%v)", role, err)
	}
	if _, err := ParseActorRole("owner"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}
