package enums

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", DefaultLanguage},
		{"  ", DefaultLanguage},
		{"EN", "en"},
		{" Fr ", "fr"},
		{"pt-br", "pt-br"},
	}
	for _, tc := range cases {
		if got := NormalizeLanguage(tc.in); got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseCustomerRole(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"admin", true},
		{"registered", true},
		{"guest", true},
		{"superuser", false},
		{"", false},
	}
	for _, tc := range cases {
		role, ok := ParseCustomerRole(tc.in)
		if ok != tc.valid {
			t.Fatalf("ParseCustomerRole(%q) valid = %v, want %v", tc.in, ok, tc.valid)
		}
		if ok && string(role) != tc.in {
			t.Fatalf("ParseCustomerRole(%q) = %q", tc.in, role)
		}
	}
}

func TestOutboxEventTypeIsValid(t *testing.T) {
	valid := []OutboxEventType{
		EventSubscriptionCreated,
		EventSubscriptionUpdated,
		EventSubscriptionDeleted,
		EventStockReplenished,
		EventRestockNotificationsSent,
	}
	for _, et := range valid {
		if !et.IsValid() {
			t.Fatalf("expected %q to be valid", et)
		}
	}
	if OutboxEventType("order_placed").IsValid() {
		t.Fatal("expected unknown event type to be invalid")
	}
}

func TestDLQErrorReasonIsValid(t *testing.T) {
	if !DLQReasonNonRetryable.IsValid() || !DLQReasonMaxAttempts.IsValid() {
		t.Fatal("expected known reasons to be valid")
	}
	if DLQErrorReason("other").IsValid() {
		t.Fatal("expected unknown reason to be invalid")
	}
}
