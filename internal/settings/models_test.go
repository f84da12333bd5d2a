package settings

import "testing"

func TestIsChannelID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"123", false},
		{"12345678901234567", true},     // 17 digits
		{"12345678901234567890", true},  // 20 digits
		{"123456789012345678901", false}, // 21 digits
		{"1234567890123456a", false},
		{" 2345678901234567", false},
	}
	for _, c := range cases {
		if got := IsChannelID(c.in); got != c.want {
			t.Errorf("IsChannelID(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDestination_FallbackChain(t *testing.T) {
	r := Defaults("comm-1")

	// Valid own channel wins.
	r.LogChannelID = "12345678901234567"
	if ch, ok := r.Destination("99999999999999999"); !ok || ch != "12345678901234567" {
		t.Fatalf("expected own channel, got %q ok=%v", ch, ok)
	}

	// Invalid own channel falls back to process default.
	r.LogChannelID = "123"
	if ch, ok := r.Destination("99999999999999999"); !ok || ch != "99999999999999999" {
		t.Fatalf("expected default channel, got %q ok=%v", ch, ok)
	}

	// Neither valid: event must be dropped.
	if _, ok := r.Destination(""); ok {
		t.Fatalf("expected no destination")
	}
}

func TestDefaults_AllTogglesEnabled(t *testing.T) {
	r := Defaults("comm-1")
	for _, cat := range []Category{
		CategoryMemberJoin, CategoryMemberLeave, CategoryKick, CategoryBan,
		CategoryRoleChange, CategoryNicknameChange, CategoryTimeout,
		CategoryMessageDelete, CategoryMessageEdit, CategoryInvites,
	} {
		if !r.Enabled(cat) {
			t.Errorf("expected %s enabled by default", cat)
		}
	}
	if r.Enabled(Category("mystery")) {
		t.Errorf("unknown category must be disabled")
	}
}
