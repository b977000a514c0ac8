package service

import (
	"testing"

	"github.com/octobees/user-directory/api/internal/entity"
)

func TestWebsiteLink(t *testing.T) {
	tests := map[string]struct {
		input string
		want  string
	}{
		"bare domain":        {input: "hildegard.org", want: "https://hildegard.org"},
		"https kept":         {input: "https://anastasia.net", want: "https://anastasia.net"},
		"http kept":          {input: "http://ramiro.info", want: "http://ramiro.info"},
		"surrounding spaces": {input: "  kale.biz ", want: "https://kale.biz"},
		"empty":              {input: "", want: ""},
		"unicode host":       {input: "münchen.de/kontakt", want: "https://xn--mnchen-3ya.de/kontakt"},
		"port preserved":     {input: "example.com:8443/a", want: "https://example.com:8443/a"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := WebsiteLink(tt.input); got != tt.want {
				t.Fatalf("WebsiteLink(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := normalizePhone(" (415) 555-1234 ", "US"); got != "+14155551234" {
		t.Fatalf("unexpected normalized phone: %s", got)
	}
	if got := normalizePhone("12345", "US"); got != "" {
		t.Fatalf("expected invalid phone to be dropped, got %s", got)
	}
	if got := normalizePhone("", "US"); got != "" {
		t.Fatalf("expected empty phone, got %s", got)
	}
	if got := normalizePhone("+14155551234", ""); got != "+14155551234" {
		t.Fatalf("expected default region fallback, got %s", got)
	}
}

func TestContactFormatter_Format(t *testing.T) {
	f := NewContactFormatter("")
	if f.DefaultRegion != "US" {
		t.Fatalf("expected default region US, got %s", f.DefaultRegion)
	}

	c := f.Format(entity.User{
		Email:   "Sincere@april.biz",
		Phone:   "(415) 555-1234",
		Website: "hildegard.org",
	})
	if c.WebsiteURL != "https://hildegard.org" || c.Website != "hildegard.org" {
		t.Fatalf("unexpected website fields: %+v", c)
	}
	if c.PhoneE164 != "+14155551234" || c.Phone != "(415) 555-1234" {
		t.Fatalf("unexpected phone fields: %+v", c)
	}
	if c.MailtoURL != "mailto:Sincere@april.biz" {
		t.Fatalf("unexpected mailto: %s", c.MailtoURL)
	}

	empty := f.Format(entity.User{})
	if empty.MailtoURL != "" || empty.WebsiteURL != "" || empty.PhoneE164 != "" {
		t.Fatalf("expected empty contact links, got %+v", empty)
	}
}
