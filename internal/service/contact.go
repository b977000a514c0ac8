package service

import (
	"net"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/user-directory/api/internal/entity"
)

const defaultPhoneRegion = "US"

var idnaProfile = idna.Lookup

// ContactFormatter prepares the display-only contact fields of a user for rendering.
type ContactFormatter struct {
	DefaultRegion string
}

// NewContactFormatter builds a formatter parsing local phone numbers in region.
func NewContactFormatter(region string) *ContactFormatter {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &ContactFormatter{DefaultRegion: region}
}

// Contact is the rendered contact block for one user.
type Contact struct {
	Phone      string `json:"phone"`
	PhoneE164  string `json:"phone_e164,omitempty"`
	Website    string `json:"website"`
	WebsiteURL string `json:"website_url,omitempty"`
	Email      string `json:"email"`
	MailtoURL  string `json:"mailto_url,omitempty"`
}

// Format builds the contact block of u.
func (f *ContactFormatter) Format(u entity.User) Contact {
	c := Contact{
		Phone:      u.Phone,
		PhoneE164:  normalizePhone(u.Phone, f.DefaultRegion),
		Website:    u.Website,
		WebsiteURL: WebsiteLink(u.Website),
		Email:      u.Email,
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		c.MailtoURL = "mailto:" + email
	}
	return c
}

// WebsiteLink turns a stored website into an absolute link. Values without an
// http prefix get https:// prepended; hosts are converted to their ASCII form.
func WebsiteLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host, port := u.Hostname(), u.Port()
	ascii, err := idnaProfile.ToASCII(host)
	if err != nil || ascii == "" {
		return raw
	}
	if port != "" {
		u.Host = net.JoinHostPort(ascii, port)
	} else {
		u.Host = ascii
	}
	return u.String()
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
