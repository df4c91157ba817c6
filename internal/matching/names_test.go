package matching

import "testing"

func TestExtractDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sara@acme.com", "acme.com"},
		{"Sara@ACME.COM", "acme.com"},
		{"no-at-sign", ""},
		{"@acme.com", ""},
		{"sara@", ""},
		{"a@b@c", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := ExtractDomain(tc.in); got != tc.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeriveNameFromEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sarah.chen@x.com", "Sarah Chen"},
		{"jane_doe@x.com", "Jane Doe"},
		{"jean-luc@x.com", "Jean Luc"},
		{"dev+test@x.com", "Dev Test"},
		{"jsmith@x.com", "Jsmith"},
		{"@x.com", ""},
		{"nodomain", ""},
	}

	for _, tc := range cases {
		if got := DeriveNameFromEmail(tc.in); got != tc.want {
			t.Errorf("DeriveNameFromEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompanyNameFromDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"insightpartners.com", "Insightpartners"},
		{"scale-vp.io", "Scale Vp"},
		{"acme_corp.co.uk", "Acme Corp"},
		{"ACME.COM", "Acme"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := CompanyNameFromDomain(tc.in); got != tc.want {
			t.Errorf("CompanyNameFromDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
