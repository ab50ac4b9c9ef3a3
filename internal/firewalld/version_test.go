//go:build linux
// +build linux

package firewalld

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		version string
		want    APIVersion
	}{
		{version: "0.3.0", want: APIv1},
		{version: "0.9.9", want: APIv1},
		{version: "1.0.0", want: APIv2},
		{version: "1.2.3", want: APIv2},
		{version: "2.0.0", want: APIv2},
		{version: "", want: APIUnknown},
		{version: "invalid", want: APIUnknown},
		{version: "-1.0", want: APIUnknown},
		{version: " 0.9.11 ", want: APIv1},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got := parseVersion(tt.version)
			if got != tt.want {
				t.Fatalf("parseVersion(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestAPIVersionString(t *testing.T) {
	if got := APIv1.String(); got != "v1 (firewalld 0.x)" {
		t.Fatalf("APIv1.String() = %q", got)
	}
	if got := APIv2.String(); got != "v2 (firewalld 1.x+)" {
		t.Fatalf("APIv2.String() = %q", got)
	}
	if got := APIUnknown.String(); got != "unknown" {
		t.Fatalf("APIUnknown.String() = %q", got)
	}
}
