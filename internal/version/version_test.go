// ABOUTME: Tests for version constants
// ABOUTME: Ensures build identity is defined and printable
package version

import (
	"strings"
	"testing"
)

func TestIdentityDefined(t *testing.T) {
	for name, v := range map[string]string{
		"Version":      Version,
		"Product":      Product,
		"Manufacturer": Manufacturer,
	} {
		if v == "" {
			t.Errorf("%s should not be empty", name)
		}
		if len(v) > 100 {
			t.Errorf("%s is unreasonably long", name)
		}
	}
}

func TestVersionIsSemver(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("expected major.minor.patch, got %q", Version)
	}
}

func TestString(t *testing.T) {
	if got := String(); got != Product+" "+Version {
		t.Errorf("unexpected %q", got)
	}
}
