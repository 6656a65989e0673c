package requestid

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewIsUUID(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("New()=%q is not a uuid: %v", a, err)
	}
	b, _ := New()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}
