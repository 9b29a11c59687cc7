package driver

import (
	"testing"

	"github.com/go-rod/rod/lib/input"
)

func TestLookupKeyNamed(t *testing.T) {
	k, err := lookupKey("Enter")
	if err != nil {
		t.Fatalf("lookupKey(Enter) error: %v", err)
	}
	if k != input.Enter {
		t.Errorf("lookupKey(Enter) = %v, want input.Enter", k)
	}
}

func TestLookupKeySingleChar(t *testing.T) {
	k, err := lookupKey("a")
	if err != nil {
		t.Fatalf("lookupKey(a) error: %v", err)
	}
	if k != input.Key('a') {
		t.Errorf("lookupKey(a) = %v, want 'a'", k)
	}
}

func TestLookupKeyUnknown(t *testing.T) {
	if _, err := lookupKey("NoSuchKey"); err == nil {
		t.Error("lookupKey(NoSuchKey) succeeded, want error")
	}
}
