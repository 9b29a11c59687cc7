package driver

import (
	"strings"
	"testing"
)

func TestCandidatesScriptEffectiveText(t *testing.T) {
	s := candidatesScript()
	if !strings.HasPrefix(strings.TrimSpace(s), "() =>") {
		t.Errorf("candidatesScript() does not start with a parameterless arrow function")
	}
	// Effective text falls back through content, aria-label, value,
	// placeholder, so icon controls labelled only via aria-label still
	// carry text into the scored match.
	for _, frag := range []string{"aria-label", "innerText", "placeholder", candidateStash} {
		if !strings.Contains(s, frag) {
			t.Errorf("candidatesScript() missing %q", frag)
		}
	}
	// An explicit ARIA role wins over the tag alias.
	if !strings.Contains(s, "role = aria || 'link'") {
		t.Errorf("candidatesScript() does not prefer an explicit role over the link alias")
	}
}
