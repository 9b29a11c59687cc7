package driver

import (
	"fmt"

	"github.com/go-rod/rod/lib/input"
)

// keyNames maps operator-facing key names to driver key codes.
var keyNames = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
	"Space":      input.Space,
}

// lookupKey maps a key name or single character to a driver key.
func lookupKey(name string) (input.Key, error) {
	if k, ok := keyNames[name]; ok {
		return k, nil
	}
	if len([]rune(name)) == 1 {
		return input.Key([]rune(name)[0]), nil
	}
	return 0, fmt.Errorf("driver: unknown key %q", name)
}
