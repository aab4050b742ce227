package cfg

import (
	"fmt"
)

type Entry struct {
	Name      string
	Value     string
	Source    string
	SourceKey string
}

type Displayer interface {
	Display(name string) Entry
}

func (val *Value[T]) Display(name string) Entry {
	display := fmt.Sprint(val.Val)
	if val.IsSecret() {
		display = maskSecret(display)
	}

	return Entry{
		Name:      name,
		Value:     display,
		Source:    val.Used.Kind.String(),
		SourceKey: val.Used.Key,
	}
}

// maskSecret keeps at most two characters of context on each side and a
// fixed-length mask in between, so the output never leaks the value length.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) < 5 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
