package validate

// ObjectName reports whether name is a valid DNS-1123 subdomain, the rule
// the API server applies to resource names. The check runs before any API
// call so a bad name fails fast instead of surfacing as a server error.
func ObjectName(name string) bool {
	if name == "" || len(name) > 253 {
		return false
	}
	if !isLowerAlphaNumeric(name[0]) || !isLowerAlphaNumeric(name[len(name)-1]) {
		return false
	}
	for i := 1; i < len(name)-1; i++ {
		c := name[i]
		if c != '-' && c != '.' && !isLowerAlphaNumeric(c) {
			return false
		}
	}
	return true
}

// Namespace reports whether name is a valid DNS-1123 label. Namespaces are
// stricter than object names: no dots, max 63 characters.
func Namespace(name string) bool {
	if name == "" || len(name) > 63 {
		return false
	}
	if !isLowerAlphaNumeric(name[0]) || !isLowerAlphaNumeric(name[len(name)-1]) {
		return false
	}
	for i := 1; i < len(name)-1; i++ {
		c := name[i]
		if c != '-' && !isLowerAlphaNumeric(c) {
			return false
		}
	}
	return true
}

// isLowerAlphaNumeric check if c is a lowercase letter or digit.
func isLowerAlphaNumeric(c uint8) bool {
	if c >= 'a' && c <= 'z' {
		return true
	}
	return c >= '0' && c <= '9'
}
