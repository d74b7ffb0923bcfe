// Package util shapes store records for HTTP responses.
package util

import "fmt"

// FormatLifespan renders birth and death years as a display string:
// "1825 - 1890", "b. 1825", "d. 1890", or "" when neither year is known.
func FormatLifespan(birth, death *int) string {
	switch {
	case birth != nil && death != nil:
		return fmt.Sprintf("%d - %d", *birth, *death)
	case birth != nil:
		return fmt.Sprintf("b. %d", *birth)
	case death != nil:
		return fmt.Sprintf("d. %d", *death)
	}
	return ""
}
