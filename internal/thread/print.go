package thread

import (
	"fmt"
	"io"
	"strings"
)

var (
	banner    = strings.Repeat("=", 80)
	separator = strings.Repeat("-", 80)
)

// PrintConversation writes a human-readable transcript to w.
func PrintConversation(w io.Writer, msgs []Message) {
	fmt.Fprintf(w, "\n%s\nCONVERSATION THREAD\n%s\n\n", banner, banner)
	for _, m := range msgs {
		fmt.Fprintf(w, "%s:\n%s\n\n%s\n\n", roleLabel(m.Role), m.Content, separator)
	}
}

// PrintSection writes a titled banner, as used between output blocks.
func PrintSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n%s\n\n", banner, title, banner)
}

func roleLabel(r Role) string {
	if r == RoleAssistant {
		return "🤖 Assistant"
	}
	return "👤 User"
}
