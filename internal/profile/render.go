package profile

import (
	"fmt"
	"strings"

	"github.com/m3rciful/orderbot/core/telegram/format"
)

// Render formats the analysis as a legacy Markdown message.
func (a Analysis) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Profile Analysis for %s:\n", format.MD(a.Username))
	fmt.Fprintf(&b, "- ⭐ Rating: %s\n", format.MD(a.Rating))
	fmt.Fprintf(&b, "- ✅ Completed Orders: %s\n", format.MD(a.Orders))
	fmt.Fprintf(&b, "- 🎨 Top Gig: %s\n", format.MD(a.TopGig))
	fmt.Fprintf(&b, "- 🔗 [View Profile](%s)\n\n", a.URL)
	b.WriteString("📢 *Advice for Improvement:*\n")
	for _, line := range a.Advice() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
