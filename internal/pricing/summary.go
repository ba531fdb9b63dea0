package pricing

import (
	"fmt"
	"strings"

	"github.com/mesaviva/mesaviva-backend/internal/cart"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
)

// FormatCents renders integer cents as a dollar string, e.g. 1450 -> "$14.50".
func FormatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// BuildSummary renders the shareable plain-text order summary. Output is a
// pure function of its inputs so the same cart always produces the same text.
func BuildSummary(lines []cart.Line, details cart.DeliveryDetails, quote Quote) string {
	var b strings.Builder

	b.WriteString("*MesaViva Weekly Order*\n")

	if details.DeliveryDate != "" || details.DeliveryWindow != "" {
		b.WriteString("\n")
		if details.DeliveryDate != "" {
			fmt.Fprintf(&b, "Delivery date: %s\n", details.DeliveryDate)
		}
		if details.DeliveryWindow != "" {
			fmt.Fprintf(&b, "Delivery window: %s\n", details.DeliveryWindow)
		}
	}
	if details.CustomerName != "" {
		fmt.Fprintf(&b, "Name: %s\n", details.CustomerName)
	}
	if details.CustomerPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", details.CustomerPhone)
	}
	if !details.Address.IsZero() {
		fmt.Fprintf(&b, "Address: %s\n", details.Address.OneLine())
	}

	b.WriteString("\n")
	for _, line := range lines {
		name := line.DisplayName
		if line.Key.Tier == enums.PriceTierPremium {
			name += " (premium)"
		}
		fmt.Fprintf(&b, "%dx %s = %s\n", line.Quantity, name, FormatCents(line.TotalCents()))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatCents(quote.SubtotalCents))
	if quote.TaxCents > 0 {
		fmt.Fprintf(&b, "Tax: %s\n", FormatCents(quote.TaxCents))
	}
	if quote.DeliveryFeeCents > 0 {
		fmt.Fprintf(&b, "Delivery: %s\n", FormatCents(quote.DeliveryFeeCents))
	} else {
		b.WriteString("Delivery: FREE\n")
	}
	if quote.GratuityCents > 0 {
		fmt.Fprintf(&b, "Gratuity: %s\n", FormatCents(quote.GratuityCents))
	}
	fmt.Fprintf(&b, "*Total: %s*\n", FormatCents(quote.TotalCents))

	if details.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", details.Notes)
	}

	return b.String()
}
