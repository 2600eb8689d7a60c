package assistant

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/arthmitra/internal/models"
)

const greeting = "Namaste! I am Arth-Mitra, your AI financial advisor.\n\n"

// goldAnswer renders the templated reply for a dated gold price question.
// Every outcome cites the price source, including "no data".
func (s *Service) goldAnswer(date models.Date) models.Answer {
	readable := date.Readable()

	var b strings.Builder
	b.WriteString(greeting)

	series := s.prices.Snapshot()
	match, ok := series.Nearest(date.Time(), s.maxFallbackDays)

	switch {
	case ok && match.Direction == models.DirectionExact:
		fmt.Fprintf(&b, "Here is the gold price data for **%s**:\n\n", readable)
		writePriceTable(&b, match.Record)
		b.WriteString("\n\nIf you have any questions about investing in gold (like Sovereign Gold Bonds, Gold ETFs, or physical gold) or their tax implications, feel free to ask!")

	case ok:
		fmt.Fprintf(&b, "I don't have gold price data for **%s** (this may be a holiday or weekend when markets were closed).\n\n", readable)
		fmt.Fprintf(&b, "Data not available for requested date (possibly a holiday/weekend). Nearest available date (%s): **%s**\n\n", match.Direction, match.Record.DisplayDate)
		writePriceTable(&b, match.Record)
		b.WriteString("\n\nIf you need information about gold investment options available in India, such as Sovereign Gold Bonds (SGB), Gold ETFs, or Digital Gold, I'd be happy to help!")

	default:
		fmt.Fprintf(&b, "I don't have gold price data for **%s**.", readable)
		if first, last, ok := series.Range(); ok {
			fmt.Fprintf(&b, " The available data ranges from %s to %s.", first, last)
		}
		b.WriteString("\n\nIf you have questions about current gold investment options in India or tax implications of gold investments, I would be happy to assist!")
	}

	return models.Answer{Response: b.String(), Sources: []string{s.prices.SourceName()}}
}

func writePriceTable(b *strings.Builder, r models.PriceRecord) {
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| **Date** | %s |\n", r.DisplayDate)
	fmt.Fprintf(b, "| **Price** | $%s |\n", r.Price.StringFixed(2))
	fmt.Fprintf(b, "| **Open** | $%s |\n", r.Open.StringFixed(2))
	fmt.Fprintf(b, "| **High** | $%s |\n", r.High.StringFixed(2))
	fmt.Fprintf(b, "| **Low** | $%s |\n", r.Low.StringFixed(2))
	fmt.Fprintf(b, "| **Volume** | %s |\n", r.Volume)
	fmt.Fprintf(b, "\n*Note: Prices are in %s.*", models.GoldPriceUnit)
}
