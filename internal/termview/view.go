// Package termview renders search results as cards in a terminal.
package termview

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"PriceScout/internal/product"
	"PriceScout/internal/search"
)

const (
	defaultWidth = 64
	maxStars     = 5
)

type Options struct {
	Locale   language.Tag
	Currency currency.Unit
	Width    int
	Now      func() time.Time
}

// View implements search.View on an io.Writer. It is safe to use from the
// controller's goroutines while the caller reads input.
type View struct {
	mu      sync.Mutex
	out     io.Writer
	printer *message.Printer
	cur     currency.Unit
	st      styles
	now     func() time.Time
}

func New(out io.Writer, opts Options) *View {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currency == (currency.Unit{}) {
		opts.Currency = currency.MustParseISO("MXN")
	}
	return &View{
		out:     out,
		printer: message.NewPrinter(opts.Locale),
		cur:     opts.Currency,
		st:      newStyles(opts.Width),
		now:     opts.Now,
	}
}

func (v *View) Render(records []product.Record) {
	var b strings.Builder
	if len(records) > 0 {
		b.WriteString(v.st.header.Render(v.printer.Sprintf("%d results", len(records))))
		b.WriteByte('\n')
	}
	for _, r := range records {
		b.WriteString(v.Card(r))
		b.WriteByte('\n')
	}
	v.write(b.String())
}

func (v *View) LoadingStarted() {
	v.write(v.st.muted.Render("Searching…") + "\n")
}

// LoadingFinished prints nothing; the next render or message replaces the
// indicator.
func (v *View) LoadingFinished() {}

func (v *View) Message(kind search.MessageKind, text string) {
	var line string
	switch kind {
	case search.MessageError:
		line = v.st.err.Render("✗ " + text)
	case search.MessageWarning:
		line = v.st.warning.Render("! " + text)
	default:
		line = v.st.info.Render("i " + text)
	}
	v.write(line + "\n")
}

// Text prints s as-is on its own line.
func (v *View) Text(s string) {
	v.write(s + "\n")
}

func (v *View) write(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = io.WriteString(v.out, s)
}

// Card renders one record.
func (v *View) Card(r product.Record) string {
	lines := []string{v.st.title.Render(r.Name)}

	store := strings.TrimSpace(r.StoreName)
	if store == "" {
		store = "Unknown store"
	}
	lines = append(lines, v.st.store.Render(store))

	priceLine := v.st.price.Render(v.FormatPrice(r.Price))
	if r.Available != nil {
		if *r.Available {
			priceLine += "  " + v.st.inStock.Render("In stock")
		} else {
			priceLine += "  " + v.st.noStock.Render("Out of stock")
		}
	}
	lines = append(lines, priceLine)

	if r.Rating != nil {
		lines = append(lines, v.st.stars.Render(Stars(*r.Rating))+fmt.Sprintf(" %.1f", clampRating(*r.Rating)))
	}
	if t, ok := r.UpdatedTime(); ok {
		lines = append(lines, v.st.muted.Render("Updated "+humanize.RelTime(t, v.now(), "ago", "from now")))
	}
	if r.ProductURL != "" {
		lines = append(lines, v.st.muted.Render(r.ProductURL))
	}

	return v.st.card.Render(strings.Join(lines, "\n"))
}

// FormatPrice shows the parsed amount in the view's currency. Text prices
// that do not parse are shown as the catalog sent them.
func (v *View) FormatPrice(p product.Price) string {
	switch p.Kind {
	case product.PriceAbsent:
		return "Price unavailable"
	case product.PriceText:
		if product.ParsePrice(p) == 0 && strings.TrimSpace(p.Text) != "" {
			return strings.TrimSpace(p.Text)
		}
	}
	amount := product.ParsePrice(p)
	return v.printer.Sprint(currency.Symbol(v.cur.Amount(amount)))
}

// Stars draws a 0-5 rating as filled and empty stars, rounded to the
// nearest whole star.
func Stars(rating float64) string {
	full := int(math.Round(clampRating(rating)))
	return strings.Repeat("★", full) + strings.Repeat("☆", maxStars-full)
}

func clampRating(r float64) float64 {
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > maxStars:
		return maxStars
	default:
		return r
	}
}
