// Package ponip extracts auction fields from public e-auction listing pages.
package ponip

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/auction-watch/internal/entity"
)

const (
	labelSelector = ".main-container [role='main'] .row div p.text-right"
	valueSelector = "div:nth-child(2) > p"
	priceSelector = "p#trenutna-cijena"

	// Rendered in a div rather than in paragraphs.
	otherConditionsLabel = "Ostali uvjeti prodaje"
)

// Labels whose value lives in the live price paragraph.
var priceLabels = map[string]bool{
	"Trenutačna cijena predmeta prodaje u nadmetanju": true,
	"Iznos najviše ponude u nadmetanju":               true,
}

// ErrNoFields is returned when a page has no recognizable label/value pairs.
var ErrNoFields = errors.New("no auction fields found")

// Extractor reads the label/value grid of an auction page.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

// Extract walks every right-aligned label and reads the value column of its
// row. A label that repeats gets a numeric suffix ("Napomena 2") so the
// second value does not replace the first.
func (e *Extractor) Extract(doc *entity.Document) (*entity.RawRecord, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rec := entity.NewRawRecord()
	seen := make(map[string]int)

	page.Find(labelSelector).Each(func(_ int, label *goquery.Selection) {
		name := strings.TrimSpace(label.Text())
		if name == "" {
			return
		}
		row := label.Parent().Parent()

		value, found := "", false
		row.Find(valueSelector).Each(func(_ int, p *goquery.Selection) {
			value, found = strings.TrimSpace(p.Text()), true
		})

		if name == otherConditionsLabel {
			if div := row.Find("div:nth-child(2)").First(); div.Length() > 0 {
				value, found = strings.TrimSpace(div.Text()), true
			}
		}
		if priceLabels[name] {
			if p := row.Find(priceSelector).First(); p.Length() > 0 {
				value, found = strings.TrimSpace(p.Text()), true
			}
		}
		if !found {
			return
		}
		if value == "" {
			value = entity.NotAvailable
		}

		seen[name]++
		key := name
		if n := seen[name]; n > 1 {
			key = fmt.Sprintf("%s %d", name, n)
		}
		rec.Set(key, value)
	})

	if rec.Len() == 0 {
		return nil, ErrNoFields
	}
	return rec, nil
}
