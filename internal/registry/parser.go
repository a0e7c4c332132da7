package registry

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const providerID = "sat-validarfc"

// fieldLabels maps folded labels to the Result field they populate.
var fieldLabels = map[string]string{
	"nombre":                              "name",
	"razon social":                        "name",
	"denominacion o razon social":         "name",
	"nombre, denominacion o razon social": "name",
	"regimen":                             "regime",
	"regimen fiscal":                      "regime",
	"regimen de capital":                  "regime",
	"fecha de inicio de operaciones":      "startDate",
	"fecha inicio de operaciones":         "startDate",
	"fecha de alta":                       "startDate",
	"fecha de inicio":                     "startDate",
}

// labelLine matches "Label: value" lines in plain-text bodies.
var labelLine = regexp.MustCompile(`(?m)^\s*([^:\n]{3,60}?)\s*:\s*(.+?)\s*$`)

// Parse classifies a registry response and extracts optional taxpayer
// fields. Unrecognized text is a bad_data ProviderError.
func Parse(raw *RawResponse) (*Result, error) {
	if raw == nil || len(bytes.TrimSpace(raw.Body)) == 0 {
		return nil, NewProviderError(ErrorBadData, providerID, "empty response body", nil)
	}

	var (
		text   string
		fields map[string]string
	)
	if isHTML(raw) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
		if err != nil {
			return nil, NewProviderError(ErrorBadData, providerID, "unreadable HTML body", err)
		}
		doc.Find("script, style, noscript").Remove()
		fields = tableFields(doc)
		// Block elements get a line break so adjacent cells do not run together.
		doc.Find("p, div, br, li, tr, td, th, dt, dd, h1, h2, h3, h4, span, label").AppendHtml("\n")
		text = doc.Text()
	} else {
		text = string(raw.Body)
	}
	for k, v := range lineFields(text) {
		if _, ok := fields[k]; !ok {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[k] = v
		}
	}

	outcome, ok := Classify(text)
	if !ok {
		return nil, NewProviderError(ErrorBadData, providerID, "unrecognized registry response", nil)
	}

	return &Result{
		Outcome:   outcome,
		Valid:     outcome.Valid(),
		Message:   outcome.Message(),
		Name:      fields["name"],
		Regime:    fields["regime"],
		StartDate: fields["startDate"],
	}, nil
}

func isHTML(raw *RawResponse) bool {
	if strings.Contains(strings.ToLower(raw.ContentType), "html") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(raw.Body), []byte("<"))
}

// tableFields reads label/value pairs from table rows and definition lists.
func tableFields(doc *goquery.Document) map[string]string {
	fields := make(map[string]string)
	record := func(label, value string) {
		key, ok := fieldLabels[strings.TrimSuffix(Fold(label), ":")]
		value = strings.Join(strings.Fields(value), " ")
		if !ok || value == "" {
			return
		}
		if _, seen := fields[key]; !seen {
			fields[key] = value
		}
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		record(cells.First().Text(), cells.Last().Text())
	})
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			record(dt.Text(), dt.NextFiltered("dd").Text())
		})
	})
	return fields
}

func lineFields(text string) map[string]string {
	fields := make(map[string]string)
	for _, m := range labelLine.FindAllStringSubmatch(text, -1) {
		key, ok := fieldLabels[Fold(m[1])]
		if !ok {
			continue
		}
		if _, seen := fields[key]; !seen {
			fields[key] = strings.TrimSpace(m[2])
		}
	}
	return fields
}
