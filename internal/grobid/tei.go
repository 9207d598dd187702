// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grobid

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/pdiddy/refcheck/pkg/types"
)

// TEI XML structures. Grobid wraps each bibliography entry in a biblStruct
// under text/back/div/listBibl; the raw citation string rides along as a
// note of type raw_reference when includeRawCitations is set.
type teiDoc struct {
	XMLName xml.Name  `xml:"TEI"`
	Bibls   []teiBibl `xml:"text>back>div>listBibl>biblStruct"`
}

type teiBibl struct {
	Analytic *teiUnit  `xml:"analytic"`
	Monogr   *teiUnit  `xml:"monogr"`
	Notes    []teiNote `xml:"note"`
	Inner    string    `xml:",innerxml"`
}

type teiUnit struct {
	Titles  []teiTitle  `xml:"title"`
	Authors []teiAuthor `xml:"author"`
	IDNos   []teiIDNo   `xml:"idno"`
	Imprint *teiImprint `xml:"imprint"`
}

type teiTitle struct {
	Level string `xml:"level,attr"`
	Text  string `xml:",chardata"`
}

type teiAuthor struct {
	Surname string `xml:"persName>surname"`
}

type teiIDNo struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

type teiImprint struct {
	Dates []teiDate `xml:"date"`
}

type teiDate struct {
	Type string `xml:"type,attr"`
	When string `xml:"when,attr"`
}

type teiNote struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

// parseTEI converts a TEI response body into raw records in listBibl order.
func parseTEI(body []byte) ([]types.RawRecord, error) {
	var doc teiDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	records := make([]types.RawRecord, 0, len(doc.Bibls))
	for _, bibl := range doc.Bibls {
		rec := types.RawRecord{
			RawText: rawReference(bibl),
		}

		// Article title first, container title as fallback.
		if bibl.Analytic != nil {
			rec.Title = firstTitle(bibl.Analytic.Titles)
			rec.Author = firstSurname(bibl.Analytic.Authors)
			rec.DOI = idnoOfType(bibl.Analytic.IDNos, "DOI")
		}
		if bibl.Monogr != nil {
			if rec.Title == "" {
				rec.Title = firstTitle(bibl.Monogr.Titles)
			}
			if rec.Author == "" {
				rec.Author = firstSurname(bibl.Monogr.Authors)
			}
			if rec.DOI == "" {
				rec.DOI = idnoOfType(bibl.Monogr.IDNos, "DOI")
			}
			if bibl.Monogr.Imprint != nil {
				rec.Year = publishedYear(bibl.Monogr.Imprint.Dates)
			}
		}

		if rec.RawText == "" {
			rec.RawText = composeRaw(bibl, rec.Year)
		}
		// A structured DOI missing from the raw string is appended so
		// the normalizer's identifier scan sees it.
		if rec.DOI != "" && !strings.Contains(rec.RawText, rec.DOI) {
			rec.RawText += " DOI:" + rec.DOI
		}

		markSuspicious(&rec)
		records = append(records, rec)
	}
	return records, nil
}

func rawReference(bibl teiBibl) string {
	for _, note := range bibl.Notes {
		if note.Type == "raw_reference" {
			return strings.TrimSpace(note.Text)
		}
	}
	return ""
}

// composeRaw rebuilds a citation string when the raw_reference note is
// absent (older Grobid versions) by concatenating every text node of the
// biblStruct. Venue text and identifier tokens in idno elements survive
// for the normalizer's identifier scan. The year usually lives in a date
// attribute rather than a text node, so it is appended when missing.
func composeRaw(bibl teiBibl, year int) string {
	text := flattenMarkup(bibl.Inner)
	if year > 0 {
		if y := strconv.Itoa(year); !strings.Contains(text, y) {
			text = strings.TrimSpace(text + " " + y)
		}
	}
	return text
}

// flattenMarkup extracts the character data of an XML fragment, collapsing
// whitespace. Entities are decoded.
func flattenMarkup(inner string) string {
	dec := xml.NewDecoder(strings.NewReader("<frag>" + inner + "</frag>"))
	dec.Strict = false
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func firstTitle(titles []teiTitle) string {
	for _, t := range titles {
		if s := strings.TrimSpace(t.Text); s != "" {
			return s
		}
	}
	return ""
}

func firstSurname(authors []teiAuthor) string {
	for _, a := range authors {
		if s := strings.TrimSpace(a.Surname); s != "" {
			return s
		}
	}
	return ""
}

func idnoOfType(idnos []teiIDNo, kind string) string {
	for _, id := range idnos {
		if strings.EqualFold(id.Type, kind) {
			return strings.TrimSpace(id.Text)
		}
	}
	return ""
}

// publishedYear reads the year from a date element, preferring
// type="published". Grobid emits when attributes like "2020" or "2020-06-01".
func publishedYear(dates []teiDate) int {
	pick := ""
	for _, d := range dates {
		if d.Type == "published" && d.When != "" {
			pick = d.When
			break
		}
		if pick == "" && d.When != "" {
			pick = d.When
		}
	}
	if len(pick) < 4 {
		return 0
	}
	year, err := strconv.Atoi(pick[:4])
	if err != nil {
		return 0
	}
	return year
}
