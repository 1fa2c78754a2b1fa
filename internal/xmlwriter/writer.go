// =============================================================================
// Loan Aggregator - XML Writer Module
// =============================================================================
//
// This module renders a loan summary as an XML document for systems that
// ingest the aggregates rather than read the console table.
//
// XML STRUCTURE:
//
//   <loanSummary source="loans.csv" groupBy="grade" totalRecords="3" filteredRecords="2">
//     <filters homeOwnership="rent"/>            <!-- only non-empty constraints -->
//     <group key="a" label="Grade A" total="1234.5" formatted="$1,234.50" records="2"/>
//     <status>Showing 2 records out of 3 total records</status>
//   </loanSummary>
//
// The total attribute holds the shortest round-trip form of the sum, "NaN"
// when any member balance was not a number.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/ginjaninja78/loanagg/internal/report"
	"github.com/ginjaninja78/loanagg/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string

	// RootElement is the name of the document element.
	// Default: "loanSummary"
	RootElement string

	// RootAttributes are additional attributes for the root element, written
	// after the built-in ones in key order.
	// Example: {"xmlns": "http://example.com/loans"}
	RootAttributes map[string]string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
		RootElement:           "loanSummary",
		RootAttributes:        make(map[string]string),
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders the summary with the default options.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if generation fails.
func Generate(summary report.Summary) ([]byte, error) {
	return GenerateWithOptions(summary, DefaultGenerateOptions())
}

// GenerateWithOptions renders the summary with custom options.
func GenerateWithOptions(summary report.Summary, options GenerateOptions) ([]byte, error) {
	if options.RootElement == "" {
		return nil, fmt.Errorf("root element name is required")
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	root := buildDocument(summary, options)
	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents an element in the output document.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildDocument builds the element tree for a summary.
func buildDocument(summary report.Summary, options GenerateOptions) XMLElement {
	root := XMLElement{
		XMLName: xml.Name{Local: options.RootElement},
		Attributes: []xml.Attr{
			attr("source", summary.Source),
			attr("groupBy", string(summary.GroupField)),
			attr("totalRecords", strconv.Itoa(summary.Total)),
			attr("filteredRecords", strconv.Itoa(summary.Filtered)),
		},
	}

	if summary.NaNBalances > 0 {
		root.Attributes = append(root.Attributes, attr("nanBalances", strconv.Itoa(summary.NaNBalances)))
	}

	for _, key := range sortedKeys(options.RootAttributes) {
		root.Attributes = append(root.Attributes, attr(key, options.RootAttributes[key]))
	}

	root.Children = append(root.Children, buildFiltersElement(summary.Criteria))

	for _, point := range report.ChartData(summary.GroupField, summary.Groups) {
		root.Children = append(root.Children, XMLElement{
			XMLName: xml.Name{Local: "group"},
			Attributes: []xml.Attr{
				attr("key", point.Key),
				attr("label", point.Label),
				attr("total", strconv.FormatFloat(point.Total, 'f', -1, 64)),
				attr("formatted", point.Formatted),
				attr("records", strconv.Itoa(point.Count)),
			},
		})
	}

	root.Children = append(root.Children, XMLElement{
		XMLName: xml.Name{Local: "status"},
		Value:   summary.StatusLine(),
	})

	return root
}

// buildFiltersElement lists the non-empty constraints as attributes.
func buildFiltersElement(criteria types.FilterCriteria) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: "filters"}}

	pairs := []struct{ name, value string }{
		{"homeOwnership", criteria.HomeOwnership},
		{"quarter", criteria.Quarter},
		{"term", criteria.Term},
		{"year", criteria.Year},
	}
	for _, p := range pairs {
		if p.value != "" {
			element.Attributes = append(element.Attributes, attr(p.name, p.value))
		}
	}

	return element
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, a := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", a.Name.Local, escapeXML(a.Value)))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML text and attribute values.
func escapeXML(s string) string {
	var buffer bytes.Buffer
	if err := xml.EscapeText(&buffer, []byte(s)); err != nil {
		return s
	}
	return buffer.String()
}
