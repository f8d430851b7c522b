package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/artem13815/cogniscan/pkg/document"
)

// Text extracts plain text from a document of the declared type (pdf, docx, txt).
// Library failures on pdf/docx degrade to empty or best-effort text and are
// returned as warnings; only an unknown type or an undecodable txt is an error.
func Text(fileType string, data []byte) (string, []string, error) {
	switch strings.ToLower(fileType) {
	case "pdf":
		return extractPDF(data)
	case "docx":
		return extractDocx(data)
	case "txt":
		text, err := decodeText(data)
		if err != nil {
			return "", nil, err
		}
		return normalizeText(text), nil, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", document.ErrUnsupportedType, fileType)
	}
}

// extractPDF tries a layout-aware pass first (rows keep the visual line
// structure, which the field heuristics depend on) and falls back to the
// linear reader when that yields nothing.
func extractPDF(data []byte) (string, []string, error) {
	var warnings []string

	text, err := pdfTextByRows(data)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("pdf layout extraction failed: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		text, err = pdfPlainText(data)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("pdf plain extraction failed: %v", err))
			return "", warnings, nil
		}
	}
	return normalizeText(text), warnings, nil
}

func pdfTextByRows(data []byte) (text string, err error) {
	// the pdf library panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			sb.WriteString(strings.Join(parts, " "))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func pdfPlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDocx parses word/document.xml out of the zip container. When the
// container is unreadable the bytes are decoded as plain text instead, which
// keeps the document alive at the cost of garbage output.
func extractDocx(data []byte) (string, []string, error) {
	text, err := docxXMLText(data)
	if err == nil {
		return normalizeText(text), nil, nil
	}
	warnings := []string{fmt.Sprintf("docx parse failed, treating as plain text: %v", err)}
	text, decErr := decodeText(data)
	if decErr != nil {
		warnings = append(warnings, fmt.Sprintf("docx fallback decode failed: %v", decErr))
		return "", warnings, nil
	}
	return normalizeText(text), warnings, nil
}

var docxTags = regexp.MustCompile(`<[^>]+>`)

func docxXMLText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			defer rc.Close()
			docXML, err = io.ReadAll(rc)
			if err != nil {
				return "", err
			}
			break
		}
	}
	if len(docXML) == 0 {
		return "", errors.New("no document.xml found in docx")
	}
	xml := string(docXML)
	// Convert paragraph boundaries to newlines (very naive but effective).
	xml = strings.ReplaceAll(xml, "</w:p>", "\n")
	xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
	return docxTags.ReplaceAllString(xml, " "), nil
}

func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

var (
	reHSpace    = regexp.MustCompile(`[ \t\f\v]+`)
	reLineEdges = regexp.MustCompile(` *\n *`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// normalizeText collapses horizontal whitespace and newline runs while
// keeping blank-line paragraph boundaries intact.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, " ", " ")
	s = reHSpace.ReplaceAllString(s, " ")
	s = reLineEdges.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
