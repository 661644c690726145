package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// oleMagic starts a Compound File Binary container. Password-protected
// DOCX files are stored this way instead of as a zip archive.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const docxBodyPart = "word/document.xml"

// extractDOCX returns one line per paragraph in document order. Paragraphs
// inside table cells are part of the body, so tables come out in place.
func extractDOCX(path string) (string, error) {
	head := make([]byte, len(oleMagic))
	f, err := os.Open(path)
	if err != nil {
		return "", fail(ReadError, KindDOCX, path, err)
	}
	n, _ := io.ReadFull(f, head)
	_ = f.Close()
	if n == len(oleMagic) && bytes.Equal(head, oleMagic) {
		return "", fail(Encrypted, KindDOCX, path, errors.New("password-protected document"))
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fail(Corrupt, KindDOCX, path, err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.Name != docxBodyPart {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", fail(Corrupt, KindDOCX, path, err)
		}
		defer rc.Close()

		text, err := readDocumentXML(rc)
		if err != nil {
			return "", fail(Corrupt, KindDOCX, path, err)
		}
		return text, nil
	}

	return "", fail(Corrupt, KindDOCX, path, fmt.Errorf("missing %s", docxBodyPart))
}

// readDocumentXML streams WordprocessingML tokens. Only text runs (w:t),
// tabs and breaks contribute content.
func readDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var lines []string
	var stack []*strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				stack = append(stack, &strings.Builder{})
			case "t":
				inText = true
			case "tab":
				if len(stack) > 0 {
					stack[len(stack)-1].WriteByte('\t')
				}
			case "br", "cr":
				if len(stack) > 0 {
					stack[len(stack)-1].WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(stack) == 0 {
					continue
				}
				line := strings.TrimSpace(stack[len(stack)-1].String())
				stack = stack[:len(stack)-1]
				if line != "" {
					lines = append(lines, line)
				}
			}
		case xml.CharData:
			if inText && len(stack) > 0 {
				stack[len(stack)-1].Write(t)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
