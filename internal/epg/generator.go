package epg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/klauspost/compress/gzip"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Generator identifies the tool in the root element attributes.
type Generator struct {
	Name string
	URL  string
}

// DefaultGenerator is stamped on every document unless configured otherwise.
var DefaultGenerator = Generator{
	Name: "EPG Generator (made by Senvora)",
	URL:  "https://github.com/senvora/epg.git",
}

// Stamp overwrites the root attributes with the generation time and generator identity.
func Stamp(tv *TV, date string, gen Generator) {
	if gen.Name == "" && gen.URL == "" {
		gen = DefaultGenerator
	}
	tv.Date = date
	tv.GeneratorName = gen.Name
	tv.GeneratorURL = gen.URL
}

// Encode renders tv as pretty-printed XML (two-space indent) with an XML
// declaration and no whitespace-only lines.
func Encode(tv *TV) ([]byte, error) {
	out, err := xml.MarshalIndent(tv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal xmltv: %w", err)
	}
	buf := bytes.NewBuffer(make([]byte, 0, len(xmlHeader)+len(out)))
	buf.WriteString(xmlHeader)
	buf.Write(out)
	return stripBlankLines(buf.Bytes()), nil
}

// Compress gzips an encoded document. The header carries no name and a zero
// modification time, so equal input yields equal bytes.
func Compress(doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	zw.ModTime = time.Unix(0, 0)
	if _, err := zw.Write(doc); err != nil {
		return nil, fmt.Errorf("gzip xmltv: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func stripBlankLines(b []byte) []byte {
	lines := bytes.Split(b, []byte("\n"))
	kept := lines[:0]
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) > 0 {
			kept = append(kept, line)
		}
	}
	return bytes.Join(kept, []byte("\n"))
}
