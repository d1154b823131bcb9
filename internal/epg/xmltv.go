// SPDX-License-Identifier: MIT

// Package epg normalizes XMLTV electronic program guide documents from
// upstream providers into one canonical, time-windowed form.
package epg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/htmlindex"
)

// MaxDocumentSize bounds the decompressed XML read from a source.
const MaxDocumentSize = 256 << 20

var (
	// ErrEmptyDocument is returned when a source contains no XML root element.
	ErrEmptyDocument = errors.New("empty xmltv document")
	// ErrDocumentTooLarge is returned when the decompressed XML exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("xmltv document exceeds size limit")
)

// TV is the XMLTV root element.
type TV struct {
	XMLName       xml.Name    `xml:"tv"`
	Date          string      `xml:"date,attr,omitempty"`
	GeneratorName string      `xml:"generator-info-name,attr,omitempty"`
	GeneratorURL  string      `xml:"generator-info-url,attr,omitempty"`
	Channels      []Channel   `xml:"channel"`
	Programmes    []Programme `xml:"programme"`
}

// Channel is an XMLTV channel. Children other than display-name are captured
// in Extra so that reduction can drop them explicitly.
type Channel struct {
	ID           string    `xml:"id,attr"`
	DisplayNames []Text    `xml:"display-name"`
	Extra        []Element `xml:",any"`
}

// Programme is a single scheduled broadcast.
type Programme struct {
	Start   string    `xml:"start,attr"`
	Stop    string    `xml:"stop,attr"`
	Channel string    `xml:"channel,attr"`
	Titles  []Text    `xml:"title"`
	Descs   []Text    `xml:"desc"`
	Extra   []Element `xml:",any"`
}

// Text is a language-tagged text element (title, desc, display-name).
type Text struct {
	// Lang contains the language code (optional).
	Lang string `xml:"lang,attr,omitempty"`
	// Value is the character data of the element.
	Value string `xml:",chardata"`
}

// Element holds any child element the model does not know about.
type Element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// IsGzip reports whether data starts with the gzip magic bytes.
func IsGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// DecodeBytes parses a raw or gzip-compressed XMLTV document.
func DecodeBytes(data []byte) (*TV, error) {
	if !IsGzip(data) {
		return Decode(bytes.NewReader(data))
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() { _ = zr.Close() }()
	return Decode(zr)
}

// Decode parses an XMLTV document from r. Input beyond MaxDocumentSize
// fails with ErrDocumentTooLarge.
func Decode(r io.Reader) (*TV, error) {
	return decodeLimited(r, MaxDocumentSize)
}

func decodeLimited(r io.Reader, limit int64) (*TV, error) {
	dec := xml.NewDecoder(&limitedReader{r: r, remaining: limit})
	dec.Strict = true
	// No custom entities: DTD declared entities are rejected instead of expanded.
	dec.Entity = make(map[string]string)
	dec.CharsetReader = charsetReader

	var tv TV
	if err := dec.Decode(&tv); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("decode xmltv: %w", err)
	}
	return &tv, nil
}

// limitedReader passes through at most remaining bytes and reports
// ErrDocumentTooLarge once the underlying reader has more.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if l.remaining <= 0 {
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			return 0, ErrDocumentTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
