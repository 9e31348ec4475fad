package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode/utf32"
)

// FallbackCharset is used when the detected charset cannot decode a file.
// Every byte is a valid ISO-8859-1 character, so decoding with it never fails.
const FallbackCharset = "ISO-8859-1"

var errDecode = errors.New("decode failed")

// FallbackReader implements port.FileReader with ReadFileWithFallback.
type FallbackReader struct{}

func (FallbackReader) ReadFile(path string) (string, error) {
	return ReadFileWithFallback(path)
}

// ReadFileWithFallback reads a file as text. The charset is guessed from the
// content; if the guess fails to decode the bytes, the read is retried once
// as ISO-8859-1. Only OS-level read errors are returned.
func ReadFileWithFallback(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, _ := DecodeWithFallback(raw, DetectCharset(raw))
	return text, nil
}

// DetectCharset returns the most likely charset of raw, or "UTF-8" when
// nothing can be detected.
func DetectCharset(raw []byte) string {
	if len(raw) == 0 {
		return "UTF-8"
	}
	res, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || res == nil || res.Charset == "" {
		return "UTF-8"
	}
	return res.Charset
}

// DecodeWithFallback decodes raw strictly as charset, falling back to
// ISO-8859-1 on failure. It returns the charset actually used.
func DecodeWithFallback(raw []byte, charset string) (string, string) {
	text, err := decodeStrict(raw, charset)
	if err == nil {
		return text, charset
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(out), FallbackCharset
}

func decodeStrict(raw []byte, charset string) (string, error) {
	if isUTF8(charset) {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w: invalid utf-8", errDecode)
		}
		return string(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))), nil
	}

	enc, err := lookupEncoding(charset)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errDecode, err)
	}
	// x/text substitutes U+FFFD for bytes it cannot map instead of failing.
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.Contains(raw, []byte("\uFFFD")) {
		return "", fmt.Errorf("%w: unmappable bytes for %s", errDecode, charset)
	}
	return string(out), nil
}

// lookupEncoding resolves a chardet charset name. chardet uses a few names
// neither WHATWG nor IANA know ("GB-18030", "IBM424_rtl").
func lookupEncoding(charset string) (encoding.Encoding, error) {
	name := strings.ToLower(charset)
	name = strings.TrimSuffix(strings.TrimSuffix(name, "_rtl"), "_ltr")

	switch name {
	case "gb-18030", "gb18030":
		return simplifiedchinese.GB18030, nil
	case "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	}

	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	// ianaindex returns a nil encoding for names it knows but x/text lacks
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: unknown charset %q", errDecode, charset)
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return true
	}
	return false
}
