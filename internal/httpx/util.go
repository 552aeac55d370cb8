// Package httpx holds the small set of HTTP response-writing helpers the
// conversion host needs: streaming a converted file back to the client
// with a sane Content-Disposition, and replaying a buffered response
// recorded by internal/debounce.
package httpx

import (
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SendFile streams the file at filePath to w as an attachment named
// outFilename, then removes filePath — the router writes converted
// output to a scratch file, and the host is responsible for cleaning it
// up once it's been served.
func SendFile(w http.ResponseWriter, filePath, outFilename string) error {
	file, err := os.Open(filePath)
	if err != nil {
		os.Remove(filePath)
		return err
	}
	defer func() {
		file.Close()
		os.Remove(filePath)
	}()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType(
			"attachment",
			map[string]string{"filename": sanitizeFilenameASCII7(outFilename)},
		),
	)
	w.Header().Set("Content-Type", mime.TypeByExtension(filepath.Ext(filePath)))

	_, err = io.Copy(w, file)
	return err
}

// sanitizeFilenameASCII7 strips diacritics and escapes anything outside
// ASCII so filenames survive Content-Disposition's header encoding rules
// intact.
func sanitizeFilenameASCII7(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	noDiacr, _, _ := transform.String(t, s)

	var sb strings.Builder
	for _, letter := range noDiacr {
		if letter > unicode.MaxASCII {
			sb.WriteString(fmt.Sprintf("_%X", letter))
		} else {
			sb.WriteRune(letter)
		}
	}
	return sb.String()
}

// WriteRecorder copies a buffered response onto a live ResponseWriter,
// used by internal/debounce to replay a cached or in-flight response.
func WriteRecorder(rec *httptest.ResponseRecorder, w http.ResponseWriter) {
	maps.Copy(w.Header(), rec.Header())
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}
