package usecase

import (
	"fmt"
	"strings"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes &, < and > for insertion as HTML content. Values that
// are not strings are coerced to text first; nil becomes "".
func EscapeHTML(value any) string {
	var text string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		text = v
	default:
		text = fmt.Sprint(v)
	}
	return htmlEscaper.Replace(text)
}
