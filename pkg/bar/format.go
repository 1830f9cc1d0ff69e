package bar

import (
	"fmt"
	"strings"

	"github.com/foomo/barctl/pkg/dsa"
)

const ruleWidth = 50

// report renders the plain text answer of an operation.
type report struct {
	b strings.Builder
}

func newReport(title string) *report {
	r := &report{}
	r.line("%s", title)
	r.rule()
	return r
}

func (r *report) line(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
	r.b.WriteByte('\n')
}

func (r *report) blank() {
	r.b.WriteByte('\n')
}

func (r *report) rule() {
	r.line("%s", strings.Repeat("=", ruleWidth))
}

func (r *report) status(resp *dsa.Response) {
	status := resp.Status
	if status == "" {
		status = "Unknown"
	}
	r.line("Status: %s", status)
	r.line("Valid: %s", flag(resp.Valid))
}

// validations lists every server and client entry of resp.
func (r *report) validations(resp *dsa.Response) {
	vals := resp.Validations()
	if len(vals) == 0 {
		return
	}
	r.blank()
	r.line("Validation Details:")
	for _, v := range vals {
		switch v.Origin {
		case dsa.OriginServer:
			r.line("Server Error: %s", orNA(v.Message, "Unknown error"))
			r.line("   Code: %s", orNA(v.Code, "N/A"))
			r.line("   Status: %s", orNA(v.ValStatus, "N/A"))
		default:
			r.line("Client Error: %s", orNA(v.Message, "Unknown error"))
			r.line("   Code: %s", orNA(v.Code, "N/A"))
		}
	}
}

func (r *report) bullets(items []string, empty string) {
	if len(items) == 0 {
		r.line("   %s", empty)
		return
	}
	for _, item := range items {
		r.line("   - %s", item)
	}
}

func (r *report) String() string {
	return strings.TrimRight(r.b.String(), "\n")
}

// failure renders the short form used for media server answers.
func failure(action string, resp *dsa.Response) string {
	vals := resp.Validations()
	if len(vals) == 0 {
		return fmt.Sprintf("Failed to %s: %s", action, orNA(resp.Status, "Unknown error"))
	}
	lines := make([]string, 0, len(vals)+1)
	lines = append(lines, fmt.Sprintf("Failed to %s:", action))
	for _, v := range vals {
		lines = append(lines, fmt.Sprintf("Code %s: %s", orNA(v.Code, "N/A"), orNA(v.Message, "Unknown error")))
	}
	return strings.Join(lines, "\n")
}

// prettyJSON indents the raw body of resp.
func prettyJSON(resp *dsa.Response) string {
	var v any
	if err := json.Unmarshal(resp.Raw(), &v); err != nil {
		return string(resp.Raw())
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(resp.Raw())
	}
	return string(out)
}

func flag(b *bool) string {
	if b == nil {
		return "false"
	}
	return fmt.Sprint(*b)
}

func orNA(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// mask keeps the first characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
