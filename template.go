package cmdmux

import (
	"strconv"
	"strings"
)

// Templates holds the message templates used by the console and writer
// facades. Supported placeholders:
//
//	{{name}}          the command's name
//	{{status_code}}   the exit status, or "(none)" without one
//	{{handle_flag}}   " (o)" or " (e)" when handle flags are enabled
//	{{error_message}} the error text, for the Error template
//
// The payload template only renders the line prefix; the captured output
// line follows it verbatim.
type Templates struct {
	Start   string
	Done    string
	Payload string
	Error   string
}

// DefaultTemplates returns the built-in message templates.
func DefaultTemplates() Templates {
	return Templates{
		Start:   "SYSTEM: starting process {{name}}",
		Done:    "{{name}}: process exited with status: {{status_code}}",
		Payload: "{{name}}{{handle_flag}}:",
		Error:   "SYSTEM (e): Encountered error with process {{name}}: {{error_message}}",
	}
}

// renderTemplate interpolates one template string.
func renderTemplate(tmpl, name, handleFlag string, code *int, errMsg string) string {
	status := "(none)"
	if code != nil {
		status = strconv.Itoa(*code)
	}
	return strings.NewReplacer(
		"{{name}}", name,
		"{{status_code}}", status,
		"{{handle_flag}}", handleFlag,
		"{{error_message}}", errMsg,
	).Replace(tmpl)
}
