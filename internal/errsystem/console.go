package errsystem

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/tunlease/cli/internal/tui"
)

var Version string = "dev"

type crashReport struct {
	ID         string         `json:"id"`
	Timestamp  string         `json:"timestamp"`
	Error      string         `json:"error"`
	ErrorType  errorType      `json:"error_type"`
	Username   string         `json:"username"`
	Message    string         `json:"message,omitempty"`
	OSName     string         `json:"os_name"`
	OSArch     string         `json:"os_arch"`
	CLIVersion string         `json:"cli_version"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// writeCrashReportFile leaves a local report next to the invocation so the
// user can attach it to a bug report. Best effort, failures are ignored.
func (e *errSystem) writeCrashReportFile() string {
	tmp, err := os.Create(fmt.Sprintf(".tunlease-crash-%d.json", time.Now().Unix()))
	if err != nil {
		return ""
	}
	defer tmp.Close()
	var report crashReport
	report.ID = e.id
	report.Timestamp = time.Now().Format(time.RFC3339)
	if user, err := user.Current(); err == nil {
		report.Username = user.Username
	}
	report.OSName = runtime.GOOS
	report.OSArch = runtime.GOARCH
	report.Message = e.message
	if e.err != nil {
		report.Error = e.err.Error()
	}
	report.ErrorType = e.code
	report.Attributes = e.attributes
	report.CLIVersion = Version
	json.NewEncoder(tmp).Encode(report)
	return tmp.Name()
}

// ShowErrorAndExit shows an error message and exits the program with a
// non-zero exit code.
func (e *errSystem) ShowErrorAndExit() {
	var body strings.Builder
	if e.message != "" {
		body.WriteString(e.message + "\n\n")
	} else {
		body.WriteString(e.code.Message + "\n\n")
	}
	var detail []string
	if e.err != nil {
		errmsg := e.err.Error()
		errmsg = strings.ReplaceAll(errmsg, "\n", ". ")
		detail = append(detail, "Error:  "+errmsg)
	}
	detail = append(detail, "Code:   "+e.code.Code)
	detail = append(detail, "ID:     "+e.id)
	for _, d := range detail {
		body.WriteString(tui.Muted("%s", d) + "\n")
	}
	filename := e.writeCrashReportFile()
	if filename != "" {
		body.WriteString(tui.Muted("Report: %s", filename) + "\n")
	}
	tui.ShowBanner("☹ Error Detected", body.String())
	os.Exit(1)
}
