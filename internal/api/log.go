package api

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"montagego/pkg/logging"
)

// Regex to capture key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// maxParamLen drops values too long for a one-line status display (paths, error chains).
const maxParamLen = 20

// handleLatestLog returns the last captured log line.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	line := logging.GlobalLogCapture.GetLastLine()
	writeJSON(w, http.StatusOK, map[string]string{
		"log": formatLogLine(line),
	})
}

// formatLogLine turns a slog text line into "HH:MM:SS [LEVEL] msg (k=v, ...)".
// The level tag appears only for warnings and errors. Params are sorted.
func formatLogLine(raw string) string {
	matches := logRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var msg, timeStr, level string
	var params []string

	for _, m := range matches {
		key := m[1]
		val := m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				timeStr = t.Format("15:04:05")
			}
		case "level":
			if val == "WARN" || val == "ERROR" {
				level = val
			}
		case "msg":
			msg = val
		default:
			if len(val) > maxParamLen {
				continue
			}
			params = append(params, fmt.Sprintf("%s=%s", key, val))
		}
	}

	if msg == "" {
		return raw
	}

	sort.Strings(params)

	output := msg
	if level != "" {
		output = fmt.Sprintf("[%s] %s", level, output)
	}
	if timeStr != "" {
		output = fmt.Sprintf("%s %s", timeStr, output)
	}

	if len(params) > 0 {
		return fmt.Sprintf("%s (%s)", output, strings.Join(params, ", "))
	}
	return output
}
