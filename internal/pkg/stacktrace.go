package pkg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/ansel1/merry"
)

// FormatMerryStacktrace returns the error's stacktrace as a string, one
// frame per sep. If e carries no stacktrace, returns an empty string.
func FormatMerryStacktrace(e error, sep string) string {
	return formatStack(merry.Stack(e), sep)
}

func formatStack(stack []uintptr, sep string) string {
	trace := ""
	for i, fp := range stack {
		fnc := runtime.FuncForPC(fp)
		if fnc == nil {
			continue
		}

		name := filepath.Base(fnc.Name())
		if name == "runtime.goexit" {
			continue
		}
		file, line := fnc.FileLine(fp)
		file = formatStackTraceFileName(file)

		if i != 0 {
			trace += sep
		}
		trace += fmt.Sprintf("%s:%d %s", file, line, name)
	}
	return trace
}

func formatStackTraceFileName(file string) string {
	file = strings.ReplaceAll(file, "\\", "/")
	file = excludeGoPathPkgModRegexp.ReplaceAllString(file, "")
	file = excludeGoPathGithubFpawelSrcRegexp.ReplaceAllString(file, "")
	file = excludeModVersionRegexp.ReplaceAllString(file, "")
	return file
}

var excludeGoPathPkgModRegexp = regexp.MustCompile(`.*/go/pkg/mod/`)
var excludeGoPathGithubFpawelSrcRegexp = regexp.MustCompile(`github.com/fpawel/`)
var excludeModVersionRegexp = regexp.MustCompile(`@v[^/]+`)
