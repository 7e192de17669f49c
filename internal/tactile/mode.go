package tactile

import (
	"strings"

	"github.com/google/shlex"
)

// shellOperators force shell interpretation because plain argv execution
// would pass them through as literal arguments.
var shellOperators = []string{"|", ">", "<", "&&", "||"}

// resolve decides how a command line should be launched: tokenized argv
// when possible, otherwise handed to the platform shell as one string.
func (e *Executor) resolve(command string) (prog string, args []string, useShell bool) {
	// Management console snap-ins are documents, not executables; the
	// shell's start verb knows how to open them.
	if e.goos == "windows" && strings.HasSuffix(strings.ToLower(firstField(command)), ".msc") {
		return e.shellCommand("start " + command)
	}

	if needsShell(command, e.goos) {
		return e.shellCommand(command)
	}

	tokens, err := shlex.Split(command)
	if err != nil || len(tokens) == 0 {
		return e.shellCommand(command)
	}
	return tokens[0], tokens[1:], false
}

func (e *Executor) shellCommand(command string) (string, []string, bool) {
	if e.goos == "windows" {
		return "cmd", []string{"/C", command}, true
	}
	return "sh", []string{"-c", command}, true
}

func needsShell(command, goos string) bool {
	for _, op := range shellOperators {
		if strings.Contains(command, op) {
			return true
		}
	}
	// %VAR% expansion only happens inside cmd.exe.
	if goos == "windows" && strings.Contains(command, "%") {
		return true
	}
	return false
}

func firstField(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
