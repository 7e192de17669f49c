package orchestrator

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
)

// builtinTools names the Windows diagnostic tools the user may launch
// directly with the "execute" verb. Anything else is rejected so the
// verb never becomes a confirmation-free shell.
var builtinTools = map[string]string{
	"msinfo32":     "System Information Tool",
	"dxdiag":       "DirectX Diagnostic Tool",
	"devmgmt.msc":  "Device Manager",
	"eventvwr.msc": "Event Viewer",
	"services.msc": "Services Manager",
	"taskmgr":      "Task Manager",
	"perfmon":      "Performance Monitor",
	"winver":       "Windows Version Info",
	"control":      "Control Panel",
}

// startTool launches a named tool detached, the way "start" does.
func startTool(name string) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("%s is a Windows tool; not available on %s", name, runtime.GOOS)
	}
	// The empty string is start's window title slot.
	return exec.Command("cmd", "/C", "start", "", name).Start()
}

// LaunchTool handles the "execute <tool>" verb: launch a known Windows
// diagnostic tool and remember it. The explicit verb is the user's
// confirmation, so no extra prompt is shown.
func (o *Orchestrator) LaunchTool(name string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		o.ui.Error("No tool specified.")
		return
	}

	description, ok := builtinTools[key]
	if !ok {
		o.ui.Error("Unknown or unsupported tool: %s", name)
		o.ui.Info("Supported tools: %s", strings.Join(toolNames(), ", "))
		return
	}

	o.ui.Info("Launching %s...", description)
	if err := o.launch(key); err != nil {
		o.ui.Error("Could not start %s: %v", key, err)
		o.audit.Append("tool_launch", false, map[string]any{"tool": key, "error": err.Error()})
		return
	}
	o.ui.Success("Started %s. Check for an open window.", key)
	o.store.AddCommand("start "+key, true, 0)
	o.audit.Append("tool_launch", true, map[string]any{"tool": key})
}

func toolNames() []string {
	names := make([]string, 0, len(builtinTools))
	for name := range builtinTools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
