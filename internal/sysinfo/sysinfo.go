// Package sysinfo gathers a point-in-time snapshot of the host: OS
// identity, hardware inventory, and network layout. Everything here is
// best effort; a probe that fails simply leaves its field empty.
package sysinfo

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Snapshot is the nested system-info document embedded in reports and
// in the persisted memory file.
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	OS        map[string]string `json:"os_info"`
	Hardware  Hardware          `json:"hardware_info"`
	Network   map[string]string `json:"network_info"`
}

// Hardware describes the CPU and physical disks.
type Hardware struct {
	CPU   CPU    `json:"cpu"`
	Disks []Disk `json:"disks"`
}

type CPU struct {
	Name     string `json:"name"`
	NumCores int    `json:"num_cores"`
}

type Disk struct {
	Model         string `json:"model"`
	Size          string `json:"size"`
	Status        string `json:"status"`
	InterfaceType string `json:"interface_type"`
}

type runner func(ctx context.Context, name string, args ...string) (string, error)

func hostRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

// Collector probes the host with platform-specific tooling: wmic,
// systeminfo and ipconfig on Windows; procfs, lsblk and ip on Linux.
type Collector struct {
	logger   *zap.Logger
	goos     string
	run      runner
	readFile func(string) ([]byte, error)
}

func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		logger:   logger,
		goos:     runtime.GOOS,
		run:      hostRunner,
		readFile: os.ReadFile,
	}
}

// Collect assembles a full snapshot. It never returns an error; probe
// failures are logged and the affected fields stay empty.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	return &Snapshot{
		Timestamp: time.Now(),
		OS:        c.osInfo(ctx),
		Hardware:  c.hardwareInfo(ctx),
		Network:   c.networkInfo(ctx),
	}
}

func (c *Collector) osInfo(ctx context.Context) map[string]string {
	info := map[string]string{
		"system":       c.goos,
		"architecture": runtime.GOARCH,
	}

	switch c.goos {
	case "windows":
		out, err := c.run(ctx, "systeminfo", "/FO", "LIST")
		if err != nil {
			c.logger.Warn("systeminfo failed", zap.Error(err))
			return info
		}
		wanted := map[string]bool{
			"OS Name": true, "OS Version": true, "System Manufacturer": true,
			"System Model": true, "System Type": true,
			"Total Physical Memory": true, "System Locale": true,
		}
		for key, value := range parseColonList(out) {
			if wanted[key] {
				info[key] = value
			}
		}
	case "linux":
		if data, err := c.readFile("/etc/os-release"); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
					info["distribution"] = strings.Trim(v, `"`)
				}
				if v, ok := strings.CutPrefix(line, "VERSION_ID="); ok {
					info["distribution_version"] = strings.Trim(v, `"`)
				}
			}
		}
		if data, err := c.readFile("/proc/meminfo"); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if v, ok := strings.CutPrefix(line, "MemTotal:"); ok {
					info["Total Physical Memory"] = strings.TrimSpace(v)
					break
				}
			}
		}
	}
	return info
}

func (c *Collector) hardwareInfo(ctx context.Context) Hardware {
	if c.goos == "windows" {
		return Hardware{CPU: c.windowsCPU(ctx), Disks: c.windowsDisks(ctx)}
	}
	return Hardware{CPU: c.linuxCPU(), Disks: c.linuxDisks(ctx)}
}

func (c *Collector) windowsCPU(ctx context.Context) CPU {
	out, err := c.run(ctx, "wmic", "cpu", "get",
		"Name,NumberOfCores,NumberOfLogicalProcessors", "/format:list")
	if err != nil {
		c.logger.Warn("wmic cpu query failed", zap.Error(err))
		return CPU{}
	}
	fields := parseEqualsList(out)
	cores, _ := strconv.Atoi(fields["NumberOfCores"])
	return CPU{Name: fields["Name"], NumCores: cores}
}

func (c *Collector) windowsDisks(ctx context.Context) []Disk {
	out, err := c.run(ctx, "wmic", "diskdrive", "get",
		"Model,Size,Status,InterfaceType", "/format:list")
	if err != nil {
		c.logger.Warn("wmic diskdrive query failed", zap.Error(err))
		return nil
	}

	var disks []Disk
	current := map[string]string{}
	flush := func() {
		if len(current) > 0 {
			disks = append(disks, Disk{
				Model:         current["Model"],
				Size:          current["Size"],
				Status:        current["Status"],
				InterfaceType: current["InterfaceType"],
			})
			current = map[string]string{}
		}
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			current[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	flush()
	return disks
}

func (c *Collector) linuxCPU() CPU {
	data, err := c.readFile("/proc/cpuinfo")
	if err != nil {
		return CPU{}
	}
	cpu := CPU{}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "model name":
			if cpu.Name == "" {
				cpu.Name = value
			}
		case "cpu cores":
			if n, err := strconv.Atoi(value); err == nil {
				cpu.NumCores += n
			}
		}
	}
	return cpu
}

func (c *Collector) linuxDisks(ctx context.Context) []Disk {
	out, err := c.run(ctx, "lsblk", "-d", "-b", "-o", "NAME,SIZE,MODEL,TYPE,TRAN")
	if err != nil {
		c.logger.Warn("lsblk failed", zap.Error(err))
		return nil
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return nil
	}

	var disks []Disk
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		// NAME SIZE [MODEL] TYPE [TRAN]; model may contain no spaces
		// at -o granularity, so positional parsing holds.
		var model, diskType, tran string
		switch len(fields) {
		case 4:
			diskType = fields[2]
			tran = fields[3]
		default:
			model = fields[2]
			diskType = fields[3]
			tran = fields[4]
		}
		if diskType != "disk" {
			continue
		}
		disks = append(disks, Disk{
			Model:         model,
			Size:          fields[1],
			Status:        "OK",
			InterfaceType: tran,
		})
	}
	return disks
}

func (c *Collector) networkInfo(ctx context.Context) map[string]string {
	info := map[string]string{}
	switch c.goos {
	case "windows":
		if out, err := c.run(ctx, "ipconfig", "/all"); err == nil {
			info["ipconfig_all"] = out
		}
	case "linux":
		if out, err := c.run(ctx, "ip", "-br", "addr"); err == nil {
			info["ip_addr_brief"] = out
		}
		if out, err := c.run(ctx, "ip", "route"); err == nil {
			info["ip_route"] = out
		}
		if data, err := c.readFile("/etc/resolv.conf"); err == nil {
			info["dns_config"] = string(data)
		}
	}
	return info
}

func parseColonList(out string) map[string]string {
	return parseKVList(out, ":")
}

func parseEqualsList(out string) map[string]string {
	return parseKVList(out, "=")
}

func parseKVList(out, sep string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		if key, value, ok := strings.Cut(line, sep); ok {
			fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return fields
}
