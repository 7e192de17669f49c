package sysinfo

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fakeCollector(goos string, outputs map[string]string, files map[string]string) *Collector {
	c := NewCollector(zap.NewNop())
	c.goos = goos
	c.run = func(_ context.Context, name string, _ ...string) (string, error) {
		if out, ok := outputs[name]; ok {
			return out, nil
		}
		return "", errors.New(name + " not available")
	}
	c.readFile = func(path string) ([]byte, error) {
		if data, ok := files[path]; ok {
			return []byte(data), nil
		}
		return nil, os.ErrNotExist
	}
	return c
}

func TestOSInfo_Linux(t *testing.T) {
	c := fakeCollector("linux", nil, map[string]string{
		"/etc/os-release": "NAME=\"Debian\"\nPRETTY_NAME=\"Debian GNU/Linux 12\"\nVERSION_ID=\"12\"\n",
		"/proc/meminfo":   "MemTotal:       16316304 kB\nMemFree:         1201232 kB\n",
	})

	info := c.osInfo(context.Background())
	assert.Equal(t, "Debian GNU/Linux 12", info["distribution"])
	assert.Equal(t, "12", info["distribution_version"])
	assert.Equal(t, "16316304 kB", info["Total Physical Memory"])
	assert.Equal(t, "linux", info["system"])
}

func TestOSInfo_WindowsFiltersSysteminfo(t *testing.T) {
	out := `Host Name:                 DESKTOP-1
OS Name:                   Microsoft Windows 11 Pro
OS Version:                10.0.22631 N/A Build 22631
Registered Owner:          someone
Total Physical Memory:     32,504 MB
`
	c := fakeCollector("windows", map[string]string{"systeminfo": out}, nil)

	info := c.osInfo(context.Background())
	assert.Equal(t, "Microsoft Windows 11 Pro", info["OS Name"])
	assert.Equal(t, "32,504 MB", info["Total Physical Memory"])
	assert.NotContains(t, info, "Host Name")
	assert.NotContains(t, info, "Registered Owner")
}

func TestLinuxCPU_SumsCores(t *testing.T) {
	c := fakeCollector("linux", nil, map[string]string{
		"/proc/cpuinfo": `processor	: 0
model name	: AMD Ryzen 7 5800X 8-Core Processor
cpu cores	: 8
processor	: 1
model name	: AMD Ryzen 7 5800X 8-Core Processor
cpu cores	: 8
`,
	})

	cpu := c.linuxCPU()
	assert.Equal(t, "AMD Ryzen 7 5800X 8-Core Processor", cpu.Name)
	assert.Equal(t, 16, cpu.NumCores)
}

func TestWindowsDisks_BlankLineSeparated(t *testing.T) {
	out := `
InterfaceType=SCSI
Model=Samsung SSD 980 1TB
Size=1000202273280
Status=OK


InterfaceType=USB
Model=SanDisk Ultra
Size=61530439680
Status=OK

`
	c := fakeCollector("windows", map[string]string{"wmic": out}, nil)

	disks := c.windowsDisks(context.Background())
	require.Len(t, disks, 2)
	assert.Equal(t, "Samsung SSD 980 1TB", disks[0].Model)
	assert.Equal(t, "SCSI", disks[0].InterfaceType)
	assert.Equal(t, "SanDisk Ultra", disks[1].Model)
}

func TestLinuxDisks_FiltersNonDisks(t *testing.T) {
	out := `NAME SIZE MODEL TYPE TRAN
sda 1000204886016 Samsung_SSD_870 disk sata
sr0 1073741312 DVD+-RW rom sata
nvme0n1 512110190592 WD_BLACK_SN770 disk nvme
`
	c := fakeCollector("linux", map[string]string{"lsblk": out}, nil)

	disks := c.linuxDisks(context.Background())
	require.Len(t, disks, 2)
	assert.Equal(t, "Samsung_SSD_870", disks[0].Model)
	assert.Equal(t, "sata", disks[0].InterfaceType)
	assert.Equal(t, "nvme", disks[1].InterfaceType)
}

func TestCollect_ProbeFailuresAreNotFatal(t *testing.T) {
	c := fakeCollector("linux", nil, nil)

	snap := c.Collect(context.Background())
	require.NotNil(t, snap)
	assert.False(t, snap.Timestamp.IsZero())
	assert.Equal(t, "linux", snap.OS["system"])
	assert.Empty(t, snap.Hardware.Disks)
	assert.Empty(t, snap.Network)
}
