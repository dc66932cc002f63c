package services

import (
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStatus is the host and pool snapshot shown on the admin dashboard.
type SystemStatus struct {
	CapturedAt        time.Time `json:"captured_at"`
	ProcessRSSBytes   int64     `json:"process_rss_bytes"`
	ProcessCPULoad    float64   `json:"process_cpu_load"`
	SystemCPULoad     float64   `json:"system_cpu_load"`
	SystemMemoryTotal int64     `json:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `json:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `json:"disk_total_bytes"`
	DiskUsedBytes     int64     `json:"disk_used_bytes"`
	DBOpenConns       int       `json:"db_open_connections"`
	DBInUse           int       `json:"db_in_use"`
	DBIdle            int       `json:"db_idle"`
	LiveSockets       int       `json:"live_sockets"`
}

// CaptureSystemStatus samples the host. Probes that fail leave zeros.
func CaptureSystemStatus(db *sqlx.DB, hub *Hub, diskPath string) SystemStatus {
	status := SystemStatus{CapturedAt: time.Now().UTC()}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfo(); err == nil && rss != nil {
			status.ProcessRSSBytes = int64(rss.RSS)
		}
		if perc, err := proc.CPUPercent(); err == nil {
			status.ProcessCPULoad = perc / 100.0
		}
	}
	if perc, err := cpu.Percent(0, false); err == nil && len(perc) > 0 {
		status.SystemCPULoad = perc[0] / 100.0
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		status.SystemMemoryTotal = int64(memStat.Total)
		status.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, err = disk.Usage("/")
	}
	if err == nil {
		status.DiskTotalBytes = int64(diskStat.Total)
		status.DiskUsedBytes = int64(diskStat.Used)
	}
	if db != nil {
		stats := db.Stats()
		status.DBOpenConns = stats.OpenConnections
		status.DBInUse = stats.InUse
		status.DBIdle = stats.Idle
	}
	if hub != nil {
		status.LiveSockets = hub.Connected()
	}
	return status
}
