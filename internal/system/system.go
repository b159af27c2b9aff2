package system

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open file limit: every in-flight capture
// holds a file open while its PNG is encoded.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// FindLatest returns the most recently modified file in dir whose extension
// matches one of exts (case-insensitive).
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов %s", dir, strings.Join(exts, ", "))
	}

	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// EstimateRunBytes is a pessimistic size of all artifacts of a run:
// PNG rarely compresses rendered frames below half of raw RGBA.
func EstimateRunBytes(jobs, width, height, scale int) uint64 {
	perFrame := uint64(width*scale) * uint64(height*scale) * 4 / 2
	return perFrame * uint64(jobs)
}

// CheckDiskSpace fails when the filesystem holding dir has less than need bytes free.
func CheckDiskSpace(dir string, need uint64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		return fmt.Errorf("disk usage %s: %w", dir, err)
	}
	if usage.Free < need {
		return fmt.Errorf("недостаточно места в %s: нужно ~%d МБ, свободно %d МБ",
			dir, need>>20, usage.Free>>20)
	}
	return nil
}

// MemoryUsedMB reports the host's used memory, 0 when it cannot be read.
func MemoryUsedMB() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.Used >> 20
}
