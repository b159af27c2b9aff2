package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ivlev/shotmaker/internal/analyzer"
	"github.com/ivlev/shotmaker/internal/capture"
	"github.com/ivlev/shotmaker/internal/config"
	"github.com/ivlev/shotmaker/internal/engine"
	"github.com/ivlev/shotmaker/internal/logging"
	"github.com/ivlev/shotmaker/internal/manifest"
	"github.com/ivlev/shotmaker/internal/renderer"
	"github.com/ivlev/shotmaker/internal/scene"
	"github.com/ivlev/shotmaker/internal/system"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	dirs := []string{"input/runs", "input/scenes", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "Путь к файлу прогона (по умолчанию: самый свежий файл в input/runs/)")
	outputPtr := flag.String("output", "", "Папка для скриншотов (перекрывает output_dir)")
	scalePtr := flag.Int("scale", 1, "Увеличение разрешения кадра")
	settlePtr := flag.Duration("settle", config.DefaultSettle, "Пауза после каждого снимка")
	retriesPtr := flag.Int("retries", 0, "Повторы при ошибке записи")
	planPtr := flag.Bool("plan", false, "Только составить план снимков, ничего не снимать")
	retryPtr := flag.Bool("retry-failed", false, "Переснять только неудачные снимки последнего прогона")
	statsPtr := flag.Bool("stats", false, "Показать статистику производительности")
	verifyPtr := flag.Bool("verify", false, "Проверять, что объект виден в кадре")
	qrPtr := flag.Bool("stamp-qr", false, "Ставить QR-код с именем файла в угол снимка")
	levelPtr := flag.String("log-level", "", "Уровень логов: debug, info, warn, error")
	envPtr := flag.String("env", ".env", "Файл с переменными окружения")

	flag.Parse()

	if err := config.LoadEnvFile(*envPtr); err != nil {
		log.Fatalf("[-] Ошибка чтения %s: %v", *envPtr, err)
	}

	runPath := *configPtr
	if runPath == "" {
		latest, err := system.FindLatest("input/runs", ".yaml", ".yml")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите файл прогона в input/runs/", err)
		}
		runPath = latest
		fmt.Printf("[*] Выбран файл прогона: %s\n", runPath)
	}

	cfg, err := config.Load(runPath)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	cfg.BuildVersion = version

	// Флаги, заданные явно, важнее файла прогона и окружения
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.OutputDir = *outputPtr
		case "scale":
			cfg.Scale = *scalePtr
		case "settle":
			cfg.Settle = *settlePtr
		case "retries":
			cfg.Retries = *retriesPtr
		case "verify":
			cfg.Verify = *verifyPtr
		case "stamp-qr":
			cfg.StampQR = *qrPtr
		case "log-level":
			cfg.Logging.Level = *levelPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации %s:\n%v", runPath, err)
	}

	logger := logging.New(cfg.Logging, version)

	scenePath := cfg.Scene
	if !filepath.IsAbs(scenePath) {
		scenePath = filepath.Join(filepath.Dir(runPath), scenePath)
	}
	sc, err := scene.Load(scenePath)
	if err != nil {
		log.Fatalf("[-] Ошибка загрузки сцены: %v", err)
	}

	opts, host, err := engine.OptionsFromConfig(cfg, sc)
	if err != nil {
		log.Fatalf("[-] Ошибка сцены %s:\n%v", scenePath, err)
	}

	rend := renderer.New(sc, cfg.Width, cfg.Height)

	var writerOpts []capture.Option
	if cfg.Verify {
		det, err := analyzer.NewDetector(cfg.Detector)
		if err != nil {
			log.Fatalf("[-] Ошибка детектора: %v", err)
		}
		if det != nil {
			writerOpts = append(writerOpts, capture.WithDetector(det))
		}
	}
	if cfg.StampQR {
		writerOpts = append(writerOpts, capture.WithQRStamp())
	}

	writer, err := capture.NewWriter(rend, cfg.OutputDir, logger, writerOpts...)
	if err != nil {
		log.Fatalf("[-] Ошибка папки вывода: %v", err)
	}
	manifestDir := filepath.Join(writer.Dir(), "manifests")

	if *retryPtr {
		prev, err := manifest.FindLatest(manifestDir, "run")
		if err != nil {
			log.Fatalf("[-] Нечего переснимать: %v", err)
		}
		m, err := manifest.Read(prev)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения манифеста %s: %v", prev, err)
		}
		failed := m.Files(manifest.StatusFailed)
		if len(failed) == 0 {
			fmt.Printf("[+++] В прогоне %s нет неудачных снимков\n", m.RunID)
			return
		}
		opts.Only = make(map[string]bool, len(failed))
		for _, f := range failed {
			opts.Only[f] = true
		}
		fmt.Printf("[*] Переснимаем %d снимков из %s\n", len(failed), prev)
	}

	seq := engine.New(host, writer, opts, logger)
	if err := seq.Setup(); err != nil {
		log.Fatalf("[-] Ошибка подготовки: %v", err)
	}

	jobs := seq.Jobs()

	if *planPtr {
		m := manifest.FromPlan(jobs, cfg.Scale, writer.Dir())
		path := manifest.GeneratePath(manifestDir, "plan", m.RunID)
		if err := manifest.Write(m, path); err != nil {
			log.Fatalf("[-] Ошибка записи плана: %v", err)
		}
		for _, j := range jobs {
			fmt.Printf("    %3d  %s  (камера: %s)\n", j.Index, j.FileName(), j.Camera.Tracking)
		}
		fmt.Printf("[+++] План из %d снимков: %s\n", len(jobs), path)
		return
	}

	if err := system.CheckDiskSpace(writer.Dir(), system.EstimateRunBytes(len(jobs), cfg.Width, cfg.Height, cfg.Scale)); err != nil {
		log.Fatalf("[-] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("[*] Снимков в плане: %d (%s)\n", len(jobs), writer.Dir())
	start := time.Now()

	report, runErr := seq.Run(ctx)
	if err := writer.Close(); err != nil {
		log.Printf("[!] Ошибка завершения записи: %v", err)
	}
	if report == nil {
		log.Fatalf("[-] Ошибка прогона: %v", runErr)
	}

	m := manifest.FromReport(report, cfg.Scale, writer.Dir())
	path := manifest.GeneratePath(manifestDir, "run", m.RunID)
	if err := manifest.Write(m, path); err != nil {
		log.Printf("[!] Не удалось записать манифест: %v", err)
	}

	fmt.Println(renderSummary(m, len(jobs), path))

	if cfg.ShowStats {
		elapsed := time.Since(start)
		fmt.Printf("[*] Время: %s, снимков/с: %.2f, память: %d МБ\n",
			elapsed.Round(time.Millisecond),
			float64(len(report.Results))/elapsed.Seconds(),
			system.MemoryUsedMB())
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		fmt.Println("[!] Прогон прерван")
		os.Exit(130)
	case runErr != nil:
		log.Fatalf("[-] Ошибка прогона: %v", runErr)
	case len(report.Failed()) > 0:
		os.Exit(1)
	}

	fmt.Printf("[+++] Успех! Снимки: %s\n", writer.Dir())
}
