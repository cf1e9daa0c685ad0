// Command expensebook-xlsx moves a workbook in or out of the configured
// backend without running the server.
//
//	expensebook-xlsx import <file.xlsx>
//	expensebook-xlsx export [file.xlsx]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"expensebook/internal/backend"
	"expensebook/internal/cli"
	"expensebook/internal/log"
	"expensebook/internal/storage"
	"expensebook/internal/workbook"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: expensebook-xlsx import <file.xlsx>")
	fmt.Fprintln(os.Stderr, "       expensebook-xlsx export [file.xlsx]")
	flag.PrintDefaults()
}

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "overall operation timeout")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == string(backend.MemoryBackend) {
		cli.Fatal(logger, "Refusing to run against the memory backend", fmt.Errorf("DATA_BACKEND=%s", cfg.DataBackend))
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	}()

	switch cmd := flag.Arg(0); cmd {
	case "import":
		if flag.NArg() != 2 {
			usage()
			os.Exit(2)
		}
		err = importFile(ctx, res.Repository, flag.Arg(1), logger)
	case "export":
		path := flag.Arg(1)
		if path == "" {
			path = workbook.FileName(cfg.ExportYear, time.Now())
		}
		err = exportFile(ctx, res.Repository, path, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		res.Close()
		cli.Fatal(logger, "Command failed", err, log.FieldAction, flag.Arg(0))
	}
}

// importFile replaces the stored state with the workbook at path and keeps
// the file as the export snapshot.
func importFile(ctx context.Context, repo *storage.Repository, path string, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := workbook.Import(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if err := repo.SaveData(ctx, result.Expenses, result.Summaries); err != nil {
		return err
	}
	if err := repo.SaveWorkbook(ctx, result.Raw); err != nil {
		return err
	}
	logger.Info("Workbook imported",
		log.FieldFile, path,
		log.FieldEntries, result.Expenses.Count(),
		log.FieldBytes, len(result.Raw))
	return nil
}

// exportFile writes the stored state to path, patching the saved snapshot
// when there is one.
func exportFile(ctx context.Context, repo *storage.Repository, path string, logger *log.Logger) error {
	expenses, summaries, snapshot, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	data, err := workbook.Export(expenses, summaries, snapshot)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logger.Info("Workbook exported",
		log.FieldFile, path,
		log.FieldEntries, expenses.Count(),
		log.FieldBytes, len(data),
		"from_snapshot", len(snapshot) > 0)
	return nil
}
