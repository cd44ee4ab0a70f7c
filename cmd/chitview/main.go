package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fennle/chitview/internal/app"
	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/config"
	"github.com/fennle/chitview/internal/thumbs"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override prefs path (optional)")
	serverURL := flag.String("server", "", "override server URL (optional)")
	pollSeconds := flag.Int("poll", 0, "status poll interval in seconds (optional)")
	uploadPath := flag.String("upload", "", "upload a slicer file and exit")
	printerID := flag.String("printer", "", "target printer ID for -upload")
	dest := flag.String("dest", "usb", "upload destination: usb or local")
	discover := flag.Bool("discover", false, "trigger printer discovery and exit")
	extractPath := flag.String("extract", "", "extract slicer previews into the cache and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("chitview " + version)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch {
	case *uploadPath != "":
		err = runUpload(ctx, *configPath, *serverURL, *uploadPath, *printerID, *dest)
	case *discover:
		err = runDiscover(ctx, *configPath, *serverURL)
	case *extractPath != "":
		err = runExtract(*configPath, *extractPath)
	default:
		err = app.Run(ctx, app.Options{
			ConfigPath: *configPath,
			PrefsPath:  *prefsPath,
			ServerURL:  *serverURL,
			PollEvery:  *pollSeconds,
		})
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "chitview: %v\n", err)
		return 1
	}
	return 0
}

// newClient builds a logged-in REST client for the headless modes.
func newClient(ctx context.Context, configPath, serverURL string) (*chitui.Client, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}

	client, err := chitui.NewClient(cfg.ServerURL)
	if err != nil {
		return nil, cfg, fmt.Errorf("init client: %w", err)
	}
	if cfg.Password != "" {
		result, err := client.Login(ctx, cfg.Password)
		if err != nil {
			return nil, cfg, fmt.Errorf("login: %w", err)
		}
		if !result.Success {
			return nil, cfg, fmt.Errorf("login rejected: %s", result.Message)
		}
	}
	return client, cfg, nil
}

// runUpload sends one slicer file and follows progress until the server
// finishes its copy phase.
func runUpload(ctx context.Context, configPath, serverURL, path, printerID, dest string) error {
	client, _, err := newClient(ctx, configPath, serverURL)
	if err != nil {
		return err
	}

	result, err := client.Upload(ctx, chitui.UploadRequest{
		Path:        path,
		PrinterID:   printerID,
		Destination: dest,
		OnProgress: func(sent, total int64) {
			if total > 0 {
				fmt.Printf("\rSending %s: %3.0f%%", filepath.Base(path), float64(sent)/float64(total)*100)
			}
		},
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if !result.Succeeded() {
		return fmt.Errorf("upload rejected: %s", result.Msg)
	}

	// The POST returning only means the server has the file; the copy to
	// USB storage streams progress separately.
	if result.UploadID != "" {
		err = client.WatchProgress(ctx, result.UploadID, func(percent int) {
			fmt.Printf("\rCopying: %3d%%", percent)
		})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("watch progress: %w", err)
		}
	}

	fmt.Printf("Uploaded %s\n", result.Filename)
	return nil
}

// runDiscover triggers a discovery sweep and prints the result table.
func runDiscover(ctx context.Context, configPath, serverURL string) error {
	client, _, err := newClient(ctx, configPath, serverURL)
	if err != nil {
		return err
	}

	result, err := client.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	// A scan that found nothing reports success=false with an empty
	// printer map; that is an empty result, not a failure.
	if len(result.Printers) == 0 {
		fmt.Println("No printers found")
		return nil
	}
	if !result.Success {
		return fmt.Errorf("discover failed: %s", result.Message)
	}

	ids := make([]string, 0, len(result.Printers))
	for id := range result.Printers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%-20s %-24s %-16s %s\n", "ID", "NAME", "IP", "MODEL")
	for _, id := range ids {
		p := result.Printers[id]
		fmt.Printf("%-20s %-24s %-16s %s\n", id, p.Name, p.IP, p.Model)
	}
	return nil
}

// runExtract pulls previews out of a slicer file into the thumbnail cache.
func runExtract(configPath, path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	extractor := thumbs.NewExtractor(cfg.ThumbnailCacheDir)
	result, err := extractor.Extract(path)
	if err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	fmt.Println(result.SmallPath)
	fmt.Println(result.BigPath)
	return nil
}
