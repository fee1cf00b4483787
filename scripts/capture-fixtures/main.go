// capture-fixtures opens the Amex offers page in a visible browser and saves
// the DOM of each state the automation cares about as an HTML fixture.
//
// Usage:
//
//	go run ./scripts/capture-fixtures -member="Jane Q Member"
//	go run ./scripts/capture-fixtures -har=internal/scraper/offers/amex/testdata/recordings/offers-page.har.json
//
// The browser reuses the profile from amex-offers.yaml so an existing login
// carries over. Captured HTML is sanitized before it is written.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/amex-offers/internal/config"
	"github.com/grez-lucas/amex-offers/internal/logger"
	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers/amex"
	"github.com/grez-lucas/amex-offers/internal/scraper/testutil"
)

type PageCapture struct {
	Name         string
	Instructions string
}

var capturePages = []PageCapture{
	{Name: "login_page", Instructions: "Log out if needed so the login form shows (or skip)"},
	{Name: "offers_page", Instructions: "Log in and wait until the offers list is visible"},
	{Name: "switcher_open", Instructions: "Open the card switcher dropdown and leave it open"},
	{Name: "offers_other_card", Instructions: "Pick another card and wait for its offers"},
	{Name: "offer_added", Instructions: "Add ONE offer by hand and wait for the confirmation"},
	{Name: "offers_empty", Instructions: "Switch to a card with no offers left (or skip)"},
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "config file providing the browser profile")
	outputDir := flag.String("output", filepath.Join("internal", "scraper", "offers", "amex", "testdata", "fixtures"), "output directory")
	harPath := flag.String("har", "", "also record the session to this HAR file")
	members := flag.String("member", "", "comma-separated card member names to redact")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Debug: cfg.Debug})

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	sanitizer := testutil.NewSanitizer(strings.Split(*members, ",")...)

	var recorder *testutil.Recorder
	opts := browser.LaunchOptions{
		ProfileDir:   cfg.Browser.ProfileDir,
		Bin:          cfg.Browser.Bin,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
	if *harPath != "" {
		recorder = testutil.NewRecorder(nil, log)
		opts.Hijack = recorder.Middleware()
	}

	sess, err := browser.Launch(opts, log)
	if err != nil {
		fmt.Printf("Error launching browser: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║           AMEX OFFERS FIXTURE CAPTURE                          ║")
	fmt.Println("╠════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Output: %-52s  ║\n", *outputDir)
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := sess.Page.Navigate(amex.OffersURL); err != nil {
		fmt.Printf("Error opening %s: %v\n", amex.OffersURL, err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("📋 Instructions:")
	fmt.Println("   - Follow the prompts below in the browser window")
	fmt.Println("   - Press ENTER after completing each step")
	fmt.Println("   - Type 'skip' to skip a page, 'quit' to exit")
	fmt.Println()

	for _, capture := range capturePages {
		fmt.Println("────────────────────────────────────────────────────────────────")
		fmt.Printf("📄 Capturing: %s.html\n", capture.Name)
		fmt.Printf("📝 Instructions: %s\n", capture.Instructions)
		fmt.Print("   Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "quit" {
			fmt.Println("\n👋 Exiting...")
			break
		}
		if input == "skip" {
			fmt.Printf("   ⏭️  Skipped %s\n\n", capture.Name)
			continue
		}

		if err := capturePage(sess.Page, *outputDir, capture.Name, sanitizer); err != nil {
			fmt.Printf("   ❌ %v\n\n", err)
			continue
		}
		fmt.Println()
	}

	if recorder != nil {
		har := sanitizer.HAR(recorder.HAR().KeepHosts("americanexpress.com", "aexp-static.com"))
		if err := testutil.SaveHAR(*harPath, har); err != nil {
			fmt.Printf("❌ Error saving HAR: %v\n", err)
		} else {
			fmt.Printf("🎞️  Recorded %d requests to %s\n", len(har.Entries), *harPath)
		}
	}

	saveMetadata(*outputDir)

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("✅ Capture complete!")
	fmt.Println()
	fmt.Println("⚠️  Review the fixtures for personal data before committing:")
	fmt.Println("   go run ./scripts/sanitize-patterns -dry-run")
	fmt.Println("════════════════════════════════════════════════════════════════")
}

// capturePage saves a screenshot and the sanitized DOM of page.
func capturePage(page *rod.Page, outDir, name string, sanitizer *testutil.Sanitizer) error {
	// React renders offers after load; give it a moment.
	if err := page.WaitStable(time.Second); err != nil {
		fmt.Printf("   ⚠️  Page did not settle: %v\n", err)
	}

	// Screenshot first so the image matches what was captured.
	screenshotPath := filepath.Join(outDir, name+".png")
	if buf, err := page.Screenshot(false, nil); err == nil {
		if err := os.WriteFile(screenshotPath, buf, 0o644); err != nil {
			fmt.Printf("   ⚠️  Error saving screenshot: %v\n", err)
		} else {
			fmt.Printf("   📸 Screenshot: %s\n", screenshotPath)
		}
	} else {
		fmt.Printf("   ⚠️  Screenshot failed: %v\n", err)
	}

	html, err := page.HTML()
	if err != nil {
		return fmt.Errorf("capture HTML: %w", err)
	}

	htmlPath := filepath.Join(outDir, name+".html")
	if err := os.WriteFile(htmlPath, []byte(sanitizer.Text(html)), 0o644); err != nil {
		return fmt.Errorf("save HTML: %w", err)
	}

	info, err := page.Info()
	if err == nil {
		fmt.Printf("   🔗 URL: %s\n", sanitizer.URL(info.URL))
	}
	fmt.Printf("   ✅ Saved: %s\n", htmlPath)
	return nil
}

func saveMetadata(outDir string) {
	metadata := fmt.Sprintf(`# Fixture Metadata
site: amex
captured_at: %s
captured_by: %s

## Files
See .html files in this directory.
Screenshots (.png) provided for visual reference.

## Notes
- Account keys, masked card numbers and the names passed with -member are
  redacted during capture. Check the files anyway before committing.
- Hand-written fixtures (offers_combobox, offers_select, offers_tabs) pin the
  switcher variants the automation supports; keep them when recapturing.
- Re-run capture when the offers page changes and tests start failing.
`, time.Now().Format(time.RFC3339), os.Getenv("USER"))

	metaPath := filepath.Join(outDir, "README.md")
	if err := os.WriteFile(metaPath, []byte(metadata), 0o644); err != nil {
		fmt.Printf("⚠️  Error writing %s: %v\n", metaPath, err)
	}
}
