// sanitize-har removes credentials, account keys and card member names from
// HAR recordings before committing.
//
// Usage:
//
//	go run ./scripts/sanitize-har -scenario=offers-page -member="Jane Q Member"
//	go run ./scripts/sanitize-har -input=recording.har.json -output=sanitized.har.json
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grez-lucas/amex-offers/internal/scraper/testutil"
)

func main() {
	scenario := flag.String("scenario", "", "recording name under internal/scraper/offers/amex/testdata/recordings")
	inputPath := flag.String("input", "", "input HAR file path")
	outputPath := flag.String("output", "", "output HAR file path (defaults to input path)")
	members := flag.String("member", "", "comma-separated card member names to redact")
	keepHosts := flag.String("keep-hosts", "americanexpress.com,aexp-static.com", "comma-separated host suffixes to keep, empty keeps all")
	dryRun := flag.Bool("dry-run", false, "show what would be redacted without modifying")
	flag.Parse()

	var inPath, outPath string
	switch {
	case *scenario != "":
		inPath = filepath.Join("internal", "scraper", "offers", "amex", "testdata", "recordings", *scenario+".har.json")
		outPath = inPath
	case *inputPath != "":
		inPath, outPath = *inputPath, *inputPath
		if *outputPath != "" {
			outPath = *outputPath
		}
	default:
		printUsage()
		os.Exit(1)
	}

	if _, err := os.Stat(inPath); os.IsNotExist(err) {
		fmt.Printf("Error: Input file not found: %s\n", inPath)
		os.Exit(1)
	}

	fmt.Printf("Loading HAR file: %s\n", inPath)
	har, err := testutil.LoadHAR(inPath)
	if err != nil {
		fmt.Printf("Error loading HAR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d entries\n", len(har.Entries))

	if *keepHosts != "" {
		har = har.KeepHosts(strings.Split(*keepHosts, ",")...)
		fmt.Printf("Kept %d entries for %s\n", len(har.Entries), *keepHosts)
	}

	sanitized := testutil.NewSanitizer(strings.Split(*members, ",")...).HAR(har)

	changes := diff(har, sanitized)
	fmt.Printf("Redacted %d values\n", len(changes))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes written.")
		fmt.Println("\nRedaction Summary:")
		fmt.Println("==================")
		for _, c := range changes {
			fmt.Println("  - " + c)
		}
		return
	}

	if err := testutil.SaveHAR(outPath, sanitized); err != nil {
		fmt.Printf("Error saving HAR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sanitized HAR saved to: %s\n", outPath)
	fmt.Println("\nSafe to commit!")
}

func printUsage() {
	fmt.Println("sanitize-har - Remove sensitive data from HAR files before committing")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  go run ./scripts/sanitize-har -scenario=offers-page")
	fmt.Println("  go run ./scripts/sanitize-har -input=recording.har.json")
	fmt.Println("  go run ./scripts/sanitize-har -input=in.har.json -output=out.har.json")
	fmt.Println()
	flag.PrintDefaults()
}

// diff describes every field the sanitizer changed.
func diff(original, sanitized *testutil.HARLog) []string {
	var changes []string
	for i := range original.Entries {
		if i >= len(sanitized.Entries) {
			break
		}
		orig, san := original.Entries[i], sanitized.Entries[i]
		where := fmt.Sprintf("entry %d %s %s", i+1, orig.Request.Method, truncateURL(orig.Request.URL))

		if orig.Request.URL != san.Request.URL {
			changes = append(changes, where+": URL")
		}
		for j, h := range orig.Request.Headers {
			if h.Value != san.Request.Headers[j].Value {
				changes = append(changes, fmt.Sprintf("%s: request header %s", where, h.Name))
			}
		}
		if orig.Request.Body != san.Request.Body {
			changes = append(changes, where+": request body")
		}
		for j, h := range orig.Response.Headers {
			if h.Value != san.Response.Headers[j].Value {
				changes = append(changes, fmt.Sprintf("%s: response header %s", where, h.Name))
			}
		}
		if orig.Response.Content.Text != san.Response.Content.Text {
			changes = append(changes, where+": response body")
		}
	}
	return changes
}

func truncateURL(url string) string {
	if len(url) > 80 {
		return url[:77] + "..."
	}
	return url
}
