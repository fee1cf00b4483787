// analyze-page probes the Amex offers page for every candidate selector of
// each element the automation needs, prints what matched, and writes a
// selectors.yaml with the matching candidates moved to the front.
//
// Usage:
//
//	go run ./scripts/analyze-page                          # live page
//	go run ./scripts/analyze-page -fixture=page.html       # saved page
//	go run ./scripts/analyze-page -output=selectors.yaml
//
// Point site.selectors_file in amex-offers.yaml at the output to use it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/grez-lucas/amex-offers/internal/config"
	"github.com/grez-lucas/amex-offers/internal/logger"
	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers/amex"
	"github.com/olekukonko/tablewriter"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "config file providing the browser profile and base selectors")
	fixture := flag.String("fixture", "", "analyze a saved HTML page instead of the live site")
	outPath := flag.String("output", "selectors.yaml", "where to write the selectors")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Debug: cfg.Debug})

	base, err := cfg.Selectors()
	if err != nil {
		fmt.Printf("Error loading selectors: %v\n", err)
		os.Exit(1)
	}

	var doc browser.Document
	if *fixture != "" {
		f, err := os.Open(*fixture)
		if err != nil {
			fmt.Printf("Error opening fixture: %v\n", err)
			os.Exit(1)
		}
		doc, err = browser.NewStaticDocumentFromReader(f, browser.WithURL(amex.OffersURL))
		f.Close()
		if err != nil {
			fmt.Printf("Error parsing fixture: %v\n", err)
			os.Exit(1)
		}
	} else {
		sess, err := browser.Launch(browser.LaunchOptions{
			ProfileDir:   cfg.Browser.ProfileDir,
			Bin:          cfg.Browser.Bin,
			WindowWidth:  1920,
			WindowHeight: 1080,
		}, log)
		if err != nil {
			fmt.Printf("Error launching browser: %v\n", err)
			os.Exit(1)
		}
		defer sess.Close()

		if err := sess.Page.Navigate(amex.OffersURL); err != nil {
			fmt.Printf("Error opening %s: %v\n", amex.OffersURL, err)
			os.Exit(1)
		}
		fmt.Println("⏳ Log in if needed and wait for the offers list.")
		fmt.Print("   Press ENTER to analyze: ")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		doc = sess.Document()
	}

	analysis, err := analyze(doc, base)
	if err != nil {
		fmt.Printf("Error analyzing page: %v\n", err)
		os.Exit(1)
	}

	if err := report(os.Stdout, analysis); err != nil {
		fmt.Printf("Error printing report: %v\n", err)
	}

	if err := analysis.Selectors.Validate(); err != nil {
		fmt.Printf("Error: analyzed selectors are invalid: %v\n", err)
		os.Exit(1)
	}
	if err := offers.SaveSelectors(*outPath, analysis.Selectors); err != nil {
		fmt.Printf("Error writing %s: %v\n", *outPath, err)
		os.Exit(1)
	}
	fmt.Printf("\n✅ Wrote %s (switcher type: %s)\n", *outPath, analysis.Selectors.Cards.SwitcherType)
}

func report(out io.Writer, a *Analysis) error {
	table := tablewriter.NewWriter(out)
	table.Header("Target", "Selector", "Matches")
	for _, p := range a.Probes {
		matches := "-"
		if p.Matches > 0 {
			matches = strconv.Itoa(p.Matches)
		}
		if err := table.Append([]string{p.Target, p.Selector, matches}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, name := range a.Missing {
		fmt.Fprintf(out, "⚠️  no candidate matched %s, keeping configured selectors\n", name)
	}
	return nil
}
