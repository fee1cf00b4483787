// sanitize-patterns scrubs personal data from captured HTML fixtures.
//
// Usage:
//
//	go run ./scripts/sanitize-patterns [-member="Jane Q Member"] [-dry-run]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grez-lucas/amex-offers/internal/scraper/testutil"
)

// fixturePatterns cover what the HAR sanitizer's rules do not: free text the
// offers page renders around the user.
var fixturePatterns = []struct {
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}{
	{
		regexp.MustCompile(`\b((?:Welcome|Hello|Hi),?\s+)[A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][a-z]+)?`),
		"${1}Card Member",
		"Greeting with name",
	},
	{
		regexp.MustCompile(`(?i)(token|csrf|session)["\s:=]+["']?[a-zA-Z0-9_-]{20,}["']?`),
		`$1="REDACTED"`,
		"Token",
	},
	{
		regexp.MustCompile(`(?i)document\.cookie\s*=\s*["'][^"']+["']`),
		`document.cookie="REDACTED"`,
		"Cookie",
	},
	{
		regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`),
		"member@example.com",
		"Email address",
	},
}

func main() {
	dir := flag.String("dir", filepath.Join("internal", "scraper", "offers", "amex", "testdata", "fixtures"), "fixtures directory")
	members := flag.String("member", "", "comma-separated card member names to redact")
	dryRun := flag.Bool("dry-run", false, "show what would be changed without modifying files")
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*dir, "*.html"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No HTML files found in %s\n", *dir)
		os.Exit(1)
	}

	sanitizer := testutil.NewSanitizer(strings.Split(*members, ",")...)

	fmt.Printf("🔒 Sanitizing fixtures in %s\n", *dir)
	if *dryRun {
		fmt.Println("    (DRY RUN - no files will be modified)")
	}
	fmt.Println()

	for _, file := range files {
		sanitizeFile(file, sanitizer, *dryRun)
	}

	fmt.Println()
	fmt.Println("✅ Sanitization complete!")
	if *dryRun {
		fmt.Println("    Run without -dry-run to apply changes")
	}
}

func sanitizeFile(path string, sanitizer *testutil.Sanitizer, dryRun bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("❌ Error reading %s: %v\n", path, err)
		return
	}

	sanitized, changes := scrub(string(content), sanitizer)
	filename := filepath.Base(path)

	if len(changes) == 0 {
		fmt.Printf("📄 %s: No sensitive data found\n", filename)
		return
	}

	fmt.Printf("📄 %s: Found sensitive data\n", filename)
	for _, change := range changes {
		fmt.Println(change)
	}

	if !dryRun {
		if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
			fmt.Printf("    ❌ Error writing %s: %v\n", path, err)
		} else {
			fmt.Println("    ✅ Sanitized and saved")
		}
	}
}

// scrub applies the sanitizer's value rules and fixturePatterns to html.
func scrub(html string, sanitizer *testutil.Sanitizer) (string, []string) {
	var changes []string

	out := sanitizer.Text(html)
	if out != html {
		changes = append(changes, "  - Account keys, card numbers or member names")
	}

	for _, p := range fixturePatterns {
		if matches := p.Pattern.FindAllString(out, -1); len(matches) > 0 {
			out = p.Pattern.ReplaceAllString(out, p.Replacement)
			changes = append(changes, fmt.Sprintf("  - %s: %d matched", p.Description, len(matches)))
		}
	}
	return out, changes
}
