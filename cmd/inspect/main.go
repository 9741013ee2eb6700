// Command inspect runs a registration export through the dashboard pipeline offline and
// prints the statistics, so an export can be checked before it is uploaded.
//
//	go run ./cmd/inspect -file guests.csv
//	go run ./cmd/inspect -file guests.csv -explain
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/ignite/summit-insights/internal/analytics"
	"github.com/ignite/summit-insights/internal/registrations"
)

func main() {
	file := flag.String("file", "", "path to the CSV export (required)")
	tz := flag.String("tz", "Africa/Lagos", "time zone for weekly buckets")
	explain := flag.Bool("explain", false, "print which location rule resolved each country")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read export: %v", err)
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Fatalf("Unknown time zone %q: %v", *tz, err)
	}

	result := registrations.Build(string(data))
	fmt.Fprintf(os.Stderr, "rows: %d  imported: %d  blank: %d  malformed: %d\n",
		result.TotalRows, len(result.Registrations), result.Skipped.Blank, result.Skipped.Malformed)

	if *explain {
		printRuleUsage(string(data))
		return
	}

	stats := analytics.Compute(result.Registrations, analytics.Options{
		Location:    loc,
		SkippedRows: result.Skipped.Total(),
	})
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		log.Fatalf("Failed to encode stats: %v", err)
	}
}

// printRuleUsage shows how many raw locations each resolver rule handled, with a few
// samples per rule, which is how new spellings get spotted.
func printRuleUsage(data string) {
	lines := registrations.SplitLines(data)
	if len(lines) == 0 {
		return
	}
	header, _ := registrations.ParseLine(lines[0])
	cols := registrations.MapHeaders(header)
	if cols.Index(registrations.FieldLocation) == registrations.NotFound {
		fmt.Println("no location column found")
		return
	}

	type usage struct {
		count   int
		samples []string
	}
	rules := make(map[string]*usage)
	for _, line := range lines[1:] {
		row, err := registrations.ParseLine(line)
		if err != nil {
			continue
		}
		raw := cols.Value(row, registrations.FieldLocation)
		country, rule := registrations.ExplainCountry(raw)
		u, ok := rules[rule]
		if !ok {
			u = &usage{}
			rules[rule] = u
		}
		u.count++
		if len(u.samples) < 5 {
			u.samples = append(u.samples, fmt.Sprintf("%q -> %s", raw, country))
		}
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return rules[names[i]].count > rules[names[j]].count })
	for _, name := range names {
		fmt.Printf("%-20s %d\n", name, rules[name].count)
		for _, s := range rules[name].samples {
			fmt.Printf("    %s\n", s)
		}
	}
}
