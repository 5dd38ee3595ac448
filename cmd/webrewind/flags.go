package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppFlags carries the parsed command line. Exactly one command runs per
// invocation.
type AppFlags struct {
	GlobalConfigFile string
	Command          string // fetch | snapshots | search | map | evolution | compare | history
	URL              string
	Domain           string
	Keywords         []string
	Years            []int
	From             string
	To               string
	Prefer           string
	CompareFrom      string
	CompareTo        string
	CompareContent   bool
	Output           string
}

const usageText = `webrewind — archive intelligence engine

Usage:
  webrewind -cmd fetch     -url URL [-prefer SOURCE] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
  webrewind -cmd snapshots -url URL [-from YYYY-MM-DD] [-to YYYY-MM-DD]
  webrewind -cmd search    -domain DOMAIN -years 2019,2020 [-keywords a,b]
  webrewind -cmd map       -domain DOMAIN [-from YYYY-MM-DD] [-to YYYY-MM-DD]
  webrewind -cmd evolution -domain DOMAIN
  webrewind -cmd compare   -domain DOMAIN -p1 YYYY-MM-DD..YYYY-MM-DD -p2 YYYY-MM-DD..YYYY-MM-DD [-content]
  webrewind -cmd history   -url URL
`

// ParseFlags reads and validates the command line, exiting on misuse.
func ParseFlags() AppFlags {
	globalConfigFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := flag.String("c", "", "Alias for -config")

	command := flag.String("cmd", "", "Command to run: fetch, snapshots, search, map, evolution, compare, history")
	url := flag.String("url", "", "Target URL (fetch, snapshots, history)")
	domain := flag.String("domain", "", "Target domain (search, map, evolution, compare)")
	keywords := flag.String("keywords", "", "Comma-separated keywords for search")
	years := flag.String("years", "", "Comma-separated years for search (e.g. 2019,2020)")
	from := flag.String("from", "", "Date range start, YYYY-MM-DD")
	to := flag.String("to", "", "Date range end, YYYY-MM-DD")
	prefer := flag.String("prefer", "", "Pin fetch to one source tag instead of racing")
	p1 := flag.String("p1", "", "First period for compare: YYYY-MM-DD..YYYY-MM-DD")
	p2 := flag.String("p2", "", "Second period for compare: YYYY-MM-DD..YYYY-MM-DD")
	content := flag.Bool("content", false, "Compare page content of common URLs (compare)")
	output := flag.String("output", "", "Write JSON output to this file instead of stdout")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	flags := AppFlags{
		GlobalConfigFile: firstNonEmpty(*globalConfigFile, *globalConfigFileAlias),
		Command:          strings.ToLower(strings.TrimSpace(*command)),
		URL:              *url,
		Domain:           *domain,
		From:             *from,
		To:               *to,
		Prefer:           *prefer,
		CompareFrom:      *p1,
		CompareTo:        *p2,
		CompareContent:   *content,
		Output:           *output,
	}
	flags.Keywords = splitList(*keywords)
	for _, y := range splitList(*years) {
		year, err := strconv.Atoi(y)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[FATAL] invalid year %q\n", y)
			os.Exit(1)
		}
		flags.Years = append(flags.Years, year)
	}

	if flags.Command == "" {
		flag.Usage()
		os.Exit(1)
	}
	return flags
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
