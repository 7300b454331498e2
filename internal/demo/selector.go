package demo

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/cloudcost-guard/internal/domain"
)

// smallInputChars is the trimmed input length below which the small
// workload profile is chosen.
const smallInputChars = 100

// dominantShare is the fraction of parsed spend a category needs to pick
// its specialised profile.
const dominantShare = 0.5

var (
	enterprisePattern = regexp.MustCompile(`(?i)enterprise`)
	amountPattern     = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	groupedPattern    = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	devWastePattern   = regexp.MustCompile(`(?i)\b(?:dev|staging|waste)`)
	startupPattern    = regexp.MustCompile(`(?i)\b(?:startup|seed|mvp)\b`)
	midMarketPattern  = regexp.MustCompile(`(?i)\b(?:mid-market|midmarket|kubernetes|gke)\b`)
)

// rule is one selector heuristic. Rules are evaluated in order and the first
// match wins, because they are not mutually exclusive.
type rule struct {
	name  string
	match func(raw string) (Profile, bool)
}

var rules = []rule{
	{"enterprise", func(raw string) (Profile, bool) {
		return ProfileEnterprise, enterprisePattern.MatchString(raw) || hasLargeAmount(raw)
	}},
	{"dev_waste", func(raw string) (Profile, bool) {
		return ProfileDevWaste, devWastePattern.MatchString(raw)
	}},
	{"startup", func(raw string) (Profile, bool) {
		return ProfileStartup, startupPattern.MatchString(raw)
	}},
	{"mid_market", func(raw string) (Profile, bool) {
		return ProfileMidMarket, midMarketPattern.MatchString(raw)
	}},
	{"small", func(raw string) (Profile, bool) {
		return ProfileSmall, len(strings.TrimSpace(raw)) < smallInputChars
	}},
	{"dominant_category", dominantCategory},
}

// Choose returns the profile the heuristics pick for raw input. It is
// deterministic and never fails.
func Choose(raw string) Profile {
	for _, r := range rules {
		if p, ok := r.match(raw); ok {
			return p
		}
	}
	return ProfileDefault
}

// Select returns the chosen profile together with a copy of its dataset
func Select(raw string) (Profile, domain.AnalysisResult) {
	p := Choose(raw)
	return p, MustGet(p)
}

// hasLargeAmount reports whether any number in the input has five or more
// integer digits. Commas count as thousands separators only inside a well
// formed 1,234,567 group; anywhere else they separate fields.
func hasLargeAmount(raw string) bool {
	for _, m := range amountPattern.FindAllString(raw, -1) {
		numbers := []string{m}
		if groupedPattern.MatchString(m) {
			numbers = []string{strings.ReplaceAll(m, ",", "")}
		} else if strings.Contains(m, ",") {
			numbers = strings.Split(m, ",")
		}
		for _, n := range numbers {
			intPart, _, _ := strings.Cut(n, ".")
			if len(intPart) >= 5 {
				return true
			}
		}
	}
	return false
}

func dominantCategory(raw string) (Profile, bool) {
	services := ParseServiceLines(raw)
	if len(services) == 0 {
		return "", false
	}
	breakdown := domain.BreakdownFromServices(services)
	total := breakdown.Total()
	if total <= 0 {
		return "", false
	}

	candidates := []struct {
		category domain.Category
		profile  Profile
	}{
		{domain.CategoryNetwork, ProfileNetwork},
		{domain.CategoryStorage, ProfileStorage},
		{domain.CategoryCompute, ProfileCompute},
	}
	for _, c := range candidates {
		if breakdown.Get(c.category)/total > dominantShare {
			return c.profile, true
		}
	}
	return "", false
}

// ParseServiceLines extracts service/cost pairs from CSV-like billing text.
// The service is the first field and the cost the last field that parses as
// an amount; header and unparseable lines are skipped.
func ParseServiceLines(raw string) []domain.ServiceCost {
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var services []domain.ServiceCost
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			break
		}
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSpace(record[0])
		amounts := lo.FilterMap(record[1:], func(field string, _ int) (float64, bool) {
			return ParseAmount(field)
		})
		if name == "" || len(amounts) == 0 {
			continue
		}
		services = append(services, domain.ServiceCost{Service: name, Cost: amounts[len(amounts)-1]})
	}
	return services
}

// ParseAmount parses "$1,234.50", "€ 99", "1234" and similar billing amounts
func ParseAmount(field string) (float64, bool) {
	s := strings.TrimSpace(field)
	s = strings.TrimFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-'
	})
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
