package domain

import (
	"strings"
)

// Category is one of the fixed cost breakdown buckets
type Category string

const (
	CategoryCompute Category = "compute"
	CategoryStorage Category = "storage"
	CategoryNetwork Category = "network"
	CategoryOther   Category = "other"
)

// Categories in display order
var Categories = []Category{CategoryCompute, CategoryStorage, CategoryNetwork, CategoryOther}

// Keyword tables are checked network → storage → compute so that
// "Data Transfer" or "Persistent Disk" do not fall into compute because of
// a generic word.
var (
	networkKeywords = []string{
		"network", "egress", "ingress", "cdn", "nat", "load balanc", "loadbalanc",
		"vpc", "dns", "transfer", "interconnect", "bandwidth", "cloudfront", "gateway",
	}
	storageKeywords = []string{
		"storage", "disk", "bucket", "s3", "firestore", "snapshot", "artifact",
		"archive", "filestore", "backup", "ebs", "blob", "registry",
	}
	computeKeywords = []string{
		"compute", "engine", "vm", "instance", "cloud run", "function", "lambda",
		"ec2", "kubernetes", "gke", "eks", "aks", "sql", "database", "build",
		"dataflow", "app engine", "container", "fargate", "rds", "spanner",
	}
)

// Categorize maps a billing service name onto a fixed category
func Categorize(service string) Category {
	s := strings.ToLower(service)
	switch {
	case containsAny(s, networkKeywords):
		return CategoryNetwork
	case containsAny(s, storageKeywords):
		return CategoryStorage
	case containsAny(s, computeKeywords):
		return CategoryCompute
	default:
		return CategoryOther
	}
}

// BreakdownFromServices folds per-service costs into the fixed categories
func BreakdownFromServices(services []ServiceCost) CostBreakdown {
	var b CostBreakdown
	for _, s := range services {
		b.Add(Categorize(s.Service), s.Cost)
	}
	return b
}

// ServicesFromBreakdown expands the fixed categories into service entries,
// skipping empty categories.
func ServicesFromBreakdown(b CostBreakdown) []ServiceCost {
	services := make([]ServiceCost, 0, len(Categories))
	for _, c := range Categories {
		if v := b.Get(c); v > 0 {
			services = append(services, ServiceCost{Service: c.Label(), Cost: v})
		}
	}
	return services
}

// Label returns the display label for a category
func (c Category) Label() string {
	switch c {
	case CategoryCompute:
		return "Compute"
	case CategoryStorage:
		return "Storage"
	case CategoryNetwork:
		return "Network"
	default:
		return "Other"
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
