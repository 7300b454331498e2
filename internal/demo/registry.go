// Package demo holds the read-only fallback datasets and the heuristics that
// pick one of them for a given billing input.
package demo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cloudcost-guard/internal/domain"
)

// Profile names a workload profile in the registry
type Profile string

const (
	ProfileDefault    Profile = "default"
	ProfileCompute    Profile = "compute"
	ProfileStorage    Profile = "storage"
	ProfileNetwork    Profile = "network"
	ProfileSmall      Profile = "small"
	ProfileStartup    Profile = "startup"
	ProfileMidMarket  Profile = "mid_market"
	ProfileEnterprise Profile = "enterprise"
	ProfileDevWaste   Profile = "dev_waste"
)

// SampleBillingData is the example input offered by every surface
const SampleBillingData = `Service,Cost
Compute Engine,$2150.75
Cloud Storage,$550.20
BigQuery,$890.50
Cloud Functions,$225.00
Cloud SQL,$630.55
Other,$400.00`

// forecastMonths labels the six forecast points, three historical then three predicted
var forecastMonths = []string{"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func rec(title string, savings float64, description string) domain.Recommendation {
	return domain.Recommendation{Title: title, Description: description, EstimatedSavings: savings}
}

// dataset builds a registry entry whose breakdown variants and forecast are
// consistent with the given totals.
func dataset(current, optimized float64, services []domain.ServiceCost, recs ...domain.Recommendation) domain.AnalysisResult {
	savings := current - optimized
	return domain.AnalysisResult{
		CurrentCost:     current,
		OptimizedCost:   optimized,
		Savings:         savings,
		Breakdown:       domain.BreakdownFromServices(services),
		Services:        services,
		Recommendations: recs,
		Forecast:        forecast(current, savings),
	}
}

// forecast ramps history up to the current spend and predictions down
// towards the optimized spend.
func forecast(current, savings float64) []domain.ForecastPoint {
	history := []float64{0.92, 0.96, 1}
	cuts := []float64{0.4, 0.75, 1}

	points := make([]domain.ForecastPoint, 0, len(forecastMonths))
	for i, f := range history {
		v := math.Round(current * f)
		points = append(points, domain.ForecastPoint{Month: forecastMonths[i], Cost: &v})
	}
	for i, f := range cuts {
		v := math.Round(current - savings*f)
		points = append(points, domain.ForecastPoint{Month: forecastMonths[len(history)+i], PredictedCost: &v})
	}
	return points
}

var defaultData = dataset(4847, 3000,
	[]domain.ServiceCost{
		{Service: "Compute Engine", Cost: 2150},
		{Service: "Cloud SQL", Cost: 630},
		{Service: "Cloud Storage", Cost: 550},
		{Service: "BigQuery", Cost: 1117},
		{Service: "Other", Cost: 400},
	},
	rec("Right-size Idle Compute Engine VMs", 950,
		"Several VMs average under 10% CPU. Move them to smaller machine types or stop them outside business hours."),
	rec("Implement BigQuery Cost Controls", 420,
		"Set per-user query quotas, partition large tables and require partition filters to cut on-demand scan charges."),
	rec("Archive Cold Cloud Storage Data", 312,
		"Objects untouched for 90 days can move to Coldline or Archive with a lifecycle rule."),
	rec("Optimize Cloud SQL Instances", 165,
		"Downsize over-provisioned instances and drop high availability on non-production databases."),
)

var startupData = dataset(2500, 1375,
	[]domain.ServiceCost{
		{Service: "Cloud Run", Cost: 900},
		{Service: "Cloud Functions", Cost: 400},
		{Service: "Cloud Build", Cost: 250},
		{Service: "Firestore", Cost: 650},
		{Service: "Other", Cost: 300},
	},
	rec("Optimize Cloud Run CPU Allocation", 450,
		"Switch services to request-based CPU allocation and lower minimum instances to zero where cold starts are acceptable."),
	rec("Add a Caching Layer for Firestore", 375,
		"Cache hot documents in Memorystore or in-process to reduce repeated document reads."),
	rec("Consolidate Cloud Functions", 300,
		"Merge small single-purpose functions into a Cloud Run service to share instances and reduce invocations."),
)

var midMarketData = dataset(8000, 5200,
	[]domain.ServiceCost{
		{Service: "Compute Engine", Cost: 3100},
		{Service: "Kubernetes Engine", Cost: 2000},
		{Service: "Cloud SQL", Cost: 1100},
		{Service: "Networking", Cost: 1200},
		{Service: "Other", Cost: 600},
	},
	rec("Enable Committed Use Discounts for GCE", 1500,
		"Steady baseline usage qualifies for 1-year committed use discounts of up to 37%."),
	rec("Optimize Network Egress Costs", 800,
		"Keep traffic inside a region, serve static content through Cloud CDN and review inter-zone chatter between GKE node pools."),
	rec("Right-size Cloud SQL Instances", 500,
		"Primary and replica instances run below 30% utilization and can drop one machine size."),
)

var enterpriseData = dataset(25000, 18000,
	[]domain.ServiceCost{
		{Service: "BigQuery Compute", Cost: 8000},
		{Service: "Compute Engine", Cost: 6000},
		{Service: "Dataflow", Cost: 4500},
		{Service: "Cloud Storage", Cost: 4500},
		{Service: "Cloud Logging", Cost: 2000},
	},
	rec("Optimize BigQuery Slot Usage", 4000,
		"Move predictable workloads to slot reservations with autoscaling and retire idle baseline slots."),
	rec("Implement Dataflow Streaming Engine", 1800,
		"Streaming Engine offloads shuffle and state from worker VMs so pipelines run on fewer, smaller workers."),
	rec("Apply Storage Lifecycle Policies", 1200,
		"Transition aged objects to Nearline and Coldline and expire temporary pipeline outputs automatically."),
)

var devWasteData = dataset(4000, 1920,
	[]domain.ServiceCost{
		{Service: "Compute Engine", Cost: 1800},
		{Service: "Cloud SQL", Cost: 900},
		{Service: "Cloud Build", Cost: 400},
		{Service: "Artifact Registry", Cost: 700},
		{Service: "Other", Cost: 200},
	},
	rec("Shutdown Idle Dev/Staging Resources", 1200,
		"Schedule development and staging VMs and databases to stop nights and weekends."),
	rec("Clean Up Untagged Snapshots & Images", 580,
		"Delete untagged container images and orphaned disk snapshots older than 30 days."),
	rec("Enable Cloud Build Caching", 300,
		"Cache dependencies and Docker layers so builds finish faster on smaller machine types."),
)

var storageData = dataset(3250, 1800,
	[]domain.ServiceCost{
		{Service: "Cloud Storage", Cost: 1600},
		{Service: "Persistent Disk", Cost: 450},
		{Service: "Data Transfer", Cost: 700},
		{Service: "Cloud CDN", Cost: 350},
		{Service: "Other", Cost: 150},
	},
	rec("Apply Lifecycle Policy to Buckets", 950,
		"Most stored bytes have not been read in months. Transition them to colder storage classes automatically."),
	rec("Enable Cloud CDN for High-Egress Buckets", 350,
		"Serving public objects through Cloud CDN lowers egress rates and origin reads."),
	rec("Delete Unused Persistent Disk Snapshots", 150,
		"Snapshots of deleted disks are still billed. Keep only the retention window you need."),
)

var networkData = dataset(5620, 3520,
	[]domain.ServiceCost{
		{Service: "Internet Egress", Cost: 2900},
		{Service: "Cloud Load Balancing", Cost: 1300},
		{Service: "Cloud NAT", Cost: 620},
		{Service: "VPC Service Controls", Cost: 400},
		{Service: "Other", Cost: 400},
	},
	rec("Optimize Cross-Zone Egress", 1100,
		"Co-locate chatty services in the same zone and prefer internal load balancers for east-west traffic."),
	rec("Leverage Cloud CDN", 750,
		"Cache cacheable responses at the edge to reduce internet egress from the origin."),
	rec("Review NAT Gateway Usage", 250,
		"Use Private Google Access for Google APIs so that traffic stops flowing through Cloud NAT."),
)

var smallData = dataset(2100, 1450,
	[]domain.ServiceCost{
		{Service: "Cloud Run", Cost: 800},
		{Service: "Cloud Functions", Cost: 450},
		{Service: "Firestore", Cost: 450},
		{Service: "Cloud Logging", Cost: 250},
		{Service: "Other", Cost: 150},
	},
	rec("Right-size Cloud Run Instances", 300,
		"Lower memory and CPU limits to match observed peaks and allow scale to zero."),
	rec("Optimize Firestore Indexes", 200,
		"Remove unused composite indexes and exempt large fields from single-field indexing."),
	rec("Exclude Verbose Logs", 150,
		"Add exclusion filters for debug and health-check logs before they are ingested."),
)

// registry maps every profile to its dataset. Compute is an alias of default.
var registry = map[Profile]domain.AnalysisResult{
	ProfileDefault:    defaultData,
	ProfileCompute:    defaultData,
	ProfileStorage:    storageData,
	ProfileNetwork:    networkData,
	ProfileSmall:      smallData,
	ProfileStartup:    startupData,
	ProfileMidMarket:  midMarketData,
	ProfileEnterprise: enterpriseData,
	ProfileDevWaste:   devWasteData,
}

// Get returns a copy of the dataset for a profile
func Get(p Profile) (domain.AnalysisResult, error) {
	data, ok := registry[p]
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownProfile, p)
	}
	return data.Clone(), nil
}

// MustGet is Get for profiles known to exist
func MustGet(p Profile) domain.AnalysisResult {
	data, err := Get(p)
	if err != nil {
		panic(err)
	}
	return data
}

// ParseProfile resolves a user-supplied profile name ("mid-market", "DEV_WASTE")
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := registry[p]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownProfile, s)
	}
	return p, nil
}

// Profiles lists every registered profile in name order
func Profiles() []Profile {
	out := make([]Profile, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
