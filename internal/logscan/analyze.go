package logscan

import (
	"sort"
	"strings"
	"time"
)

// Patterns is the structured outcome of a log analysis pass. Category
// slices keep their entries in scan order; aggregate slices are sorted
// most-significant first.
type Patterns struct {
	AppCrashes       []Entry      `json:"app_crashes"`
	ServiceFailures  []Entry      `json:"service_failures"`
	DriverIssues     []Entry      `json:"driver_issues"`
	PermissionErrors []Entry      `json:"permission_errors"`
	DiskErrors       []Entry      `json:"disk_errors"`
	FrequentSources  []SourceStat `json:"frequent_sources"`
	SuspiciousApps   []string     `json:"suspicious_apps"`
	ErrorClusters    []Cluster    `json:"error_clusters"`
}

// SourceStat counts how many entries a single source produced and which
// severity levels it produced them at.
type SourceStat struct {
	Source string   `json:"source"`
	Count  int      `json:"count"`
	Levels []string `json:"levels"`
}

// Cluster is a run of hour buckets whose accumulated error count
// crossed the reporting threshold.
type Cluster struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Count int    `json:"count"`
}

var (
	crashKeywords = []string{
		"stopped working", "crashed", "not responding",
		"faulting application", "hang", "freeze",
	}
	serviceKeywords = []string{
		"service", "failed to start", "stopped unexpectedly",
		"terminated with error",
	}
	driverKeywords = []string{
		"driver", "device", `\driver\`, "nvlddmkm", "amdkmdag", "iastor", "rtx",
	}
	permissionKeywords = []string{
		"permission", "access denied", " eperm ", " eacces ",
	}
	diskKeywords = []string{
		"disk", "volume", "ntfs", "ext4", " btrfs ", "harddisk",
		"error on device", "i/o error", "bad sector",
	}

	// Applications that show up disproportionately often in crash
	// reports. Matching is done against both message and source.
	watchedApps = []string{
		"CapCut", "CCleaner", "OneDrive", "Teams", "Discord",
		"Chrome", "Firefox", "Edge", "Skype", "Zoom", "Valorant", "Riot",
	}
)

// Analyzer categorizes entries and finds temporal error clusters.
type Analyzer struct {
	minClusterSize int
	maxGapHours    int
}

// NewAnalyzer builds an analyzer with the given clustering parameters.
// Non-positive values fall back to the conventional defaults.
func NewAnalyzer(minClusterSize, maxGapHours int) *Analyzer {
	if minClusterSize <= 0 {
		minClusterSize = 3
	}
	if maxGapHours <= 0 {
		maxGapHours = 1
	}
	return &Analyzer{minClusterSize: minClusterSize, maxGapHours: maxGapHours}
}

// Analyze runs all categorizations over the entries in one pass.
func (a *Analyzer) Analyze(entries []Entry) *Patterns {
	p := &Patterns{}
	sources := make(map[string]*SourceStat)
	hourCounts := make(map[string]int)
	suspicious := make(map[string]bool)

	for _, entry := range entries {
		msg := strings.ToLower(entry.Message)
		source := entry.sourceKey()

		stat, ok := sources[source]
		if !ok {
			stat = &SourceStat{Source: source}
			sources[source] = stat
		}
		stat.Count++
		if entry.Level != "" {
			addLevel(stat, entry.Level)
		}

		if bucket, ok := hourBucket(entry.TimeCreated); ok {
			hourCounts[bucket]++
		}

		crashed := containsAny(msg, crashKeywords)
		if crashed {
			p.AppCrashes = append(p.AppCrashes, entry)
		}
		// A crash log mentioning "service" still counts once, as a crash.
		if containsAny(msg, serviceKeywords) && !crashed {
			p.ServiceFailures = append(p.ServiceFailures, entry)
		}
		if containsAny(msg, driverKeywords) {
			p.DriverIssues = append(p.DriverIssues, entry)
		}
		if containsAny(msg, permissionKeywords) {
			p.PermissionErrors = append(p.PermissionErrors, entry)
		}
		if containsAny(msg, diskKeywords) {
			p.DiskErrors = append(p.DiskErrors, entry)
		}

		for _, app := range watchedApps {
			lower := strings.ToLower(app)
			if strings.Contains(msg, lower) || strings.Contains(source, lower) {
				suspicious[app] = true
			}
		}
	}

	for _, stat := range sources {
		sort.Strings(stat.Levels)
		p.FrequentSources = append(p.FrequentSources, *stat)
	}
	sort.SliceStable(p.FrequentSources, func(i, j int) bool {
		if p.FrequentSources[i].Count != p.FrequentSources[j].Count {
			return p.FrequentSources[i].Count > p.FrequentSources[j].Count
		}
		return p.FrequentSources[i].Source < p.FrequentSources[j].Source
	})

	for app := range suspicious {
		p.SuspiciousApps = append(p.SuspiciousApps, app)
	}
	sort.Strings(p.SuspiciousApps)

	p.ErrorClusters = a.clusterHours(hourCounts)
	return p
}

// hourBucket reduces a timestamp to "YYYY-MM-DD HH" resolution. ISO
// timestamps parse cleanly; anything else is keyed by its prefix up to
// the first colon so related entries still group together.
func hourBucket(ts string) (string, bool) {
	if ts == "" {
		return "", false
	}
	base := strings.SplitN(ts, ".", 2)[0]
	for _, layout := range []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, base); err == nil {
			return t.Format("2006-01-02 15"), true
		}
	}
	if idx := strings.Index(ts, ":"); idx >= 0 {
		return ts[:idx], true
	}
	return ts, true
}

// clusterHours walks the hour buckets chronologically, merging adjacent
// buckets whose gap is within maxGapHours and keeping the runs whose
// total count reaches minClusterSize. Buckets that are not parseable at
// hour resolution are skipped.
func (a *Analyzer) clusterHours(hourCounts map[string]int) []Cluster {
	type bucket struct {
		when  time.Time
		count int
	}
	var buckets []bucket
	for key, count := range hourCounts {
		t, err := time.Parse("2006-01-02 15", key)
		if err != nil {
			continue
		}
		buckets = append(buckets, bucket{when: t, count: count})
	}
	if len(buckets) == 0 {
		return nil
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].when.Before(buckets[j].when) })

	maxGap := time.Duration(a.maxGapHours) * time.Hour
	var clusters []Cluster
	start, end, total := buckets[0].when, buckets[0].when, buckets[0].count

	flush := func() {
		if total >= a.minClusterSize {
			clusters = append(clusters, Cluster{
				Start: start.Format("2006-01-02 15:04"),
				End:   end.Format("2006-01-02 15:04"),
				Count: total,
			})
		}
	}

	for _, b := range buckets[1:] {
		if b.when.Sub(end) <= maxGap {
			end = b.when
			total += b.count
			continue
		}
		flush()
		start, end, total = b.when, b.when, b.count
	}
	flush()

	sort.SliceStable(clusters, func(i, j int) bool { return clusters[i].Count > clusters[j].Count })
	return clusters
}

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

func addLevel(stat *SourceStat, level string) {
	for _, l := range stat.Levels {
		if l == level {
			return
		}
	}
	stat.Levels = append(stat.Levels, level)
}
