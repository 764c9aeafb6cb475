// Package taxonomy assigns artifacts to the fixed category set and defines
// the volatility ordering used by the prioritizer. All tables here are static
// configuration: loaded once, never mutated.
package taxonomy

import (
	"strings"

	"github.com/takibi/seiri/internal/models"
)

// baseScores is the evidentiary base score per category. The ordering is a
// design contract (most volatile evidence first); downstream consumers sort
// strictly by score, so these values are not runtime-tunable.
var baseScores = map[models.Category]int{
	models.CategoryProcesses:     10,
	models.CategoryNetwork:       9,
	models.CategorySystemLogs:    8,
	models.CategoryUserActivity:  7,
	models.CategoryConfiguration: 6,
	models.CategoryApplications:  5,
	models.CategoryFiles:         4,
	models.CategoryPackages:      3,
	models.CategoryOther:         2,
}

// BaseScore returns the base score for c. Unknown categories score as other.
func BaseScore(c models.Category) int {
	if s, ok := baseScores[c]; ok {
		return s
	}
	return baseScores[models.CategoryOther]
}

// hintAliases maps collector-dialect category names onto the canonical set.
// Canonical names pass through Categorize directly; these cover older
// collectors that used section names like "config" or "filesystem".
var hintAliases = map[string]models.Category{
	"config":             models.CategoryConfiguration,
	"system_config":      models.CategoryConfiguration,
	"application_config": models.CategoryApplications,
	"filesystem":         models.CategoryFiles,
	"files_metadata":     models.CategoryFiles,
	"processes_memory":   models.CategoryProcesses,
	"other_evidence":     models.CategoryOther,
	"others":             models.CategoryOther,
}

// prefixRule binds a source path prefix to a category.
type prefixRule struct {
	prefix   string
	category models.Category
}

// prefixRules maps source path prefixes to categories. The longest matching
// prefix wins; declaration order breaks ties between equal-length prefixes.
// Unmatched paths fall through to other.
var prefixRules = []prefixRule{
	{"/var/log/apt", models.CategoryPackages},
	{"/var/log/yum.log", models.CategoryPackages},
	{"/var/log/lastlog", models.CategoryUserActivity},
	{"/var/log/wtmp", models.CategoryUserActivity},
	{"/var/log/btmp", models.CategoryUserActivity},
	{"/var/log", models.CategorySystemLogs},
	{"/var/run/utmp", models.CategoryUserActivity},
	{"/home", models.CategoryUserActivity},
	{"/etc/ssh", models.CategoryNetwork},
	{"/etc/hosts", models.CategoryNetwork},
	{"/etc/hostname", models.CategoryNetwork},
	{"/etc/resolv.conf", models.CategoryNetwork},
	{"/proc/net", models.CategoryNetwork},
	{"/etc/crontab", models.CategoryApplications},
	{"/var/spool/cron", models.CategoryApplications},
	{"/etc/systemd", models.CategoryApplications},
	{"/usr/lib/systemd", models.CategoryApplications},
	{"/etc/apt", models.CategoryPackages},
	{"/var/lib/dpkg", models.CategoryPackages},
	{"/var/lib/rpm", models.CategoryPackages},
	{"/etc", models.CategoryConfiguration},
	{"/proc", models.CategoryProcesses},
	{"/dev/shm", models.CategoryProcesses},
	{"/lost+found", models.CategoryFiles},
	{"/media", models.CategoryFiles},
	{"/mnt", models.CategoryFiles},
	{"/tmp", models.CategoryOther},
	{"/var/tmp", models.CategoryOther},
}

// Categorize resolves a source path and an optional collector-provided hint to
// exactly one category. A recognized hint is authoritative; otherwise the path
// is matched against the prefix table (longest prefix wins, first-declared
// breaks ties). Unmatched paths resolve to other.
func Categorize(sourcePath, hint string) models.Category {
	if hint != "" {
		if c := models.Category(hint); c.Valid() {
			return c
		}
		if c, ok := hintAliases[strings.ToLower(hint)]; ok {
			return c
		}
	}

	best := models.CategoryOther
	bestLen := -1
	for _, rule := range prefixRules {
		if strings.HasPrefix(sourcePath, rule.prefix) && len(rule.prefix) > bestLen {
			best = rule.category
			bestLen = len(rule.prefix)
		}
	}
	return best
}
