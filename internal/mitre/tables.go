package mitre

// keywordRule binds one keyword to the techniques it signals. The table is
// many-to-many by design: one artifact can be evidence for several techniques
// and one technique can be signaled by several keywords.
type keywordRule struct {
	keyword    string
	techniques []string
}

// keywordRules is matched as case-insensitive substrings against an item's
// text and category. Declaration order fixes the match iteration for
// reproducible sample selection.
var keywordRules = []keywordRule{
	{"auth.log", []string{"T1078", "T1110", "T1098"}},
	{"failed password", []string{"T1110"}},
	{"invalid user", []string{"T1110", "T1078"}},
	{"btmp", []string{"T1110"}},
	{"faillog", []string{"T1110"}},
	{"lastlog", []string{"T1078"}},
	{"wtmp", []string{"T1078"}},
	{"passwd", []string{"T1078", "T1098"}},
	{"shadow", []string{"T1003"}},
	{".bash_history", []string{"T1059"}},
	{"bash_history", []string{"T1059"}},
	{"crontab", []string{"T1053"}},
	{"cron", []string{"T1053"}},
	{"systemd", []string{"T1543.002", "T1037"}},
	{"/etc/systemd", []string{"T1543.002"}},
	{"ssh", []string{"T1021", "T1090"}},
	{"/etc/ssh", []string{"T1021", "T1090"}},
	{"proc/net", []string{"T1049"}},
	{"/proc/net", []string{"T1049"}},
	{"tcp", []string{"T1049", "T1071"}},
	{"udp", []string{"T1049", "T1071"}},
	{"/tmp", []string{"T1070", "T1564", "T1105"}},
	{"var/tmp", []string{"T1070", "T1564", "T1105"}},
	{"dev/shm", []string{"T1070", "T1564", "T1105"}},
	{"dpkg", []string{"T1105", "T1059"}},
	{"apt", []string{"T1105"}},
	{"yum", []string{"T1105"}},
	{".ssh", []string{"T1021", "T1564"}},
	{"ps aux", []string{"T1059", "T1057"}},
	{"meminfo", []string{"T1055"}},
}

// tacticByTechnique maps technique ids to their tactic grouping. Unlisted
// technique ids resolve to "Unknown"; a gap in this table is not an error.
var tacticByTechnique = map[string]string{
	"T1078":     "Credential Access",
	"T1110":     "Credential Access",
	"T1098":     "Credential Access",
	"T1003":     "Credential Access",
	"T1059":     "Execution",
	"T1053":     "Persistence",
	"T1543.002": "Persistence",
	"T1037":     "Persistence",
	"T1021":     "Lateral Movement",
	"T1090":     "Command and Control",
	"T1049":     "Discovery",
	"T1071":     "Command and Control",
	"T1070":     "Defense Evasion",
	"T1564":     "Defense Evasion",
	"T1105":     "Execution",
	"T1057":     "Discovery",
	"T1055":     "Defense Evasion",
}

// unknownTactic is the fallback for technique ids missing from the table.
const unknownTactic = "Unknown"

// TacticFor returns the tactic for a technique id, or "Unknown".
func TacticFor(techniqueID string) string {
	if tactic, ok := tacticByTechnique[techniqueID]; ok {
		return tactic
	}
	return unknownTactic
}
