package browser

import (
	_ "embed"
)

// stealthScript holds the init script used for browser fingerprint evasion.
//
//go:embed stealth.js
var stealthScript string

// stealthArgs hide the automation-controlled flag and disable the sandbox,
// which is unavailable in most container runtimes.
var stealthArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-blink-features=AutomationControlled",
}

// ignoredDefaultArgs are playwright defaults that advertise automation.
var ignoredDefaultArgs = []string{"--enable-automation"}

// launchArgs merges the stealth arguments with user supplied ones, dropping
// duplicates while keeping order.
func launchArgs(extra []string) []string {
	seen := make(map[string]bool, len(stealthArgs)+len(extra))
	args := make([]string, 0, len(stealthArgs)+len(extra))
	for _, arg := range append(append([]string{}, stealthArgs...), extra...) {
		if arg == "" || seen[arg] {
			continue
		}
		seen[arg] = true
		args = append(args, arg)
	}
	return args
}
