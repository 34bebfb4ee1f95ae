package main

import (
	"reflect"

	"github.com/jongio/autoattach/config"
	"github.com/jongio/autoattach/logutil"
)

// enabler is the part of the watcher a config reload can drive.
type enabler interface {
	SetEnabled(enabled bool, rootPID int)
}

// applyConfigChange toggles w when "enabled" flips. Other settings are bound
// when the session is built, so changes to them are only reported.
func applyConfigChange(w enabler, rootPID int, old, updated config.Config) {
	if keys := restartKeys(old, updated); len(keys) > 0 {
		logutil.Warn("config change takes effect after restart", "keys", keys)
	}
	if old.Enabled != updated.Enabled {
		w.SetEnabled(updated.Enabled, rootPID)
	}
}

// restartKeys lists the top-level keys, other than "enabled", whose values
// differ between old and updated.
func restartKeys(old, updated config.Config) []string {
	var keys []string
	add := func(key string, a, b any) {
		if !reflect.DeepEqual(a, b) {
			keys = append(keys, key)
		}
	}
	add("interval", old.Interval, updated.Interval)
	add("backend", old.Backend, updated.Backend)
	add("commandFilter", old.CommandFilter, updated.CommandFilter)
	add("rootPid", old.RootPID, updated.RootPID)
	add("probeRate", old.ProbeRate, updated.ProbeRate)
	add("notify", old.Notify, updated.Notify)
	add("debugger", old.Debugger, updated.Debugger)
	add("attach", old.Attach, updated.Attach)
	add("metrics", old.Metrics, updated.Metrics)
	add("log", old.Log, updated.Log)
	add("breaker", old.Breaker, updated.Breaker)
	return keys
}
