package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcus/tock/internal/db"
	"github.com/marcus/tock/internal/output"
	"github.com/spf13/pflag"
)

// timeNow is the clock used by the tracking commands.
var timeNow = time.Now

// recordFlags are the attributes shared by tasks, shortcuts and todos.
type recordFlags struct {
	tags     string
	project  string
	rate     float64
	currency string
}

func addRecordFlags(flags *pflag.FlagSet) {
	flags.StringSlice("tags", nil, "tags, comma separated")
	flags.StringP("project", "p", "", "project name")
	flags.Float64("rate", 0, "hourly rate")
	flags.String("currency", "", "currency of the rate, e.g. EUR")
}

func readRecordFlags(flags *pflag.FlagSet) (recordFlags, error) {
	tags, _ := flags.GetStringSlice("tags")
	project, _ := flags.GetString("project")
	rate, _ := flags.GetFloat64("rate")
	currency, _ := flags.GetString("currency")
	if rate < 0 {
		return recordFlags{}, fmt.Errorf("rate must not be negative")
	}
	return recordFlags{
		tags:     normalizeTags(tags),
		project:  strings.TrimSpace(project),
		rate:     rate,
		currency: strings.ToUpper(strings.TrimSpace(currency)),
	}, nil
}

// normalizeTags lowercases, dedupes and joins tags as "#a #b".
func normalizeTags(tags []string) string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, "#"+t)
	}
	return strings.Join(out, " ")
}

// resolveUID expands a uid prefix, printing a readable error on failure.
func resolveUID[T any](table *db.Table[T], kind, prefix string) (string, error) {
	uid, err := table.ResolveUID(prefix)
	switch {
	case errors.Is(err, db.ErrNotFound):
		output.Error("no %s matches %q", kind, prefix)
		return "", err
	case errors.Is(err, db.ErrAmbiguous):
		output.Error("%q matches more than one %s; use a longer prefix", prefix, kind)
		return "", err
	case err != nil:
		output.Error("%v", err)
		return "", err
	}
	return uid, nil
}
