// Package invariants audits a record's snapshot history for violations of
// the versioning contract. The checker reads through the public store
// interface only and never repairs anything; it reports.
package invariants

import (
	"context"
	"fmt"

	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/store"
)

// Violation is one detected breach of the history contract.
type Violation struct {
	RecordID   string `json:"recordId"`
	SnapshotID string `json:"snapshotId,omitempty"`
	Rule       string `json:"rule"`
	Detail     string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
}

// Rules checked against every record history.
const (
	RuleHistoryNonEmpty   = "history-non-empty"
	RuleFirstVersion      = "first-version-is-1.0"
	RuleVersionMonotonic  = "versions-strictly-increase"
	RuleVersionStep       = "version-steps-are-minor-or-major"
	RuleVersionUnique     = "versions-are-unique"
	RuleRestoreTargets    = "restore-targets-exist"
	RuleSnapshotOwnership = "snapshots-belong-to-record"
)

// Checker audits snapshot histories.
type Checker struct {
	store store.Store
}

func New(s store.Store) *Checker {
	return &Checker{store: s}
}

// CheckRecord audits one record's full history and returns every violation
// found. An empty slice means the history honors the contract.
func (c *Checker) CheckRecord(ctx context.Context, recordID string) ([]Violation, error) {
	if _, err := c.store.Records().Get(ctx, recordID); err != nil {
		return nil, err
	}
	snaps, err := c.store.Snapshots().ListByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	var out []Violation
	report := func(snapshotID, rule, format string, args ...any) {
		out = append(out, Violation{
			RecordID:   recordID,
			SnapshotID: snapshotID,
			Rule:       rule,
			Detail:     fmt.Sprintf(format, args...),
		})
	}

	if len(snaps) == 0 {
		report("", RuleHistoryNonEmpty, "record has no snapshots")
		return out, nil
	}

	// ListByRecord returns newest first; walk oldest first.
	ordered := make([]*model.Snapshot, len(snaps))
	for i, s := range snaps {
		ordered[len(snaps)-1-i] = s
	}

	byID := make(map[string]struct{}, len(ordered))
	seenVersions := make(map[model.Version]string, len(ordered))
	for _, s := range ordered {
		byID[s.SnapshotID] = struct{}{}
	}

	first := ordered[0]
	if first.Version != (model.Version{Major: 1, Minor: 0}) {
		report(first.SnapshotID, RuleFirstVersion, "history starts at %s", first.Version)
	}

	for i, s := range ordered {
		if s.RecordID != recordID {
			report(s.SnapshotID, RuleSnapshotOwnership, "snapshot belongs to record %s", s.RecordID)
		}
		if prevID, dup := seenVersions[s.Version]; dup {
			report(s.SnapshotID, RuleVersionUnique, "version %s already used by snapshot %s", s.Version, prevID)
		}
		seenVersions[s.Version] = s.SnapshotID

		if s.RestoredFrom != nil {
			if _, ok := byID[*s.RestoredFrom]; !ok {
				report(s.SnapshotID, RuleRestoreTargets, "restore target %s is not in this history", *s.RestoredFrom)
			}
		}

		if i == 0 {
			continue
		}
		prev := ordered[i-1]
		if !prev.Version.Less(s.Version) {
			report(s.SnapshotID, RuleVersionMonotonic, "version %s does not follow %s", s.Version, prev.Version)
			continue
		}
		minorStep := s.Version.Major == prev.Version.Major && s.Version.Minor == prev.Version.Minor+1
		majorStep := s.Version.Major == prev.Version.Major+1 && s.Version.Minor == 0
		if !minorStep && !majorStep {
			report(s.SnapshotID, RuleVersionStep, "version jumps from %s to %s", prev.Version, s.Version)
		}
	}
	return out, nil
}
