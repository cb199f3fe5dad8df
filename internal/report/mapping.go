// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package report

import (
	"context"
	"fmt"
	"strings"
)

// MappingStore is the subset of database operations the mapping handshake
// needs. Satisfied by *database.DB.
type MappingStore interface {
	GetColumnMappings(ctx context.Context) (map[string]*string, error)
	SaveColumnMapping(ctx context.Context, columnName string, mappedTo *string) error
	AddIgnoredColumn(ctx context.Context, columnName string) error
	GetIgnoredColumns(ctx context.Context) (map[string]bool, error)
}

// MappingPrompt is one phase-1 mapping question for the operator: a
// discovered header with any previously persisted fleet-type suggestion.
type MappingPrompt struct {
	Column    string  `json:"column"`
	Suggested *string `json:"suggested,omitempty"`
}

// Decision is one phase-2 operator answer for a header. Ignore wins over
// MapTo; an empty MapTo with Ignore false records the header as seen but
// undecided so it is re-prompted next session.
type Decision struct {
	Column string `json:"column"`
	MapTo  string `json:"map_to"`
	Ignore bool   `json:"ignore"`
}

// DiscoverColumns builds the phase-1 prompts for a report's headers: the
// identity column and all persistently ignored headers are excluded, and
// prior mapping decisions are pre-filled.
func DiscoverColumns(ctx context.Context, store MappingStore, headers []string) ([]MappingPrompt, error) {
	ignored, err := store.GetIgnoredColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ignored columns: %w", err)
	}
	persisted, err := store.GetColumnMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading column mappings: %w", err)
	}

	var prompts []MappingPrompt
	for _, h := range headers {
		if h == AccountColumn || ignored[h] {
			continue
		}
		prompts = append(prompts, MappingPrompt{
			Column:    h,
			Suggested: persisted[h],
		})
	}
	return prompts, nil
}

// ApplyDecisions persists the operator's phase-2 answers and returns the
// finalized header-to-fleet-type mapping for the current report: every
// non-ignored header with a non-empty fleet-type name, including prior
// persisted mappings the operator did not revisit.
func ApplyDecisions(ctx context.Context, store MappingStore, headers []string, decisions []Decision) (map[string]string, error) {
	for _, d := range decisions {
		if d.Column == AccountColumn {
			continue
		}
		if d.Ignore {
			if err := store.AddIgnoredColumn(ctx, d.Column); err != nil {
				return nil, fmt.Errorf("ignoring column %q: %w", d.Column, err)
			}
			continue
		}
		mapTo := strings.TrimSpace(d.MapTo)
		var mapped *string
		if mapTo != "" {
			mapped = &mapTo
		}
		if err := store.SaveColumnMapping(ctx, d.Column, mapped); err != nil {
			return nil, fmt.Errorf("saving mapping for column %q: %w", d.Column, err)
		}
	}

	ignored, err := store.GetIgnoredColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading ignored columns: %w", err)
	}
	persisted, err := store.GetColumnMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading column mappings: %w", err)
	}

	final := make(map[string]string)
	for _, h := range headers {
		if h == AccountColumn || ignored[h] {
			continue
		}
		if mapped := persisted[h]; mapped != nil && *mapped != "" {
			final[h] = *mapped
		}
	}
	return final, nil
}
