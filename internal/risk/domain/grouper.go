package domain

import (
	"sort"
	"strings"
)

// ServiceLineKey identifies the recurring unit of business at one
// site/department combination. Both components are normalized free text;
// an estimate whose department or address normalizes to empty is ungroupable
// and never shares a line with anything.
type ServiceLineKey struct {
	Department string
	Address    string
}

// ServiceLine holds the Won, dated estimates sharing one key, sorted
// ascending by end date (ties by estimate ID, purely for determinism).
type ServiceLine struct {
	Key       ServiceLineKey
	Estimates []ClassifiedEstimate
}

// NormalizeKeyPart trims, lower-cases and collapses internal whitespace.
func NormalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// GroupServiceLines groups an account's classified estimates into service
// lines. Only Won estimates with an end date and non-empty normalized
// department and address participate; everything else is excluded outright.
// Ungroupable rows would produce false renewal matches downstream if they
// were allowed to form lines.
func GroupServiceLines(classified []ClassifiedEstimate) []ServiceLine {
	byKey := make(map[ServiceLineKey][]ClassifiedEstimate)

	for _, ce := range classified {
		if ce.Lifecycle != LifecycleWon || !ce.HasEndDate() {
			continue
		}

		key := ServiceLineKey{
			Department: NormalizeKeyPart(ce.Department),
			Address:    NormalizeKeyPart(ce.SiteAddress),
		}
		if key.Department == "" || key.Address == "" {
			continue
		}

		byKey[key] = append(byKey[key], ce)
	}

	lines := make([]ServiceLine, 0, len(byKey))
	for key, ests := range byKey {
		sort.Slice(ests, func(i, j int) bool {
			ei, ej := ests[i].EndDate, ests[j].EndDate
			if ei.Equal(*ej) {
				return ests[i].ID.String() < ests[j].ID.String()
			}
			return ei.Before(*ej)
		})
		lines = append(lines, ServiceLine{Key: key, Estimates: ests})
	}

	// Deterministic line order for stable aggregation output.
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Key.Department != lines[j].Key.Department {
			return lines[i].Key.Department < lines[j].Key.Department
		}
		return lines[i].Key.Address < lines[j].Key.Address
	})

	return lines
}
