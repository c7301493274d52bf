package domain

import "fmt"

// ConflictPolicy decides what happens when a remote record shares a key with a
// local record but carries a different category.
type ConflictPolicy string

const (
	// PolicyRemoteWins overwrites the local category with the remote one.
	PolicyRemoteWins ConflictPolicy = "remote_wins"

	// PolicySkip leaves the local record untouched and reports the conflict.
	PolicySkip ConflictPolicy = "skip"
)

// Valid reports whether p is a known policy.
func (p ConflictPolicy) Valid() bool {
	return p == PolicyRemoteWins || p == PolicySkip
}

// Conflict describes a key match whose categories disagree.
type Conflict struct {
	Text           string `json:"text"`
	LocalCategory  string `json:"localCategory"`
	RemoteCategory string `json:"remoteCategory"`
}

// MergeResult summarizes one reconciliation.
type MergeResult struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Conflicts int `json:"conflicts"`

	// Unresolved lists conflicts that were reported but not applied (PolicySkip only).
	Unresolved []Conflict `json:"unresolved,omitempty"`
}

// Changed reports whether the merge altered store content.
func (r MergeResult) Changed() bool {
	return r.Added+r.Updated > 0
}

// Summary renders the result as status text.
func (r MergeResult) Summary() string {
	if !r.Changed() {
		if r.Conflicts > 0 {
			return fmt.Sprintf("Sync complete: no changes, %d conflict(s) skipped.", r.Conflicts)
		}

		return "Sync complete: no changes."
	}

	return fmt.Sprintf("Sync complete: %d added, %d updated.", r.Added, r.Updated)
}

// MergeOptions configures Merge.
type MergeOptions struct {
	// Key derives identity keys. Nil means ExactKey.
	Key KeyFunc

	// Policy picks conflict handling. Empty means PolicyRemoteWins.
	Policy ConflictPolicy
}

// Merge folds a sanitized remote batch into a copy of local.
//
// Records are matched by key with the first local occurrence winning. Unmatched
// remote records are appended; matched records with a different category are
// resolved per the policy. Local records absent from the batch are kept: the
// batch is a bounded sample, so absence never implies deletion.
func Merge(local, remote []Quote, opts MergeOptions) ([]Quote, MergeResult) {
	key := opts.Key
	if key == nil {
		key = ExactKey
	}

	policy := opts.Policy
	if policy == "" {
		policy = PolicyRemoteWins
	}

	merged := make([]Quote, len(local), len(local)+len(remote))
	copy(merged, local)

	index := make(map[string]int, len(merged))
	for i, q := range merged {
		k := key(q.Text)
		if _, seen := index[k]; !seen {
			index[k] = i
		}
	}

	var result MergeResult

	for _, r := range remote {
		k := key(r.Text)

		i, found := index[k]
		if !found {
			index[k] = len(merged)
			merged = append(merged, r)
			result.Added++

			continue
		}

		l := merged[i]
		if l.Category == r.Category {
			continue
		}

		result.Conflicts++

		if policy == PolicySkip {
			result.Unresolved = append(result.Unresolved, Conflict{
				Text:           l.Text,
				LocalCategory:  l.Category,
				RemoteCategory: r.Category,
			})

			continue
		}

		merged[i].Category = r.Category
		result.Updated++
	}

	return merged, result
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	// Added is the number of records appended.
	Added int `json:"added"`

	// Skipped is the number of valid records whose key was already present.
	Skipped int `json:"skipped"`
}

// Summary renders the result as status text.
func (r ImportResult) Summary() string {
	return fmt.Sprintf("Imported %d quote(s) successfully!", r.Added)
}

// AppendUnique appends incoming records whose key is not already present in local
// or earlier in incoming. Existing records are never modified.
func AppendUnique(local, incoming []Quote, key KeyFunc) ([]Quote, ImportResult) {
	if key == nil {
		key = ExactKey
	}

	seen := make(map[string]struct{}, len(local)+len(incoming))
	for _, q := range local {
		seen[key(q.Text)] = struct{}{}
	}

	out := make([]Quote, len(local), len(local)+len(incoming))
	copy(out, local)

	var result ImportResult

	for _, q := range incoming {
		k := key(q.Text)
		if _, dup := seen[k]; dup {
			result.Skipped++
			continue
		}

		seen[k] = struct{}{}
		out = append(out, q)
		result.Added++
	}

	return out, result
}
