package index

import (
	"strconv"
	"strings"
)

// Resolve maps a user-supplied token to one cache entry. Resolution order:
// 1-based position in the current listing, then exact identifier match, then
// case-insensitive substring match against identifier or original file name.
// The first rule that matches wins. A token that matches nothing returns
// found=false with a nil error; callers treat that as a displayable outcome.
//
// Positional lookup is relative to the listing at call time; entries
// inserted or removed between calls shift positions.
func (ix *Index) Resolve(token string) (*Entry, bool, error) {
	entries, err := ix.List()
	if err != nil {
		return nil, false, err
	}

	if pos, err := strconv.Atoi(token); err == nil {
		if pos >= 1 && pos <= len(entries) {
			return &entries[pos-1], true, nil
		}
		// Out-of-range positions fall through to name matching: a file
		// named "2024" must still be findable by name.
	}

	for i := range entries {
		if entries[i].Identifier == token {
			return &entries[i], true, nil
		}
	}

	needle := strings.ToLower(token)
	for i := range entries {
		if strings.Contains(strings.ToLower(entries[i].Identifier), needle) ||
			strings.Contains(strings.ToLower(entries[i].OriginalFileName), needle) {
			return &entries[i], true, nil
		}
	}

	return nil, false, nil
}
