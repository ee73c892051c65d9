package verify

import (
	"strconv"
	"strings"

	"github.com/matsen/bibvet/internal/bibtex"
	"github.com/matsen/bibvet/internal/lookup"
)

// maxYearDrift is the tolerated publication-year difference between a local
// entry and its accepted external record (preprint vs. published venue).
const maxYearDrift = 1

// checkDetails compares an entry with its accepted external record and
// returns advisory mismatches. All findings are non-fatal.
func checkDetails(local bibtex.Entry, remote lookup.Result) []Mismatch {
	var mismatches []Mismatch

	if local.Year != 0 && remote.Year != 0 {
		drift := local.Year - remote.Year
		if drift < 0 {
			drift = -drift
		}
		if drift > maxYearDrift {
			mismatches = append(mismatches, Mismatch{
				Kind:   MismatchYear,
				Local:  strconv.Itoa(local.Year),
				Remote: strconv.Itoa(remote.Year),
			})
		}
	}

	if len(local.Authors) > 0 && len(remote.Authors) > 0 {
		localSurname := strings.ToLower(firstAuthorSurname(local.Authors[0]))
		remoteSurname := strings.ToLower(firstAuthorSurname(remote.Authors[0]))

		// Substring containment tolerates initials and loose diacritic
		// transliterations on either side.
		if localSurname != "" && remoteSurname != "" &&
			!strings.Contains(localSurname, remoteSurname) &&
			!strings.Contains(remoteSurname, localSurname) {
			mismatches = append(mismatches, Mismatch{
				Kind:   MismatchFirstAuthor,
				Local:  local.Authors[0],
				Remote: remote.Authors[0],
			})
		}
	}

	return mismatches
}

// firstAuthorSurname extracts a surname from a name written either as
// "Surname, Given" or "Given Surname".
func firstAuthorSurname(name string) string {
	if i := strings.IndexByte(name, ','); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
