package rfc7232

// §  2.3.2.  Comparison
// §
// §     There are two entity-tag comparison functions, depending on whether
// §     or not the comparison context allows the use of weak validators:
// §
// §     o  Strong comparison: two entity-tags are equivalent if both are not
// §        weak and their opaque-tags match character-by-character.
// §
// §     o  Weak comparison: two entity-tags are equivalent if their
// §        opaque-tags match character-by-character, regardless of either or
// §        both being tagged as "weak".

// Match reports whether candidate is equivalent to any member of set.
//
// With allowWeak false, strong comparison is used: the candidate must not be
// weak, and must appear in set character for character. With allowWeak true,
// weak comparison is used: the candidate's weakness indicator is ignored, and
// both the weak and the strong form of its opaque-tag count as members.
func Match(candidate ETag, set []ETag, allowWeak bool) bool {
	if !allowWeak {
		return !candidate.IsWeak() && contains(set, candidate)
	}
	opaque := candidate.opaqueTag()
	return contains(set, opaque) || contains(set, ETag(weakPrefix)+opaque)
}

func contains(set []ETag, etag ETag) bool {
	for _, member := range set {
		if member == etag {
			return true
		}
	}
	return false
}
