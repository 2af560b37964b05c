package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
)

// Key families
const (
	FamilyProfile     = "profile"
	FamilySearch      = "search"
	FamilySuggestions = "suggestions"
	FamilyPost        = "post"
	FamilyPostList    = "posts"
)

// memcached refuses keys longer than 250 bytes
const maxKeyLength = 250

var folder = cases.Fold()

func key(family, param string) string {
	k := family + ":" + url.QueryEscape(param)
	if len(k) <= maxKeyLength {
		return k
	}

	sum := sha256.Sum256([]byte(param))
	return family + ":sha256:" + hex.EncodeToString(sum[:])
}

// ProfileKey is the key of the profile view of username
func ProfileKey(username string) string {
	return key(FamilyProfile, username)
}

// SearchKey is the key of the results for a search term.
// Terms differing only by case share the same key.
func SearchKey(term string) string {
	return key(FamilySearch, FoldTerm(term))
}

// SuggestionsKey is the key of the suggestion list of an account
func SuggestionsKey(accountID string) string {
	return key(FamilySuggestions, accountID)
}

// PostKey is the key of a single post view
func PostKey(postID string) string {
	return key(FamilyPost, postID)
}

// PostListKey is the key of the global post list
func PostListKey() string {
	return FamilyPostList + ":all"
}

// FoldTerm normalizes a search term for matching and keying
func FoldTerm(term string) string {
	return folder.String(strings.TrimSpace(term))
}

// Family returns the family of a key, used as a metric label
func Family(k string) string {
	if i := strings.IndexByte(k, ':'); i > 0 {
		return k[:i]
	}
	return k
}
