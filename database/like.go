package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards so the term matches literally
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
