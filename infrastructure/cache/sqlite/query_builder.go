// ABOUTME: Builds parameterized search SQL for the SQLite store
// ABOUTME: Validates identifiers and escapes LIKE wildcards to block injection

package sqlite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"entity-cache-api/core/interfaces"
)

// Field and index names go straight into SQL text, so only plain
// identifiers are allowed.
var safeNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateName validates field/index names to prevent SQL injection.
func validateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if !safeNamePattern.MatchString(name) {
		return fmt.Errorf("invalid name: %s (only alphanumeric and underscore allowed)", name)
	}
	if len(name) > 64 {
		return fmt.Errorf("name too long: %s (max 64 characters)", name)
	}
	return nil
}

// escapeLike escapes LIKE wildcards in user-supplied values. Queries
// using it must carry ESCAPE '\'.
func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}

// globToLike converts the trailing-star glob used for namespace scans to
// a LIKE pattern.
func globToLike(pattern string) string {
	if strings.HasSuffix(pattern, "*") {
		return escapeLike(strings.TrimSuffix(pattern, "*")) + "%"
	}
	return escapeLike(pattern)
}

// buildSearchSQL renders a structured index query as a pair of
// parameterized statements: one counting all matches, one selecting the
// requested page of keys. Values travel as parameters; only validated
// identifiers are interpolated.
func buildSearchSQL(def interfaces.IndexDefinition, query interfaces.IndexQuery) (countSQL, pageSQL string, countArgs, pageArgs []interface{}, err error) {
	// Pieces are assembled in SQL text order so the parameter slices
	// line up with their placeholders.
	var matchJoin string
	var matchJoinArgs []interface{}
	var matchWhere []string
	var matchWhereArgs []interface{}

	switch query.Match {
	case interfaces.MatchExact:
		if err := validateName(query.Field); err != nil {
			return "", "", nil, nil, err
		}
		matchJoin = " JOIN entry_fields m ON m.key = e.key AND m.field = ?"
		matchJoinArgs = []interface{}{query.Field}
		if indexFieldType(def, query.Field) == interfaces.FieldText {
			// TEXT comparisons are case-insensitive, like the search engine's.
			matchWhere = []string{"m.value = ? COLLATE NOCASE"}
		} else {
			matchWhere = []string{"m.value = ?"}
		}
		matchWhereArgs = []interface{}{query.Value}
	case interfaces.MatchPrefix:
		if err := validateName(query.Field); err != nil {
			return "", "", nil, nil, err
		}
		matchJoin = " JOIN entry_fields m ON m.key = e.key AND m.field = ?"
		matchJoinArgs = []interface{}{query.Field}
		// Token-prefix match: the needle starts the value or follows a space.
		needle := escapeLike(query.Value)
		matchWhere = []string{`(m.value LIKE ? ESCAPE '\' OR m.value LIKE ? ESCAPE '\')`}
		matchWhereArgs = []interface{}{needle + "%", "% " + needle + "%"}
	}

	where := append([]string{
		"e.kind = 'hash'",
		`e.key LIKE ? ESCAPE '\'`,
		"(e.expiry = 0 OR e.expiry > ?)",
	}, matchWhere...)
	whereArgs := append([]interface{}{escapeLike(def.Prefix) + "%", nowMilli()}, matchWhereArgs...)
	condition := " WHERE " + strings.Join(where, " AND ")

	countSQL = "SELECT COUNT(*) FROM entries e" + matchJoin + condition
	countArgs = append(append([]interface{}{}, matchJoinArgs...), whereArgs...)

	var sortJoin string
	var sortJoinArgs []interface{}
	orderBy := " ORDER BY e.key"
	if query.SortBy != "" {
		if err := validateName(query.SortBy); err != nil {
			return "", "", nil, nil, err
		}
		sortJoin = " LEFT JOIN entry_fields s ON s.key = e.key AND s.field = ?"
		sortJoinArgs = []interface{}{query.SortBy}

		direction := " ASC"
		if query.SortDesc {
			direction = " DESC"
		}
		if indexFieldType(def, query.SortBy) == interfaces.FieldNumeric {
			orderBy = " ORDER BY CAST(s.value AS REAL)" + direction + ", e.key"
		} else {
			orderBy = " ORDER BY s.value" + direction + ", e.key"
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	pageSQL = "SELECT e.key FROM entries e" + matchJoin + sortJoin + condition + orderBy + " LIMIT ? OFFSET ?"
	pageArgs = append(append([]interface{}{}, matchJoinArgs...), sortJoinArgs...)
	pageArgs = append(pageArgs, whereArgs...)
	pageArgs = append(pageArgs, limit, query.Offset)

	return countSQL, pageSQL, countArgs, pageArgs, nil
}

func indexFieldType(def interfaces.IndexDefinition, name string) interfaces.IndexFieldType {
	for _, f := range def.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return interfaces.FieldTag
}
