package query

import (
	"fmt"
	"strings"
)

// Condition represents a WHERE clause condition.
// Fragments use "?" placeholders; callers rebind them for the target driver.
type Condition interface {
	// SQL returns the SQL fragment and its positional arguments.
	SQL() (string, []interface{})
}

// eqCondition implements equality comparison (field = value).
type eqCondition struct {
	field string
	value interface{}
}

// Eq creates a WHERE condition for equality comparison.
// Example: Eq("category", "books") generates "category = ?"
func Eq(field string, value interface{}) Condition {
	return &eqCondition{field: field, value: value}
}

func (c *eqCondition) SQL() (string, []interface{}) {
	return fmt.Sprintf("%s = ?", c.field), []interface{}{c.value}
}

// containsCondition implements a case-insensitive substring match.
type containsCondition struct {
	field string
	value string
}

// ContainsFold creates a case-insensitive substring condition. LIKE wildcards
// in value are escaped so they match literally.
// Example: ContainsFold("name", "Pro") generates "LOWER(name) LIKE ? ESCAPE '\'" with "%pro%"
func ContainsFold(field, value string) Condition {
	return &containsCondition{field: field, value: value}
}

func (c *containsCondition) SQL() (string, []interface{}) {
	pattern := "%" + EscapeLike(strings.ToLower(c.value)) + "%"
	return fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, c.field), []interface{}{pattern}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters using backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
