package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Logic joins the results of a definition's rules.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Rule is one {field, operator, value} leaf of a filter definition. Value may
// be a string, a number, or a list of strings depending on the field.
type Rule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Definition is the decoded form of a filter collection's definition blob.
type Definition struct {
	ItemTypes []string `json:"item_type" validate:"required,min=1,dive,oneof=Movie Series"`
	Logic     Logic    `json:"logic" validate:"omitempty,oneof=AND OR"`
	Rules     []Rule   `json:"rules"`
}

var validate = validator.New()

// ParseDefinition decodes and validates a filter definition blob.
func ParseDefinition(raw string) (Definition, error) {
	var def Definition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return def, fmt.Errorf("failed to decode filter definition: %w", err)
	}
	if err := validate.Struct(def); err != nil {
		return def, fmt.Errorf("invalid filter definition: %w", err)
	}
	if def.Logic == "" {
		def.Logic = LogicAnd
	}
	return def, nil
}

// HasItemType reports whether the definition covers the given item type.
func (d Definition) HasItemType(itemType string) bool {
	for _, t := range d.ItemTypes {
		if t == itemType {
			return true
		}
	}
	return false
}

// Media is the flattened view of one media_metadata row the evaluator runs
// over. Person lists are already reduced to names.
type Media struct {
	Title       string
	ReleaseYear int
	Rating      float64
	ReleaseDate time.Time
	DateAdded   time.Time
	Genres      []string
	Actors      []string
	Directors   []string
	Studios     []string
	Countries   []string
	Tags        []string
}

type fieldKind int

const (
	kindNumeric fieldKind = iota
	kindObjectList
	kindStringList
	kindDate
	kindTitle
)

// fieldKinds routes each known field to its variant; anything else falls
// through to the numeric comparisons.
var fieldKinds = map[string]fieldKind{
	"actors":       kindObjectList,
	"directors":    kindObjectList,
	"genres":       kindStringList,
	"countries":    kindStringList,
	"studios":      kindStringList,
	"tags":         kindStringList,
	"release_date": kindDate,
	"date_added":   kindDate,
	"title":        kindTitle,
}

// Evaluate runs the definition's rule tree over one media row. It is pure:
// identical inputs always produce the same result, and malformed rules
// evaluate to false rather than erroring.
func Evaluate(def Definition, media Media, today time.Time) bool {
	if len(def.Rules) == 0 {
		return true
	}

	for _, rule := range def.Rules {
		matched := evaluateRule(rule, media, today)
		if def.Logic == LogicOr && matched {
			return true
		}
		if def.Logic != LogicOr && !matched {
			return false
		}
	}

	return def.Logic != LogicOr
}

func evaluateRule(rule Rule, media Media, today time.Time) bool {
	switch fieldKinds[rule.Field] {
	case kindObjectList, kindStringList:
		return evaluateList(rule, listField(rule.Field, media))
	case kindDate:
		return evaluateDate(rule, dateField(rule.Field, media), today)
	case kindTitle:
		return evaluateTitle(rule, media.Title)
	default:
		return evaluateNumeric(rule, media)
	}
}

func listField(field string, media Media) []string {
	switch field {
	case "actors":
		return media.Actors
	case "directors":
		return media.Directors
	case "genres":
		return media.Genres
	case "countries":
		return media.Countries
	case "studios":
		return media.Studios
	case "tags":
		return media.Tags
	}
	return nil
}

func dateField(field string, media Media) time.Time {
	switch field {
	case "release_date":
		return media.ReleaseDate
	case "date_added":
		return media.DateAdded
	}
	return time.Time{}
}

func evaluateList(rule Rule, values []string) bool {
	switch rule.Operator {
	case "is_one_of":
		wanted := toStrings(rule.Value)
		for _, v := range values {
			for _, w := range wanted {
				if v == w {
					return true
				}
			}
		}
		return false
	case "is_none_of":
		wanted := toStrings(rule.Value)
		for _, v := range values {
			for _, w := range wanted {
				if v == w {
					return false
				}
			}
		}
		return true
	case "contains":
		want, ok := toString(rule.Value)
		if !ok {
			return false
		}
		for _, v := range values {
			if v == want {
				return true
			}
		}
		return false
	}
	return false
}

func evaluateDate(rule Rule, value time.Time, today time.Time) bool {
	if value.IsZero() {
		return false
	}

	days, ok := toFloat(rule.Value)
	if !ok || days < 0 {
		return false
	}
	cutoff := today.AddDate(0, 0, -int(days))

	switch rule.Operator {
	case "in_last_days":
		return !value.Before(cutoff) && !value.After(today)
	case "not_in_last_days":
		return value.Before(cutoff)
	}
	return false
}

func evaluateTitle(rule Rule, title string) bool {
	want, ok := toString(rule.Value)
	if !ok {
		return false
	}
	haystack := strings.ToLower(title)
	needle := strings.ToLower(want)

	switch rule.Operator {
	case "contains":
		return strings.Contains(haystack, needle)
	case "does_not_contain":
		return !strings.Contains(haystack, needle)
	case "starts_with":
		return strings.HasPrefix(haystack, needle)
	case "ends_with":
		return strings.HasSuffix(haystack, needle)
	}
	return false
}

func evaluateNumeric(rule Rule, media Media) bool {
	value, ok := numericField(rule.Field, media)
	if !ok {
		return false
	}

	switch rule.Operator {
	case "gte":
		want, ok := toFloat(rule.Value)
		return ok && value >= want
	case "lte":
		want, ok := toFloat(rule.Value)
		return ok && value <= want
	case "eq":
		want, ok := toString(rule.Value)
		return ok && formatFloat(value) == want
	}
	return false
}

func numericField(field string, media Media) (float64, bool) {
	switch field {
	case "release_year":
		if media.ReleaseYear == 0 {
			return 0, false
		}
		return float64(media.ReleaseYear), true
	case "rating", "community_rating":
		if media.Rating == 0 {
			return 0, false
		}
		return media.Rating, true
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := toString(entry); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

func toString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return formatFloat(v), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
