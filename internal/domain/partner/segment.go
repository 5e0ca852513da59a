package partner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SegmentField is a customer attribute a segment rule can test
type SegmentField string

const (
	SegmentFieldTotalSpending SegmentField = "totalSpending"
	SegmentFieldVisits        SegmentField = "visits"
	SegmentFieldLastVisitDate SegmentField = "lastVisitDate"
	SegmentFieldCreatedAt     SegmentField = "createdAt"
	SegmentFieldName          SegmentField = "name"
	SegmentFieldEmail         SegmentField = "email"
	SegmentFieldCity          SegmentField = "address.city"
	SegmentFieldState         SegmentField = "address.state"
	SegmentFieldCountry       SegmentField = "address.country"
)

// SegmentOperator compares a field against a rule value
type SegmentOperator string

const (
	SegmentOpGreater      SegmentOperator = ">"
	SegmentOpLess         SegmentOperator = "<"
	SegmentOpGreaterEqual SegmentOperator = ">="
	SegmentOpLessEqual    SegmentOperator = "<="
	SegmentOpEqual        SegmentOperator = "=="
	SegmentOpNotEqual     SegmentOperator = "!="
)

// IsOrdering reports whether the operator needs an ordered value
func (o SegmentOperator) IsOrdering() bool {
	switch o {
	case SegmentOpGreater, SegmentOpLess, SegmentOpGreaterEqual, SegmentOpLessEqual:
		return true
	}
	return false
}

type fieldKind int

const (
	kindDecimal fieldKind = iota
	kindInt
	kindTime
	kindString
)

var segmentFields = map[SegmentField]fieldKind{
	SegmentFieldTotalSpending: kindDecimal,
	SegmentFieldVisits:        kindInt,
	SegmentFieldLastVisitDate: kindTime,
	SegmentFieldCreatedAt:     kindTime,
	SegmentFieldName:          kindString,
	SegmentFieldEmail:         kindString,
	SegmentFieldCity:          kindString,
	SegmentFieldState:         kindString,
	SegmentFieldCountry:       kindString,
}

// SegmentRule is an untyped rule as received from a client
type SegmentRule struct {
	Field    string
	Operator string
	Value    interface{}
}

// SegmentCondition is a validated rule. Value holds a decimal.Decimal, int,
// time.Time or string depending on the field.
type SegmentCondition struct {
	Field    SegmentField
	Operator SegmentOperator
	Value    interface{}
}

// ParseSegmentRules validates rules and converts their values to the type of
// the targeted field. All rules are combined with AND.
func ParseSegmentRules(rules []SegmentRule) ([]SegmentCondition, error) {
	conds := make([]SegmentCondition, 0, len(rules))
	for i, r := range rules {
		field := SegmentField(strings.TrimSpace(r.Field))
		kind, ok := segmentFields[field]
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("Rule %d: unsupported field %q", i+1, r.Field))
		}
		op := SegmentOperator(strings.TrimSpace(r.Operator))
		switch op {
		case SegmentOpGreater, SegmentOpLess, SegmentOpGreaterEqual, SegmentOpLessEqual, SegmentOpEqual, SegmentOpNotEqual:
		default:
			return nil, shared.NewValidationError(fmt.Sprintf("Rule %d: unsupported operator %q", i+1, r.Operator))
		}
		if kind == kindString && op.IsOrdering() {
			return nil, shared.NewValidationError(fmt.Sprintf("Rule %d: operator %s cannot be applied to %s", i+1, op, field))
		}
		value, err := coerce(kind, r.Value)
		if err != nil {
			return nil, shared.NewValidationError(fmt.Sprintf("Rule %d: %v", i+1, err))
		}
		if field == SegmentFieldEmail {
			value = NormalizeEmail(value.(string))
		}
		conds = append(conds, SegmentCondition{Field: field, Operator: op, Value: value})
	}
	return conds, nil
}

func coerce(kind fieldKind, v interface{}) (interface{}, error) {
	switch kind {
	case kindDecimal:
		switch x := v.(type) {
		case float64:
			return decimal.NewFromFloat(x), nil
		case int:
			return decimal.NewFromInt(int64(x)), nil
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("value %q is not a number", x)
			}
			return d, nil
		}
	case kindInt:
		switch x := v.(type) {
		case float64:
			if x != float64(int(x)) {
				return nil, fmt.Errorf("value %v is not an integer", x)
			}
			return int(x), nil
		case int:
			return x, nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("value %q is not an integer", x)
			}
			return n, nil
		}
	case kindTime:
		if s, ok := v.(string); ok {
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
					return t, nil
				}
			}
			return nil, fmt.Errorf("value %q is not a date", s)
		}
	case kindString:
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), nil
		}
	}
	return nil, fmt.Errorf("value %v has the wrong type", v)
}
