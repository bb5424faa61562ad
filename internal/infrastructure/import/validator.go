package csvimport

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeMoney  FieldType = "money"
	TypeDate   FieldType = "date"
)

// FieldRule defines validation rules for a field
type FieldRule struct {
	Column      string
	Type        FieldType
	Required    bool
	MaxLength   int
	MinValue    *decimal.Decimal
	Pattern     *regexp.Regexp
	PatternDesc string
	CustomFunc  func(value string) error
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{
		rule: FieldRule{
			Column: normalizeHeader(column),
			Type:   TypeString,
		},
	}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// String sets the field type to string
func (b *FieldRuleBuilder) String() *FieldRuleBuilder {
	b.rule.Type = TypeString
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Money sets the field type to a decimal euro amount
func (b *FieldRuleBuilder) Money() *FieldRuleBuilder {
	b.rule.Type = TypeMoney
	return b
}

// Date sets the field type to an ISO date
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// MinValue sets the minimum numeric value
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// NonNegative rejects values below zero
func (b *FieldRuleBuilder) NonNegative() *FieldRuleBuilder {
	return b.MinValue(decimal.Zero)
}

// Pattern sets a regex pattern for validation
func (b *FieldRuleBuilder) Pattern(pattern, description string) *FieldRuleBuilder {
	b.rule.Pattern = regexp.MustCompile(pattern)
	b.rule.PatternDesc = description
	return b
}

// Custom sets a custom validation function
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator checks rows against rules, in the order the rules were
// given so row messages are stable
type FieldValidator struct {
	rules []FieldRule
}

// NewFieldValidator creates a new field validator
func NewFieldValidator(rules []FieldRule) *FieldValidator {
	return &FieldValidator{rules: rules}
}

// ValidateRow validates all fields in a row and returns the row's errors
func (v *FieldValidator) ValidateRow(row *Row) []RowError {
	var rowErrors []RowError
	add := func(err RowError) {
		rowErrors = append(rowErrors, err)
	}

	for _, rule := range v.rules {
		column := rule.Column
		value := row.Get(column)

		// Required check
		if rule.Required && value == "" {
			add(NewRowError(row.LineNumber, column, ErrCodeImportRequiredField, "is required"))
			continue
		}

		// Skip further validation for empty optional fields
		if value == "" {
			continue
		}

		// Type validation
		number, err := v.validateType(value, rule.Type)
		if err != nil {
			add(NewRowErrorWithValue(row.LineNumber, column, ErrCodeImportInvalidType, err.Error(), value))
			continue
		}

		if rule.MaxLength > 0 && len([]rune(value)) > rule.MaxLength {
			add(NewRowError(row.LineNumber, column, ErrCodeImportInvalidLength,
				fmt.Sprintf("must be at most %d characters", rule.MaxLength)))
		}

		if rule.MinValue != nil && number != nil && number.LessThan(*rule.MinValue) {
			msg := fmt.Sprintf("must be at least %s", rule.MinValue.String())
			if rule.MinValue.IsZero() {
				msg = "must not be negative"
			}
			add(NewRowErrorWithValue(row.LineNumber, column, ErrCodeImportInvalidRange, msg, value))
		}

		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			add(NewRowErrorWithValue(row.LineNumber, column, ErrCodeImportPatternMismatch,
				fmt.Sprintf("does not match %s", rule.PatternDesc), value))
		}

		if rule.CustomFunc != nil {
			if err := rule.CustomFunc(value); err != nil {
				add(NewRowErrorWithValue(row.LineNumber, column, ErrCodeImportValidation, err.Error(), value))
			}
		}
	}

	return rowErrors
}

// validateType validates a value against its expected type and returns the
// numeric value for numeric types
func (v *FieldValidator) validateType(value string, fieldType FieldType) (*decimal.Decimal, error) {
	switch fieldType {
	case TypeInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer '%s'", value)
		}
		d := decimal.NewFromInt(n)
		return &d, nil
	case TypeMoney:
		d, err := ParseAmount(value)
		if err != nil {
			return nil, err
		}
		if _, err := ToCents(d); err != nil {
			return nil, err
		}
		return &d, nil
	case TypeDate:
		_, err := ParseDate(value)
		return nil, err
	}
	return nil, nil
}
