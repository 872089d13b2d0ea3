// Package encoding maps categorical labels to the integer codes the model is trained on.
package encoding

import (
	"fmt"
	"sort"

	"meal-waste-workers/internal/common/errors"
)

// Field identifies one categorical column.
type Field string

const (
	Season       Field = "Season"
	DayType      Field = "Day_Type"
	Day          Field = "Day"
	MealCategory Field = "Meal_Category"
	DishName     Field = "Dish_Name"
)

// Fields lists every categorical field in a fixed order.
var Fields = []Field{Season, DayType, Day, MealCategory, DishName}

// Encoder is a bijection between the labels of one field and 0..n-1.
// Codes follow lexicographic label order.
type Encoder struct {
	field  Field
	labels []string
	codes  map[string]int
}

// NewEncoder fits an encoder on the observed values. Duplicates are collapsed.
func NewEncoder(field Field, observed []string) *Encoder {
	seen := make(map[string]struct{}, len(observed))
	labels := make([]string, 0, len(observed))
	for _, v := range observed {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		labels = append(labels, v)
	}
	sort.Strings(labels)

	codes := make(map[string]int, len(labels))
	for i, l := range labels {
		codes[l] = i
	}
	return &Encoder{field: field, labels: labels, codes: codes}
}

func (e *Encoder) Encode(label string) (int, error) {
	code, ok := e.codes[label]
	if !ok {
		return 0, errors.NewUnknownCategoryError(string(e.field), label)
	}
	return code, nil
}

func (e *Encoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.labels) {
		return "", errors.NewUnknownCodeError(string(e.field), code)
	}
	return e.labels[code], nil
}

// Labels returns a copy of the vocabulary in code order.
func (e *Encoder) Labels() []string {
	return append([]string(nil), e.labels...)
}

func (e *Encoder) Len() int { return len(e.labels) }

// Bank holds one encoder per categorical field. It is read-only once built.
type Bank struct {
	encoders map[Field]*Encoder
}

// NewBank fits an encoder for every field from column values keyed by field.
func NewBank(columns map[Field][]string) (*Bank, error) {
	encoders := make(map[Field]*Encoder, len(Fields))
	for _, f := range Fields {
		values, ok := columns[f]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("no values observed for field %s", f)
		}
		encoders[f] = NewEncoder(f, values)
	}
	return &Bank{encoders: encoders}, nil
}

func (b *Bank) encoder(field Field) (*Encoder, error) {
	enc, ok := b.encoders[field]
	if !ok {
		return nil, errors.NewInvalidPayloadError(fmt.Sprintf("unknown categorical field %q", field))
	}
	return enc, nil
}

// Encode maps a label to its code. Unseen labels fail with UNKNOWN_CATEGORY.
func (b *Bank) Encode(field Field, label string) (int, error) {
	enc, err := b.encoder(field)
	if err != nil {
		return 0, err
	}
	return enc.Encode(label)
}

// Decode maps a code back to its label.
func (b *Bank) Decode(field Field, code int) (string, error) {
	enc, err := b.encoder(field)
	if err != nil {
		return "", err
	}
	return enc.Decode(code)
}

// Labels returns the sorted vocabulary of field, or nil for an unknown field.
func (b *Bank) Labels(field Field) []string {
	enc, err := b.encoder(field)
	if err != nil {
		return nil
	}
	return enc.Labels()
}

// Vocabulary returns every field's labels keyed by field name.
func (b *Bank) Vocabulary() map[string][]string {
	out := make(map[string][]string, len(b.encoders))
	for f, enc := range b.encoders {
		out[string(f)] = enc.Labels()
	}
	return out
}
