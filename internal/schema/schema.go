// Package schema decodes candidate exercise records into the domain model.
//
// A candidate record is an arbitrary map, usually straight out of a YAML
// document. Decode either accepts it and returns a normalized
// domain.Exercise tagged with its variant, or rejects it with every problem
// found in the record.
package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/callumalpass/study-program/internal/domain"
)

// Record is a candidate exercise record with arbitrary fields.
type Record map[string]any

// ErrInvalidRecord is wrapped by every DecodeError.
var ErrInvalidRecord = errors.New("invalid exercise record")

// Field error codes
const (
	CodeMissing         = "missing"
	CodeUnknownKind     = "unknown_kind"
	CodeDifficultyRange = "difficulty_range"
	CodeVariantMixing   = "variant_mixing"
	CodeUnknownField    = "unknown_field"
	CodeInvalid         = "invalid"
)

// FieldError describes one problem with one field of a record.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

func (e FieldError) String() string {
	return e.Message
}

// DecodeError lists every problem found in a rejected record.
type DecodeError struct {
	ID     string
	Fields []FieldError
}

func (e *DecodeError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	if e.ID == "" {
		return fmt.Sprintf("invalid exercise record: %s", strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("invalid exercise record %s: %s", e.ID, strings.Join(msgs, "; "))
}

func (e *DecodeError) Unwrap() error { return ErrInvalidRecord }

// Has reports whether the error carries a field error with the given code.
func (e *DecodeError) Has(code string) bool {
	for _, f := range e.Fields {
		if f.Code == code {
			return true
		}
	}
	return false
}

// Rejection is a record that failed to decode, with where it was authored.
type Rejection struct {
	Location string
	ID       string
	Err      *DecodeError
}

var commonKeys = []string{"id", "subject_id", "topic_id", "kind", "title", "description", "difficulty", "hints"}

var variantKeys = map[domain.Kind][]string{
	domain.KindWritten: {"solution"},
	domain.KindCoding:  {"starter_code", "solution_code", "language", "test_cases"},
}

type commonRecord struct {
	ID          string   `mapstructure:"id" validate:"required"`
	SubjectID   string   `mapstructure:"subject_id" validate:"required"`
	TopicID     string   `mapstructure:"topic_id" validate:"required"`
	Kind        string   `mapstructure:"kind"`
	Title       string   `mapstructure:"title"`
	Description string   `mapstructure:"description"`
	Difficulty  int      `mapstructure:"difficulty" validate:"min=1,max=5"`
	Hints       []string `mapstructure:"hints" validate:"dive,required"`
}

type writtenRecord struct {
	commonRecord `mapstructure:",squash"`
	Solution     string `mapstructure:"solution"`
}

type codingRecord struct {
	commonRecord `mapstructure:",squash"`
	StarterCode  string           `mapstructure:"starter_code"`
	SolutionCode string           `mapstructure:"solution_code"`
	Language     string           `mapstructure:"language" validate:"required,language"`
	TestCases    []testCaseRecord `mapstructure:"test_cases" validate:"dive"`
}

type testCaseRecord struct {
	Args        []any  `mapstructure:"args"`
	Expected    any    `mapstructure:"expected"`
	Hidden      bool   `mapstructure:"hidden"`
	Description string `mapstructure:"description"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return domain.Language(fl.Field().String()).IsValid()
	})
	return v
}

// Decode validates a candidate record and converts it to a domain.Exercise.
// The returned error is a *DecodeError.
func Decode(rec Record) (domain.Exercise, error) {
	d := &decoder{}
	d.rec = d.plainRecord(rec)
	if id, ok := d.rec["id"].(string); ok {
		d.id = id
	}

	d.checkPresence(commonKeys)
	d.checkDifficulty()

	kind, kindOK := d.kind()
	if kindOK {
		d.checkPresence(variantKeys[kind])
		d.checkMixing(kind)
	}
	d.checkUnknown()

	if !kindOK {
		// No variant to build, but the common fields still get their rules.
		var r commonRecord
		d.decodeInto(&r)
		return domain.Exercise{}, d.err()
	}

	var ex domain.Exercise
	switch kind {
	case domain.KindWritten:
		var r writtenRecord
		if d.decodeInto(&r) {
			ex = domain.NewWritten(r.ID, r.SubjectID, r.TopicID, r.Title, r.Description,
				domain.Difficulty(r.Difficulty), r.Hints, r.Solution)
		}
	case domain.KindCoding:
		d.checkTestCases()
		var r codingRecord
		if d.decodeInto(&r) {
			ex = domain.NewCoding(r.ID, r.SubjectID, r.TopicID, r.Title, r.Description,
				domain.Difficulty(r.Difficulty), r.Hints, domain.Coding{
					StarterCode:  r.StarterCode,
					SolutionCode: r.SolutionCode,
					Language:     domain.Language(r.Language),
					TestCases:    toTestCases(r.TestCases),
				})
		}
	}

	if len(d.errs) > 0 {
		return domain.Exercise{}, d.err()
	}
	return ex, nil
}

type decoder struct {
	rec  Record
	id   string
	errs []FieldError
	seen map[string]bool
}

func (d *decoder) add(field, code, msg string) {
	key := field + "\x00" + code
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.errs = append(d.errs, FieldError{Field: field, Code: code, Message: msg})
}

func (d *decoder) err() error {
	return &DecodeError{ID: d.id, Fields: d.errs}
}

// plainRecord copies rec with nested values reduced to what JSON can carry.
// YAML maps with non-string keys get their keys rendered as strings. A value
// that cannot be reduced is reported and kept as it was.
func (d *decoder) plainRecord(rec Record) Record {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Record, len(rec))
	for _, k := range keys {
		v, err := plainValue(k, rec[k])
		if err != nil {
			d.add(k, CodeInvalid, err.Error())
			v = rec[k]
		}
		out[k] = v
	}
	return out
}

func plainValue(path string, v any) (any, error) {
	switch v := v.(type) {
	case Record:
		// yaml.v3 gives nested string-keyed maps the type of the outer map.
		return plainValue(path, map[string]any(v))

	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(v))
		for _, k := range keys {
			pv, err := plainValue(path+"."+k, v[k])
			if err != nil {
				return nil, err
			}
			out[k] = pv
		}
		return out, nil

	case map[any]any:
		type entry struct {
			key string
			val any
		}
		entries := make([]entry, 0, len(v))
		for k, val := range v {
			entries = append(entries, entry{key: fmt.Sprint(k), val: val})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

		out := make(map[string]any, len(v))
		for i, e := range entries {
			if i > 0 && entries[i-1].key == e.key {
				return nil, fmt.Errorf("field `%s` repeats key `%s`", path, e.key)
			}
			pv, err := plainValue(path+"."+e.key, e.val)
			if err != nil {
				return nil, err
			}
			out[e.key] = pv
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			pv, err := plainValue(fmt.Sprintf("%s[%d]", path, i), val)
			if err != nil {
				return nil, err
			}
			out[i] = pv
		}
		return out, nil

	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("field `%s` is not a finite number", path)
		}
		return v, nil

	default:
		return v, nil
	}
}

// checkDifficulty rejects fractional ratings, which decoding would truncate.
func (d *decoder) checkDifficulty() {
	var f float64
	switch v := d.rec["difficulty"].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return
	}
	if f != math.Trunc(f) {
		d.add("difficulty", CodeInvalid, fmt.Sprintf("difficulty `%v` is not an integer", f))
	}
}

func (d *decoder) checkPresence(keys []string) {
	for _, k := range keys {
		if _, ok := d.rec[k]; !ok {
			d.add(k, CodeMissing, fmt.Sprintf("missing required field `%s`", k))
		}
	}
}

func (d *decoder) kind() (domain.Kind, bool) {
	raw, ok := d.rec["kind"]
	if !ok {
		return "", false
	}
	s, _ := raw.(string)
	kind, err := domain.ParseKind(s)
	if err != nil {
		d.add("kind", CodeUnknownKind, fmt.Sprintf("unknown discriminant value `%v`", raw))
		return "", false
	}
	return kind, true
}

func (d *decoder) checkMixing(kind domain.Kind) {
	for other, keys := range variantKeys {
		if other == kind {
			continue
		}
		for _, k := range keys {
			if _, ok := d.rec[k]; ok {
				d.add(k, CodeVariantMixing, fmt.Sprintf("field `%s` belongs to %s exercises, not %s", k, other, kind))
			}
		}
	}
}

func (d *decoder) checkUnknown() {
	known := make(map[string]bool)
	for _, k := range commonKeys {
		known[k] = true
	}
	for _, keys := range variantKeys {
		for _, k := range keys {
			known[k] = true
		}
	}

	var unknown []string
	for k := range d.rec {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		d.add(k, CodeUnknownField, fmt.Sprintf("unknown field `%s`", k))
	}
}

// checkTestCases requires every test case to declare its expected value.
// An explicit null is a valid expectation.
func (d *decoder) checkTestCases() {
	cases, ok := d.rec["test_cases"].([]any)
	if !ok {
		return
	}
	for i, raw := range cases {
		tc, ok := raw.(map[string]any)
		if !ok {
			continue // reported by decodeInto
		}
		if _, ok := tc["expected"]; !ok {
			field := fmt.Sprintf("test_cases[%d].expected", i)
			d.add(field, CodeMissing, fmt.Sprintf("missing required field `%s`", field))
		}
	}
}

// decodeInto maps the record onto out and applies its field rules. It
// returns false when any problem was recorded.
func (d *decoder) decodeInto(out any) bool {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: &md,
		Result:   out,
	})
	if err != nil {
		d.add("", CodeInvalid, fmt.Sprintf("build decoder: %v", err))
		return false
	}

	if err := dec.Decode(map[string]any(d.rec)); err != nil {
		d.add("", CodeInvalid, err.Error())
		return false
	}

	// Top-level unknown keys were already reported; nested ones were not.
	sort.Strings(md.Unused)
	for _, k := range md.Unused {
		if strings.Contains(k, "[") || strings.Contains(k, ".") {
			d.add(k, CodeUnknownField, fmt.Sprintf("unknown field `%s`", k))
		}
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			d.add("", CodeInvalid, err.Error())
			return false
		}
		for _, fe := range verrs {
			d.addValidation(fe)
		}
	}

	return len(d.errs) == 0
}

func (d *decoder) addValidation(fe validator.FieldError) {
	field := fe.Field()
	if d.seen[field+"\x00"+CodeMissing] {
		return
	}
	switch {
	case field == "difficulty":
		d.add(field, CodeDifficultyRange, fmt.Sprintf("difficulty out of range [%d,%d]", domain.MinDifficulty, domain.MaxDifficulty))
	case fe.Tag() == "required" && strings.HasPrefix(field, "hints"):
		d.add(field, CodeInvalid, fmt.Sprintf("`%s` is empty", field))
	case fe.Tag() == "required":
		if _, present := d.rec[field]; present {
			d.add(field, CodeInvalid, fmt.Sprintf("required field `%s` is empty", field))
		} else {
			d.add(field, CodeMissing, fmt.Sprintf("missing required field `%s`", field))
		}
	case fe.Tag() == "language":
		d.add(field, CodeInvalid, fmt.Sprintf("unsupported language `%v`", fe.Value()))
	default:
		d.add(field, CodeInvalid, fmt.Sprintf("field `%s` failed %q", field, fe.Tag()))
	}
}

func toTestCases(recs []testCaseRecord) []domain.TestCase {
	cases := make([]domain.TestCase, len(recs))
	for i, r := range recs {
		args := r.Args
		if args == nil {
			args = []any{}
		}
		cases[i] = domain.TestCase{
			Args:        args,
			Expected:    r.Expected,
			Hidden:      r.Hidden,
			Description: r.Description,
		}
	}
	return cases
}
