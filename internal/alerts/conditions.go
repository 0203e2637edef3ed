package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AngelCh415/leadintel/internal/models"
)

type Field string

const (
	FieldLeadScore       Field = "leadScore"
	FieldVisitCount      Field = "visitCount"
	FieldEngagementScore Field = "engagementScore"
	FieldIndustry        Field = "industry"
	FieldCompanySize     Field = "companySize"
	FieldPageVisits      Field = "pageVisits"
)

type Operator string

const (
	OpGT       Operator = "gt"
	OpGTE      Operator = "gte"
	OpLT       Operator = "lt"
	OpLTE      Operator = "lte"
	OpEQ       Operator = "eq"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
)

type kind int

const (
	kindInvalid kind = iota
	kindNumber
	kindString
	kindList
)

func (k kind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindList:
		return "list"
	}
	return "invalid"
}

func fieldKind(f Field) kind {
	switch f {
	case FieldLeadScore, FieldVisitCount, FieldEngagementScore:
		return kindNumber
	case FieldIndustry, FieldCompanySize:
		return kindString
	case FieldPageVisits:
		return kindList
	}
	return kindInvalid
}

// Value es el valor de comparación de una condición; se construye con
// Number, String o List.
type Value struct {
	kind kind
	num  float64
	str  string
	list []string
}

func Number(v float64) Value { return Value{kind: kindNumber, num: v} }
func String(v string) Value  { return Value{kind: kindString, str: v} }
func List(v ...string) Value { return Value{kind: kindList, list: v} }
func (v Value) IsZero() bool { return v.kind == kindInvalid }
func (v Value) Kind() string { return v.kind.String() }

func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return formatNumber(v.num)
	case kindString:
		return v.str
	case kindList:
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return ""
}

// tipo de campo → operador → tipo de valor aceptado
var grammar = map[kind]map[Operator]kind{
	kindNumber: {
		OpGT: kindNumber, OpGTE: kindNumber, OpLT: kindNumber, OpLTE: kindNumber, OpEQ: kindNumber,
		OpContains: kindString, OpIn: kindList,
	},
	kindString: {
		OpGT: kindString, OpGTE: kindString, OpLT: kindString, OpLTE: kindString, OpEQ: kindString,
		OpContains: kindString, OpIn: kindList,
	},
	kindList: {
		OpContains: kindString, OpIn: kindList,
	},
}

type Condition struct {
	Field    Field
	Operator Operator
	Value    Value
}

// NewCondition valida la combinación campo/operador/valor.
func NewCondition(f Field, op Operator, v Value) (Condition, error) {
	fk := fieldKind(f)
	if fk == kindInvalid {
		return Condition{}, fmt.Errorf("unknown field %q", f)
	}
	want, ok := grammar[fk][op]
	if !ok {
		return Condition{}, fmt.Errorf("operator %q not supported for %s field %q", op, fk, f)
	}
	if v.kind != want {
		return Condition{}, fmt.Errorf("field %q with operator %q needs a %s value, got %s", f, op, want, v.kind)
	}
	return Condition{Field: f, Operator: op, Value: v}, nil
}

// MustCondition es NewCondition para reglas fijas en código.
func MustCondition(f Field, op Operator, v Value) Condition {
	c, err := NewCondition(f, op, v)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Value)
}

// Eval nunca falla: campo u operador desconocido es false.
func (c Condition) Eval(li models.LeadIntelligence) bool {
	switch fieldKind(c.Field) {
	case kindNumber:
		n, ok := numberField(c.Field, li)
		return ok && evalNumber(n, c.Operator, c.Value)
	case kindString:
		s, ok := stringField(c.Field, li)
		return ok && evalString(s, c.Operator, c.Value)
	case kindList:
		return evalList(li.Visit.PagesViewed, c.Operator, c.Value)
	}
	return false
}

func numberField(f Field, li models.LeadIntelligence) (float64, bool) {
	switch f {
	case FieldLeadScore:
		return float64(li.OverallScore), true
	case FieldVisitCount:
		return float64(li.Visit.TotalVisits), true
	case FieldEngagementScore:
		return float64(li.EngagementScore), true
	}
	return 0, false
}

func stringField(f Field, li models.LeadIntelligence) (string, bool) {
	switch f {
	case FieldIndustry:
		return li.Company.Industry, true
	case FieldCompanySize:
		return li.Company.Size, true
	}
	return "", false
}

func evalNumber(n float64, op Operator, v Value) bool {
	switch op {
	case OpGT:
		return v.kind == kindNumber && n > v.num
	case OpGTE:
		return v.kind == kindNumber && n >= v.num
	case OpLT:
		return v.kind == kindNumber && n < v.num
	case OpLTE:
		return v.kind == kindNumber && n <= v.num
	case OpEQ:
		return v.kind == kindNumber && n == v.num
	case OpContains:
		return v.kind == kindString && containsFold(formatNumber(n), v.str)
	case OpIn:
		return v.kind == kindList && inList(formatNumber(n), v.list)
	}
	return false
}

// comparación de strings sin distinguir mayúsculas
func evalString(s string, op Operator, v Value) bool {
	switch op {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ:
		if v.kind != kindString {
			return false
		}
		cmp := strings.Compare(strings.ToLower(s), strings.ToLower(v.str))
		switch op {
		case OpGT:
			return cmp > 0
		case OpGTE:
			return cmp >= 0
		case OpLT:
			return cmp < 0
		case OpLTE:
			return cmp <= 0
		default:
			return cmp == 0
		}
	case OpContains:
		return v.kind == kindString && containsFold(s, v.str)
	case OpIn:
		return v.kind == kindList && inList(s, v.list)
	}
	return false
}

func evalList(items []string, op Operator, v Value) bool {
	for _, it := range items {
		switch {
		case op == OpContains && v.kind == kindString:
			if containsFold(it, v.str) {
				return true
			}
		case op == OpIn && v.kind == kindList:
			if inList(it, v.list) {
				return true
			}
		default:
			return false
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func inList(s string, list []string) bool {
	for _, x := range list {
		if strings.EqualFold(s, x) {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
