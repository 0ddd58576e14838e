/*

Package expr implements the column expression language used by
DataFrame.Where() and DataFrame.Let().

Expressions are compiled once at booking time and evaluated many times
during a scan - once per entry. The language is deliberately small: it
only has to express per entry predicates and derived columns over the
cells of a single entry, so there are no function calls, no
subqueries and no aggregates. What remains is C style infix
arithmetic, comparisons and boolean connectives over dynamically
typed cells:

    b1 < 5 && b2 % 2 == 0
    (b1 + b2) / 2
    name =~ '^muon_' || name == 'unknown'

Compilation resolves everything which does not depend on row data:
number literals are parsed, string literals are unquoted, literal
regex patterns on the right of =~ are compiled. Evaluation is
therefore read only over the AST and safe to run from many scan
workers at once.

Precedence follows C: || binds loosest, then &&, then !, then the
comparison operators, then + -, then * / %. AND, OR, NOT, TRUE, FALSE
and NULL are accepted case insensitively as spellings of the symbolic
forms.

*/
package expr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
	errors "github.com/pkg/errors"
	"www.velocidex.com/golang/dataframe/types"
	"www.velocidex.com/golang/dataframe/utils"
)

var (
	exprLexer = lexer.Must(lexer.Regexp(
		`(?ms)` +
			`(\s+)` +
			`|(?ims)(?P<AND>\bAND\b)` +
			`|(?ims)(?P<OR>\bOR\b)` +
			`|(?ims)(?P<NOT>\bNOT\b)` +
			`|(?ims)(?P<NULL>\bNULL\b)` +
			`|(?ims)(?P<BOOL>\bTRUE\b|\bFALSE\b)` +
			"|(?P<Ident>[a-zA-Z_][a-zA-Z0-9_]*)" +
			`|(?P<String>'([^'\\]*(\\.[^'\\]*)*)'|"([^"\\]*(\\.[^"\\]*)*)")` +
			`|(?P<Number>0x[0-9a-fA-F]+|\d*\.?\d+([eE][-+]?\d+)?)` +
			`|(?P<Operators>==|!=|<=|>=|=~|&&|\|\||[-+*/%()!<>])`,
	))

	exprParser = participle.MustBuild(
		&_OrExpression{},
		participle.Lexer(exprLexer),
	)
)

// A compiled expression. Safe for concurrent evaluation.
type Expression struct {
	src     string
	ast     *_OrExpression
	columns []string
}

// The expression resolves column names through this interface. The
// engine hands in a per entry scope, tests can hand in anything which
// can map a name to a cell.
type Resolver interface {
	Resolve(name string) (types.Any, error)
}

// Compile parses and normalizes an expression. Anything which can be
// rejected without row data (syntax errors, malformed numbers, bad
// regex literals) is rejected here.
func Compile(expression string) (*Expression, error) {
	ast := &_OrExpression{}
	err := exprParser.ParseString(expression, ast)
	switch t := err.(type) {
	case *lexer.Error:
		return nil, reportError(err, t, expression)
	}
	if err != nil {
		return nil, err
	}

	result := &Expression{
		src: expression,
		ast: ast,
	}

	err = ast.normalize(&result.columns)
	if err != nil {
		return nil, errors.Wrap(err, expression)
	}

	return result, nil
}

// Reduce evaluates the expression against a single entry.
func (self *Expression) Reduce(resolver Resolver) (types.Any, error) {
	return self.ast.Reduce(resolver)
}

// ReduceBool evaluates the expression and folds the result to its
// truth value. This is what filters call.
func (self *Expression) ReduceBool(resolver Resolver) (bool, error) {
	value, err := self.ast.Reduce(resolver)
	if err != nil {
		return false, err
	}
	return utils.Bool(value), nil
}

// Columns returns the column names the expression references, in
// first appearance order without duplicates.
func (self *Expression) Columns() []string {
	return self.columns
}

func (self *Expression) ToString() string {
	return self.src
}

func reportError(err error, t *lexer.Error, expression string) error {
	end := t.Tok.Pos.Offset + 10
	if end >= len(expression) {
		end = len(expression) - 1
	}
	if end < 0 {
		end = 0
	}

	start := t.Tok.Pos.Offset - 10
	if start < 0 {
		start = 0
	}

	pos := t.Tok.Pos.Offset
	if pos >= len(expression) {
		pos = len(expression) - 1
	}

	if pos < 0 {
		pos = 0
	}

	return errors.Wrap(
		err,
		expression[start:pos]+"|"+expression[pos:end])
}

// The grammar. Each level of the precedence table gets its own
// production, each production evaluates left to right.

// Expressions separated by OR.
type _OrExpression struct {
	Left  *_AndExpression `@@`
	Right []*_OpOrTerm    `{ @@ }`
}

type _OpOrTerm struct {
	Operator string          `@( OR | "||" )`
	Term     *_AndExpression `@@`
}

// Expressions separated by AND.
type _AndExpression struct {
	Left  *_NotExpression `@@`
	Right []*_OpAndTerm   `{ @@ }`
}

type _OpAndTerm struct {
	Operator string          `@( AND | "&&" )`
	Term     *_NotExpression `@@`
}

type _NotExpression struct {
	Not  *_NotExpression    `( ( NOT | "!" ) @@ | `
	Left *_ConditionOperand ` @@ )`
}

// Conditional expressions imply comparison.
type _ConditionOperand struct {
	Left  *_AdditionExpression `@@`
	Right *_OpComparison       `{ @@ }`
}

type _OpComparison struct {
	Operator string               `@( "==" | "!=" | "<=" | ">=" | "<" | ">" | "=~" )`
	Right    *_AdditionExpression `@@`

	// A literal pattern on the right of =~ is compiled once here.
	regex *regexp.Regexp
}

// Expressions separated by addition or subtraction.
type _AdditionExpression struct {
	Left  *_MultiplicationExpression `@@`
	Right []*_OpAddTerm              `{ @@ }`
}

type _OpAddTerm struct {
	Operator string                     `@("+" | "-")`
	Term     *_MultiplicationExpression `@@`
}

// Expressions separated by multiplication, division or remainder.
type _MultiplicationExpression struct {
	Left  *_Value      `@@`
	Right []*_OpFactor `{ @@ }`
}

type _OpFactor struct {
	Operator string  `@("*" | "/" | "%")`
	Factor   *_Value `@@`
}

type _Value struct {
	Negated       bool           `[ @"-" ]`
	Subexpression *_OrExpression `( "(" @@ ")"`
	Symbol        *string        ` | @Ident`
	String        *string        ` | @String`
	StrNumber     *string        ` | @Number`
	Boolean       *string        ` | @BOOL`
	Null          bool           ` | @NULL )`

	// Filled in by normalize() so evaluation never reparses.
	Int   *int64
	Float *float64
	cache types.Any
}

// Normalization walks the freshly parsed AST once: it folds literals
// into their runtime representation, compiles literal regex patterns
// and collects the referenced column names.

func (self *_OrExpression) normalize(columns *[]string) error {
	err := self.Left.normalize(columns)
	if err != nil {
		return err
	}

	for _, term := range self.Right {
		err = term.Term.normalize(columns)
		if err != nil {
			return err
		}
	}
	return nil
}

func (self *_AndExpression) normalize(columns *[]string) error {
	err := self.Left.normalize(columns)
	if err != nil {
		return err
	}

	for _, term := range self.Right {
		err = term.Term.normalize(columns)
		if err != nil {
			return err
		}
	}
	return nil
}

func (self *_NotExpression) normalize(columns *[]string) error {
	if self.Not != nil {
		return self.Not.normalize(columns)
	}
	return self.Left.normalize(columns)
}

func (self *_ConditionOperand) normalize(columns *[]string) error {
	err := self.Left.normalize(columns)
	if err != nil {
		return err
	}

	if self.Right == nil {
		return nil
	}

	err = self.Right.Right.normalize(columns)
	if err != nil {
		return err
	}

	// Precompile a literal regex pattern.
	if self.Right.Operator == "=~" {
		pattern, ok := self.Right.Right.literalString()
		if ok {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return errors.Wrap(err, "invalid regex")
			}
			self.Right.regex = re
		}
	}

	return nil
}

func (self *_AdditionExpression) normalize(columns *[]string) error {
	err := self.Left.normalize(columns)
	if err != nil {
		return err
	}

	for _, term := range self.Right {
		err = term.Term.normalize(columns)
		if err != nil {
			return err
		}
	}
	return nil
}

func (self *_MultiplicationExpression) normalize(columns *[]string) error {
	err := self.Left.normalize(columns)
	if err != nil {
		return err
	}

	for _, term := range self.Right {
		err = term.Factor.normalize(columns)
		if err != nil {
			return err
		}
	}
	return nil
}

func (self *_Value) normalize(columns *[]string) error {
	if self.Subexpression != nil {
		return self.Subexpression.normalize(columns)
	}

	if self.Symbol != nil {
		if !utils.InString(columns, *self.Symbol) {
			*columns = append(*columns, *self.Symbol)
		}
		return nil
	}

	if self.StrNumber != nil {
		// Try to parse it as an integer.
		value, err := strconv.ParseInt(*self.StrNumber, 0, 64)
		if err == nil {
			self.Int = &value
			return nil
		}

		// Try a float now.
		float_value, err := strconv.ParseFloat(*self.StrNumber, 64)
		if err == nil {
			self.Float = &float_value
			return nil
		}

		return errors.Errorf("unable to parse %s as a number", *self.StrNumber)
	}

	if self.String != nil {
		self.cache = utils.Unquote(*self.String)

	} else if self.Boolean != nil {
		self.cache = strings.ToLower(*self.Boolean) == "true"

	} else {
		self.cache = types.Null{}
	}

	return nil
}

// If the whole subtree is a single string literal return it. Used to
// recognize literal regex patterns.
func (self *_AdditionExpression) literalString() (string, bool) {
	if len(self.Right) > 0 {
		return "", false
	}
	mult := self.Left
	if len(mult.Right) > 0 {
		return "", false
	}
	value := mult.Left
	if value.Negated || value.String == nil {
		return "", false
	}
	str, ok := value.cache.(string)
	return str, ok
}

// Evaluation. Boolean connectives fold their operands to truth
// values and short circuit, so the result of a connective is always a
// bool regardless of the operand types.

func (self *_OrExpression) Reduce(resolver Resolver) (types.Any, error) {
	result, err := self.Left.Reduce(resolver)
	if err != nil {
		return nil, err
	}
	if self.Right == nil {
		return result, nil
	}

	if utils.Bool(result) {
		return true, nil
	}

	for _, term := range self.Right {
		value, err := term.Term.Reduce(resolver)
		if err != nil {
			return nil, err
		}
		if utils.Bool(value) {
			return true, nil
		}
	}

	return false, nil
}

func (self *_AndExpression) Reduce(resolver Resolver) (types.Any, error) {
	result, err := self.Left.Reduce(resolver)
	if err != nil {
		return nil, err
	}
	if self.Right == nil {
		return result, nil
	}

	if !utils.Bool(result) {
		return false, nil
	}

	for _, term := range self.Right {
		value, err := term.Term.Reduce(resolver)
		if err != nil {
			return nil, err
		}
		if !utils.Bool(value) {
			return false, nil
		}
	}

	return true, nil
}

func (self *_NotExpression) Reduce(resolver Resolver) (types.Any, error) {
	if self.Not != nil {
		value, err := self.Not.Reduce(resolver)
		if err != nil {
			return nil, err
		}
		return !utils.Bool(value), nil
	}

	return self.Left.Reduce(resolver)
}

func (self *_ConditionOperand) Reduce(resolver Resolver) (types.Any, error) {
	lhs, err := self.Left.Reduce(resolver)
	if err != nil {
		return nil, err
	}
	if self.Right == nil {
		return lhs, nil
	}

	rhs, err := self.Right.Right.Reduce(resolver)
	if err != nil {
		return nil, err
	}

	var result, ok bool

	switch self.Right.Operator {
	case "<":
		result, ok = utils.Lt(lhs, rhs)
	case "==":
		result, ok = utils.Eq(lhs, rhs)
	case "!=":
		result, ok = utils.Eq(lhs, rhs)
		result = !result
	case "<=":
		var lt, eq bool
		lt, ok = utils.Lt(lhs, rhs)
		if ok {
			eq, ok = utils.Eq(lhs, rhs)
			result = lt || eq
		}
	case ">":
		result, ok = utils.Lt(rhs, lhs)
	case ">=":
		var lt, eq bool
		lt, ok = utils.Lt(rhs, lhs)
		if ok {
			eq, ok = utils.Eq(lhs, rhs)
			result = lt || eq
		}
	case "=~":
		return self.reduceMatch(lhs, rhs)
	}

	if !ok {
		return nil, errors.Errorf(
			"unsupported comparison %T %v %T",
			lhs, self.Right.Operator, rhs)
	}

	return result, nil
}

func (self *_ConditionOperand) reduceMatch(lhs, rhs types.Any) (types.Any, error) {
	re := self.Right.regex
	if re == nil {
		// The pattern is itself computed - compile it on each
		// evaluation.
		pattern, ok := utils.ToString(rhs)
		if !ok {
			return nil, errors.Errorf(
				"regex pattern must be a string, not %T", rhs)
		}

		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, "invalid regex")
		}
	}

	return utils.Match(re, lhs), nil
}

func (self *_AdditionExpression) Reduce(resolver Resolver) (types.Any, error) {
	result, err := self.Left.Reduce(resolver)
	if err != nil {
		return nil, err
	}

	for _, term := range self.Right {
		term_value, err := term.Term.Reduce(resolver)
		if err != nil {
			return nil, err
		}

		var ok bool
		switch term.Operator {
		case "+":
			result, ok = utils.Add(result, term_value)
		case "-":
			result, ok = utils.Sub(result, term_value)
		}
		if !ok {
			return nil, errors.Errorf(
				"unsupported operand types for %v: %T and %T",
				term.Operator, result, term_value)
		}
	}

	return result, nil
}

func (self *_MultiplicationExpression) Reduce(resolver Resolver) (types.Any, error) {
	result, err := self.Left.Reduce(resolver)
	if err != nil {
		return nil, err
	}

	for _, term := range self.Right {
		term_value, err := term.Factor.Reduce(resolver)
		if err != nil {
			return nil, err
		}

		var ok bool
		switch term.Operator {
		case "*":
			result, ok = utils.Mul(result, term_value)
		case "/":
			// Integer division by zero is an error, float
			// division follows IEEE.
			if utils.IsInt(result) && utils.IsInt(term_value) &&
				utils.IsZero(term_value) {
				return nil, errors.New("division by zero")
			}
			result, ok = utils.Div(result, term_value)
		case "%":
			if utils.IsZero(term_value) {
				return nil, errors.New("division by zero")
			}
			result, ok = utils.Mod(result, term_value)
		}
		if !ok {
			return nil, errors.Errorf(
				"unsupported operand types for %v: %T and %T",
				term.Operator, result, term_value)
		}
	}

	return result, nil
}

func (self *_Value) Reduce(resolver Resolver) (types.Any, error) {
	var result types.Any
	var err error

	switch {
	case self.Subexpression != nil:
		result, err = self.Subexpression.Reduce(resolver)
		if err != nil {
			return nil, err
		}

	case self.Symbol != nil:
		result, err = resolver.Resolve(*self.Symbol)
		if err != nil {
			return nil, err
		}

	case self.Int != nil:
		result = *self.Int

	case self.Float != nil:
		result = *self.Float

	default:
		result = self.cache
	}

	if self.Negated {
		return negate(result)
	}

	return result, nil
}

func negate(value types.Any) (types.Any, error) {
	if utils.IsInt(value) {
		i, _ := utils.ToInt64(value)
		return -i, nil
	}

	f, ok := utils.ToFloat(value)
	if !ok {
		return nil, errors.Errorf("unable to negate %T", value)
	}
	return -f, nil
}
