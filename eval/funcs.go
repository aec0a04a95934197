// Copyright 2024 The Quadkit Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/voc/xsd"
)

func (e *Evaluator) evalFuncCall(b binding.Binding, ex algebra.FuncCall) (term.Term, error) {
	// Type predicates never error, even when their argument fails to
	// evaluate or has the wrong kind (§4.5).
	switch ex.Name {
	case "isIRI", "isURI", "isBlank", "isLiteral", "isNumeric":
		return e.evalTypePredicate(b, ex)
	}

	args := make([]term.Term, len(ex.Args))
	for i, a := range ex.Args {
		v, err := e.Eval(b, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch ex.Name {
	case "STR":
		return term.NewString(lexicalOf(args[0])), nil
	case "LANG":
		lit, ok := args[0].(term.Literal)
		if !ok {
			return nil, typeErr("literal", args[0])
		}
		return term.NewString(lit.Lang), nil
	case "LANGMATCHES":
		tag, lit1 := args[0].(term.Literal)
		rng, lit2 := args[1].(term.Literal)
		if !lit1 || !lit2 {
			return nil, typeErr("string literal", args[0])
		}
		return boolTerm(langMatches(tag.Lexical, rng.Lexical)), nil
	case "DATATYPE":
		lit, ok := args[0].(term.Literal)
		if !ok {
			return nil, typeErr("literal", args[0])
		}
		return term.IRI(datatypeOf(lit)), nil
	case "IRI", "URI":
		switch v := args[0].(type) {
		case term.IRI:
			return v, nil
		case term.Literal:
			return term.IRI(v.Lexical), nil
		}
		return nil, typeErr("IRI or string literal", args[0])
	case "BNODE":
		return e.Dict.NewBlankNode(), nil
	case "RAND":
		return term.NewTyped(strconv.FormatFloat(rand.Float64(), 'g', -1, 64), term.IRI(xsd.Double)), nil
	case "ABS", "CEIL", "FLOOR", "ROUND":
		return evalRounding(ex.Name, args[0])
	case "CONCAT":
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(lexicalOf(a))
		}
		return term.NewString(sb.String()), nil
	case "STRLEN":
		s, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		return term.NewTyped(strconv.Itoa(utf8.RuneCountInString(s)), term.IRI(xsd.Integer)), nil
	case "UCASE":
		s, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		return term.NewString(strings.ToUpper(s)), nil
	case "LCASE":
		s, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		return term.NewString(strings.ToLower(s)), nil
	case "ENCODE_FOR_URI":
		s, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		return term.NewString(encodeForURI(s)), nil
	case "CONTAINS":
		a, b2, err := stringPair(args)
		if err != nil {
			return nil, err
		}
		return boolTerm(strings.Contains(a, b2)), nil
	case "STRSTARTS":
		a, b2, err := stringPair(args)
		if err != nil {
			return nil, err
		}
		return boolTerm(strings.HasPrefix(a, b2)), nil
	case "STRENDS":
		a, b2, err := stringPair(args)
		if err != nil {
			return nil, err
		}
		return boolTerm(strings.HasSuffix(a, b2)), nil
	case "STRBEFORE":
		a, b2, err := stringPair(args)
		if err != nil {
			return nil, err
		}
		if i := strings.Index(a, b2); i >= 0 {
			return term.NewString(a[:i]), nil
		}
		return term.NewString(""), nil
	case "STRAFTER":
		a, b2, err := stringPair(args)
		if err != nil {
			return nil, err
		}
		if i := strings.Index(a, b2); i >= 0 {
			return term.NewString(a[i+len(b2):]), nil
		}
		return term.NewString(""), nil
	case "SUBSTR":
		return evalSubstr(args)
	case "REPLACE":
		return evalReplace(args)
	case "REGEX":
		return evalRegex(args)
	case "NOW":
		return term.NewTyped(time.Now().UTC().Format(time.RFC3339), term.IRI(xsd.DateTime)), nil
	case "YEAR", "MONTH", "DAY", "HOURS", "MINUTES", "SECONDS", "TIMEZONE", "TZ":
		return evalDateTimePart(ex.Name, args[0])
	case "MD5":
		return hashFunc(args[0], md5.New())
	case "SHA1":
		return hashFunc(args[0], sha1.New())
	case "SHA256":
		return hashFunc(args[0], sha256.New())
	case "SHA384":
		return hashFunc(args[0], sha512.New384())
	case "SHA512":
		return hashFunc(args[0], sha512.New())
	case "UUID":
		return term.IRI("urn:uuid:" + uuid.New().String()), nil
	case "STRUUID":
		return term.NewString(uuid.New().String()), nil
	case "STRDT":
		lit, ok := args[0].(term.Literal)
		if !ok {
			return nil, typeErr("simple literal", args[0])
		}
		dt, ok := args[1].(term.IRI)
		if !ok {
			return nil, typeErr("datatype IRI", args[1])
		}
		return term.NewTyped(lit.Lexical, dt), nil
	case "STRLANG":
		lit, ok := args[0].(term.Literal)
		if !ok {
			return nil, typeErr("simple literal", args[0])
		}
		tag, ok := args[1].(term.Literal)
		if !ok {
			return nil, typeErr("language tag literal", args[1])
		}
		return term.NewLangString(lit.Lexical, tag.Lexical), nil
	}

	if e.Ext != nil {
		return e.Ext.Call(ex.Name, args)
	}
	return nil, &kgerr.UnsupportedOperation{What: "function " + ex.Name}
}

func (e *Evaluator) evalTypePredicate(b binding.Binding, ex algebra.FuncCall) (term.Term, error) {
	v, err := e.Eval(b, ex.Args[0])
	if err != nil {
		return boolTerm(false), nil
	}
	switch ex.Name {
	case "isIRI", "isURI":
		_, ok := v.(term.IRI)
		return boolTerm(ok), nil
	case "isBlank":
		_, ok := v.(term.BlankNode)
		return boolTerm(ok), nil
	case "isLiteral":
		_, ok := v.(term.Literal)
		return boolTerm(ok), nil
	case "isNumeric":
		_, err := asNumeric(v)
		return boolTerm(err == nil), nil
	}
	return boolTerm(false), nil
}

func xsdIRI(local string) term.IRI {
	return term.IRI("http://www.w3.org/2001/XMLSchema#" + local)
}

// datatypeOf mirrors Literal's own effective-datatype rule (language-tagged
// literals report rdf:langString, untyped literals report xsd:string) since
// that logic isn't exported from the term package.
func datatypeOf(lit term.Literal) string {
	if lit.Lang != "" {
		return "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
	}
	if lit.Datatype == "" {
		return term.XSDString
	}
	return string(lit.Datatype)
}

func lexicalOf(t term.Term) string {
	switch v := t.(type) {
	case term.IRI:
		return string(v)
	case term.Literal:
		return v.Lexical
	case term.BlankNode:
		return string(v)
	}
	return t.String()
}

func stringArg(t term.Term) (string, error) {
	lit, ok := t.(term.Literal)
	if !ok {
		return "", typeErr("string literal", t)
	}
	return lit.Lexical, nil
}

func stringPair(args []term.Term) (string, string, error) {
	a, err := stringArg(args[0])
	if err != nil {
		return "", "", err
	}
	b, err := stringArg(args[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func typeErr(expected string, got term.Term) error {
	return &kgerr.TypeMismatch{Expected: expected, Got: got.String()}
}

func langMatches(tag, rng string) bool {
	tag, rng = strings.ToLower(tag), strings.ToLower(rng)
	if rng == "*" {
		return tag != ""
	}
	if tag == rng {
		return true
	}
	return strings.HasPrefix(tag, rng+"-")
}

func evalRounding(name string, t term.Term) (term.Term, error) {
	n, err := asNumeric(t)
	if err != nil {
		return nil, err
	}
	if name == "ABS" {
		if n.kind == numInteger {
			if n.i < 0 {
				n.i = -n.i
			}
			n.f = float64(n.i)
			return n.toTerm(), nil
		}
		n.f = math.Abs(n.f)
		return n.toTerm(), nil
	}
	if n.kind == numInteger {
		return n.toTerm(), nil
	}
	switch name {
	case "CEIL":
		n.f = math.Ceil(n.f)
	case "FLOOR":
		n.f = math.Floor(n.f)
	case "ROUND":
		n.f = math.Round(n.f)
	}
	return n.toTerm(), nil
}

// encodeForURI percent-encodes everything outside RFC 3986's unreserved
// set, matching ENCODE_FOR_URI's contract (net/url.QueryEscape differs on
// spaces and a few punctuation characters, so it isn't a drop-in here).
func encodeForURI(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}

func evalSubstr(args []term.Term) (term.Term, error) {
	s, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	startN, err := asNumeric(args[1])
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	// XPath substring is 1-indexed and tolerant of out-of-range bounds.
	start := int(math.Round(startN.asFloat())) - 1
	end := len(runes)
	if len(args) > 2 {
		lenN, err := asNumeric(args[2])
		if err != nil {
			return nil, err
		}
		end = start + int(math.Round(lenN.asFloat()))
	}
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return term.NewString(""), nil
	}
	return term.NewString(string(runes[start:end])), nil
}

func compileWithFlags(pattern, flags string) (*regexp.Regexp, error) {
	var prefix string
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			prefix += string(f)
		case 'x':
			pattern = stripExtendedWhitespace(pattern)
		default:
			return nil, &kgerr.TypeMismatch{Expected: "regex flag i/s/m/x", Got: string(f)}
		}
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}
	return regexp.Compile(pattern)
}

// stripExtendedWhitespace approximates the 'x' (extended/verbose) REGEX
// flag, which Go's RE2 engine doesn't support natively: drop unescaped
// whitespace from the pattern.
func stripExtendedWhitespace(pattern string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range pattern {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			sb.WriteRune(r)
			continue
		}
		if r == ' ' || r == '\t' || r == '\n' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func evalReplace(args []term.Term) (term.Term, error) {
	s, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	pat, err := stringArg(args[1])
	if err != nil {
		return nil, err
	}
	repl, err := stringArg(args[2])
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(args) > 3 {
		flags, err = stringArg(args[3])
		if err != nil {
			return nil, err
		}
	}
	re, err := compileWithFlags(pat, flags)
	if err != nil {
		return nil, &kgerr.TypeMismatch{Expected: "valid REGEX pattern", Got: pat}
	}
	goRepl := translateBackrefs(repl)
	return term.NewString(re.ReplaceAllString(s, goRepl)), nil
}

// translateBackrefs rewrites XPath's $1-style backreferences to Go's
// ${1} form used by regexp.ReplaceAllString.
func translateBackrefs(repl string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] == '$' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9' {
			j := i + 1
			for j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}
			sb.WriteString("${" + repl[i+1:j] + "}")
			i = j - 1
			continue
		}
		sb.WriteByte(repl[i])
	}
	return sb.String()
}

func evalRegex(args []term.Term) (term.Term, error) {
	s, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	pat, err := stringArg(args[1])
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(args) > 2 {
		flags, err = stringArg(args[2])
		if err != nil {
			return nil, err
		}
	}
	re, err := compileWithFlags(pat, flags)
	if err != nil {
		return nil, &kgerr.TypeMismatch{Expected: "valid REGEX pattern", Got: pat}
	}
	return boolTerm(re.MatchString(s)), nil
}

func evalDateTimePart(name string, t term.Term) (term.Term, error) {
	lit, ok := t.(term.Literal)
	if !ok {
		return nil, typeErr("xsd:dateTime literal", t)
	}
	parsed, err := time.Parse(time.RFC3339, lit.Lexical)
	if err != nil {
		return nil, &kgerr.InvalidLiteral{Lexical: lit.Lexical, Datatype: string(lit.Datatype)}
	}
	switch name {
	case "YEAR":
		return term.NewTyped(strconv.Itoa(parsed.Year()), term.IRI(xsd.Integer)), nil
	case "MONTH":
		return term.NewTyped(strconv.Itoa(int(parsed.Month())), term.IRI(xsd.Integer)), nil
	case "DAY":
		return term.NewTyped(strconv.Itoa(parsed.Day()), term.IRI(xsd.Integer)), nil
	case "HOURS":
		return term.NewTyped(strconv.Itoa(parsed.Hour()), term.IRI(xsd.Integer)), nil
	case "MINUTES":
		return term.NewTyped(strconv.Itoa(parsed.Minute()), term.IRI(xsd.Integer)), nil
	case "SECONDS":
		return term.NewTyped(strconv.Itoa(parsed.Second()), term.IRI(xsd.Integer)), nil
	case "TIMEZONE":
		_, offset := parsed.Zone()
		return term.NewTyped(formatXSDDuration(offset), xsdIRI("dayTimeDuration")), nil
	case "TZ":
		name, _ := parsed.Zone()
		if name == "UTC" {
			return term.NewString("Z"), nil
		}
		return term.NewString(parsed.Format("-07:00")), nil
	}
	return nil, &kgerr.UnsupportedOperation{What: name}
}

func formatXSDDuration(offsetSeconds int) string {
	sign := ""
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	h := offsetSeconds / 3600
	m := (offsetSeconds % 3600) / 60
	if m == 0 {
		return fmt.Sprintf("%sPT%dH", sign, h)
	}
	return fmt.Sprintf("%sPT%dH%dM", sign, h, m)
}

func hashFunc(t term.Term, h hash.Hash) (term.Term, error) {
	s, err := stringArg(t)
	if err != nil {
		return nil, err
	}
	h.Write([]byte(s))
	return term.NewString(hex.EncodeToString(h.Sum(nil))), nil
}
