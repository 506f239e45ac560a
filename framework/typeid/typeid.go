// Package typeid identifies the types the container caches and constructs.
//
// A type's identity is its reflect.Type, which is unique per Go type. Two
// types that share a name in different packages never collide. Name only
// renders an identity for humans (errors, logs, graph dumps).
package typeid

import (
	"path"
	"reflect"
	"strings"
)

// Of returns the identity of T. It works for interface types too, which
// reflect.TypeOf cannot see through a nil value.
func Of[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// OfValue returns the identity of v's dynamic type, or nil for a nil interface.
func OfValue(v any) reflect.Type {
	return reflect.TypeOf(v)
}

// Name renders t as a short "pkg.Type" name, keeping pointer, slice, array,
// map and channel markers so that T and *T stay distinguishable. Generic
// instantiations keep their type arguments, with package paths shortened:
// "store.Cache[*user.Account]".
func Name(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + Name(t.Elem())
	case reflect.Slice:
		if t.Name() == "" {
			return "[]" + Name(t.Elem())
		}
	case reflect.Map:
		if t.Name() == "" {
			return "map[" + Name(t.Key()) + "]" + Name(t.Elem())
		}
	case reflect.Chan:
		if t.Name() == "" {
			return t.ChanDir().String() + " " + Name(t.Elem())
		}
	}

	name := t.Name()
	if name == "" {
		return t.String()
	}
	name = shortenPaths(name)
	if p := t.PkgPath(); p != "" {
		return path.Base(p) + "." + name
	}
	return name
}

// shortenPaths cuts every import path inside a generic name down to its
// last element: "Box[example.com/app/user.ID]" -> "Box[user.ID]".
func shortenPaths(s string) string {
	if !strings.ContainsRune(s, '/') {
		return s
	}
	var b strings.Builder
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && !strings.ContainsRune("[], *()", rune(s[i])) {
			continue
		}
		tok := s[start:i]
		if j := strings.LastIndexByte(tok, '/'); j >= 0 {
			tok = tok[j+1:]
		}
		b.WriteString(tok)
		if i < len(s) {
			b.WriteByte(s[i])
		}
		start = i + 1
	}
	return b.String()
}
