package commands

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// UserRef identifies a chat user.
type UserRef struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

// Name returns the best available human-readable name.
func (u UserRef) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Username != "":
		return u.Username
	default:
		return u.ID
	}
}

// Message is the chat message a context-menu command was invoked on.
type Message struct {
	ID        string
	ChannelID string
	Content   string
	Author    UserRef
}

// Value is a coerced option value. The zero Value means "not provided".
type Value struct {
	kind    OptionKind
	present bool
	str     string
	b       bool
	i       int64
	user    UserRef
}

// StringValue, BoolValue, IntValue and UserValue build present values.
func StringValue(s string) Value { return Value{kind: KindString, present: true, str: s} }
func BoolValue(b bool) Value { return Value{kind: KindBoolean, present: true, b: b} }
func IntValue(i int64) Value { return Value{kind: KindInteger, present: true, i: i} }
func UserValue(u UserRef) Value { return Value{kind: KindUser, present: true, user: u} }

// Kind returns the value kind, or 0 when absent.
func (v Value) Kind() OptionKind { return v.kind }

// Present reports whether the option was provided.
func (v Value) Present() bool { return v.present }

// String returns the string payload ("" unless KindString).
func (v Value) String() string { return v.str }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// User returns the user payload.
func (v Value) User() UserRef { return v.user }

// Options maps option names to coerced values.
type Options map[string]Value

// Get returns the value for name; absent options yield the zero Value.
func (o Options) Get(name string) Value { return o[name] }

// String returns the string option or "".
func (o Options) String(name string) string { return o[name].String() }

// Bool returns the boolean option or false.
func (o Options) Bool(name string) bool { return o[name].Bool() }

// Int returns the integer option or 0.
func (o Options) Int(name string) int64 { return o[name].Int() }

// User returns the user option and whether it was provided.
func (o Options) User(name string) (UserRef, bool) {
	v := o[name]
	return v.User(), v.Present()
}

// mentionPattern matches <@123> and <@!123> user mentions.
var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// snowflakePattern matches a bare numeric user ID.
var snowflakePattern = regexp.MustCompile(`^\d{5,20}$`)

// coerceOptions converts raw transport values into typed Options.
func coerceOptions(spec Spec, raw map[string]any) (Options, error) {
	opts := make(Options, len(spec.Options))
	for _, o := range spec.Options {
		rv, ok := raw[o.Name]
		if ok {
			if s, isStr := rv.(string); isStr && strings.TrimSpace(s) == "" {
				ok = false
			}
		}
		if !ok || rv == nil {
			if o.Required {
				return nil, &DispatchError{Kind: InvalidOption, Command: spec.Name, Option: o.Name, Err: errMissingOption}
			}
			continue
		}
		v, err := coerce(o.Kind, rv)
		if err != nil {
			return nil, &DispatchError{Kind: InvalidOption, Command: spec.Name, Option: o.Name, Err: err}
		}
		opts[o.Name] = v
	}
	return opts, nil
}

// coerce converts a single raw value to the requested kind.
func coerce(kind OptionKind, raw any) (Value, error) {
	switch kind {
	case KindString:
		switch v := raw.(type) {
		case string:
			return StringValue(v), nil
		case json.Number:
			return StringValue(v.String()), nil
		}

	case KindBoolean:
		switch v := raw.(type) {
		case bool:
			return BoolValue(v), nil
		case string:
			b, err := parseBool(v)
			if err != nil {
				return Value{}, err
			}
			return BoolValue(b), nil
		}

	case KindInteger:
		switch v := raw.(type) {
		case int:
			return IntValue(int64(v)), nil
		case int32:
			return IntValue(int64(v)), nil
		case int64:
			return IntValue(v), nil
		case float64:
			if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
				return Value{}, fmt.Errorf("%v is not a whole number", v)
			}
			return IntValue(int64(v)), nil
		case json.Number:
			i, err := v.Int64()
			if err != nil {
				return Value{}, fmt.Errorf("%q is not a whole number", v.String())
			}
			return IntValue(i), nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("%q is not a whole number", v)
			}
			return IntValue(i), nil
		}

	case KindUser:
		switch v := raw.(type) {
		case UserRef:
			if v.ID == "" {
				return Value{}, fmt.Errorf("user reference without an ID")
			}
			return UserValue(v), nil
		case *UserRef:
			if v == nil || v.ID == "" {
				return Value{}, fmt.Errorf("user reference without an ID")
			}
			return UserValue(*v), nil
		case string:
			s := strings.TrimSpace(v)
			if m := mentionPattern.FindStringSubmatch(s); m != nil {
				return UserValue(UserRef{ID: m[1]}), nil
			}
			if snowflakePattern.MatchString(s) {
				return UserValue(UserRef{ID: s}), nil
			}
			return Value{}, fmt.Errorf("%q is not a user mention", v)
		}
	}

	return Value{}, fmt.Errorf("expected %s, got %T", kind, raw)
}

// parseBool accepts the usual spellings people type in chat.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "on", "1":
		return true, nil
	case "false", "no", "n", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not true or false", s)
}
